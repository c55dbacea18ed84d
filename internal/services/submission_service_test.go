package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type allowAll struct{}

func (allowAll) Allow(string) bool { return true }

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

// seedOpenForm installs an active form with one required text question and
// one points100 question, mirroring a typical live survey.
func seedOpenForm(store *stubStore) {
	store.forms["f1"] = &Form{ID: "f1", Title: "Retreat", IsActive: true}
	store.blocks["b1"] = &Block{ID: "b1", FormID: "f1", Title: "B1"}
	store.questions["q1"] = &Question{ID: "q1", FormID: "f1", BlockID: "b1", Key: "name", Type: TypeText, Required: true}
	store.questions["q2"] = &Question{ID: "q2", FormID: "f1", BlockID: "b1", Key: "split", Type: TypePoints100, Required: true}
}

func newTestSubmissionService(store *stubStore, limiter Limiter) *SubmissionService {
	svc := NewSubmissionService(store, limiter)
	next := 0
	svc.idGen = func() string {
		next++
		return "id" + string(rune('0'+next))
	}
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func validRequest() SubmissionRequest {
	return SubmissionRequest{
		FormID:  "f1",
		DraftID: "d1",
		Answers: []SubmittedAnswer{
			{QuestionID: "q1", Value: json.RawMessage(`"Jo"`)},
			{QuestionID: "q2", Value: json.RawMessage(`{"A":60,"B":40}`)},
		},
		ClientKey: "1.2.3.4",
	}
}

func TestSubmitInsertsResponseWithAnswers(t *testing.T) {
	store := newStubStore()
	seedOpenForm(store)
	svc := newTestSubmissionService(store, allowAll{})

	res, err := svc.Submit(validRequest())
	require.NoError(t, err)
	assert.False(t, res.Replayed)
	require.NotEmpty(t, res.ResponseID)

	resp := store.responses[res.ResponseID]
	require.NotNil(t, resp)
	assert.Equal(t, StatusNew, resp.Status)
	assert.Len(t, store.answers, 2)
}

func TestSubmitReplaysExistingDraft(t *testing.T) {
	store := newStubStore()
	seedOpenForm(store)
	svc := newTestSubmissionService(store, allowAll{})

	first, err := svc.Submit(validRequest())
	require.NoError(t, err)

	second, err := svc.Submit(validRequest())
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.ResponseID, second.ResponseID)
	assert.Len(t, store.answers, 2, "replay must not re-insert answers")
}

func TestSubmitReplaySkipsValidation(t *testing.T) {
	store := newStubStore()
	seedOpenForm(store)
	svc := newTestSubmissionService(store, allowAll{})

	first, err := svc.Submit(validRequest())
	require.NoError(t, err)

	// A retry with a now-invalid payload still resolves to the stored
	// response: dedup runs before validation.
	retry := validRequest()
	retry.Answers = nil
	res, err := svc.Submit(retry)
	require.NoError(t, err)
	assert.True(t, res.Replayed)
	assert.Equal(t, first.ResponseID, res.ResponseID)
}

func TestSubmitRateLimited(t *testing.T) {
	store := newStubStore()
	seedOpenForm(store)
	svc := newTestSubmissionService(store, denyAll{})

	_, err := svc.Submit(validRequest())
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorTooManyRequests, se.Code)
}

func TestSubmitAvailabilityGates(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name   string
		form   *Form
		code   ErrorCode
		reason string
	}{
		{"missing form", nil, ErrorNotFound, "not_found"},
		{"inactive", &Form{ID: "f1", Title: "F"}, ErrorForbidden, "inactive"},
		{"not yet open", &Form{ID: "f1", Title: "F", IsActive: true, StartAt: &future}, ErrorForbidden, "not_yet_open"},
		{"expired", &Form{ID: "f1", Title: "F", IsActive: true, EndAt: &past}, ErrorForbidden, "expired"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newStubStore()
			if tc.form != nil {
				store.forms["f1"] = tc.form
			}
			svc := newTestSubmissionService(store, allowAll{})
			req := validRequest()
			req.Answers = nil
			_, err := svc.Submit(req)
			se, ok := AsServiceError(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tc.code, se.Code)
			assert.Equal(t, tc.reason, se.Reason)
		})
	}
}

func TestSubmitRejectsInvalidAnswers(t *testing.T) {
	store := newStubStore()
	seedOpenForm(store)
	svc := newTestSubmissionService(store, allowAll{})

	req := validRequest()
	req.Answers[1].Value = json.RawMessage(`{"A":60,"B":30}`)
	_, err := svc.Submit(req)
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "points_sum_mismatch", se.Reason)
	assert.Equal(t, "q2", se.QuestionID)
	assert.Empty(t, store.responses, "nothing may be persisted on validation failure")
}

func TestSubmitSkipsUnknownAndEmptyAnswers(t *testing.T) {
	store := newStubStore()
	seedOpenForm(store)
	store.questions["q3"] = &Question{ID: "q3", FormID: "f1", BlockID: "b1", Key: "note", Type: TypeTextarea}
	svc := newTestSubmissionService(store, allowAll{})

	req := validRequest()
	req.Answers = append(req.Answers,
		SubmittedAnswer{QuestionID: "ghost", Value: json.RawMessage(`"x"`)},
		SubmittedAnswer{QuestionID: "q3", Value: json.RawMessage(`null`)},
	)
	res, err := svc.Submit(req)
	require.NoError(t, err)
	require.False(t, res.Replayed)
	assert.Len(t, store.answers, 2, "unknown and empty answers are dropped")
}

func TestSubmitRacedDuplicateConvergesOnWinner(t *testing.T) {
	store := newStubStore()
	seedOpenForm(store)
	svc := newTestSubmissionService(store, allowAll{})

	// The winner lands between our dedup lookup and our insert: the insert
	// hits the uniqueness constraint and the re-lookup finds the winner.
	store.insertResponseErr = ErrDuplicateDraft
	store.onInsert = func() {
		store.responses["winner"] = &Response{ID: "winner", FormID: "f1", DraftID: "d1", Status: StatusNew}
		store.byDraft["d1"] = "winner"
	}

	res, err := svc.Submit(validRequest())
	require.NoError(t, err)
	assert.True(t, res.Replayed)
	assert.Equal(t, "winner", res.ResponseID)
}

func TestSubmitRacedDuplicateWithoutVisibleWinnerConflicts(t *testing.T) {
	store := newStubStore()
	seedOpenForm(store)
	svc := newTestSubmissionService(store, allowAll{})

	// Constraint violation but no readable winner: the caller gets a
	// conflict instead of a fabricated success.
	store.insertResponseErr = ErrDuplicateDraft

	_, err := svc.Submit(validRequest())
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorConflict, se.Code)
	assert.Equal(t, "duplicate_submission", se.Reason)
}

func TestSubmitRequiresFormAndDraftIDs(t *testing.T) {
	store := newStubStore()
	seedOpenForm(store)
	svc := newTestSubmissionService(store, nil)

	_, err := svc.Submit(SubmissionRequest{FormID: "f1"})
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorInvalid, se.Code)

	_, err = svc.Submit(SubmissionRequest{DraftID: "d1"})
	_, ok = AsServiceError(err)
	require.True(t, ok)
}
