package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReviewService(store *stubStore) *ReviewService {
	svc := NewReviewService(store, NewRoleAuthorizer(ReviewerRoles...))
	svc.now = func() time.Time { return time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC) }
	return svc
}

func reviewer() Actor { return Actor{ID: "u1", Email: "rev@example.com", Role: "reviewer"} }

func TestUpdateStatusStampsReviewer(t *testing.T) {
	store := newStubStore()
	store.responses["r1"] = &Response{ID: "r1", FormID: "f1", Status: StatusNew}
	svc := newTestReviewService(store)

	resp, err := svc.UpdateStatus(reviewer(), "r1", StatusReviewed)
	require.NoError(t, err)
	assert.Equal(t, StatusReviewed, resp.Status)
	assert.Equal(t, "u1", resp.ReviewedBy)
	require.NotNil(t, resp.ReviewedAt)

	stored := store.responses["r1"]
	assert.Equal(t, StatusReviewed, stored.Status)
	assert.Equal(t, "u1", stored.ReviewedBy)

	require.Len(t, store.audits, 1)
	assert.Equal(t, "update_status", store.audits[0].Action)
	assert.Equal(t, "r1", store.audits[0].Target)
	assert.Equal(t, string(StatusReviewed), store.audits[0].Note)
}

func TestUpdateStatusAnyTransitionAllowed(t *testing.T) {
	store := newStubStore()
	store.responses["r1"] = &Response{ID: "r1", FormID: "f1", Status: StatusClosed}
	svc := newTestReviewService(store)

	// Closed is not terminal; any of the four statuses may follow any other.
	for _, target := range []Status{StatusNew, StatusFollowupPending, StatusReviewed, StatusClosed} {
		resp, err := svc.UpdateStatus(reviewer(), "r1", target)
		require.NoError(t, err)
		assert.Equal(t, target, resp.Status)
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	store := newStubStore()
	store.responses["r1"] = &Response{ID: "r1", Status: StatusNew}
	svc := newTestReviewService(store)

	_, err := svc.UpdateStatus(reviewer(), "r1", Status("archived"))
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorInvalid, se.Code)
	assert.Equal(t, "invalid_status", se.Reason)
	assert.Equal(t, StatusNew, store.responses["r1"].Status, "response must be untouched")
}

func TestUpdateStatusRequiresReviewerRole(t *testing.T) {
	store := newStubStore()
	store.responses["r1"] = &Response{ID: "r1", Status: StatusNew}
	svc := newTestReviewService(store)

	cases := []Actor{
		{ID: "u2", Role: "respondent"},
		{ID: "", Role: "admin"},
		{},
	}
	for _, actor := range cases {
		_, err := svc.UpdateStatus(actor, "r1", StatusReviewed)
		se, ok := AsServiceError(err)
		require.True(t, ok, "actor %+v", actor)
		assert.Equal(t, ErrorUnauthorized, se.Code)
	}
	assert.Equal(t, StatusNew, store.responses["r1"].Status)
	assert.Empty(t, store.audits)
}

func TestUpdateStatusAllReviewerRoles(t *testing.T) {
	store := newStubStore()
	store.responses["r1"] = &Response{ID: "r1", Status: StatusNew}
	svc := newTestReviewService(store)

	for _, role := range ReviewerRoles {
		_, err := svc.UpdateStatus(Actor{ID: "u-" + role, Role: role}, "r1", StatusReviewed)
		require.NoError(t, err, "role %s", role)
	}
}

func TestUpdateStatusUnknownResponse(t *testing.T) {
	svc := newTestReviewService(newStubStore())
	_, err := svc.UpdateStatus(reviewer(), "missing", StatusReviewed)
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorNotFound, se.Code)
}
