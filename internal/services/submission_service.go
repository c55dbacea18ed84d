package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDuplicateDraft is returned by stores when inserting a response whose
// draft id already exists. The store's uniqueness constraint is the
// authoritative anti-double-submit mechanism; the pre-insert lookup is only
// an optimization.
var ErrDuplicateDraft = errors.New("duplicate draft id")

// SubmissionStore abstracts persistence for the submission pipeline.
// InsertResponseWithAnswers must be atomic: either the response row and all
// its answers become visible together, or nothing does.
type SubmissionStore interface {
	GetForm(id string) (*Form, error)
	ListQuestions(formID string) ([]*Question, error)
	GetResponseByDraftID(draftID string) (*Response, error)
	InsertResponseWithAnswers(r *Response, answers []*Answer) error
}

// Limiter admits or rejects an attempt for a client key. A nil limiter on
// the service disables throttling (tests, trusted internal callers).
type Limiter interface {
	Allow(key string) bool
}

// SubmissionRequest carries one sanitized submission attempt into the
// service layer.
type SubmissionRequest struct {
	FormID          string
	DraftID         string
	Anonymous       bool
	RespondentName  string
	RespondentEmail string
	Need1on1        bool
	PreferredDate   string
	PreferredTime   string
	Answers         []SubmittedAnswer
	// ClientKey identifies the submitting client for rate limiting,
	// typically its network address.
	ClientKey string
}

// SubmissionResult is the success shape for both fresh inserts and
// idempotent replays. Replayed is set when an earlier submission with the
// same draft id already produced the response.
type SubmissionResult struct {
	ResponseID string
	Replayed   bool
}

// SubmissionService is the admission gate in front of the response writer:
// rate limit, then draft-id dedup, then form availability, then validation,
// then the atomic insert. The order is fixed; no step is skipped.
type SubmissionService struct {
	store   SubmissionStore
	limiter Limiter
	now     func() time.Time
	idGen   func() string
}

func NewSubmissionService(store SubmissionStore, limiter Limiter) *SubmissionService {
	return &SubmissionService{
		store:   store,
		limiter: limiter,
		now:     func() time.Time { return time.Now().UTC() },
		idGen:   func() string { return shortID(12) },
	}
}

func (s *SubmissionService) Submit(req SubmissionRequest) (*SubmissionResult, error) {
	if s.store == nil {
		return nil, errors.New("submission service store is nil")
	}
	if s.limiter != nil && !s.limiter.Allow(req.ClientKey) {
		return nil, NewTooManyRequestsError("too many submissions, please try again later")
	}
	if strings.TrimSpace(req.FormID) == "" || strings.TrimSpace(req.DraftID) == "" {
		return nil, NewInvalidError("form_id and draft_id required")
	}

	// Retried submissions (double clicks, network retries, timeouts that
	// actually landed) resolve here without re-validating or re-inserting.
	existing, err := s.store.GetResponseByDraftID(req.DraftID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &SubmissionResult{ResponseID: existing.ID, Replayed: true}, nil
	}

	form, err := s.store.GetForm(req.FormID)
	if err != nil {
		return nil, err
	}
	if err := checkFormOpen(form, s.now()); err != nil {
		return nil, err
	}

	questions, err := s.store.ListQuestions(req.FormID)
	if err != nil {
		return nil, err
	}
	if err := ValidateAnswers(questions, req.Answers); err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(questions))
	for _, q := range questions {
		known[q.ID] = true
	}

	resp := &Response{
		ID:              s.idGen(),
		FormID:          req.FormID,
		DraftID:         req.DraftID,
		Anonymous:       req.Anonymous,
		RespondentName:  req.RespondentName,
		RespondentEmail: req.RespondentEmail,
		Need1on1:        req.Need1on1,
		PreferredDate:   req.PreferredDate,
		PreferredTime:   req.PreferredTime,
		Status:          StatusNew,
		CreatedAt:       s.now(),
	}
	answers := make([]*Answer, 0, len(req.Answers))
	for _, a := range req.Answers {
		if !known[a.QuestionID] || emptyValue(a.Value) {
			continue
		}
		answers = append(answers, &Answer{
			ID:         s.idGen(),
			ResponseID: resp.ID,
			QuestionID: a.QuestionID,
			Value:      a.Value,
		})
	}

	if err := s.store.InsertResponseWithAnswers(resp, answers); err != nil {
		if errors.Is(err, ErrDuplicateDraft) {
			// Lost a race with a concurrent submission for the same draft
			// id. Converge on the winner's response so retries stay
			// idempotent from the caller's point of view.
			winner, lerr := s.store.GetResponseByDraftID(req.DraftID)
			if lerr == nil && winner != nil {
				return &SubmissionResult{ResponseID: winner.ID, Replayed: true}, nil
			}
			return nil, &ServiceError{
				Code:    ErrorConflict,
				Reason:  "duplicate_submission",
				Message: "duplicate submission detected",
			}
		}
		return nil, err
	}
	return &SubmissionResult{ResponseID: resp.ID}, nil
}

// checkFormOpen applies the availability gates in order: existence, active
// flag, then the optional submission window.
func checkFormOpen(form *Form, now time.Time) error {
	if form == nil {
		return &ServiceError{Code: ErrorNotFound, Reason: "not_found", Message: "form not found"}
	}
	if !form.IsActive {
		return NewUnavailableError("inactive", "this form is no longer active")
	}
	if form.StartAt != nil && now.Before(*form.StartAt) {
		return NewUnavailableError("not_yet_open", fmt.Sprintf("form opens at %s", form.StartAt.Format(time.RFC3339)))
	}
	if form.EndAt != nil && now.After(*form.EndAt) {
		return NewUnavailableError("expired", "form has expired")
	}
	return nil
}
