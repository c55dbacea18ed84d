package services

import "errors"

// DraftPhase is the lifecycle of a client-held pending submission. The
// server's dedup by draft id is the source of truth; this type models the
// optimistic client side so its transitions are explicit and testable.
type DraftPhase string

const (
	DraftEditing    DraftPhase = "editing"
	DraftSubmitting DraftPhase = "submitting"
	DraftSettled    DraftPhase = "settled"
)

var (
	// ErrDraftNotEditing rejects Submit outside the editing phase.
	ErrDraftNotEditing = errors.New("draft is not in the editing phase")
	// ErrDraftNotSubmitting rejects Succeed/Fail outside the submitting phase.
	ErrDraftNotSubmitting = errors.New("draft is not in the submitting phase")
)

// PendingSubmission tracks one draft through editing -> submitting ->
// settled(responseID). Transitions happen only through explicit events;
// there is no background sync. A failed attempt returns to editing with the
// same draft id, which is what makes the eventual retry idempotent.
type PendingSubmission struct {
	draftID    string
	phase      DraftPhase
	responseID string
}

func NewPendingSubmission(draftID string) *PendingSubmission {
	return &PendingSubmission{draftID: draftID, phase: DraftEditing}
}

func (p *PendingSubmission) DraftID() string { return p.draftID }

func (p *PendingSubmission) Phase() DraftPhase { return p.phase }

// ResponseID returns the settled response id, empty until settled.
func (p *PendingSubmission) ResponseID() string { return p.responseID }

// Submit marks the draft in flight.
func (p *PendingSubmission) Submit() error {
	if p.phase != DraftEditing {
		return ErrDraftNotEditing
	}
	p.phase = DraftSubmitting
	return nil
}

// Succeed settles the draft on the server-assigned response id. A replayed
// submission settles on the original id the same way.
func (p *PendingSubmission) Succeed(responseID string) error {
	if p.phase != DraftSubmitting {
		return ErrDraftNotSubmitting
	}
	p.phase = DraftSettled
	p.responseID = responseID
	return nil
}

// Fail returns the draft to editing so the user can correct and resubmit
// under the same draft id.
func (p *PendingSubmission) Fail() error {
	if p.phase != DraftSubmitting {
		return ErrDraftNotSubmitting
	}
	p.phase = DraftEditing
	return nil
}
