package services

import "time"

// Actor is the authenticated user attempting a mutation.
type Actor struct {
	ID    string
	Email string
	Role  string
}

// Authorizer decides whether an actor may mutate responses. The source
// system hid this decision inside row-level security; here it is an explicit
// interface the state machine consults before every write.
type Authorizer interface {
	CanReview(actor Actor) bool
}

// ReviewerRoles are the roles allowed to transition response statuses.
var ReviewerRoles = []string{"admin", "reviewer", "pastor", "leader"}

// RoleAuthorizer allows a fixed set of roles.
type RoleAuthorizer struct {
	allowed map[string]bool
}

func NewRoleAuthorizer(roles ...string) *RoleAuthorizer {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return &RoleAuthorizer{allowed: allowed}
}

func (a *RoleAuthorizer) CanReview(actor Actor) bool {
	return actor.ID != "" && a.allowed[actor.Role]
}

type ReviewStore interface {
	GetResponse(id string) (*Response, error)
	UpdateResponseStatus(id string, status Status, reviewedBy string, reviewedAt time.Time) error
	AddAudit(entry AuditEntry)
}

// ReviewService applies status transitions on responses. The transition set
// is unrestricted among the four statuses; the gates are the status
// enumeration itself and the actor's authorization. Status is never written
// anywhere else.
type ReviewService struct {
	store ReviewStore
	authz Authorizer
	now   func() time.Time
}

func NewReviewService(store ReviewStore, authz Authorizer) *ReviewService {
	return &ReviewService{
		store: store,
		authz: authz,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// UpdateStatus transitions the response to target and stamps reviewedBy and
// reviewedAt. An unauthorized actor leaves the response untouched.
func (s *ReviewService) UpdateStatus(actor Actor, responseID string, target Status) (*Response, error) {
	if !ValidStatus(target) {
		return nil, NewValidationError("invalid_status", "", "invalid status")
	}
	if s.authz == nil || !s.authz.CanReview(actor) {
		return nil, NewUnauthorizedError("not allowed to update responses")
	}
	resp, err := s.store.GetResponse(responseID)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, NewNotFoundError("response not found")
	}
	reviewedAt := s.now()
	if err := s.store.UpdateResponseStatus(responseID, target, actor.ID, reviewedAt); err != nil {
		return nil, err
	}
	resp.Status = target
	resp.ReviewedBy = actor.ID
	resp.ReviewedAt = &reviewedAt
	s.store.AddAudit(AuditEntry{Time: reviewedAt, Actor: actor.ID, Action: "update_status", Target: responseID, Note: string(target)})
	return resp, nil
}
