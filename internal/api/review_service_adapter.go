package api

import (
	"time"

	"github.com/formpipe/formpipe/internal/services"
)

type reviewStoreAdapter struct {
	store Store
}

func newReviewService(store Store) *services.ReviewService {
	return services.NewReviewService(&reviewStoreAdapter{store: store}, services.NewRoleAuthorizer(services.ReviewerRoles...))
}

func (a *reviewStoreAdapter) GetResponse(id string) (*services.Response, error) {
	r, err := a.store.GetResponse(id)
	if err != nil {
		return nil, err
	}
	return toServiceResponse(r), nil
}

func (a *reviewStoreAdapter) UpdateResponseStatus(id string, status services.Status, reviewedBy string, reviewedAt time.Time) error {
	return a.store.UpdateResponseStatus(id, string(status), reviewedBy, reviewedAt)
}

func (a *reviewStoreAdapter) AddAudit(entry services.AuditEntry) {
	a.store.AddAudit(fromServiceAudit(entry))
}
