package api

import "github.com/formpipe/formpipe/internal/services"

type statsStoreAdapter struct {
	store Store
}

func newStatsService(store Store) *services.StatsService {
	return services.NewStatsService(&statsStoreAdapter{store: store})
}

func (a *statsStoreAdapter) GetForm(id string) (*services.Form, error) {
	f, err := a.store.GetForm(id)
	if err != nil {
		return nil, err
	}
	return toServiceForm(f), nil
}

func (a *statsStoreAdapter) ListResponsesByForm(formID string) ([]*services.Response, error) {
	rs, err := a.store.ListResponsesByForm(formID)
	if err != nil {
		return nil, err
	}
	return toServiceResponses(rs), nil
}
