package api

import "github.com/formpipe/formpipe/internal/services"

type exportStoreAdapter struct {
	store Store
}

func newExportService(store Store) *services.ExportService {
	return services.NewExportService(&exportStoreAdapter{store: store})
}

func (a *exportStoreAdapter) GetForm(id string) (*services.Form, error) {
	f, err := a.store.GetForm(id)
	if err != nil {
		return nil, err
	}
	return toServiceForm(f), nil
}

func (a *exportStoreAdapter) ListQuestions(formID string) ([]*services.Question, error) {
	qs, err := a.store.ListQuestions(formID)
	if err != nil {
		return nil, err
	}
	return toServiceQuestions(qs), nil
}

func (a *exportStoreAdapter) ListResponsesByForm(formID string) ([]*services.Response, error) {
	rs, err := a.store.ListResponsesByForm(formID)
	if err != nil {
		return nil, err
	}
	return toServiceResponses(rs), nil
}

func (a *exportStoreAdapter) ListAnswersByForm(formID string) ([]*services.Answer, error) {
	as, err := a.store.ListAnswersByForm(formID)
	if err != nil {
		return nil, err
	}
	return toServiceAnswers(as), nil
}
