package api

import (
	"errors"

	"github.com/formpipe/formpipe/internal/services"
)

type submissionStoreAdapter struct {
	store Store
}

func newSubmissionService(store Store, limiter services.Limiter) *services.SubmissionService {
	return services.NewSubmissionService(&submissionStoreAdapter{store: store}, limiter)
}

func (a *submissionStoreAdapter) GetForm(id string) (*services.Form, error) {
	f, err := a.store.GetForm(id)
	if err != nil {
		return nil, err
	}
	return toServiceForm(f), nil
}

func (a *submissionStoreAdapter) ListQuestions(formID string) ([]*services.Question, error) {
	qs, err := a.store.ListQuestions(formID)
	if err != nil {
		return nil, err
	}
	return toServiceQuestions(qs), nil
}

func (a *submissionStoreAdapter) GetResponseByDraftID(draftID string) (*services.Response, error) {
	r, err := a.store.GetResponseByDraftID(draftID)
	if err != nil {
		return nil, err
	}
	return toServiceResponse(r), nil
}

func (a *submissionStoreAdapter) InsertResponseWithAnswers(r *services.Response, answers []*services.Answer) error {
	as := make([]*Answer, 0, len(answers))
	for _, ans := range answers {
		as = append(as, fromServiceAnswer(ans))
	}
	err := a.store.InsertResponseWithAnswers(fromServiceResponse(r), as)
	if errors.Is(err, ErrDuplicateDraftID) {
		return services.ErrDuplicateDraft
	}
	return err
}
