package api

import "github.com/formpipe/formpipe/internal/services"

type orderingStoreAdapter struct {
	store Store
}

func newOrderingService(store Store) *services.OrderingService {
	return services.NewOrderingService(&orderingStoreAdapter{store: store})
}

func (a *orderingStoreAdapter) GetBlock(id string) (*services.Block, error) {
	b, err := a.store.GetBlock(id)
	if err != nil {
		return nil, err
	}
	return toServiceBlock(b), nil
}

func (a *orderingStoreAdapter) ListBlocks(formID string) ([]*services.Block, error) {
	bs, err := a.store.ListBlocks(formID)
	if err != nil {
		return nil, err
	}
	return toServiceBlocks(bs), nil
}

func (a *orderingStoreAdapter) UpdateBlockPosition(id string, order int) error {
	return a.store.UpdateBlockPosition(id, order)
}

func (a *orderingStoreAdapter) GetQuestion(id string) (*services.Question, error) {
	q, err := a.store.GetQuestion(id)
	if err != nil {
		return nil, err
	}
	return toServiceQuestion(q), nil
}

func (a *orderingStoreAdapter) ListQuestionsByBlock(blockID string) ([]*services.Question, error) {
	qs, err := a.store.ListQuestionsByBlock(blockID)
	if err != nil {
		return nil, err
	}
	return toServiceQuestions(qs), nil
}

func (a *orderingStoreAdapter) UpdateQuestionPosition(id string, order int) error {
	return a.store.UpdateQuestionPosition(id, order)
}

func (a *orderingStoreAdapter) AddAudit(entry services.AuditEntry) {
	a.store.AddAudit(fromServiceAudit(entry))
}
