package api

import "github.com/formpipe/formpipe/internal/services"

// formStoreAdapter narrows Store to services.FormStore.
type formStoreAdapter struct {
	store Store
}

func newFormService(store Store) *services.FormService {
	return services.NewFormService(&formStoreAdapter{store: store})
}

func (a *formStoreAdapter) InsertForm(f *services.Form) (*services.Form, error) {
	out, err := a.store.InsertForm(fromServiceForm(f))
	if err != nil {
		return nil, err
	}
	return toServiceForm(out), nil
}

func (a *formStoreAdapter) GetForm(id string) (*services.Form, error) {
	f, err := a.store.GetForm(id)
	if err != nil {
		return nil, err
	}
	return toServiceForm(f), nil
}

func (a *formStoreAdapter) UpdateForm(f *services.Form) error {
	return a.store.UpdateForm(fromServiceForm(f))
}

func (a *formStoreAdapter) DeleteForm(id string) error {
	return a.store.DeleteForm(id)
}

func (a *formStoreAdapter) ListForms() ([]*services.Form, error) {
	fs, err := a.store.ListForms()
	if err != nil {
		return nil, err
	}
	out := make([]*services.Form, 0, len(fs))
	for _, f := range fs {
		out = append(out, toServiceForm(f))
	}
	return out, nil
}

func (a *formStoreAdapter) InsertBlock(b *services.Block) (*services.Block, error) {
	out, err := a.store.InsertBlock(fromServiceBlock(b))
	if err != nil {
		return nil, err
	}
	return toServiceBlock(out), nil
}

func (a *formStoreAdapter) GetBlock(id string) (*services.Block, error) {
	b, err := a.store.GetBlock(id)
	if err != nil {
		return nil, err
	}
	return toServiceBlock(b), nil
}

func (a *formStoreAdapter) UpdateBlock(b *services.Block) error {
	return a.store.UpdateBlock(fromServiceBlock(b))
}

func (a *formStoreAdapter) DeleteBlock(id string) error {
	return a.store.DeleteBlock(id)
}

func (a *formStoreAdapter) ListBlocks(formID string) ([]*services.Block, error) {
	bs, err := a.store.ListBlocks(formID)
	if err != nil {
		return nil, err
	}
	return toServiceBlocks(bs), nil
}

func (a *formStoreAdapter) InsertQuestion(q *services.Question) (*services.Question, error) {
	out, err := a.store.InsertQuestion(fromServiceQuestion(q))
	if err != nil {
		return nil, err
	}
	return toServiceQuestion(out), nil
}

func (a *formStoreAdapter) GetQuestion(id string) (*services.Question, error) {
	q, err := a.store.GetQuestion(id)
	if err != nil {
		return nil, err
	}
	return toServiceQuestion(q), nil
}

func (a *formStoreAdapter) UpdateQuestion(q *services.Question) error {
	return a.store.UpdateQuestion(fromServiceQuestion(q))
}

func (a *formStoreAdapter) DeleteQuestion(id string) error {
	return a.store.DeleteQuestion(id)
}

func (a *formStoreAdapter) ListQuestions(formID string) ([]*services.Question, error) {
	qs, err := a.store.ListQuestions(formID)
	if err != nil {
		return nil, err
	}
	return toServiceQuestions(qs), nil
}

func (a *formStoreAdapter) AddAudit(entry services.AuditEntry) {
	a.store.AddAudit(fromServiceAudit(entry))
}
