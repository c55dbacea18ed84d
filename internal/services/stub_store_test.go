package services

import (
	"sort"
	"time"
)

// stubStore is the in-memory test double shared by the service tests. It
// implements every narrow store interface in this package.
type stubStore struct {
	forms     map[string]*Form
	blocks    map[string]*Block
	questions map[string]*Question
	responses map[string]*Response
	byDraft   map[string]string
	answers   []*Answer
	users     map[string]*User
	audits    []AuditEntry

	// positionWrites counts UpdateBlockPosition/UpdateQuestionPosition calls.
	positionWrites int
	// insertResponseErr, when set, is returned by InsertResponseWithAnswers
	// instead of performing the insert. onInsert, when set, runs first,
	// which lets tests interleave a concurrent writer.
	insertResponseErr error
	onInsert          func()
}

func newStubStore() *stubStore {
	return &stubStore{
		forms:     map[string]*Form{},
		blocks:    map[string]*Block{},
		questions: map[string]*Question{},
		responses: map[string]*Response{},
		byDraft:   map[string]string{},
		users:     map[string]*User{},
	}
}

func (s *stubStore) InsertForm(f *Form) (*Form, error) {
	cp := *f
	s.forms[f.ID] = &cp
	return &cp, nil
}

func (s *stubStore) GetForm(id string) (*Form, error) {
	if f, ok := s.forms[id]; ok {
		cp := *f
		return &cp, nil
	}
	return nil, nil
}

func (s *stubStore) UpdateForm(f *Form) error {
	cp := *f
	s.forms[f.ID] = &cp
	return nil
}

func (s *stubStore) DeleteForm(id string) error {
	delete(s.forms, id)
	return nil
}

func (s *stubStore) ListForms() ([]*Form, error) {
	ids := make([]string, 0, len(s.forms))
	for id := range s.forms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*Form, 0, len(ids))
	for _, id := range ids {
		cp := *s.forms[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *stubStore) InsertBlock(b *Block) (*Block, error) {
	cp := *b
	s.blocks[b.ID] = &cp
	return &cp, nil
}

func (s *stubStore) GetBlock(id string) (*Block, error) {
	if b, ok := s.blocks[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

func (s *stubStore) UpdateBlock(b *Block) error {
	cp := *b
	s.blocks[b.ID] = &cp
	return nil
}

func (s *stubStore) DeleteBlock(id string) error {
	delete(s.blocks, id)
	return nil
}

func (s *stubStore) ListBlocks(formID string) ([]*Block, error) {
	var out []*Block
	for _, b := range s.blocks {
		if b.FormID == formID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *stubStore) UpdateBlockPosition(id string, order int) error {
	s.positionWrites++
	if b, ok := s.blocks[id]; ok {
		b.Order = order
	}
	return nil
}

func (s *stubStore) InsertQuestion(q *Question) (*Question, error) {
	cp := *q
	s.questions[q.ID] = &cp
	return &cp, nil
}

func (s *stubStore) GetQuestion(id string) (*Question, error) {
	if q, ok := s.questions[id]; ok {
		cp := *q
		return &cp, nil
	}
	return nil, nil
}

func (s *stubStore) UpdateQuestion(q *Question) error {
	cp := *q
	s.questions[q.ID] = &cp
	return nil
}

func (s *stubStore) DeleteQuestion(id string) error {
	delete(s.questions, id)
	return nil
}

func (s *stubStore) ListQuestions(formID string) ([]*Question, error) {
	var out []*Question
	for _, q := range s.questions {
		if q.FormID == formID {
			cp := *q
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *stubStore) ListQuestionsByBlock(blockID string) ([]*Question, error) {
	var out []*Question
	for _, q := range s.questions {
		if q.BlockID == blockID {
			cp := *q
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *stubStore) UpdateQuestionPosition(id string, order int) error {
	s.positionWrites++
	if q, ok := s.questions[id]; ok {
		q.Order = order
	}
	return nil
}

func (s *stubStore) GetResponse(id string) (*Response, error) {
	if r, ok := s.responses[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (s *stubStore) GetResponseByDraftID(draftID string) (*Response, error) {
	if rid, ok := s.byDraft[draftID]; ok {
		cp := *s.responses[rid]
		return &cp, nil
	}
	return nil, nil
}

func (s *stubStore) InsertResponseWithAnswers(r *Response, answers []*Answer) error {
	if s.onInsert != nil {
		s.onInsert()
	}
	if s.insertResponseErr != nil {
		return s.insertResponseErr
	}
	if _, ok := s.byDraft[r.DraftID]; ok {
		return ErrDuplicateDraft
	}
	cp := *r
	s.responses[r.ID] = &cp
	s.byDraft[r.DraftID] = r.ID
	for _, a := range answers {
		ac := *a
		s.answers = append(s.answers, &ac)
	}
	return nil
}

func (s *stubStore) ListResponsesByForm(formID string) ([]*Response, error) {
	var out []*Response
	for _, r := range s.responses {
		if r.FormID == formID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *stubStore) UpdateResponseStatus(id string, status Status, reviewedBy string, reviewedAt time.Time) error {
	r, ok := s.responses[id]
	if !ok {
		return NewNotFoundError("response not found")
	}
	r.Status = status
	r.ReviewedBy = reviewedBy
	t := reviewedAt
	r.ReviewedAt = &t
	return nil
}

func (s *stubStore) ListAnswersByResponse(responseID string) ([]*Answer, error) {
	var out []*Answer
	for _, a := range s.answers {
		if a.ResponseID == responseID {
			ac := *a
			out = append(out, &ac)
		}
	}
	return out, nil
}

func (s *stubStore) ListAnswersByForm(formID string) ([]*Answer, error) {
	var out []*Answer
	for _, a := range s.answers {
		r, ok := s.responses[a.ResponseID]
		if ok && r.FormID == formID {
			ac := *a
			out = append(out, &ac)
		}
	}
	return out, nil
}

func (s *stubStore) FindUserByEmail(email string) (*User, error) {
	if u, ok := s.users[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *stubStore) AddUser(u *User) error {
	cp := *u
	s.users[u.Email] = &cp
	return nil
}

func (s *stubStore) AddAudit(entry AuditEntry) {
	s.audits = append(s.audits, entry)
}
