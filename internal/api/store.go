package api

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"
)

type Form struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	IsActive    bool       `json:"is_active"`
	StartAt     *time.Time `json:"start_at,omitempty"`
	EndAt       *time.Time `json:"end_at,omitempty"`
	CreatedBy   string     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at,omitempty"`
}

type Block struct {
	ID     string `json:"id"`
	FormID string `json:"form_id"`
	Title  string `json:"title"`
	Order  int    `json:"order"`
}

type Question struct {
	ID       string   `json:"id"`
	FormID   string   `json:"form_id"`
	BlockID  string   `json:"block_id"`
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required"`
	Order    int      `json:"order"`
}

type Response struct {
	ID              string     `json:"id"`
	FormID          string     `json:"form_id"`
	DraftID         string     `json:"draft_id"`
	Anonymous       bool       `json:"anonymous"`
	RespondentName  string     `json:"respondent_name,omitempty"`
	RespondentEmail string     `json:"respondent_email,omitempty"`
	Need1on1        bool       `json:"need_1on1"`
	PreferredDate   string     `json:"preferred_date,omitempty"`
	PreferredTime   string     `json:"preferred_time,omitempty"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	ReviewedBy      string     `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
}

type Answer struct {
	ID         string          `json:"id"`
	ResponseID string          `json:"response_id"`
	QuestionID string          `json:"question_id"`
	Value      json.RawMessage `json:"value"`
}

type User struct {
	ID        string
	Email     string
	PassHash  []byte
	Role      string
	CreatedAt time.Time
}

type AuditEntry struct {
	Time   time.Time `json:"time"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Target string    `json:"target"`
	Note   string    `json:"note,omitempty"`
}

// ErrDuplicateDraftID is returned by Store implementations when a response
// insert collides with the unique draft_id constraint.
var ErrDuplicateDraftID = errors.New("draft_id already exists")

type memoryStore struct {
	mu           sync.RWMutex
	forms        map[string]*Form
	blocks       map[string]*Block
	questions    map[string]*Question
	responses    map[string]*Response
	byDraftID    map[string]string // draft_id -> response id
	answers      []*Answer
	usersByEmail map[string]*User
	audit        []AuditEntry
}

// NewMemoryStore returns an in-memory Store, used by tests and as a
// fallback when no sqlite path is configured.
func NewMemoryStore() Store {
	return newMemoryStore()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		forms:        map[string]*Form{},
		blocks:       map[string]*Block{},
		questions:    map[string]*Question{},
		responses:    map[string]*Response{},
		byDraftID:    map[string]string{},
		answers:      []*Answer{},
		usersByEmail: map[string]*User{},
		audit:        []AuditEntry{},
	}
}

// --- forms ---

func (s *memoryStore) InsertForm(f *Form) (*Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *f
	s.forms[f.ID] = &cp
	out := cp
	return &out, nil
}

func (s *memoryStore) GetForm(id string) (*Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if f, ok := s.forms[id]; ok {
		cp := *f
		return &cp, nil
	}
	return nil, nil
}

func (s *memoryStore) UpdateForm(f *Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.forms[f.ID]; !ok {
		return errors.New("form not found")
	}
	cp := *f
	s.forms[f.ID] = &cp
	return nil
}

func (s *memoryStore) DeleteForm(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.forms, id)
	for bid, b := range s.blocks {
		if b.FormID == id {
			delete(s.blocks, bid)
		}
	}
	for qid, q := range s.questions {
		if q.FormID == id {
			delete(s.questions, qid)
		}
	}
	return nil
}

func (s *memoryStore) ListForms() ([]*Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Form, 0, len(s.forms))
	for _, f := range s.forms {
		cp := *f
		out = append(out, &cp)
	}
	return out, nil
}

// --- blocks ---

func (s *memoryStore) InsertBlock(b *Block) (*Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.blocks[b.ID] = &cp
	out := cp
	return &out, nil
}

func (s *memoryStore) GetBlock(id string) (*Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.blocks[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

func (s *memoryStore) UpdateBlock(b *Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blocks[b.ID]; !ok {
		return errors.New("block not found")
	}
	cp := *b
	s.blocks[b.ID] = &cp
	return nil
}

func (s *memoryStore) DeleteBlock(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blocks, id)
	for qid, q := range s.questions {
		if q.BlockID == id {
			delete(s.questions, qid)
		}
	}
	return nil
}

func (s *memoryStore) ListBlocks(formID string) ([]*Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*Block{}
	for _, b := range s.blocks {
		if b.FormID == formID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memoryStore) UpdateBlockPosition(id string, order int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blocks[id]
	if !ok {
		return errors.New("block not found")
	}
	b.Order = order
	return nil
}

// --- questions ---

func (s *memoryStore) InsertQuestion(q *Question) (*Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *q
	s.questions[q.ID] = &cp
	out := cp
	return &out, nil
}

func (s *memoryStore) GetQuestion(id string) (*Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if q, ok := s.questions[id]; ok {
		cp := *q
		return &cp, nil
	}
	return nil, nil
}

func (s *memoryStore) UpdateQuestion(q *Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[q.ID]; !ok {
		return errors.New("question not found")
	}
	cp := *q
	s.questions[q.ID] = &cp
	return nil
}

func (s *memoryStore) DeleteQuestion(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Historical answers keep referencing the deleted question id.
	delete(s.questions, id)
	return nil
}

func (s *memoryStore) ListQuestions(formID string) ([]*Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*Question{}
	for _, q := range s.questions {
		if q.FormID == formID {
			cp := *q
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memoryStore) ListQuestionsByBlock(blockID string) ([]*Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*Question{}
	for _, q := range s.questions {
		if q.BlockID == blockID {
			cp := *q
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memoryStore) UpdateQuestionPosition(id string, order int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[id]
	if !ok {
		return errors.New("question not found")
	}
	q.Order = order
	return nil
}

// --- responses & answers ---

func (s *memoryStore) GetResponse(id string) (*Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.responses[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (s *memoryStore) GetResponseByDraftID(draftID string) (*Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rid, ok := s.byDraftID[draftID]; ok {
		cp := *s.responses[rid]
		return &cp, nil
	}
	return nil, nil
}

func (s *memoryStore) InsertResponseWithAnswers(r *Response, answers []*Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byDraftID[r.DraftID]; ok {
		return ErrDuplicateDraftID
	}
	cp := *r
	s.responses[r.ID] = &cp
	s.byDraftID[r.DraftID] = r.ID
	for _, a := range answers {
		ac := *a
		s.answers = append(s.answers, &ac)
	}
	return nil
}

func (s *memoryStore) ListResponsesByForm(formID string) ([]*Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*Response{}
	for _, r := range s.responses {
		if r.FormID == formID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memoryStore) UpdateResponseStatus(id, status, reviewedBy string, reviewedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.responses[id]
	if !ok {
		return errors.New("response not found")
	}
	r.Status = status
	r.ReviewedBy = reviewedBy
	t := reviewedAt
	r.ReviewedAt = &t
	return nil
}

func (s *memoryStore) ListAnswersByResponse(responseID string) ([]*Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*Answer{}
	for _, a := range s.answers {
		if a.ResponseID == responseID {
			ac := *a
			out = append(out, &ac)
		}
	}
	return out, nil
}

func (s *memoryStore) ListAnswersByForm(formID string) ([]*Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*Answer{}
	for _, a := range s.answers {
		r, ok := s.responses[a.ResponseID]
		if ok && r.FormID == formID {
			ac := *a
			out = append(out, &ac)
		}
	}
	return out, nil
}

// --- users & audit ---

func (s *memoryStore) AddUser(u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.usersByEmail[strings.ToLower(u.Email)] = &cp
	return nil
}

func (s *memoryStore) FindUserByEmail(email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.usersByEmail[strings.ToLower(email)]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *memoryStore) AddAudit(e AuditEntry) {
	s.mu.Lock()
	s.audit = append(s.audit, e)
	s.mu.Unlock()
}

func (s *memoryStore) ListAudit() []AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}
