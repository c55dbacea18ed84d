package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ErrorCode string

const (
	ErrorInvalid         ErrorCode = "invalid"
	ErrorForbidden       ErrorCode = "forbidden"
	ErrorNotFound        ErrorCode = "not_found"
	ErrorConflict        ErrorCode = "conflict"
	ErrorUnauthorized    ErrorCode = "unauthorized"
	ErrorTooManyRequests ErrorCode = "too_many_requests"
)

// ServiceError is the typed failure returned by every service. Reason is a
// stable machine-readable subcode (e.g. "missing_required", "expired");
// QuestionID scopes validation failures to a question.
type ServiceError struct {
	Code       ErrorCode
	Reason     string
	Message    string
	QuestionID string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error { return &ServiceError{Code: ErrorInvalid, Message: msg} }

func NewValidationError(reason, questionID, msg string) error {
	return &ServiceError{Code: ErrorInvalid, Reason: reason, QuestionID: questionID, Message: msg}
}

func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }

// NewUnavailableError marks a form as unusable for this attempt. Reason is
// one of "inactive", "not_yet_open", "expired".
func NewUnavailableError(reason, msg string) error {
	return &ServiceError{Code: ErrorForbidden, Reason: reason, Message: msg}
}

func NewNotFoundError(msg string) error { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error { return &ServiceError{Code: ErrorConflict, Message: msg} }

func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

func NewTooManyRequestsError(msg string) error {
	return &ServiceError{Code: ErrorTooManyRequests, Message: msg}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// FormStore abstracts persistence for the form schema: forms, blocks and
// questions. Deleting a form cascades to its blocks and questions; deleting
// a block cascades to its questions. Deleting a question never touches
// historical answers.
type FormStore interface {
	InsertForm(f *Form) (*Form, error)
	GetForm(id string) (*Form, error)
	UpdateForm(f *Form) error
	DeleteForm(id string) error
	ListForms() ([]*Form, error)

	InsertBlock(b *Block) (*Block, error)
	GetBlock(id string) (*Block, error)
	UpdateBlock(b *Block) error
	DeleteBlock(id string) error
	ListBlocks(formID string) ([]*Block, error)

	InsertQuestion(q *Question) (*Question, error)
	GetQuestion(id string) (*Question, error)
	UpdateQuestion(q *Question) error
	DeleteQuestion(id string) error
	ListQuestions(formID string) ([]*Question, error)

	AddAudit(entry AuditEntry)
}

// FormService owns the schema model. All ordered reads sort by the explicit
// order column ascending, ties broken by id for stability.
type FormService struct {
	store FormStore
	now   func() time.Time
	idGen func() string
}

func NewFormService(store FormStore) *FormService {
	return &FormService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func() string { return shortID(8) },
	}
}

func shortID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

func (s *FormService) CreateForm(actor string, f *Form) (*Form, error) {
	if f == nil {
		return nil, NewInvalidError("form required")
	}
	if strings.TrimSpace(f.Title) == "" {
		return nil, NewInvalidError("title required")
	}
	if f.ID == "" {
		f.ID = s.idGen()
	}
	f.CreatedBy = actor
	f.CreatedAt = s.now()
	created, err := s.store.InsertForm(f)
	if err != nil {
		return nil, err
	}
	if created == nil {
		created = f
	}
	return created, nil
}

func (s *FormService) UpdateForm(f *Form) (*Form, error) {
	if f == nil {
		return nil, NewInvalidError("form required")
	}
	if strings.TrimSpace(f.Title) == "" {
		return nil, NewInvalidError("title required")
	}
	old, err := s.store.GetForm(f.ID)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, NewNotFoundError("form not found")
	}
	f.CreatedBy = old.CreatedBy
	f.CreatedAt = old.CreatedAt
	if err := s.store.UpdateForm(f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *FormService) DeleteForm(id, actor string) error {
	f, err := s.store.GetForm(id)
	if err != nil {
		return err
	}
	if f == nil {
		return NewNotFoundError("form not found")
	}
	if err := s.store.DeleteForm(id); err != nil {
		return err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "delete_form", Target: id})
	return nil
}

func (s *FormService) GetForm(id string) (*Form, error) {
	return s.store.GetForm(id)
}

func (s *FormService) ListForms() ([]*Form, error) {
	return s.store.ListForms()
}

// ListActiveForms returns the public set: active forms whose window contains
// the current time.
func (s *FormService) ListActiveForms() ([]*Form, error) {
	forms, err := s.store.ListForms()
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]*Form, 0, len(forms))
	for _, f := range forms {
		if f.VisibleAt(now) {
			out = append(out, f)
		}
	}
	return out, nil
}

// BlockSchema is one section of a rendered form with its questions in order.
type BlockSchema struct {
	Block     *Block      `json:"block"`
	Questions []*Question `json:"questions"`
}

// FormSchema is the fully ordered form definition used by the renderer.
type FormSchema struct {
	Form   *Form          `json:"form"`
	Blocks []*BlockSchema `json:"blocks"`
}

// GetFormSchema loads a form with its blocks and questions pre-sorted by
// order ascending. With publicOnly set, invisible forms read as not found.
func (s *FormService) GetFormSchema(id string, publicOnly bool) (*FormSchema, error) {
	f, err := s.store.GetForm(id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, NewNotFoundError("form not found")
	}
	if publicOnly && !f.VisibleAt(s.now()) {
		return nil, NewNotFoundError("form not found")
	}
	blocks, err := s.store.ListBlocks(id)
	if err != nil {
		return nil, err
	}
	questions, err := s.store.ListQuestions(id)
	if err != nil {
		return nil, err
	}
	sortBlocks(blocks)
	byBlock := map[string][]*Question{}
	for _, q := range questions {
		byBlock[q.BlockID] = append(byBlock[q.BlockID], q)
	}
	out := &FormSchema{Form: f, Blocks: make([]*BlockSchema, 0, len(blocks))}
	for _, b := range blocks {
		qs := byBlock[b.ID]
		sortQuestions(qs)
		out.Blocks = append(out.Blocks, &BlockSchema{Block: b, Questions: qs})
	}
	return out, nil
}

func sortBlocks(blocks []*Block) {
	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].Order != blocks[j].Order {
			return blocks[i].Order < blocks[j].Order
		}
		return blocks[i].ID < blocks[j].ID
	})
}

func sortQuestions(qs []*Question) {
	sort.Slice(qs, func(i, j int) bool {
		if qs[i].Order != qs[j].Order {
			return qs[i].Order < qs[j].Order
		}
		return qs[i].ID < qs[j].ID
	})
}

func (s *FormService) CreateBlock(b *Block) (*Block, error) {
	if b == nil {
		return nil, NewInvalidError("block required")
	}
	if strings.TrimSpace(b.Title) == "" {
		return nil, NewInvalidError("title required")
	}
	f, err := s.store.GetForm(b.FormID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, NewNotFoundError("form not found")
	}
	if b.ID == "" {
		b.ID = s.idGen()
	}
	if b.Order == 0 {
		siblings, err := s.store.ListBlocks(b.FormID)
		if err != nil {
			return nil, err
		}
		max := -1
		for _, sb := range siblings {
			if sb.Order > max {
				max = sb.Order
			}
		}
		b.Order = max + 1
	}
	created, err := s.store.InsertBlock(b)
	if err != nil {
		return nil, err
	}
	if created == nil {
		created = b
	}
	return created, nil
}

func (s *FormService) UpdateBlock(b *Block) (*Block, error) {
	if b == nil {
		return nil, NewInvalidError("block required")
	}
	if strings.TrimSpace(b.Title) == "" {
		return nil, NewInvalidError("title required")
	}
	old, err := s.store.GetBlock(b.ID)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, NewNotFoundError("block not found")
	}
	b.FormID = old.FormID
	if err := s.store.UpdateBlock(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *FormService) DeleteBlock(id string) error {
	b, err := s.store.GetBlock(id)
	if err != nil {
		return err
	}
	if b == nil {
		return NewNotFoundError("block not found")
	}
	return s.store.DeleteBlock(id)
}

func (s *FormService) CreateQuestion(q *Question) (*Question, error) {
	if q == nil {
		return nil, NewInvalidError("question required")
	}
	if strings.TrimSpace(q.Label) == "" {
		return nil, NewInvalidError("label required")
	}
	if strings.TrimSpace(q.Key) == "" {
		return nil, NewInvalidError("key required")
	}
	b, err := s.store.GetBlock(q.BlockID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, NewNotFoundError("block not found")
	}
	// A question always belongs to a block of its own form.
	q.FormID = b.FormID
	if err := s.checkKeyUnique(q.FormID, q.Key, ""); err != nil {
		return nil, err
	}
	if q.ID == "" {
		q.ID = s.idGen()
	}
	if q.Order == 0 {
		siblings, err := s.siblingQuestions(q.FormID, q.BlockID)
		if err != nil {
			return nil, err
		}
		// Append after existing siblings even when order values are sparse.
		max := -1
		for _, sq := range siblings {
			if sq.Order > max {
				max = sq.Order
			}
		}
		q.Order = max + 1
	}
	created, err := s.store.InsertQuestion(q)
	if err != nil {
		return nil, err
	}
	if created == nil {
		created = q
	}
	return created, nil
}

func (s *FormService) UpdateQuestion(q *Question) (*Question, error) {
	if q == nil {
		return nil, NewInvalidError("question required")
	}
	if strings.TrimSpace(q.Label) == "" {
		return nil, NewInvalidError("label required")
	}
	if strings.TrimSpace(q.Key) == "" {
		return nil, NewInvalidError("key required")
	}
	old, err := s.store.GetQuestion(q.ID)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, NewNotFoundError("question not found")
	}
	q.FormID = old.FormID
	if q.BlockID == "" {
		q.BlockID = old.BlockID
	}
	if err := s.checkKeyUnique(q.FormID, q.Key, q.ID); err != nil {
		return nil, err
	}
	if err := s.store.UpdateQuestion(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *FormService) DeleteQuestion(id string) error {
	q, err := s.store.GetQuestion(id)
	if err != nil {
		return err
	}
	if q == nil {
		return NewNotFoundError("question not found")
	}
	// Answers referencing this question survive; readers render the missing
	// join as "question text unavailable".
	return s.store.DeleteQuestion(id)
}

func (s *FormService) checkKeyUnique(formID, key, selfID string) error {
	questions, err := s.store.ListQuestions(formID)
	if err != nil {
		return err
	}
	for _, other := range questions {
		if other.ID != selfID && other.Key == key {
			return NewConflictError(fmt.Sprintf("question key %q already used in this form", key))
		}
	}
	return nil
}

func (s *FormService) siblingQuestions(formID, blockID string) ([]*Question, error) {
	questions, err := s.store.ListQuestions(formID)
	if err != nil {
		return nil, err
	}
	out := make([]*Question, 0, len(questions))
	for _, q := range questions {
		if q.BlockID == blockID {
			out = append(out, q)
		}
	}
	return out, nil
}
