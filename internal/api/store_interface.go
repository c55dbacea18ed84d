package api

import "time"

// Store is the persistence boundary for the HTTP layer. The sqlite
// implementation lives in internal/db; memoryStore backs tests and
// path-less deployments.
type Store interface {
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
	UpdateBlockPosition(id string, order int) error

	InsertQuestion(q *Question) (*Question, error)
	GetQuestion(id string) (*Question, error)
	UpdateQuestion(q *Question) error
	DeleteQuestion(id string) error
	ListQuestions(formID string) ([]*Question, error)
	ListQuestionsByBlock(blockID string) ([]*Question, error)
	UpdateQuestionPosition(id string, order int) error

	GetResponse(id string) (*Response, error)
	GetResponseByDraftID(draftID string) (*Response, error)
	// InsertResponseWithAnswers writes the response and its answers in one
	// transaction and returns ErrDuplicateDraftID on a draft_id collision.
	InsertResponseWithAnswers(r *Response, answers []*Answer) error
	ListResponsesByForm(formID string) ([]*Response, error)
	UpdateResponseStatus(id, status, reviewedBy string, reviewedAt time.Time) error

	ListAnswersByResponse(responseID string) ([]*Answer, error)
	ListAnswersByForm(formID string) ([]*Answer, error)

	AddUser(u *User) error
	FindUserByEmail(email string) (*User, error)

	AddAudit(e AuditEntry)
	ListAudit() []AuditEntry
}

var _ Store = (*memoryStore)(nil)
