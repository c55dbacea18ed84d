package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/formpipe/formpipe/internal/api"
)

// SQLiteStore implements api.Store over a single sqlite database. All
// timestamps are stored as RFC 3339 UTC strings.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func NewStore(db *sql.DB) (api.Store, error) {
	return NewSQLiteStore(db)
}

var _ api.Store = (*SQLiteStore)(nil)

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func timeToString(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func timeToNull(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: timeToString(*t), Valid: true}
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullToTime(ns sql.NullString) *time.Time {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func encodeOptions(opts []string) sql.NullString {
	if len(opts) == 0 {
		return sql.NullString{}
	}
	b, err := json.Marshal(opts)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

func decodeOptions(ns sql.NullString) []string {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		log.Printf("sqlite store: decode options: %v", err)
		return nil
	}
	return out
}

// isDraftConflict reports whether err is the UNIQUE violation on
// responses.draft_id specifically. Other constraint failures, including a
// primary-key collision on responses.id, stay ordinary storage errors.
func isDraftConflict(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	if se.ExtendedCode != sqlite3.ErrConstraintUnique {
		return false
	}
	return strings.Contains(err.Error(), "responses.draft_id")
}

// --- forms ---

func (s *SQLiteStore) InsertForm(f *api.Form) (*api.Form, error) {
	_, err := s.db.Exec(
		`INSERT INTO forms (id, title, description, is_active, start_at, end_at, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Title, f.Description, boolToInt(f.IsActive), timeToNull(f.StartAt), timeToNull(f.EndAt), f.CreatedBy, timeToString(f.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert form: %w", err)
	}
	return f, nil
}

func (s *SQLiteStore) scanForm(row *sql.Row) (*api.Form, error) {
	var f api.Form
	var isActive int
	var startAt, endAt sql.NullString
	var createdAt string
	err := row.Scan(&f.ID, &f.Title, &f.Description, &isActive, &startAt, &endAt, &f.CreatedBy, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan form: %w", err)
	}
	f.IsActive = isActive != 0
	f.StartAt = nullToTime(startAt)
	f.EndAt = nullToTime(endAt)
	f.CreatedAt = parseTime(createdAt)
	return &f, nil
}

func (s *SQLiteStore) GetForm(id string) (*api.Form, error) {
	row := s.db.QueryRow(
		`SELECT id, title, description, is_active, start_at, end_at, created_by, created_at FROM forms WHERE id = ?`, id)
	return s.scanForm(row)
}

func (s *SQLiteStore) UpdateForm(f *api.Form) error {
	_, err := s.db.Exec(
		`UPDATE forms SET title = ?, description = ?, is_active = ?, start_at = ?, end_at = ? WHERE id = ?`,
		f.Title, f.Description, boolToInt(f.IsActive), timeToNull(f.StartAt), timeToNull(f.EndAt), f.ID,
	)
	if err != nil {
		return fmt.Errorf("update form: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteForm(id string) error {
	if _, err := s.db.Exec(`DELETE FROM forms WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListForms() ([]*api.Form, error) {
	rows, err := s.db.Query(
		`SELECT id, title, description, is_active, start_at, end_at, created_by, created_at FROM forms ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	defer rows.Close()
	var out []*api.Form
	for rows.Next() {
		var f api.Form
		var isActive int
		var startAt, endAt sql.NullString
		var createdAt string
		if err := rows.Scan(&f.ID, &f.Title, &f.Description, &isActive, &startAt, &endAt, &f.CreatedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("scan form: %w", err)
		}
		f.IsActive = isActive != 0
		f.StartAt = nullToTime(startAt)
		f.EndAt = nullToTime(endAt)
		f.CreatedAt = parseTime(createdAt)
		out = append(out, &f)
	}
	return out, rows.Err()
}

// --- blocks ---

func (s *SQLiteStore) InsertBlock(b *api.Block) (*api.Block, error) {
	_, err := s.db.Exec(
		`INSERT INTO form_blocks (id, form_id, title, position) VALUES (?, ?, ?, ?)`,
		b.ID, b.FormID, b.Title, b.Order,
	)
	if err != nil {
		return nil, fmt.Errorf("insert block: %w", err)
	}
	return b, nil
}

func (s *SQLiteStore) GetBlock(id string) (*api.Block, error) {
	var b api.Block
	err := s.db.QueryRow(
		`SELECT id, form_id, title, position FROM form_blocks WHERE id = ?`, id,
	).Scan(&b.ID, &b.FormID, &b.Title, &b.Order)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get block: %w", err)
	}
	return &b, nil
}

func (s *SQLiteStore) UpdateBlock(b *api.Block) error {
	_, err := s.db.Exec(
		`UPDATE form_blocks SET title = ?, position = ? WHERE id = ?`, b.Title, b.Order, b.ID)
	if err != nil {
		return fmt.Errorf("update block: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteBlock(id string) error {
	if _, err := s.db.Exec(`DELETE FROM form_blocks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListBlocks(formID string) ([]*api.Block, error) {
	rows, err := s.db.Query(
		`SELECT id, form_id, title, position FROM form_blocks WHERE form_id = ? ORDER BY position, id`, formID)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	defer rows.Close()
	var out []*api.Block
	for rows.Next() {
		var b api.Block
		if err := rows.Scan(&b.ID, &b.FormID, &b.Title, &b.Order); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateBlockPosition(id string, order int) error {
	_, err := s.db.Exec(`UPDATE form_blocks SET position = ? WHERE id = ?`, order, id)
	if err != nil {
		return fmt.Errorf("update block position: %w", err)
	}
	return nil
}

// --- questions ---

func (s *SQLiteStore) InsertQuestion(q *api.Question) (*api.Question, error) {
	_, err := s.db.Exec(
		`INSERT INTO questions (id, form_id, block_id, qkey, label, qtype, options, required, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.FormID, q.BlockID, q.Key, q.Label, q.Type, encodeOptions(q.Options), boolToInt(q.Required), q.Order,
	)
	if err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}
	return q, nil
}

func scanQuestion(scan func(dest ...any) error) (*api.Question, error) {
	var q api.Question
	var options sql.NullString
	var required int
	err := scan(&q.ID, &q.FormID, &q.BlockID, &q.Key, &q.Label, &q.Type, &options, &required, &q.Order)
	if err != nil {
		return nil, err
	}
	q.Options = decodeOptions(options)
	q.Required = required != 0
	return &q, nil
}

const questionCols = `id, form_id, block_id, qkey, label, qtype, options, required, position`

func (s *SQLiteStore) GetQuestion(id string) (*api.Question, error) {
	row := s.db.QueryRow(`SELECT `+questionCols+` FROM questions WHERE id = ?`, id)
	q, err := scanQuestion(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

func (s *SQLiteStore) UpdateQuestion(q *api.Question) error {
	_, err := s.db.Exec(
		`UPDATE questions SET qkey = ?, label = ?, qtype = ?, options = ?, required = ?, position = ? WHERE id = ?`,
		q.Key, q.Label, q.Type, encodeOptions(q.Options), boolToInt(q.Required), q.Order, q.ID,
	)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteQuestion(id string) error {
	// Answers referencing this question stay in place.
	if _, err := s.db.Exec(`DELETE FROM questions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}

func (s *SQLiteStore) listQuestions(where string, arg any) ([]*api.Question, error) {
	rows, err := s.db.Query(`SELECT `+questionCols+` FROM questions WHERE `+where+` ORDER BY position, id`, arg)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()
	var out []*api.Question
	for rows.Next() {
		q, err := scanQuestion(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListQuestions(formID string) ([]*api.Question, error) {
	return s.listQuestions("form_id = ?", formID)
}

func (s *SQLiteStore) ListQuestionsByBlock(blockID string) ([]*api.Question, error) {
	return s.listQuestions("block_id = ?", blockID)
}

func (s *SQLiteStore) UpdateQuestionPosition(id string, order int) error {
	_, err := s.db.Exec(`UPDATE questions SET position = ? WHERE id = ?`, order, id)
	if err != nil {
		return fmt.Errorf("update question position: %w", err)
	}
	return nil
}

// --- responses ---

const responseCols = `id, form_id, draft_id, anonymous, respondent_name, respondent_email,
	need_1on1, preferred_date, preferred_time, status, created_at, reviewed_by, reviewed_at`

func scanResponse(scan func(dest ...any) error) (*api.Response, error) {
	var r api.Response
	var anonymous, need1on1 int
	var createdAt string
	var reviewedAt sql.NullString
	err := scan(&r.ID, &r.FormID, &r.DraftID, &anonymous, &r.RespondentName, &r.RespondentEmail,
		&need1on1, &r.PreferredDate, &r.PreferredTime, &r.Status, &createdAt, &r.ReviewedBy, &reviewedAt)
	if err != nil {
		return nil, err
	}
	r.Anonymous = anonymous != 0
	r.Need1on1 = need1on1 != 0
	r.CreatedAt = parseTime(createdAt)
	r.ReviewedAt = nullToTime(reviewedAt)
	return &r, nil
}

func (s *SQLiteStore) GetResponse(id string) (*api.Response, error) {
	row := s.db.QueryRow(`SELECT `+responseCols+` FROM responses WHERE id = ?`, id)
	r, err := scanResponse(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get response: %w", err)
	}
	return r, nil
}

func (s *SQLiteStore) GetResponseByDraftID(draftID string) (*api.Response, error) {
	row := s.db.QueryRow(`SELECT `+responseCols+` FROM responses WHERE draft_id = ?`, draftID)
	r, err := scanResponse(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get response by draft id: %w", err)
	}
	return r, nil
}

func (s *SQLiteStore) InsertResponseWithAnswers(r *api.Response, answers []*api.Answer) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(
		`INSERT INTO responses (id, form_id, draft_id, anonymous, respondent_name, respondent_email,
		 need_1on1, preferred_date, preferred_time, status, created_at, reviewed_by, reviewed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.FormID, r.DraftID, boolToInt(r.Anonymous), r.RespondentName, r.RespondentEmail,
		boolToInt(r.Need1on1), r.PreferredDate, r.PreferredTime, r.Status, timeToString(r.CreatedAt),
		r.ReviewedBy, timeToNull(r.ReviewedAt),
	)
	if err != nil {
		if isDraftConflict(err) {
			return api.ErrDuplicateDraftID
		}
		return fmt.Errorf("insert response: %w", err)
	}
	for _, a := range answers {
		if _, err := tx.Exec(
			`INSERT INTO answers (id, response_id, question_id, value) VALUES (?, ?, ?, ?)`,
			a.ID, a.ResponseID, a.QuestionID, string(a.Value),
		); err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListResponsesByForm(formID string) ([]*api.Response, error) {
	rows, err := s.db.Query(`SELECT `+responseCols+` FROM responses WHERE form_id = ? ORDER BY created_at`, formID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()
	var out []*api.Response
	for rows.Next() {
		r, err := scanResponse(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateResponseStatus(id, status, reviewedBy string, reviewedAt time.Time) error {
	_, err := s.db.Exec(
		`UPDATE responses SET status = ?, reviewed_by = ?, reviewed_at = ? WHERE id = ?`,
		status, reviewedBy, timeToString(reviewedAt), id,
	)
	if err != nil {
		return fmt.Errorf("update response status: %w", err)
	}
	return nil
}

// --- answers ---

func (s *SQLiteStore) listAnswers(query string, arg any) ([]*api.Answer, error) {
	rows, err := s.db.Query(query, arg)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()
	var out []*api.Answer
	for rows.Next() {
		var a api.Answer
		var value string
		if err := rows.Scan(&a.ID, &a.ResponseID, &a.QuestionID, &value); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		a.Value = json.RawMessage(value)
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListAnswersByResponse(responseID string) ([]*api.Answer, error) {
	return s.listAnswers(
		`SELECT id, response_id, question_id, value FROM answers WHERE response_id = ?`, responseID)
}

func (s *SQLiteStore) ListAnswersByForm(formID string) ([]*api.Answer, error) {
	return s.listAnswers(
		`SELECT a.id, a.response_id, a.question_id, a.value FROM answers a
		 JOIN responses r ON r.id = a.response_id WHERE r.form_id = ?`, formID)
}

// --- users ---

func (s *SQLiteStore) AddUser(u *api.User) error {
	_, err := s.db.Exec(
		`INSERT INTO users (id, email, pass_hash, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, strings.ToLower(u.Email), u.PassHash, u.Role, timeToString(u.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("add user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindUserByEmail(email string) (*api.User, error) {
	var u api.User
	var createdAt string
	err := s.db.QueryRow(
		`SELECT id, email, pass_hash, role, created_at FROM users WHERE email = ?`,
		strings.ToLower(email),
	).Scan(&u.ID, &u.Email, &u.PassHash, &u.Role, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

// --- audit ---

func (s *SQLiteStore) AddAudit(e api.AuditEntry) {
	_, err := s.db.Exec(
		`INSERT INTO audit_log (at, actor, action, target, note) VALUES (?, ?, ?, ?, ?)`,
		timeToString(e.Time), e.Actor, e.Action, e.Target, e.Note,
	)
	if err != nil {
		log.Printf("sqlite store: add audit: %v", err)
	}
}

func (s *SQLiteStore) ListAudit() []api.AuditEntry {
	rows, err := s.db.Query(`SELECT at, actor, action, target, note FROM audit_log ORDER BY at`)
	if err != nil {
		log.Printf("sqlite store: list audit: %v", err)
		return nil
	}
	defer rows.Close()
	var out []api.AuditEntry
	for rows.Next() {
		var e api.AuditEntry
		var at string
		if err := rows.Scan(&at, &e.Actor, &e.Action, &e.Target, &e.Note); err != nil {
			log.Printf("sqlite store: scan audit: %v", err)
			return out
		}
		e.Time = parseTime(at)
		out = append(out, e)
	}
	return out
}
