package services

import (
	"encoding/json"
	"time"
)

// Form is a survey definition. It is publicly visible only while IsActive
// and the current time falls inside the optional [StartAt, EndAt] window.
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

// VisibleAt reports whether the form is publicly visible at the given time.
// Absent window bounds are treated as unbounded.
func (f *Form) VisibleAt(now time.Time) bool {
	if f == nil || !f.IsActive {
		return false
	}
	if f.StartAt != nil && now.Before(*f.StartAt) {
		return false
	}
	if f.EndAt != nil && now.After(*f.EndAt) {
		return false
	}
	return true
}

// Block is an ordered section within a form, grouping questions.
type Block struct {
	ID     string `json:"id"`
	FormID string `json:"form_id"`
	Title  string `json:"title"`
	Order  int    `json:"order"`
}

type QuestionType string

const (
	TypeText      QuestionType = "text"
	TypeTextarea  QuestionType = "textarea"
	TypeRadio     QuestionType = "radio"
	TypeCheckbox  QuestionType = "checkbox"
	TypeDate      QuestionType = "date"
	TypeTime      QuestionType = "time"
	TypeScale     QuestionType = "scale"
	TypePoints100 QuestionType = "points100"
)

// Question is a single prompt of a fixed type. Key is the stable
// machine-readable identifier, unique within a form.
type Question struct {
	ID       string       `json:"id"`
	FormID   string       `json:"form_id"`
	BlockID  string       `json:"block_id"`
	Key      string       `json:"key"`
	Label    string       `json:"label"`
	Type     QuestionType `json:"type"`
	Options  []string     `json:"options,omitempty"`
	Required bool         `json:"required"`
	Order    int          `json:"order"`
}

type Status string

const (
	StatusNew             Status = "new"
	StatusReviewed        Status = "reviewed"
	StatusFollowupPending Status = "followup_pending"
	StatusClosed          Status = "closed"
)

// ValidStatus reports whether s is one of the four review statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusNew, StatusReviewed, StatusFollowupPending, StatusClosed:
		return true
	}
	return false
}

// Response is one respondent's complete submission against a form.
// DraftID is the client-generated idempotency token; the store enforces
// its global uniqueness.
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
	Status          Status     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	ReviewedBy      string     `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
}

// Answer is one question's value within a response. Value keeps the raw
// JSON payload; its shape depends on the question type (string, string
// array, or label->points mapping). Answers are immutable once written.
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
	Time   time.Time
	Actor  string
	Action string
	Target string
	Note   string
}
