package services

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SubmittedAnswer mirrors one inbound answer before validation. Value holds
// the raw JSON payload; its expected shape comes from the question type.
type SubmittedAnswer struct {
	QuestionID string          `json:"question_id"`
	Value      json.RawMessage `json:"value"`
}

// answerRule checks the value shape for one question type. The generic
// required-ness check runs before any rule; rules only see non-empty values.
type answerRule func(q *Question, raw json.RawMessage) error

// One rule per question type. Adding a type means adding a variant here,
// not growing a conditional chain. Free-form types share the permissive
// rule: the source system never cross-checks radio/checkbox values against
// the configured options, and neither do we.
var answerRules = map[QuestionType]answerRule{
	TypeText:      validateFreeform,
	TypeTextarea:  validateFreeform,
	TypeRadio:     validateFreeform,
	TypeCheckbox:  validateFreeform,
	TypeDate:      validateFreeform,
	TypeTime:      validateFreeform,
	TypeScale:     validateFreeform,
	TypePoints100: validatePoints100,
}

// ValidateAnswers runs the whole answer set against the form's questions
// before anything is persisted. It fails fast: the first violation rejects
// the entire submission. Answers referencing unknown question ids are
// ignored.
func ValidateAnswers(questions []*Question, answers []SubmittedAnswer) error {
	byQuestion := make(map[string]json.RawMessage, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a.Value
	}
	for _, q := range questions {
		raw, submitted := byQuestion[q.ID]
		if !submitted || emptyValue(raw) {
			if q.Required {
				return NewValidationError("missing_required", q.ID,
					fmt.Sprintf("question %q is required", q.Key))
			}
			continue
		}
		rule := answerRules[q.Type]
		if rule == nil {
			// Unknown / render-only types (e.g. select stored in options)
			// get only the required-ness check above.
			continue
		}
		if err := rule(q, raw); err != nil {
			return err
		}
	}
	return nil
}

// emptyValue reports whether the raw payload counts as absent: JSON null,
// empty string, empty array or empty object.
func emptyValue(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0:
		return true
	case bytes.Equal(trimmed, []byte("null")):
		return true
	case bytes.Equal(trimmed, []byte(`""`)):
		return true
	case bytes.Equal(trimmed, []byte("[]")):
		return true
	case bytes.Equal(trimmed, []byte("{}")):
		return true
	}
	return false
}

func validateFreeform(_ *Question, _ json.RawMessage) error { return nil }

// validatePoints100 enforces the one cross-cutting server-side shape rule:
// a mapping from option label to non-negative integer summing to exactly 100.
func validatePoints100(q *Question, raw json.RawMessage) error {
	var points map[string]json.Number
	if err := json.Unmarshal(raw, &points); err != nil {
		return NewValidationError("points_value_invalid", q.ID,
			fmt.Sprintf("question %q expects a label to points mapping", q.Key))
	}
	sum := 0
	for label, n := range points {
		// A single entry outside [0, 100] can never occur in a valid
		// distribution, and unbounded entries would wrap the sum.
		v, err := n.Int64()
		if err != nil || v < 0 || v > 100 {
			return NewValidationError("points_value_invalid", q.ID,
				fmt.Sprintf("question %q has an invalid points value for %q", q.Key, label))
		}
		sum += int(v)
	}
	if sum != 100 {
		return NewValidationError("points_sum_mismatch", q.ID,
			fmt.Sprintf("points must sum to 100 for question %q, current sum: %d", q.Key, sum))
	}
	return nil
}
