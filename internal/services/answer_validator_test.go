package services

import (
	"encoding/json"
	"testing"
)

func reqText(id, key string) *Question {
	return &Question{ID: id, Key: key, Type: TypeText, Required: true}
}

func TestValidateAnswersMissingRequired(t *testing.T) {
	questions := []*Question{reqText("q1", "name")}

	err := ValidateAnswers(questions, nil)
	se, ok := AsServiceError(err)
	if !ok || se.Reason != "missing_required" || se.QuestionID != "q1" {
		t.Fatalf("expected missing_required on q1, got %v", err)
	}
}

func TestValidateAnswersEmptyValuesCountAsMissing(t *testing.T) {
	questions := []*Question{reqText("q1", "name")}
	for _, raw := range []string{`null`, `""`, `[]`, `{}`, ``} {
		err := ValidateAnswers(questions, []SubmittedAnswer{{QuestionID: "q1", Value: json.RawMessage(raw)}})
		se, ok := AsServiceError(err)
		if !ok || se.Reason != "missing_required" {
			t.Fatalf("value %q should count as missing, got %v", raw, err)
		}
	}
}

func TestValidateAnswersOptionalEmptyIsFine(t *testing.T) {
	questions := []*Question{{ID: "q1", Key: "note", Type: TypeTextarea}}
	if err := ValidateAnswers(questions, nil); err != nil {
		t.Fatalf("optional question may be absent: %v", err)
	}
	if err := ValidateAnswers(questions, []SubmittedAnswer{{QuestionID: "q1", Value: json.RawMessage(`null`)}}); err != nil {
		t.Fatalf("optional question may be null: %v", err)
	}
}

func TestValidateAnswersIgnoresUnknownQuestions(t *testing.T) {
	questions := []*Question{{ID: "q1", Key: "note", Type: TypeText}}
	answers := []SubmittedAnswer{
		{QuestionID: "q1", Value: json.RawMessage(`"hi"`)},
		{QuestionID: "ghost", Value: json.RawMessage(`"boo"`)},
	}
	if err := ValidateAnswers(questions, answers); err != nil {
		t.Fatalf("unknown question ids must be ignored: %v", err)
	}
}

func TestValidateAnswersRadioValueNotCrossChecked(t *testing.T) {
	questions := []*Question{{ID: "q1", Key: "pick", Type: TypeRadio, Options: []string{"a", "b"}, Required: true}}
	answers := []SubmittedAnswer{{QuestionID: "q1", Value: json.RawMessage(`"not-an-option"`)}}
	if err := ValidateAnswers(questions, answers); err != nil {
		t.Fatalf("radio values are free-form: %v", err)
	}
}

func TestValidatePoints100(t *testing.T) {
	questions := []*Question{{ID: "q1", Key: "split", Type: TypePoints100, Required: true}}

	cases := []struct {
		name   string
		value  string
		reason string
	}{
		{"exact sum", `{"A":60,"B":40}`, ""},
		{"single bucket", `{"A":100}`, ""},
		{"sum too low", `{"A":60,"B":30}`, "points_sum_mismatch"},
		{"sum too high", `{"A":60,"B":50}`, "points_sum_mismatch"},
		{"negative value", `{"A":-10,"B":110}`, "points_value_invalid"},
		{"fractional value", `{"A":50.5,"B":49.5}`, "points_value_invalid"},
		{"single value above 100", `{"A":150}`, "points_value_invalid"},
		{"wrapping values", `{"A":9223372036854775807,"B":9223372036854775807,"C":102}`, "points_value_invalid"},
		{"wrong shape", `[60,40]`, "points_value_invalid"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateAnswers(questions, []SubmittedAnswer{{QuestionID: "q1", Value: json.RawMessage(tc.value)}})
			if tc.reason == "" {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			se, ok := AsServiceError(err)
			if !ok || se.Reason != tc.reason {
				t.Fatalf("expected reason %q, got %v", tc.reason, err)
			}
			if se.QuestionID != "q1" {
				t.Fatalf("validation error must name the question, got %q", se.QuestionID)
			}
		})
	}
}
