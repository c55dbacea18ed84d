package services

import (
	"encoding/json"
	"time"
)

type ExportStore interface {
	GetForm(id string) (*Form, error)
	ListQuestions(formID string) ([]*Question, error)
	ListResponsesByForm(formID string) ([]*Response, error)
	ListAnswersByForm(formID string) ([]*Answer, error)
}

type ExportParams struct {
	FormID string
	Format string
}

type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ExportService struct {
	store ExportStore
}

func NewExportService(store ExportStore) *ExportService {
	return &ExportService{store: store}
}

func (s *ExportService) ExportCSV(params ExportParams) (*ExportResult, error) {
	if params.FormID == "" {
		return nil, NewInvalidError("form_id required")
	}
	format := params.Format
	if format == "" {
		format = "long"
	}
	f, err := s.store.GetForm(params.FormID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, NewNotFoundError("form not found")
	}
	questions, err := s.store.ListQuestions(params.FormID)
	if err != nil {
		return nil, err
	}
	responses, err := s.store.ListResponsesByForm(params.FormID)
	if err != nil {
		return nil, err
	}
	answers, err := s.store.ListAnswersByForm(params.FormID)
	if err != nil {
		return nil, err
	}

	keyByQuestion := make(map[string]string, len(questions))
	for _, q := range questions {
		keyByQuestion[q.ID] = q.Key
	}
	byResponse := map[string][]*Answer{}
	for _, a := range answers {
		byResponse[a.ResponseID] = append(byResponse[a.ResponseID], a)
	}

	switch format {
	case "long":
		rows := buildLongRows(responses, byResponse, keyByQuestion)
		b, err := ExportLongCSV(rows)
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: "responses_long.csv", ContentType: "text/csv; charset=utf-8", Data: b}, nil
	case "wide":
		mp := buildWideMap(responses, byResponse, keyByQuestion)
		b, err := ExportWideCSV(mp)
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: "responses_wide.csv", ContentType: "text/csv; charset=utf-8", Data: b}, nil
	default:
		return nil, NewInvalidError("unsupported format")
	}
}

func buildLongRows(responses []*Response, byResponse map[string][]*Answer, keyByQuestion map[string]string) []LongRow {
	out := make([]LongRow, 0, len(responses))
	for _, r := range responses {
		for _, a := range byResponse[r.ID] {
			out = append(out, LongRow{
				ResponseID:  r.ID,
				SubmittedAt: r.CreatedAt.Format(time.RFC3339),
				Status:      string(r.Status),
				Respondent:  respondentLabel(r),
				QuestionKey: questionKeyOrUnavailable(keyByQuestion, a.QuestionID),
				Value:       flattenValue(a.Value),
			})
		}
	}
	return out
}

func buildWideMap(responses []*Response, byResponse map[string][]*Answer, keyByQuestion map[string]string) map[string]map[string]string {
	mp := map[string]map[string]string{}
	for _, r := range responses {
		row := map[string]string{}
		for _, a := range byResponse[r.ID] {
			row[questionKeyOrUnavailable(keyByQuestion, a.QuestionID)] = flattenValue(a.Value)
		}
		mp[r.ID] = row
	}
	return mp
}

func respondentLabel(r *Response) string {
	if r.Anonymous || r.RespondentName == "" {
		return "anonymous"
	}
	return r.RespondentName
}

// questionKeyOrUnavailable falls back to the raw question id when the
// question was deleted after the answer was recorded.
func questionKeyOrUnavailable(keyByQuestion map[string]string, questionID string) string {
	if k, ok := keyByQuestion[questionID]; ok {
		return k
	}
	return questionID
}

// flattenValue turns a raw answer value into a single CSV cell: plain
// strings lose their quotes, everything else stays as compact JSON.
func flattenValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
