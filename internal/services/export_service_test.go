package services

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func seedExportData(store *stubStore) {
	store.forms["f1"] = &Form{ID: "f1", Title: "F"}
	store.questions["q1"] = &Question{ID: "q1", FormID: "f1", BlockID: "b1", Key: "name", Type: TypeText}
	store.questions["q2"] = &Question{ID: "q2", FormID: "f1", BlockID: "b1", Key: "split", Type: TypePoints100}
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	store.responses["r1"] = &Response{ID: "r1", FormID: "f1", DraftID: "d1", Status: StatusNew, RespondentName: "Jo", CreatedAt: at}
	store.responses["r2"] = &Response{ID: "r2", FormID: "f1", DraftID: "d2", Status: StatusReviewed, Anonymous: true, RespondentName: "Hidden", CreatedAt: at}
	store.answers = []*Answer{
		{ID: "a1", ResponseID: "r1", QuestionID: "q1", Value: json.RawMessage(`"Jo"`)},
		{ID: "a2", ResponseID: "r1", QuestionID: "q2", Value: json.RawMessage(`{"A":60,"B":40}`)},
		{ID: "a3", ResponseID: "r2", QuestionID: "q1", Value: json.RawMessage(`"Sam"`)},
	}
}

func TestExportLongFormat(t *testing.T) {
	store := newStubStore()
	seedExportData(store)
	svc := NewExportService(store)

	res, err := svc.ExportCSV(ExportParams{FormID: "f1", Format: "long"})
	if err != nil {
		t.Fatalf("export long: %v", err)
	}
	body := string(res.Data)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	if lines[0] != "response_id,submitted_at,status,respondent,question_key,value" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if len(lines) != 4 {
		t.Fatalf("expected 3 data rows, got %d", len(lines)-1)
	}
	if !strings.Contains(body, "r1,2025-06-01T10:00:00Z,new,Jo,name,Jo") {
		t.Fatalf("missing plain string row in:\n%s", body)
	}
	// Anonymous responses never leak the stored name.
	if strings.Contains(body, "Hidden") {
		t.Fatalf("anonymous respondent name leaked:\n%s", body)
	}
	if !strings.Contains(body, "anonymous,name,Sam") {
		t.Fatalf("expected anonymous label in:\n%s", body)
	}
	// Non-string values stay as compact JSON.
	if !strings.Contains(body, `"{""A"":60,""B"":40}"`) {
		t.Fatalf("points mapping should stay JSON in:\n%s", body)
	}
}

func TestExportWideFormat(t *testing.T) {
	store := newStubStore()
	seedExportData(store)
	svc := NewExportService(store)

	res, err := svc.ExportCSV(ExportParams{FormID: "f1", Format: "wide"})
	if err != nil {
		t.Fatalf("export wide: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(res.Data)), "\n")
	if lines[0] != "response_id,name,split" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if len(lines) != 3 {
		t.Fatalf("expected one row per response, got %d", len(lines)-1)
	}
	// r2 has no split answer: empty cell, not a dropped column.
	if !strings.HasPrefix(lines[2], "r2,Sam,") {
		t.Fatalf("unexpected r2 row: %q", lines[2])
	}
}

func TestExportFallsBackToQuestionIDWhenDeleted(t *testing.T) {
	store := newStubStore()
	seedExportData(store)
	delete(store.questions, "q2")
	svc := NewExportService(store)

	res, err := svc.ExportCSV(ExportParams{FormID: "f1", Format: "long"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(string(res.Data), "q2") {
		t.Fatalf("deleted question answers must keep their raw id:\n%s", res.Data)
	}
}

func TestExportValidation(t *testing.T) {
	store := newStubStore()
	seedExportData(store)
	svc := NewExportService(store)

	if _, err := svc.ExportCSV(ExportParams{Format: "long"}); err == nil {
		t.Fatal("missing form_id must fail")
	}
	if _, err := svc.ExportCSV(ExportParams{FormID: "missing"}); err == nil {
		t.Fatal("unknown form must fail")
	}
	if _, err := svc.ExportCSV(ExportParams{FormID: "f1", Format: "xml"}); err == nil {
		t.Fatal("unsupported format must fail")
	}
}
