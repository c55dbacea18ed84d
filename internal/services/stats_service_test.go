package services

import (
	"testing"
	"time"
)

func TestStatsSummary(t *testing.T) {
	store := newStubStore()
	store.forms["f1"] = &Form{ID: "f1", Title: "F"}
	day1 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	store.responses["r1"] = &Response{ID: "r1", FormID: "f1", Status: StatusNew, CreatedAt: day1, Need1on1: true}
	store.responses["r2"] = &Response{ID: "r2", FormID: "f1", Status: StatusNew, CreatedAt: day1}
	store.responses["r3"] = &Response{ID: "r3", FormID: "f1", Status: StatusReviewed, CreatedAt: day2}
	store.responses["other"] = &Response{ID: "other", FormID: "f2", Status: StatusNew, CreatedAt: day1}
	svc := NewStatsService(store)

	stats, err := svc.Summary("f1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if stats.TotalResponses != 3 {
		t.Fatalf("expected 3 responses, got %d", stats.TotalResponses)
	}
	if stats.ByStatus[StatusNew] != 2 || stats.ByStatus[StatusReviewed] != 1 {
		t.Fatalf("unexpected status breakdown: %+v", stats.ByStatus)
	}
	// All four statuses are present even when zero.
	if _, ok := stats.ByStatus[StatusClosed]; !ok {
		t.Fatal("closed bucket should exist at zero")
	}
	if _, ok := stats.ByStatus[StatusFollowupPending]; !ok {
		t.Fatal("followup_pending bucket should exist at zero")
	}
	if stats.Need1on1 != 1 {
		t.Fatalf("expected one 1-on-1 request, got %d", stats.Need1on1)
	}
	want := []StatsTimeseries{{Date: "2025-06-01", Count: 2}, {Date: "2025-06-02", Count: 1}}
	if len(stats.Timeseries) != len(want) {
		t.Fatalf("unexpected timeseries: %+v", stats.Timeseries)
	}
	for i := range want {
		if stats.Timeseries[i] != want[i] {
			t.Fatalf("timeseries[%d] = %+v, want %+v", i, stats.Timeseries[i], want[i])
		}
	}
}

func TestStatsSummaryUnknownForm(t *testing.T) {
	svc := NewStatsService(newStubStore())
	_, err := svc.Summary("missing")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
