package services

import "sort"

type StatsStore interface {
	GetForm(id string) (*Form, error)
	ListResponsesByForm(formID string) ([]*Response, error)
}

// StatsService backs the reviewer dashboard: per-form totals, status
// breakdown, 1-on-1 requests and a daily submission series.
type StatsService struct {
	store StatsStore
}

type StatsTimeseries struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type FormStats struct {
	FormID         string            `json:"form_id"`
	TotalResponses int               `json:"total_responses"`
	ByStatus       map[Status]int    `json:"by_status"`
	Need1on1       int               `json:"need_1on1"`
	Timeseries     []StatsTimeseries `json:"timeseries"`
}

func NewStatsService(store StatsStore) *StatsService {
	return &StatsService{store: store}
}

func (s *StatsService) Summary(formID string) (*FormStats, error) {
	f, err := s.store.GetForm(formID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, NewNotFoundError("form not found")
	}
	responses, err := s.store.ListResponsesByForm(formID)
	if err != nil {
		return nil, err
	}
	byStatus := map[Status]int{
		StatusNew:             0,
		StatusReviewed:        0,
		StatusFollowupPending: 0,
		StatusClosed:          0,
	}
	need1on1 := 0
	countsByDay := map[string]int{}
	for _, r := range responses {
		byStatus[r.Status]++
		if r.Need1on1 {
			need1on1++
		}
		day := r.CreatedAt.UTC().Format("2006-01-02")
		countsByDay[day]++
	}
	return &FormStats{
		FormID:         formID,
		TotalResponses: len(responses),
		ByStatus:       byStatus,
		Need1on1:       need1on1,
		Timeseries:     buildTimeseries(countsByDay),
	}, nil
}

func buildTimeseries(counts map[string]int) []StatsTimeseries {
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)
	out := make([]StatsTimeseries, 0, len(days))
	for _, d := range days {
		out = append(out, StatsTimeseries{Date: d, Count: counts[d]})
	}
	return out
}
