package services

import (
	"bytes"
	"encoding/csv"
	"sort"
)

type LongRow struct {
	ResponseID  string
	SubmittedAt string // ISO8601 suggested; string for CSV simplicity
	Status      string
	Respondent  string
	QuestionKey string
	Value       string
}

// ExportLongCSV renders rows into a long-format CSV, one answer per line.
func ExportLongCSV(rows []LongRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"response_id", "submitted_at", "status", "respondent", "question_key", "value"})
	for _, r := range rows {
		rec := []string{
			r.ResponseID,
			r.SubmittedAt,
			r.Status,
			r.Respondent,
			r.QuestionKey,
			r.Value,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportWideCSV renders a wide-format CSV with one row per response and one
// column per question key. inputs is a map[responseID]map[questionKey]value.
func ExportWideCSV(inputs map[string]map[string]string) ([]byte, error) {
	// Determine column order (sorted for stable output).
	keySet := map[string]struct{}{}
	for _, m := range inputs {
		for k := range m {
			keySet[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rids := make([]string, 0, len(inputs))
	for rid := range inputs {
		rids = append(rids, rid)
	}
	sort.Strings(rids)

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := append([]string{"response_id"}, keys...)
	_ = w.Write(header)
	for _, rid := range rids {
		row := make([]string, 0, 1+len(keys))
		row = append(row, rid)
		for _, k := range keys {
			row = append(row, inputs[rid][k])
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
