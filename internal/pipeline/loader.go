package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ndvoru/healthscope/internal/model"
)

// LoadSnapshot reads a diary export file and returns the immutable
// snapshot for the requested window. The file holds either a full
// Snapshot object or a bare record array; the window then defaults to
// the span of the records themselves.
func LoadSnapshot(path string, from, to time.Time) (*model.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil || len(snap.Records) == 0 {
		var records []model.RawRecord
		if err2 := json.Unmarshal(data, &records); err2 != nil {
			if err == nil {
				err = err2
			}
			return nil, fmt.Errorf("parse snapshot: %w", err)
		}
		snap = model.Snapshot{Records: records}
	}

	if !from.IsZero() || !to.IsZero() {
		snap.Records = filterWindow(snap.Records, from, to)
	}
	if !from.IsZero() {
		snap.From = from
	}
	if !to.IsZero() {
		snap.To = to
	}
	if snap.From.IsZero() || snap.To.IsZero() {
		inferWindow(&snap)
	}

	return &snap, nil
}

// filterWindow keeps records whose date falls inside [from, to]
func filterWindow(records []model.RawRecord, from, to time.Time) []model.RawRecord {
	var out []model.RawRecord
	for _, r := range records {
		date, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			// The normalizer reports unparseable dates as warnings;
			// keep the record so that happens in one place
			out = append(out, r)
			continue
		}
		if !from.IsZero() && date.Before(from) {
			continue
		}
		if !to.IsZero() && date.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// inferWindow derives missing window bounds from the record span
func inferWindow(snap *model.Snapshot) {
	for _, r := range snap.Records {
		date, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			continue
		}
		if snap.From.IsZero() || date.Before(snap.From) {
			snap.From = date
		}
		if snap.To.IsZero() || date.After(snap.To) {
			snap.To = date
		}
	}
}
