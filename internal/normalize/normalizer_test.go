package normalize

import (
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ndvoru/healthscope/internal/model"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testNormalizer() *Normalizer {
	return New(model.DefaultConfig().Analysis.MoodScale, testLogger())
}

func answers(t *testing.T, kv map[string]interface{}) map[string]json.RawMessage {
	t.Helper()
	out := make(map[string]json.RawMessage, len(kv))
	for k, v := range kv {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal answer %q: %v", k, err)
		}
		out[k] = data
	}
	return out
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func TestNormalizeMergesRecordsAndAveragesSeries(t *testing.T) {
	snap := model.Snapshot{Records: []model.RawRecord{
		{Date: "2025-06-01", Entries: []model.RawEntry{
			{Kind: "morning", Answers: answers(t, map[string]interface{}{
				"painLevel": 4, "sleepQuality": 7,
			})},
		}},
		// Same date in a second raw record merges into one daily record
		{Date: "2025-06-01", Entries: []model.RawEntry{
			{Kind: "evening", Answers: answers(t, map[string]interface{}{
				"painLevel": 6,
			})},
		}},
	}}

	res := testNormalizer().Normalize(snap)

	if len(res.Records) != 1 {
		t.Fatalf("expected 1 merged record, got %d", len(res.Records))
	}
	if len(res.Records[0].Entries) != 2 {
		t.Fatalf("expected 2 entries in merged record, got %d", len(res.Records[0].Entries))
	}

	pain, ok := res.Series[model.MetricPain]
	if !ok {
		t.Fatal("pain series missing")
	}
	if len(pain.Points) != 1 {
		t.Fatalf("expected 1 pain point, got %d", len(pain.Points))
	}
	if got := pain.Points[0].Value; got != 5 {
		t.Errorf("same-date pain values should average to 5, got %g", got)
	}
}

func TestNormalizeSortsRecordsByDate(t *testing.T) {
	snap := model.Snapshot{Records: []model.RawRecord{
		{Date: "2025-06-03", Entries: []model.RawEntry{
			{Kind: "morning", Answers: answers(t, map[string]interface{}{"energy": 5})},
		}},
		{Date: "2025-06-01", Entries: []model.RawEntry{
			{Kind: "morning", Answers: answers(t, map[string]interface{}{"energy": 6})},
		}},
	}}

	res := testNormalizer().Normalize(snap)
	if len(res.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(res.Records))
	}
	if !res.Records[0].Date.Before(res.Records[1].Date) {
		t.Error("records are not in chronological order")
	}
}

func TestNormalizeWarnsInsteadOfFailing(t *testing.T) {
	snap := model.Snapshot{Records: []model.RawRecord{
		{Date: "not-a-date", Entries: []model.RawEntry{
			{Kind: "morning", Answers: answers(t, map[string]interface{}{"painLevel": 3})},
		}},
		{Date: "2025-06-01", Entries: []model.RawEntry{
			{Kind: "morning", Answers: answers(t, map[string]interface{}{
				"painLevel": 14,      // outside the 0-10 scale
				"mystery":   "what?", // not in the schema
				"energy":    5,
			})},
			{Kind: "afternoon", Answers: answers(t, map[string]interface{}{})}, // unknown kind
		}},
	}}

	res := testNormalizer().Normalize(snap)

	if len(res.Records) != 1 {
		t.Fatalf("expected the valid record to survive, got %d records", len(res.Records))
	}
	if got := len(res.Warnings); got != 4 {
		t.Fatalf("expected 4 warnings (bad date, out of range, unknown question, unknown kind), got %d: %+v", got, res.Warnings)
	}
	// The out-of-range answer is dropped, the valid sibling kept
	if _, ok := res.Series[model.MetricPain]; ok {
		t.Error("out-of-range pain value should not produce a series point")
	}
	if energy, ok := res.Series[model.MetricEnergy]; !ok || len(energy.Points) != 1 {
		t.Error("valid energy answer should survive alongside warnings")
	}
}

func TestNormalizeAcceptsQuotedNumbers(t *testing.T) {
	snap := model.Snapshot{Records: []model.RawRecord{
		{Date: "2025-06-01", Entries: []model.RawEntry{
			{Kind: "morning", Answers: answers(t, map[string]interface{}{
				"sleepQuality": "7",
			})},
		}},
	}}

	res := testNormalizer().Normalize(snap)
	sleep, ok := res.Series[model.MetricSleepQuality]
	if !ok || len(sleep.Points) != 1 {
		t.Fatal("quoted numeric answer should parse into the sleep series")
	}
	if sleep.Points[0].Value != 7 {
		t.Errorf("expected 7, got %g", sleep.Points[0].Value)
	}
}

func TestDeriveCrises(t *testing.T) {
	recordedAt := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	snap := model.Snapshot{Records: []model.RawRecord{
		{Date: "2025-06-02", Entries: []model.RawEntry{
			{Kind: "emergency", RecordedAt: recordedAt, Answers: answers(t, map[string]interface{}{
				"intensity":          8,
				"locations":          []string{"temples"},
				"triggers":           []string{"stress"},
				"symptoms":           []string{"nausea", "photophobia"},
				"medicationResponse": "partial",
			})},
		}},
		// An emergency entry without intensity is skipped with a warning
		{Date: "2025-06-03", Entries: []model.RawEntry{
			{Kind: "emergency", Answers: answers(t, map[string]interface{}{
				"triggers": []string{"noise"},
			})},
		}},
	}}

	res := testNormalizer().Normalize(snap)

	if len(res.Crises) != 1 {
		t.Fatalf("expected 1 crisis, got %d", len(res.Crises))
	}
	c := res.Crises[0]
	if c.Intensity != 8 {
		t.Errorf("intensity = %g, want 8", c.Intensity)
	}
	if !c.OccurredAt.Equal(recordedAt) {
		t.Errorf("occurredAt = %v, want %v", c.OccurredAt, recordedAt)
	}
	if len(c.Triggers) != 1 || c.Triggers[0] != "stress" {
		t.Errorf("triggers = %v, want [stress]", c.Triggers)
	}
	if c.MedicationResponse != "partial" {
		t.Errorf("medicationResponse = %q, want partial", c.MedicationResponse)
	}

	found := false
	for _, w := range res.Warnings {
		if w.Field == "intensity" {
			found = true
		}
	}
	if !found {
		t.Error("missing-intensity emergency should produce a warning")
	}
}

func TestEveningMoodFeedsSeriesAndSequence(t *testing.T) {
	snap := model.Snapshot{Records: []model.RawRecord{
		{Date: "2025-06-01", Entries: []model.RawEntry{
			{Kind: "evening", Answers: answers(t, map[string]interface{}{"mood": "Good"})},
		}},
		{Date: "2025-06-02", Entries: []model.RawEntry{
			{Kind: "evening", Answers: answers(t, map[string]interface{}{"mood": "Ecstatic"})}, // not in scale
		}},
	}}

	res := testNormalizer().Normalize(snap)

	mood, ok := res.Series[model.MetricMoodScore]
	if !ok || len(mood.Points) != 1 {
		t.Fatalf("expected 1 mood score point, got %+v", mood)
	}
	if mood.Points[0].Value != 7 {
		t.Errorf("Good should map to 7, got %g", mood.Points[0].Value)
	}

	// The label sequence keeps even unscalable labels, in date order
	if len(res.EveningMoods) != 2 {
		t.Fatalf("expected 2 evening moods, got %d", len(res.EveningMoods))
	}
	if res.EveningMoods[0].Label != "Good" || res.EveningMoods[1].Label != "Ecstatic" {
		t.Errorf("unexpected mood sequence: %+v", res.EveningMoods)
	}
	if !res.EveningMoods[0].Date.Equal(day(t, "2025-06-01")) {
		t.Error("mood sequence not in date order")
	}

	warned := false
	for _, w := range res.Warnings {
		if w.Field == "mood" {
			warned = true
		}
	}
	if !warned {
		t.Error("unknown mood label should produce a warning")
	}
}

func TestLabelCountsAndNotes(t *testing.T) {
	snap := model.Snapshot{Records: []model.RawRecord{
		{Date: "2025-06-01", Entries: []model.RawEntry{
			{Kind: "evening", Answers: answers(t, map[string]interface{}{
				"triggers": []string{"stress", "noise"},
				"notes":    "  felt better after resting  ",
			})},
		}},
		{Date: "2025-06-02", Entries: []model.RawEntry{
			{Kind: "evening", Answers: answers(t, map[string]interface{}{
				"triggers": []string{"stress"},
				"notes":    "   ",
			})},
		}},
	}}

	res := testNormalizer().Normalize(snap)

	if got := res.LabelCounts["triggers"]["stress"]; got != 2 {
		t.Errorf("stress count = %d, want 2", got)
	}
	if got := res.LabelCounts["triggers"]["noise"]; got != 1 {
		t.Errorf("noise count = %d, want 1", got)
	}

	// Whitespace-only notes are dropped, real notes trimmed
	if len(res.Notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(res.Notes))
	}
	if res.Notes[0].Text != "felt better after resting" {
		t.Errorf("note text = %q", res.Notes[0].Text)
	}
}
