package textinsight

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
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

// failingProvider always errors, forcing the fallback path
type failingProvider struct{}

func (p *failingProvider) Name() string { return "failing" }

func (p *failingProvider) AnalyzeNote(ctx context.Context, note model.Note) (model.NoteAnalysis, error) {
	return model.NoteAnalysis{}, errors.New("upstream unavailable")
}

// countingProvider returns a fixed analysis and counts invocations
type countingProvider struct {
	calls int64
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) AnalyzeNote(ctx context.Context, note model.Note) (model.NoteAnalysis, error) {
	atomic.AddInt64(&p.calls, 1)
	return model.NoteAnalysis{
		Date:           note.Date,
		SentimentLabel: "neutral",
		Source:         "counting",
	}, nil
}

func testNotes(texts ...string) []model.Note {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.Note, len(texts))
	for i, text := range texts {
		out[i] = model.Note{Date: base.AddDate(0, 0, i), Text: text}
	}
	return out
}

func TestAnalyzeBatchWithoutProvider(t *testing.T) {
	cfg := model.DefaultConfig()
	a := NewAnalyzer(nil, cfg.Text, model.CacheConfig{}, 2, testLogger())

	notes := testNotes("feeling better", "pain got worse")
	got := a.AnalyzeBatch(context.Background(), notes)

	if len(got) != len(notes) {
		t.Fatalf("expected %d analyses, got %d", len(notes), len(got))
	}
	for i, an := range got {
		if an.Source != "fallback" {
			t.Errorf("analysis %d source = %q, want fallback", i, an.Source)
		}
		if !an.Date.Equal(notes[i].Date) {
			t.Errorf("analysis %d out of order: date %v, want %v", i, an.Date, notes[i].Date)
		}
	}
}

func TestAnalyzeBatchDegradesPerNote(t *testing.T) {
	cfg := model.DefaultConfig()
	a := NewAnalyzer(&failingProvider{}, cfg.Text, model.CacheConfig{}, 2, testLogger())

	got := a.AnalyzeBatch(context.Background(), testNotes("pain got worse"))

	if len(got) != 1 {
		t.Fatalf("a failing provider must not shrink the batch, got %d", len(got))
	}
	if got[0].Source != "fallback" {
		t.Errorf("source = %q, want fallback", got[0].Source)
	}
	if got[0].Error == "" {
		t.Error("degraded analysis should record the failure reason")
	}
	// The fallback still produced a real classification
	if got[0].SentimentLabel != "negative" {
		t.Errorf("label = %q, want negative", got[0].SentimentLabel)
	}
}

func TestAnalyzeBatchPreservesOrder(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Text.RequestsPerSecond = 1000 // keep the limiter out of the way
	a := NewAnalyzer(&countingProvider{}, cfg.Text, model.CacheConfig{}, 4, testLogger())

	notes := testNotes("one", "two", "three", "four", "five", "six", "seven", "eight")
	got := a.AnalyzeBatch(context.Background(), notes)

	if len(got) != len(notes) {
		t.Fatalf("expected %d analyses, got %d", len(notes), len(got))
	}
	for i := range got {
		if !got[i].Date.Equal(notes[i].Date) {
			t.Fatalf("result %d has date %v, want %v", i, got[i].Date, notes[i].Date)
		}
	}
}

func TestAnalyzeBatchMemoizesProviderResponses(t *testing.T) {
	cfg := model.DefaultConfig()
	provider := &countingProvider{}
	a := NewAnalyzer(provider, cfg.Text, model.CacheConfig{Enabled: true, TTLMinutes: 5, CleanupMinutes: 5}, 2, testLogger())

	notes := testNotes("took ibuprofen at noon")
	a.AnalyzeBatch(context.Background(), notes)
	a.AnalyzeBatch(context.Background(), notes)

	if calls := atomic.LoadInt64(&provider.calls); calls != 1 {
		t.Errorf("provider called %d times for an identical note, want 1", calls)
	}
}

func TestAnalyzeBatchEmptyInput(t *testing.T) {
	cfg := model.DefaultConfig()
	a := NewAnalyzer(nil, cfg.Text, model.CacheConfig{}, 2, testLogger())

	got := a.AnalyzeBatch(context.Background(), nil)
	if got == nil || len(got) != 0 {
		t.Errorf("empty batch should yield an empty slice, got %v", got)
	}
}

func TestToInsightsUrgentNote(t *testing.T) {
	date := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	got := ToInsights([]model.NoteAnalysis{
		{Date: date, SentimentLabel: "negative", Urgency: 8, Entities: []string{"sumatriptan"}},
		{Date: date, SentimentLabel: "negative", Urgency: 4},
	})

	if len(got) != 1 {
		t.Fatalf("expected 1 insight, got %+v", got)
	}
	ins := got[0]
	if ins.Type != model.InsightAnomaly || ins.Impact != model.ImpactHigh {
		t.Errorf("urgent note should become a high-impact anomaly: %+v", ins)
	}
	if ins.Confidence != 0.8 {
		t.Errorf("confidence = %g, want urgency/10", ins.Confidence)
	}
}

func TestToInsightsPositiveRun(t *testing.T) {
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	analyses := []model.NoteAnalysis{
		{Date: date, SentimentLabel: "positive"},
		{Date: date, SentimentLabel: "positive"},
		{Date: date, SentimentLabel: "neutral"},
	}

	got := ToInsights(analyses)
	if len(got) != 1 {
		t.Fatalf("expected the positive-run insight, got %+v", got)
	}
	if got[0].Type != model.InsightPattern || got[0].Actionable {
		t.Errorf("positive run should be a non-actionable pattern: %+v", got[0])
	}
}

func TestToInsightsSkipsUnavailable(t *testing.T) {
	got := ToInsights([]model.NoteAnalysis{
		{SentimentLabel: "negative", Urgency: 9, Unavailable: true},
	})
	if len(got) != 0 {
		t.Errorf("unavailable analyses must not produce insights: %+v", got)
	}
}
