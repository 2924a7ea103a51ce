package textinsight

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ndvoru/healthscope/internal/cache"
	"github.com/ndvoru/healthscope/internal/model"
	"github.com/ndvoru/healthscope/internal/worker"
	"github.com/sirupsen/logrus"
)

// Analyzer batches notes through the collaborator with a hard timeout,
// memoizing responses and degrading per item to the lexicon fallback.
// A failed item never fails the batch.
type Analyzer struct {
	provider Provider // nil when the collaborator is disabled
	fallback *LexiconClassifier
	limiter  *worker.Limiter
	store    cache.Cache // nil when caching is disabled
	cfg      model.TextConfig
	workers  int
	log      *logrus.Logger
}

// NewAnalyzer wires the collaborator, fallback, limiter and cache.
// provider may be nil; every note then goes through the fallback.
func NewAnalyzer(provider Provider, cfg model.TextConfig, cacheCfg model.CacheConfig, workers int, log *logrus.Logger) *Analyzer {
	if workers <= 0 {
		workers = 4
	}
	if log == nil {
		log = logrus.New()
	}
	var store cache.Cache
	if cacheCfg.Enabled {
		store = cache.NewMemoryCache(
			time.Duration(cacheCfg.TTLMinutes)*time.Minute,
			time.Duration(cacheCfg.CleanupMinutes)*time.Minute,
		)
	}
	return &Analyzer{
		provider: provider,
		fallback: NewLexiconClassifier(cfg.Lexicon),
		limiter:  worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		store:    store,
		cfg:      cfg,
		workers:  workers,
		log:      log,
	}
}

// AnalyzeBatch classifies every note, preserving input order. The
// whole batch runs under one hard timeout; notes still pending when it
// fires come back through the local fallback, and notes whose fallback
// also cannot run are marked unavailable rather than dropped.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, notes []model.Note) []model.NoteAnalysis {
	if len(notes) == 0 {
		return []model.NoteAnalysis{}
	}

	timeout := time.Duration(a.cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	batchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make([]model.NoteAnalysis, len(notes))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, a.workers)

	for i, note := range notes {
		wg.Add(1)
		go func(idx int, n model.Note) {
			defer wg.Done()

			select {
			case <-batchCtx.Done():
				results[idx] = a.degrade(n, batchCtx.Err().Error())
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = a.analyzeOne(batchCtx, n)
		}(i, note)
	}
	wg.Wait()

	return results
}

// analyzeOne resolves a single note: cache, then collaborator, then
// fallback
func (a *Analyzer) analyzeOne(ctx context.Context, note model.Note) model.NoteAnalysis {
	key := cache.NoteKey(note.Date.Format("2006-01-02"), note.Text)
	if a.store != nil {
		if data, ok := a.store.Get(key); ok {
			var cached model.NoteAnalysis
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached
			}
		}
	}

	if a.provider == nil {
		return a.fallback.Classify(note)
	}

	if err := a.limiter.Wait(ctx, a.provider.Name()); err != nil {
		return a.degrade(note, err.Error())
	}

	analysis, err := a.provider.AnalyzeNote(ctx, note)
	if err != nil {
		a.log.WithError(err).Warn("text collaborator failed for note, using fallback")
		return a.degrade(note, err.Error())
	}

	if a.store != nil {
		if data, err := json.Marshal(analysis); err == nil {
			_ = a.store.Set(key, data, 0)
		}
	}
	return analysis
}

// degrade classifies through the fallback and records why
func (a *Analyzer) degrade(note model.Note, reason string) model.NoteAnalysis {
	analysis := a.fallback.Classify(note)
	analysis.Error = reason
	return analysis
}

// ToInsights converts note analyses into externally shaped insights
// for the aggregator. High-urgency notes become anomaly insights;
// a run of positive notes becomes a positive observation.
func ToInsights(analyses []model.NoteAnalysis) []model.Insight {
	var out []model.Insight
	positives := 0

	for _, an := range analyses {
		if an.Unavailable {
			continue
		}
		if an.SentimentLabel == "positive" {
			positives++
		}
		if an.Urgency >= 7 {
			out = append(out, model.Insight{
				Type:       model.InsightAnomaly,
				Confidence: an.Urgency / 10,
				Impact:     model.ImpactHigh,
				Text:       "a diary note from " + an.Date.Format("2006-01-02") + " reports acute distress",
				Evidence:   an.Entities,
				Actionable: true,
			})
		}
	}

	if len(analyses) >= 3 && positives*2 > len(analyses) {
		out = append(out, model.Insight{
			Type:       model.InsightPattern,
			Confidence: float64(positives) / float64(len(analyses)),
			Impact:     model.ImpactLow,
			Text:       "most diary notes in this period read positive",
			Actionable: false,
		})
	}

	return out
}
