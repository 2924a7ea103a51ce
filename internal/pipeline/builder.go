// Package pipeline orchestrates a full report-generation run: one
// immutable snapshot in, one fully resolved ReportData out. Nothing is
// persisted mid-run; cancelling the context discards partial state.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ndvoru/healthscope/internal/analyze"
	"github.com/ndvoru/healthscope/internal/insight"
	"github.com/ndvoru/healthscope/internal/model"
	"github.com/ndvoru/healthscope/internal/normalize"
	"github.com/ndvoru/healthscope/internal/textinsight"
	"github.com/ndvoru/healthscope/internal/worker"
	"github.com/sirupsen/logrus"
)

// metricPairs lists the series pairs tested for correlation, in the
// fixed order they appear in the report
var metricPairs = [][2]string{
	{model.MetricSleepQuality, model.MetricPain},
	{model.MetricSleepQuality, "nextDayPain"},
	{model.MetricMoodScore, model.MetricPain},
	{model.MetricFatigue, model.MetricPain},
	{model.MetricEnergy, model.MetricFatigue},
}

// Builder runs the analytics engine. Engines are constructor-injected
// per builder; configuration is passed explicitly, never ambient.
type Builder struct {
	cfg        *model.Config
	normalizer *normalize.Normalizer
	corr       *analyze.CorrelationEngine
	trends     *analyze.TrendAnalyzer
	patterns   *analyze.PatternMiner
	risk       *analyze.RiskScorer
	aggregator *insight.Aggregator
	text       *textinsight.Analyzer
	log        *logrus.Logger
}

// NewBuilder creates a builder with the given configuration. A failed
// text-provider initialization degrades to the local fallback and is
// logged, never fatal.
func NewBuilder(cfg *model.Config, log *logrus.Logger) *Builder {
	if log == nil {
		log = logrus.New()
	}

	provider, err := textinsight.NewProvider(cfg.Text)
	if err != nil {
		log.WithError(err).Warn("text provider unavailable, using local fallback")
		provider = nil
	}

	return &Builder{
		cfg:        cfg,
		normalizer: normalize.New(cfg.Analysis.MoodScale, log),
		corr:       analyze.NewCorrelationEngine(cfg.Analysis),
		trends:     analyze.NewTrendAnalyzer(cfg.Analysis),
		patterns:   analyze.NewPatternMiner(cfg.Analysis),
		risk:       analyze.NewRiskScorer(cfg.Risk),
		aggregator: insight.New(cfg.Analysis),
		text:       textinsight.NewAnalyzer(provider, cfg.Text, cfg.Cache, cfg.Concurrency.TextWorkers, log),
		log:        log,
	}
}

// analysisJob runs one independent analyzer stage inside the pool
type analysisJob struct {
	run func(ctx context.Context)
}

func (j *analysisJob) Execute(ctx context.Context) worker.Result {
	j.run(ctx)
	return &analysisResult{}
}

type analysisResult struct{}

func (r *analysisResult) GetError() error { return nil }

// Build runs the whole engine over one snapshot. now is injected so
// identical input yields byte-identical output.
func (b *Builder) Build(ctx context.Context, snap model.Snapshot, now time.Time) (*model.ReportData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	norm := b.normalizer.Normalize(snap)
	b.log.WithFields(logrus.Fields{
		"records": len(norm.Records),
		"crises":  len(norm.Crises),
	}).Debug("snapshot normalized")

	report := &model.ReportData{
		UserID:      snap.UserID,
		From:        snap.From,
		To:          snap.To,
		GeneratedAt: now,
		RecordCount: len(norm.Records),
		CrisisCount: len(norm.Crises),
		Charts:      b.charts(norm),
		Warnings:    norm.Warnings,
	}

	// Too little data: a well-formed insufficient-data summary with
	// every array present and empty, never an error
	if len(norm.Records) < b.cfg.Analysis.MinRecords {
		report.Correlations = []model.CorrelationResult{}
		report.Trends = []model.TrendResult{}
		report.Patterns = []model.PatternResult{}
		report.RiskFactors = []model.RiskFactor{}
		report.TextInsights = []model.NoteAnalysis{}
		report.Summary = insufficientSummary(len(norm.Records), b.cfg.Analysis.MinRecords)
		return report, nil
	}

	// The three analyzers are independent; fan out and merge. Each job
	// writes only its own slot.
	var correlations []model.CorrelationResult
	var trendResults []model.TrendResult
	var patternResults []model.PatternResult

	pool := worker.NewPool(b.cfg.Concurrency.AnalysisWorkers)
	pool.Start()
	pool.Submit(&analysisJob{run: func(context.Context) {
		correlations = b.correlations(norm)
	}})
	pool.Submit(&analysisJob{run: func(context.Context) {
		trendResults = b.trendResults(norm)
	}})
	pool.Submit(&analysisJob{run: func(context.Context) {
		patternResults = b.patterns.Mine(norm.Crises, norm.EveningMoods)
	}})
	pool.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	assessment := b.risk.Score(b.riskInput(snap, norm, correlations))

	// Text branch: an independent failure domain. It can only add
	// insights, never remove the analytic contribution.
	textAnalyses := b.text.AnalyzeBatch(ctx, norm.Notes)
	external := textinsight.ToInsights(textAnalyses)

	agg := b.aggregator.Aggregate(insight.Inputs{
		Correlations: correlations,
		Trends:       trendResults,
		Patterns:     patternResults,
		RiskFactors:  assessment.Factors,
		External:     external,
	})

	report.Correlations = correlations
	report.Trends = trendResults
	report.Patterns = patternResults
	report.RiskFactors = assessment.Factors
	report.TextInsights = textAnalyses
	report.Summary = model.SmartSummary{
		ExecutiveSummary: b.executiveSummary(correlations, trendResults, assessment),
		KeyFindings:      b.keyFindings(correlations, trendResults, patternResults, assessment),
		Insights:         agg.Groups,
		Recommendations:  agg.Recommendations,
		PredictiveAlerts: agg.PredictiveAlerts,
		Risk:             assessment,
		Status:           model.StatusOK,
	}

	return report, nil
}

// correlations runs the fixed metric pairs plus each evening mood
// label against next-day crisis occurrence
func (b *Builder) correlations(norm *normalize.Result) []model.CorrelationResult {
	out := []model.CorrelationResult{}

	series := norm.Series
	if pain, ok := series[model.MetricPain]; ok {
		shifted := analyze.ShiftBack(pain, 1, "nextDayPain")
		series = cloneSeries(norm.Series)
		series["nextDayPain"] = shifted
	}

	for _, pair := range metricPairs {
		a, okA := series[pair[0]]
		bSeries, okB := series[pair[1]]
		if !okA || !okB {
			continue
		}
		out = append(out, b.corr.Correlate(a, bSeries))
	}

	// Mood label vs crisis on the following day
	crisisNextDay := make(map[time.Time]bool)
	for _, c := range norm.Crises {
		crisisNextDay[c.Date.AddDate(0, 0, -1)] = true
	}
	byLabel := make(map[string][]time.Time)
	var labelOrder []string
	for _, m := range norm.EveningMoods {
		if _, seen := byLabel[m.Label]; !seen {
			labelOrder = append(labelOrder, m.Label)
		}
		byLabel[m.Label] = append(byLabel[m.Label], m.Date)
	}
	for _, label := range labelOrder {
		dates := byLabel[label]
		if len(dates) < b.cfg.Analysis.MinCategoryOccurrences {
			continue
		}
		out = append(out, b.corr.CorrelateCategoricalWithBoolean(
			"mood:"+label, dates, crisisNextDay, "crisisNextDay"))
	}

	return out
}

// trendResults analyzes every metric series in name order
func (b *Builder) trendResults(norm *normalize.Result) []model.TrendResult {
	out := []model.TrendResult{}
	for _, name := range sortedMetricNames(norm) {
		out = append(out, b.trends.AnalyzeTrend(norm.Series[name]))
	}
	return out
}

// riskInput folds normalized data into the scorer's input
func (b *Builder) riskInput(snap model.Snapshot, norm *normalize.Result, correlations []model.CorrelationResult) analyze.RiskInput {
	in := analyze.RiskInput{
		CrisisCount: len(norm.Crises),
		WindowDays:  windowDays(snap),
		Signals:     correlations,
	}

	var sum float64
	for _, c := range norm.Crises {
		sum += c.Intensity
	}
	if len(norm.Crises) > 0 {
		in.AvgIntensity = sum / float64(len(norm.Crises))
	}

	if sleep, ok := norm.Series[model.MetricSleepQuality]; ok && len(sleep.Points) > 0 {
		var total float64
		for _, p := range sleep.Points {
			total += p.Value
		}
		in.AvgSleepQuality = total / float64(len(sleep.Points))
		in.HasSleepData = true
	}

	return in
}

// executiveSummary builds one sentence from the top-ranked results
func (b *Builder) executiveSummary(correlations []model.CorrelationResult, trends []model.TrendResult, assessment model.RiskAssessment) string {
	parts := fmt.Sprintf("overall risk is %s", assessment.Tier)

	if top, ok := topCorrelation(correlations); ok {
		parts += fmt.Sprintf("; the strongest association links %s and %s (r=%.2f)", top.VariableA, top.VariableB, top.Coefficient)
	}
	if top, ok := topTrend(trends); ok {
		parts += fmt.Sprintf("; %s is %s", top.Metric, top.Direction)
	}
	return "Over this period " + parts + "."
}

// keyFindings ranks one line per analysis family
func (b *Builder) keyFindings(correlations []model.CorrelationResult, trends []model.TrendResult, patterns []model.PatternResult, assessment model.RiskAssessment) []string {
	findings := []string{
		fmt.Sprintf("overall risk tier: %s (score %.1f)", assessment.Tier, assessment.Score),
	}
	if top, ok := topCorrelation(correlations); ok {
		findings = append(findings, fmt.Sprintf("%s and %s move together (r=%.2f, %s significance)", top.VariableA, top.VariableB, top.Coefficient, top.Significance))
	}
	if top, ok := topTrend(trends); ok {
		findings = append(findings, fmt.Sprintf("%s trend: %s (weekly change %.1f)", top.Metric, top.Direction, top.WeeklyChange))
	}
	if len(patterns) > 0 {
		findings = append(findings, patterns[0].Description)
	}
	return findings
}

// charts precomputes date-aligned arrays for plotting, one per metric
// in name order, plus the crisis intensity overlay
func (b *Builder) charts(norm *normalize.Result) []model.ChartSeries {
	out := []model.ChartSeries{}
	for _, name := range sortedMetricNames(norm) {
		series := norm.Series[name]
		chart := model.ChartSeries{Metric: name, Dates: []string{}, Values: []float64{}}
		for _, p := range series.Points {
			chart.Dates = append(chart.Dates, p.Date.Format("2006-01-02"))
			chart.Values = append(chart.Values, p.Value)
		}
		out = append(out, chart)
	}

	if len(norm.Crises) > 0 {
		chart := model.ChartSeries{Metric: "crisisIntensity", Dates: []string{}, Values: []float64{}}
		for _, c := range norm.Crises {
			chart.Dates = append(chart.Dates, c.Date.Format("2006-01-02"))
			chart.Values = append(chart.Values, c.Intensity)
		}
		out = append(out, chart)
	}
	return out
}

// insufficientSummary is the short-circuit result for tiny windows
func insufficientSummary(records, minimum int) model.SmartSummary {
	return model.SmartSummary{
		ExecutiveSummary: fmt.Sprintf("Not enough diary data for analysis: %d records recorded, at least %d needed.", records, minimum),
		KeyFindings:      []string{},
		Insights: model.InsightGroups{
			Critical: []model.Insight{},
			Warning:  []model.Insight{},
			Positive: []model.Insight{},
			Neutral:  []model.Insight{},
		},
		Recommendations:  []string{"keep filling in the morning and evening check-ins to unlock analysis"},
		PredictiveAlerts: []string{},
		Risk: model.RiskAssessment{
			Tier:    model.RiskLow,
			Factors: []model.RiskFactor{},
		},
		Status: model.StatusInsufficientData,
	}
}

func topCorrelation(results []model.CorrelationResult) (model.CorrelationResult, bool) {
	best := model.CorrelationResult{}
	found := false
	for _, r := range results {
		if r.Status != model.StatusOK || r.Significance == model.SignificanceLow {
			continue
		}
		if !found || absFloat(r.Coefficient) > absFloat(best.Coefficient) {
			best = r
			found = true
		}
	}
	return best, found
}

func topTrend(results []model.TrendResult) (model.TrendResult, bool) {
	best := model.TrendResult{}
	found := false
	for _, r := range results {
		if r.Status != model.StatusOK || r.Direction == model.TrendStable {
			continue
		}
		if !found || r.Confidence > best.Confidence {
			best = r
			found = true
		}
	}
	return best, found
}

func sortedMetricNames(norm *normalize.Result) []string {
	names := make([]string, 0, len(norm.Series))
	for name := range norm.Series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func cloneSeries(in map[string]model.MetricSeries) map[string]model.MetricSeries {
	out := make(map[string]model.MetricSeries, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

func windowDays(snap model.Snapshot) int {
	if snap.To.IsZero() || snap.From.IsZero() || !snap.To.After(snap.From) {
		return 0
	}
	return int(snap.To.Sub(snap.From).Hours()/24) + 1
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
