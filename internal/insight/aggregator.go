// Package insight merges every analytic result into ranked, categorized
// user-facing findings. The analytic branch and the externally supplied
// text branch are independent failure domains: either may be empty
// without removing the other's contribution.
package insight

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ndvoru/healthscope/internal/model"
)

// adviceByType is the fixed lookup from insight type to the advice
// template used for recommendations
var adviceByType = map[model.InsightType]string{
	model.InsightPattern:     "plan around the detected pattern: %s",
	model.InsightTrend:       "monitor the trend: %s",
	model.InsightCorrelation: "address the linked factor: %s",
	model.InsightAnomaly:     "discuss with a clinician: %s",
	model.InsightPrediction:  "prepare for the predicted episode: %s",
}

// Inputs collects everything the aggregator consumes
type Inputs struct {
	Correlations []model.CorrelationResult
	Trends       []model.TrendResult
	Patterns     []model.PatternResult
	RiskFactors  []model.RiskFactor

	// External carries text-derived insights, already shaped. May be
	// empty when the collaborator degraded or was disabled.
	External []model.Insight
}

// Output is the aggregated view consumed by the summary builder
type Output struct {
	Groups           model.InsightGroups
	Recommendations  []string
	PredictiveAlerts []string
}

// Aggregator converts, merges, deduplicates and ranks insights
type Aggregator struct {
	cfg model.AnalysisConfig
}

// New creates an aggregator
func New(cfg model.AnalysisConfig) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Aggregate runs the full pipeline: threshold-gated conversion, merge
// with external insights, dedupe, categorize, rank, derive
// recommendations and predictive alerts.
func (a *Aggregator) Aggregate(in Inputs) Output {
	var insights []model.Insight
	insights = append(insights, a.fromCorrelations(in.Correlations)...)
	insights = append(insights, a.fromTrends(in.Trends)...)
	insights = append(insights, a.fromPatterns(in.Patterns)...)
	insights = append(insights, a.fromRiskFactors(in.RiskFactors)...)
	insights = append(insights, in.External...)
	insights = dedupe(insights)

	groups := a.categorize(insights)
	return Output{
		Groups:           groups,
		Recommendations:  a.recommendations(groups),
		PredictiveAlerts: a.alerts(in.Patterns),
	}
}

// fromCorrelations converts MEDIUM and HIGH significance results
func (a *Aggregator) fromCorrelations(results []model.CorrelationResult) []model.Insight {
	var out []model.Insight
	for _, r := range results {
		if r.Status != model.StatusOK || r.Significance == model.SignificanceLow {
			continue
		}
		impact := model.ImpactMedium
		if r.Significance == model.SignificanceHigh {
			impact = model.ImpactHigh
		}
		direction := "rises"
		if r.Coefficient < 0 {
			direction = "falls"
		}
		out = append(out, model.Insight{
			Type:       model.InsightCorrelation,
			Confidence: math.Abs(r.Coefficient),
			Impact:     impact,
			Text:       fmt.Sprintf("%s %s as %s rises (r=%.2f, n=%d)", r.VariableB, direction, r.VariableA, r.Coefficient, r.SampleSize),
			Evidence:   []string{fmt.Sprintf("%d paired observations", r.SampleSize)},
			Actionable: true,
		})
	}
	return out
}

// fromTrends converts non-stable trends
func (a *Aggregator) fromTrends(results []model.TrendResult) []model.Insight {
	var out []model.Insight
	for _, r := range results {
		if r.Status != model.StatusOK || r.Direction == model.TrendStable {
			continue
		}
		impact := model.ImpactMedium
		text := fmt.Sprintf("%s is improving (weekly change %.1f)", r.Metric, r.WeeklyChange)
		actionable := false
		if r.Direction == model.TrendWorsening {
			impact = model.ImpactHigh
			text = fmt.Sprintf("%s is worsening (weekly change %.1f)", r.Metric, r.WeeklyChange)
			actionable = true
		}
		out = append(out, model.Insight{
			Type:       model.InsightTrend,
			Confidence: r.Confidence,
			Impact:     impact,
			Text:       text,
			Evidence:   []string{fmt.Sprintf("%d observations", r.SampleSize)},
			Actionable: actionable,
		})
	}
	return out
}

// fromPatterns converts patterns above the strength/frequency gate
func (a *Aggregator) fromPatterns(results []model.PatternResult) []model.Insight {
	var out []model.Insight
	for _, r := range results {
		if r.Strength <= a.cfg.InsightStrengthCutoff || r.Frequency < a.cfg.InsightFrequencyMin {
			continue
		}
		typ := model.InsightPattern
		if r.Kind == model.PatternMoodSequence {
			typ = model.InsightPrediction
		}
		impact := model.ImpactMedium
		if r.Strength > a.cfg.CriticalConfidenceCutoff {
			impact = model.ImpactHigh
		}
		out = append(out, model.Insight{
			Type:       typ,
			Confidence: r.Strength,
			Impact:     impact,
			Text:       r.Description,
			Evidence:   r.Examples,
			Actionable: true,
		})
	}
	return out
}

// fromRiskFactors surfaces high-impact factors as anomaly insights
func (a *Aggregator) fromRiskFactors(factors []model.RiskFactor) []model.Insight {
	var out []model.Insight
	for _, f := range factors {
		if f.Impact != model.ImpactHigh {
			continue
		}
		out = append(out, model.Insight{
			Type:       model.InsightAnomaly,
			Confidence: 0.85,
			Impact:     model.ImpactHigh,
			Text:       f.Name,
			Evidence:   []string{f.Recommendation},
			Actionable: true,
		})
	}
	return out
}

// categorize buckets insights and sorts each bucket by confidence
// descending. The sort is stable for determinism.
func (a *Aggregator) categorize(insights []model.Insight) model.InsightGroups {
	groups := model.InsightGroups{
		Critical: []model.Insight{},
		Warning:  []model.Insight{},
		Positive: []model.Insight{},
		Neutral:  []model.Insight{},
	}
	for _, ins := range insights {
		switch {
		case ins.Impact == model.ImpactHigh && (ins.Type == model.InsightAnomaly || ins.Confidence > a.cfg.CriticalConfidenceCutoff):
			groups.Critical = append(groups.Critical, ins)
		case ins.Impact == model.ImpactHigh && ins.Actionable:
			groups.Warning = append(groups.Warning, ins)
		case a.isPositive(ins.Text):
			groups.Positive = append(groups.Positive, ins)
		default:
			groups.Neutral = append(groups.Neutral, ins)
		}
	}
	for _, bucket := range [][]model.Insight{groups.Critical, groups.Warning, groups.Positive, groups.Neutral} {
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].Confidence > bucket[j].Confidence
		})
	}
	return groups
}

// isPositive matches the improvement vocabulary
func (a *Aggregator) isPositive(text string) bool {
	lower := strings.ToLower(text)
	for _, word := range a.cfg.PositiveVocabulary {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// recommendations derives advice from actionable insights through the
// fixed type lookup, deduplicated, in category order
func (a *Aggregator) recommendations(groups model.InsightGroups) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, bucket := range [][]model.Insight{groups.Critical, groups.Warning, groups.Positive, groups.Neutral} {
		for _, ins := range bucket {
			if !ins.Actionable {
				continue
			}
			template, ok := adviceByType[ins.Type]
			if !ok {
				continue
			}
			rec := fmt.Sprintf(template, ins.Text)
			if !seen[rec] {
				seen[rec] = true
				out = append(out, rec)
			}
		}
	}
	return out
}

// alerts derives predictive alerts from sequence and temporal patterns
// above the actionable strength cutoff
func (a *Aggregator) alerts(patterns []model.PatternResult) []string {
	out := []string{}
	for _, p := range patterns {
		if p.Kind != model.PatternMoodSequence && p.Kind != model.PatternTemporal {
			continue
		}
		if p.Strength <= a.cfg.AlertStrengthCutoff {
			continue
		}
		out = append(out, fmt.Sprintf("watch out: %s (strength %.0f%%)", p.Description, p.Strength*100))
	}
	return out
}

// dedupe removes repeated (type, text) insights, keeping first
func dedupe(insights []model.Insight) []model.Insight {
	seen := make(map[string]bool)
	var out []model.Insight
	for _, ins := range insights {
		key := string(ins.Type) + "|" + ins.Text
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ins)
	}
	return out
}
