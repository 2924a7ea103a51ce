package insight

import (
	"strings"
	"testing"

	"github.com/ndvoru/healthscope/internal/model"
)

func testAggregator() *Aggregator {
	return New(model.DefaultConfig().Analysis)
}

func allInsights(g model.InsightGroups) []model.Insight {
	var out []model.Insight
	out = append(out, g.Critical...)
	out = append(out, g.Warning...)
	out = append(out, g.Positive...)
	out = append(out, g.Neutral...)
	return out
}

func TestAggregateGatesWeakCorrelations(t *testing.T) {
	out := testAggregator().Aggregate(Inputs{
		Correlations: []model.CorrelationResult{
			{VariableA: "a", VariableB: "b", Coefficient: 0.1, Significance: model.SignificanceLow, Status: model.StatusOK},
			{VariableA: "c", VariableB: "d", Coefficient: 0.9, Significance: model.SignificanceHigh, Status: model.StatusInsufficientData},
			{VariableA: "sleepQuality", VariableB: "pain", Coefficient: -0.72, SampleSize: 12, Significance: model.SignificanceHigh, Status: model.StatusOK},
		},
	})

	insights := allInsights(out.Groups)
	if len(insights) != 1 {
		t.Fatalf("expected only the strong OK correlation to convert, got %+v", insights)
	}
	ins := insights[0]
	if ins.Type != model.InsightCorrelation {
		t.Errorf("type = %s", ins.Type)
	}
	if ins.Confidence != 0.72 {
		t.Errorf("confidence = %g, want |r|", ins.Confidence)
	}
	if !strings.Contains(ins.Text, "falls") {
		t.Errorf("negative coefficient should read as falling: %q", ins.Text)
	}
}

func TestAggregateTrendConversion(t *testing.T) {
	out := testAggregator().Aggregate(Inputs{
		Trends: []model.TrendResult{
			{Metric: "pain", Direction: model.TrendWorsening, WeeklyChange: 1.4, Confidence: 0.5, SampleSize: 15, Status: model.StatusOK},
			{Metric: "energy", Direction: model.TrendStable, Status: model.StatusOK},
			{Metric: "fatigue", Direction: model.TrendImproving, WeeklyChange: -0.9, Confidence: 0.4, SampleSize: 12, Status: model.StatusOK},
		},
	})

	// Worsening: high impact and actionable, lands in Warning
	if len(out.Groups.Warning) != 1 {
		t.Fatalf("expected 1 warning insight, got %+v", out.Groups)
	}
	worsening := out.Groups.Warning[0]
	if !worsening.Actionable || worsening.Impact != model.ImpactHigh {
		t.Errorf("worsening trend should be actionable high impact: %+v", worsening)
	}

	// Improving: matches the positive vocabulary
	if len(out.Groups.Positive) != 1 {
		t.Fatalf("expected 1 positive insight, got %+v", out.Groups)
	}
	if out.Groups.Positive[0].Actionable {
		t.Error("improving trend should not be actionable")
	}

	// Stable trends convert to nothing
	if got := len(allInsights(out.Groups)); got != 2 {
		t.Errorf("expected 2 insights total, got %d", got)
	}
}

func TestAggregatePatternGating(t *testing.T) {
	out := testAggregator().Aggregate(Inputs{
		Patterns: []model.PatternResult{
			{Kind: model.PatternTrigger, Description: "weak", Strength: 0.45, Frequency: 5},
			{Kind: model.PatternTrigger, Description: "rare", Strength: 0.9, Frequency: 2},
			{Kind: model.PatternMoodSequence, Description: "tense evenings precede crises", Strength: 0.85, Frequency: 4},
		},
	})

	insights := allInsights(out.Groups)
	if len(insights) != 1 {
		t.Fatalf("expected only the strong frequent pattern, got %+v", insights)
	}
	ins := insights[0]
	if ins.Type != model.InsightPrediction {
		t.Errorf("mood sequence should convert to a prediction, got %s", ins.Type)
	}
	// Strength 0.85 clears the critical confidence cutoff
	if len(out.Groups.Critical) != 1 {
		t.Errorf("high-strength pattern should be critical: %+v", out.Groups)
	}
}

func TestAggregateRiskFactorsBecomeAnomalies(t *testing.T) {
	out := testAggregator().Aggregate(Inputs{
		RiskFactors: []model.RiskFactor{
			{Name: "frequent crisis episodes", Impact: model.ImpactHigh, Recommendation: "discuss preventive options"},
			{Name: "moderate average crisis intensity", Impact: model.ImpactMedium, Recommendation: "record medication response"},
		},
	})

	if len(out.Groups.Critical) != 1 {
		t.Fatalf("expected the high-impact factor as critical anomaly, got %+v", out.Groups)
	}
	if out.Groups.Critical[0].Type != model.InsightAnomaly {
		t.Errorf("type = %s, want anomaly", out.Groups.Critical[0].Type)
	}
	if len(allInsights(out.Groups)) != 1 {
		t.Error("medium-impact factors should not convert")
	}
}

func TestAggregateMergesExternalIndependently(t *testing.T) {
	external := []model.Insight{
		{Type: model.InsightAnomaly, Confidence: 0.8, Impact: model.ImpactHigh, Text: "a diary note reports acute distress", Actionable: true},
	}

	// Empty analytic branch, external only
	out := testAggregator().Aggregate(Inputs{External: external})
	if len(out.Groups.Critical) != 1 {
		t.Fatalf("external insight lost: %+v", out.Groups)
	}

	// Full analytic branch, no external: still works
	out = testAggregator().Aggregate(Inputs{
		Trends: []model.TrendResult{
			{Metric: "pain", Direction: model.TrendWorsening, Confidence: 0.5, SampleSize: 15, Status: model.StatusOK},
		},
	})
	if len(out.Groups.Warning) != 1 {
		t.Fatalf("analytic branch must not depend on external insights: %+v", out.Groups)
	}
}

func TestAggregateDeduplicates(t *testing.T) {
	dup := model.Insight{Type: model.InsightAnomaly, Confidence: 0.8, Impact: model.ImpactHigh, Text: "same finding", Actionable: true}

	out := testAggregator().Aggregate(Inputs{External: []model.Insight{dup, dup}})
	if got := len(allInsights(out.Groups)); got != 1 {
		t.Errorf("duplicate (type, text) should collapse to one, got %d", got)
	}
}

func TestAggregateGroupsSortedByConfidence(t *testing.T) {
	out := testAggregator().Aggregate(Inputs{External: []model.Insight{
		{Type: model.InsightAnomaly, Confidence: 0.6, Impact: model.ImpactHigh, Text: "first"},
		{Type: model.InsightAnomaly, Confidence: 0.95, Impact: model.ImpactHigh, Text: "second"},
		{Type: model.InsightAnomaly, Confidence: 0.8, Impact: model.ImpactHigh, Text: "third"},
	}})

	crit := out.Groups.Critical
	if len(crit) != 3 {
		t.Fatalf("expected 3 critical insights, got %+v", out.Groups)
	}
	for i := 1; i < len(crit); i++ {
		if crit[i].Confidence > crit[i-1].Confidence {
			t.Fatalf("not sorted by confidence: %+v", crit)
		}
	}
}

func TestRecommendationsFromActionableInsights(t *testing.T) {
	out := testAggregator().Aggregate(Inputs{
		Trends: []model.TrendResult{
			{Metric: "pain", Direction: model.TrendWorsening, WeeklyChange: 1.0, Confidence: 0.5, SampleSize: 15, Status: model.StatusOK},
		},
		External: []model.Insight{
			{Type: model.InsightPattern, Confidence: 0.4, Impact: model.ImpactLow, Text: "not actionable", Actionable: false},
		},
	})

	if len(out.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %v", out.Recommendations)
	}
	if !strings.HasPrefix(out.Recommendations[0], "monitor the trend:") {
		t.Errorf("recommendation should come from the trend template: %q", out.Recommendations[0])
	}
}

func TestRecommendationsDeduplicated(t *testing.T) {
	dup := model.Insight{Type: model.InsightPattern, Confidence: 0.7, Impact: model.ImpactMedium, Text: "same pattern", Actionable: true}
	other := dup
	other.Confidence = 0.3

	out := testAggregator().Aggregate(Inputs{External: []model.Insight{dup, other}})
	if len(out.Recommendations) > 1 {
		t.Errorf("identical advice should appear once: %v", out.Recommendations)
	}
}

func TestPredictiveAlerts(t *testing.T) {
	out := testAggregator().Aggregate(Inputs{
		Patterns: []model.PatternResult{
			{Kind: model.PatternMoodSequence, Description: "tense evenings precede crises", Strength: 0.7, Frequency: 4},
			{Kind: model.PatternTemporal, Description: "crises cluster around 09:00", Strength: 0.65, Frequency: 5},
			{Kind: model.PatternTemporal, Description: "crises cluster on Monday", Strength: 0.5, Frequency: 3},
			{Kind: model.PatternTrigger, Description: "stress precedes crises", Strength: 0.9, Frequency: 6},
		},
	})

	if len(out.PredictiveAlerts) != 2 {
		t.Fatalf("expected 2 alerts (sequence and strong temporal), got %v", out.PredictiveAlerts)
	}
	for _, alert := range out.PredictiveAlerts {
		if strings.Contains(alert, "stress precedes") {
			t.Errorf("trigger patterns must not become alerts: %q", alert)
		}
	}
}
