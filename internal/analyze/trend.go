package analyze

import (
	"math"

	"github.com/ndvoru/healthscope/internal/model"
)

// TrendAnalyzer fits a linear trend to an ordered metric series and
// classifies its direction using the configured polarity mapping.
type TrendAnalyzer struct {
	cfg model.AnalysisConfig
}

// NewTrendAnalyzer creates a trend analyzer
func NewTrendAnalyzer(cfg model.AnalysisConfig) *TrendAnalyzer {
	return &TrendAnalyzer{cfg: cfg}
}

// AnalyzeTrend fits an ordinary least-squares slope over chronological
// index vs value. Index, not calendar gap, so irregular sampling does
// not distort the fit. Below the minimum sample count it returns a
// neutral STABLE result.
func (a *TrendAnalyzer) AnalyzeTrend(series model.MetricSeries) model.TrendResult {
	result := model.TrendResult{
		Metric:     series.Name,
		Direction:  model.TrendStable,
		SampleSize: len(series.Points),
		Status:     model.StatusOK,
	}

	if len(series.Points) < a.cfg.MinTrendSamples {
		result.Status = model.StatusInsufficientData
		return result
	}

	slope := olsSlope(series.Values())
	result.Slope = slope
	result.WeeklyChange = slope * 7
	result.Confidence = math.Min(a.cfg.TrendConfidenceCap,
		float64(len(series.Points))/a.cfg.TrendConfidenceDivisor)

	// Polarity orients the slope so that positive means deterioration.
	// Metrics absent from the map are assumed higher-is-worse.
	polarity := 1
	if p, ok := a.cfg.Polarity[series.Name]; ok && p != 0 {
		polarity = p
	}
	oriented := slope * float64(polarity)

	switch {
	case oriented > a.cfg.TrendSlopeBand:
		result.Direction = model.TrendWorsening
	case oriented < -a.cfg.TrendSlopeBand:
		result.Direction = model.TrendImproving
	}
	return result
}

// olsSlope computes the least-squares slope of values against their
// indices 0..n-1
func olsSlope(values []float64) float64 {
	n := float64(len(values))
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}
