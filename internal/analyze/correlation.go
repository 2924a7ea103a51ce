package analyze

import (
	"math"
	"time"

	"github.com/ndvoru/healthscope/internal/model"
)

// Pseudo-correlation values for the categorical scale. The rate
// thresholds that select them live in AnalysisConfig.
const (
	categoricalHighCoefficient   = 0.8
	categoricalMediumCoefficient = 0.5
	categoricalLowCoefficient    = 0.2
)

// CorrelationEngine computes pairwise association between series.
// It is a pure function of its inputs; thresholds come from config.
type CorrelationEngine struct {
	cfg model.AnalysisConfig
}

// NewCorrelationEngine creates a correlation engine
func NewCorrelationEngine(cfg model.AnalysisConfig) *CorrelationEngine {
	return &CorrelationEngine{cfg: cfg}
}

// Correlate computes Pearson's coefficient over value pairs sharing a
// date key. Below the minimum paired-sample count it returns a neutral
// result rather than omitting one.
func (e *CorrelationEngine) Correlate(a, b model.MetricSeries) model.CorrelationResult {
	result := model.CorrelationResult{
		VariableA:    a.Name,
		VariableB:    b.Name,
		Significance: model.SignificanceLow,
		Status:       model.StatusOK,
	}

	// Inner join on date
	byDate := make(map[time.Time]float64, len(b.Points))
	for _, p := range b.Points {
		byDate[p.Date] = p.Value
	}
	var xs, ys []float64
	for _, p := range a.Points {
		if v, ok := byDate[p.Date]; ok {
			xs = append(xs, p.Value)
			ys = append(ys, v)
		}
	}

	result.SampleSize = len(xs)
	if len(xs) < e.cfg.MinPairedSamples {
		result.Status = model.StatusInsufficientData
		return result
	}

	r := pearson(xs, ys)
	result.Coefficient = r
	result.Significance = e.significance(math.Abs(r))
	return result
}

// CorrelateCategoricalWithBoolean maps the outcome rate within one
// category onto the pseudo-correlation scale. labelDates are the dates
// on which the category was observed; outcomeDates are the dates on
// which the boolean outcome occurred.
func (e *CorrelationEngine) CorrelateCategoricalWithBoolean(label string, labelDates []time.Time, outcomeDates map[time.Time]bool, outcomeName string) model.CorrelationResult {
	result := model.CorrelationResult{
		VariableA:    label,
		VariableB:    outcomeName,
		Significance: model.SignificanceLow,
		SampleSize:   len(labelDates),
		Status:       model.StatusOK,
	}

	if len(labelDates) < e.cfg.MinCategoryOccurrences {
		result.Status = model.StatusInsufficientData
		return result
	}

	hits := 0
	for _, d := range labelDates {
		if outcomeDates[d] {
			hits++
		}
	}
	rate := float64(hits) / float64(len(labelDates))

	switch {
	case rate > e.cfg.CategoricalRateHigh:
		result.Coefficient = categoricalHighCoefficient
		result.Significance = model.SignificanceHigh
	case rate > e.cfg.CategoricalRateMedium:
		result.Coefficient = categoricalMediumCoefficient
		result.Significance = model.SignificanceMedium
	default:
		result.Coefficient = categoricalLowCoefficient
		result.Significance = model.SignificanceLow
	}
	return result
}

// significance maps |r| onto the tier bands
func (e *CorrelationEngine) significance(abs float64) model.Significance {
	switch {
	case abs > e.cfg.SignificanceHigh:
		return model.SignificanceHigh
	case abs > e.cfg.SignificanceMedium:
		return model.SignificanceMedium
	default:
		return model.SignificanceLow
	}
}

// pearson computes Pearson's correlation coefficient. A zero-variance
// input yields 0, not NaN.
func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	r := cov / math.Sqrt(varX*varY)
	// Numeric noise can push r marginally outside [-1, 1]
	return math.Max(-1, math.Min(1, r))
}

// ShiftBack rekeys a series so the value observed on date d+offset days
// appears under date d. Used to pair a metric with next-day outcomes.
func ShiftBack(s model.MetricSeries, offsetDays int, name string) model.MetricSeries {
	out := model.MetricSeries{Name: name}
	for _, p := range s.Points {
		out.Points = append(out.Points, model.MetricPoint{
			Date:  p.Date.AddDate(0, 0, -offsetDays),
			Value: p.Value,
		})
	}
	return out
}
