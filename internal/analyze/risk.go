package analyze

import (
	"fmt"
	"math"

	"github.com/ndvoru/healthscope/internal/model"
)

// RiskInput carries the signals the scorer folds into one assessment
type RiskInput struct {
	// CrisisCount over the analysis window
	CrisisCount int
	// WindowDays is the window length used to normalize frequency
	WindowDays int
	// AvgIntensity is the mean crisis intensity, 0-10
	AvgIntensity float64
	// Signals are correlation results feeding the ladder
	Signals []model.CorrelationResult
	// AvgSleepQuality is the mean of the sleep quality series;
	// HasSleepData marks whether any sleep observation exists
	AvgSleepQuality float64
	HasSleepData    bool
}

// WeeklyCrisisRate normalizes the crisis count to crises per week
func (in RiskInput) WeeklyCrisisRate() float64 {
	if in.WindowDays <= 0 {
		return float64(in.CrisisCount)
	}
	return float64(in.CrisisCount) / float64(in.WindowDays) * 7
}

// RiskScorer maps crisis frequency, intensity and correlation signals
// onto the ordered risk tier. The ladder only compares with >= so the
// tier is monotone in frequency and intensity.
type RiskScorer struct {
	cfg model.RiskConfig
}

// NewRiskScorer creates a risk scorer
func NewRiskScorer(cfg model.RiskConfig) *RiskScorer {
	return &RiskScorer{cfg: cfg}
}

// Score computes the tier, a 0-100 diagnostic score and the
// contributing risk factors with their recommendations
func (s *RiskScorer) Score(in RiskInput) model.RiskAssessment {
	highSignals, mediumSignals := 0, 0
	for _, sig := range in.Signals {
		switch sig.Significance {
		case model.SignificanceHigh:
			highSignals++
		case model.SignificanceMedium:
			mediumSignals++
		}
	}

	weekly := in.WeeklyCrisisRate()

	tier := model.RiskLow
	switch {
	case (highSignals > 0 && in.AvgIntensity >= s.cfg.CriticalIntensity) || weekly > s.cfg.HighWeeklyCrises:
		tier = model.RiskCritical
	case mediumSignals+highSignals >= s.cfg.MultipleSignals || in.AvgIntensity >= s.cfg.HighIntensity:
		tier = model.RiskHigh
	case mediumSignals+highSignals >= 1 || in.AvgIntensity >= s.cfg.MediumIntensity:
		tier = model.RiskMedium
	}

	return model.RiskAssessment{
		Tier:    tier,
		Score:   s.numericScore(in, highSignals, mediumSignals),
		Factors: s.factors(in),
	}
}

// numericScore composes a transparent 0-100 score: intensity up to 40,
// frequency up to 30, correlation signals up to 30. Each term is
// non-decreasing in its input.
func (s *RiskScorer) numericScore(in RiskInput, highSignals, mediumSignals int) float64 {
	intensity := math.Min(in.AvgIntensity/10, 1) * 40

	frequency := 0.0
	if s.cfg.HighWeeklyCrises > 0 {
		frequency = math.Min(in.WeeklyCrisisRate()/s.cfg.HighWeeklyCrises, 1) * 30
	}

	signals := math.Min(float64(highSignals)*15+float64(mediumSignals)*7.5, 30)

	return math.Round((intensity+frequency+signals)*10) / 10
}

// factors emits one RiskFactor per triggering condition, each with a
// recommendation keyed to that condition
func (s *RiskScorer) factors(in RiskInput) []model.RiskFactor {
	var out []model.RiskFactor

	if in.AvgIntensity >= s.cfg.HighIntensity && in.CrisisCount > 0 {
		out = append(out, model.RiskFactor{
			Name:           "high average crisis intensity",
			Impact:         model.ImpactHigh,
			Frequency:      in.CrisisCount,
			Recommendation: "review the acute treatment plan with a clinician",
		})
	} else if in.AvgIntensity >= s.cfg.MediumIntensity && in.CrisisCount > 0 {
		out = append(out, model.RiskFactor{
			Name:           "moderate average crisis intensity",
			Impact:         model.ImpactMedium,
			Frequency:      in.CrisisCount,
			Recommendation: "record medication response during episodes to guide treatment",
		})
	}

	if in.WeeklyCrisisRate() > s.cfg.HighWeeklyCrises {
		out = append(out, model.RiskFactor{
			Name:           "frequent crisis episodes",
			Impact:         model.ImpactHigh,
			Frequency:      in.CrisisCount,
			Recommendation: "discuss preventive options and keep avoiding known triggers",
		})
	}

	if in.HasSleepData && in.AvgSleepQuality < s.cfg.LowSleepQuality {
		out = append(out, model.RiskFactor{
			Name:           "sleep quality consistently low",
			Impact:         model.ImpactMedium,
			Frequency:      0,
			Recommendation: "establish a sleep hygiene routine",
		})
	}

	for _, sig := range in.Signals {
		if sig.Significance != model.SignificanceHigh {
			continue
		}
		out = append(out, model.RiskFactor{
			Name:           fmt.Sprintf("strong association between %s and %s", sig.VariableA, sig.VariableB),
			Impact:         model.ImpactHigh,
			Frequency:      sig.SampleSize,
			Recommendation: fmt.Sprintf("track %s closely; it moves with %s", sig.VariableA, sig.VariableB),
		})
	}

	return out
}
