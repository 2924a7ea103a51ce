package model

import "time"

// DataStatus marks whether a result is backed by enough samples.
// Insufficient data is a first-class result state, never an error.
type DataStatus string

const (
	StatusOK               DataStatus = "ok"
	StatusInsufficientData DataStatus = "insufficient_data"
)

// Significance is the ordinal confidence label attached to a
// statistical result based on threshold bands
type Significance string

const (
	SignificanceLow    Significance = "low"
	SignificanceMedium Significance = "medium"
	SignificanceHigh   Significance = "high"
)

// Impact grades how much a finding matters to the user
type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// RiskTier is the totally ordered severity label for overall risk
type RiskTier int

const (
	RiskLow RiskTier = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

func (t RiskTier) String() string {
	switch t {
	case RiskCritical:
		return "critical"
	case RiskHigh:
		return "high"
	case RiskMedium:
		return "medium"
	default:
		return "low"
	}
}

// MarshalJSON renders the tier as its label rather than its ordinal
func (t RiskTier) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// CorrelationResult is the outcome of one pairwise association test
type CorrelationResult struct {
	VariableA    string       `json:"variable_a"`
	VariableB    string       `json:"variable_b"`
	Coefficient  float64      `json:"coefficient"` // [-1, 1]
	Significance Significance `json:"significance"`
	SampleSize   int          `json:"sample_size"`
	Status       DataStatus   `json:"status"`
}

// TrendDirection classifies the fitted slope after polarity mapping
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendWorsening TrendDirection = "worsening"
	TrendStable    TrendDirection = "stable"
)

// TrendResult is a linear trend fit over one metric series
type TrendResult struct {
	Metric       string         `json:"metric"`
	Slope        float64        `json:"slope"`
	Direction    TrendDirection `json:"direction"`
	Confidence   float64        `json:"confidence"` // [0, 0.9]
	WeeklyChange float64        `json:"weekly_change"`
	SampleSize   int            `json:"sample_size"`
	Status       DataStatus     `json:"status"`
}

// PatternKind classifies which detector produced a pattern
type PatternKind string

const (
	PatternTemporal     PatternKind = "temporal"      // Hour/weekday clustering
	PatternTrigger      PatternKind = "trigger"       // Trigger -> symptom association
	PatternMoodSequence PatternKind = "mood_sequence" // Mood sequence preceding a crisis
	PatternCooccurrence PatternKind = "cooccurrence"  // Symptoms reported together
)

// PatternResult is one detected temporal or associative pattern
type PatternResult struct {
	Kind        PatternKind `json:"kind"`
	Description string      `json:"description"`
	Frequency   int         `json:"frequency"` // Supporting observation count, >= 2
	Strength    float64     `json:"strength"`  // [0, 1], share of total observations
	Examples    []string    `json:"examples,omitempty"`
}

// RiskFactor is one contributing condition behind the risk tier
type RiskFactor struct {
	Name           string `json:"name"`
	Impact         Impact `json:"impact"`
	Frequency      int    `json:"frequency"`
	Recommendation string `json:"recommendation"`
}

// RiskAssessment is the overall risk output of the scorer
type RiskAssessment struct {
	Tier    RiskTier     `json:"tier"`
	Score   float64      `json:"score"` // 0-100, diagnostic only
	Factors []RiskFactor `json:"factors"`
}

// InsightType classifies where an insight came from
type InsightType string

const (
	InsightPattern     InsightType = "pattern"
	InsightTrend       InsightType = "trend"
	InsightCorrelation InsightType = "correlation"
	InsightAnomaly     InsightType = "anomaly"
	InsightPrediction  InsightType = "prediction"
)

// Insight is a single user-facing finding
type Insight struct {
	Type       InsightType `json:"type"`
	Confidence float64     `json:"confidence"` // [0, 1]
	Impact     Impact      `json:"impact"`
	Text       string      `json:"text"`
	Evidence   []string    `json:"evidence,omitempty"`
	Actionable bool        `json:"actionable"`
}

// InsightGroups holds insights bucketed by severity category,
// each sorted by confidence descending
type InsightGroups struct {
	Critical []Insight `json:"critical"`
	Warning  []Insight `json:"warning"`
	Positive []Insight `json:"positive"`
	Neutral  []Insight `json:"neutral"`
}

// SmartSummary is the report-ready aggregate of every analysis
type SmartSummary struct {
	ExecutiveSummary string         `json:"executive_summary"`
	KeyFindings      []string       `json:"key_findings"`
	Insights         InsightGroups  `json:"insights"`
	Recommendations  []string       `json:"recommendations"`
	PredictiveAlerts []string       `json:"predictive_alerts"`
	Risk             RiskAssessment `json:"risk"`
	Status           DataStatus     `json:"status"`
}

// NoteAnalysis is the per-note output of the free-text understanding
// collaborator, or of the local fallback classifier
type NoteAnalysis struct {
	Date              time.Time `json:"date"`
	SentimentLabel    string    `json:"sentiment_label"` // negative, neutral, positive
	SentimentScore    float64   `json:"sentiment_score"` // [-1, 1]
	Urgency           float64   `json:"urgency"`            // 0-10
	ClinicalRelevance float64   `json:"clinical_relevance"` // 0-10
	Entities          []string  `json:"entities,omitempty"`
	Source            string    `json:"source"` // "collaborator" or "fallback"
	Unavailable       bool      `json:"unavailable,omitempty"`
	Error             string    `json:"error,omitempty"`
}

// ChartSeries is a date-aligned array pair ready for plotting.
// The renderer performs no further computation on it.
type ChartSeries struct {
	Metric string    `json:"metric"`
	Dates  []string  `json:"dates"` // YYYY-MM-DD
	Values []float64 `json:"values"`
}

// ReportData is the single serializable structure handed to the
// document renderer. It is stable and fully resolved.
type ReportData struct {
	UserID      string    `json:"user_id,omitempty"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	GeneratedAt time.Time `json:"generated_at"`

	RecordCount int `json:"record_count"`
	CrisisCount int `json:"crisis_count"`

	Correlations []CorrelationResult `json:"correlation_results"`
	Trends       []TrendResult       `json:"trend_results"`
	Patterns     []PatternResult     `json:"pattern_results"`
	RiskFactors  []RiskFactor        `json:"risk_factors"`
	Summary      SmartSummary        `json:"smart_summary"`

	TextInsights []NoteAnalysis `json:"text_insights,omitempty"`
	Charts       []ChartSeries  `json:"charts"`

	Warnings []NormalizationWarning `json:"warnings,omitempty"`
}
