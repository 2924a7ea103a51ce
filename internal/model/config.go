package model

// Config is the complete configuration surface. Every threshold used
// by an analyzer lives here; nothing is hard-coded inside an algorithm.
type Config struct {
	Analysis    AnalysisConfig    `yaml:"analysis" mapstructure:"analysis"`
	Risk        RiskConfig        `yaml:"risk" mapstructure:"risk"`
	Text        TextConfig        `yaml:"text" mapstructure:"text"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// AnalysisConfig holds sample-size and significance thresholds for the
// statistical analyzers
type AnalysisConfig struct {
	// MinRecords is the minimum number of daily records required before
	// the builder produces a full summary instead of the
	// insufficient-data short circuit
	MinRecords int `yaml:"min_records" mapstructure:"min_records"`

	// MinPairedSamples is the minimum date-joined pair count for Pearson
	MinPairedSamples int `yaml:"min_paired_samples" mapstructure:"min_paired_samples"`

	// MinCategoryOccurrences gates categorical-vs-outcome correlation
	MinCategoryOccurrences int `yaml:"min_category_occurrences" mapstructure:"min_category_occurrences"`

	// Significance bands on |r|
	SignificanceMedium float64 `yaml:"significance_medium" mapstructure:"significance_medium"`
	SignificanceHigh   float64 `yaml:"significance_high" mapstructure:"significance_high"`

	// Outcome-rate bands for the categorical pseudo-correlation scale
	CategoricalRateMedium float64 `yaml:"categorical_rate_medium" mapstructure:"categorical_rate_medium"`
	CategoricalRateHigh   float64 `yaml:"categorical_rate_high" mapstructure:"categorical_rate_high"`

	// Trend classification
	MinTrendSamples        int     `yaml:"min_trend_samples" mapstructure:"min_trend_samples"`
	TrendSlopeBand         float64 `yaml:"trend_slope_band" mapstructure:"trend_slope_band"`
	TrendConfidenceDivisor float64 `yaml:"trend_confidence_divisor" mapstructure:"trend_confidence_divisor"`
	TrendConfidenceCap     float64 `yaml:"trend_confidence_cap" mapstructure:"trend_confidence_cap"`

	// Polarity maps metric name to +1 (rising is worse) or -1 (rising
	// is better). Metrics not listed default to +1.
	Polarity map[string]int `yaml:"polarity" mapstructure:"polarity"`

	// MoodScale maps evening mood labels onto a 0-10 numeric scale
	MoodScale map[string]float64 `yaml:"mood_scale" mapstructure:"mood_scale"`

	// Pattern mining
	MinPatternFrequency      int     `yaml:"min_pattern_frequency" mapstructure:"min_pattern_frequency"`
	TriggerSupportCutoff     float64 `yaml:"trigger_support_cutoff" mapstructure:"trigger_support_cutoff"`
	SequenceCrisisRateCutoff float64 `yaml:"sequence_crisis_rate_cutoff" mapstructure:"sequence_crisis_rate_cutoff"`

	// Insight aggregation
	InsightStrengthCutoff    float64 `yaml:"insight_strength_cutoff" mapstructure:"insight_strength_cutoff"`
	InsightFrequencyMin      int     `yaml:"insight_frequency_min" mapstructure:"insight_frequency_min"`
	CriticalConfidenceCutoff float64 `yaml:"critical_confidence_cutoff" mapstructure:"critical_confidence_cutoff"`
	AlertStrengthCutoff      float64 `yaml:"alert_strength_cutoff" mapstructure:"alert_strength_cutoff"`

	// PositiveVocabulary marks insight texts for the POSITIVE category
	PositiveVocabulary []string `yaml:"positive_vocabulary" mapstructure:"positive_vocabulary"`
}

// RiskConfig holds the risk tier ladder breakpoints
type RiskConfig struct {
	// Average crisis intensity breakpoints (0-10 scale)
	CriticalIntensity float64 `yaml:"critical_intensity" mapstructure:"critical_intensity"`
	HighIntensity     float64 `yaml:"high_intensity" mapstructure:"high_intensity"`
	MediumIntensity   float64 `yaml:"medium_intensity" mapstructure:"medium_intensity"`

	// Crisis frequency breakpoints, in crises per week
	HighWeeklyCrises float64 `yaml:"high_weekly_crises" mapstructure:"high_weekly_crises"`

	// MultipleSignals is how many MEDIUM correlation signals escalate to HIGH
	MultipleSignals int `yaml:"multiple_signals" mapstructure:"multiple_signals"`

	// LowSleepQuality marks the "consistently low sleep" factor (0-10 scale)
	LowSleepQuality float64 `yaml:"low_sleep_quality" mapstructure:"low_sleep_quality"`
}

// TextConfig configures the free-text understanding collaborator
type TextConfig struct {
	// Provider name: "openai" or "" (disabled, local fallback only)
	Provider string `yaml:"provider" mapstructure:"provider"`
	Model    string `yaml:"model" mapstructure:"model"`
	APIKey   string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout per batch in seconds; the pipeline never blocks past it
	Timeout   int `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens"`

	// Rate limiting toward the collaborator endpoint
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`

	// Lexicon drives the local fallback classifier
	Lexicon LexiconConfig `yaml:"lexicon" mapstructure:"lexicon"`
}

// LexiconConfig is the keyword vocabulary for the rule-based fallback.
// Overridable so deployments can localize it.
type LexiconConfig struct {
	Negative    []string `yaml:"negative" mapstructure:"negative"`
	Positive    []string `yaml:"positive" mapstructure:"positive"`
	Urgent      []string `yaml:"urgent" mapstructure:"urgent"`
	Medications []string `yaml:"medications" mapstructure:"medications"`
}

// ConcurrencyConfig sizes the worker pools
type ConcurrencyConfig struct {
	AnalysisWorkers int `yaml:"analysis_workers" mapstructure:"analysis_workers"`
	TextWorkers     int `yaml:"text_workers" mapstructure:"text_workers"`
}

// CacheConfig controls memoization of collaborator responses
type CacheConfig struct {
	Enabled        bool `yaml:"enabled" mapstructure:"enabled"`
	TTLMinutes     int  `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
	CleanupMinutes int  `yaml:"cleanup_minutes" mapstructure:"cleanup_minutes"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns the built-in defaults. Thresholds mirror the
// documented analysis bands and are overridable per deployment.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			MinRecords:             3,
			MinPairedSamples:       3,
			MinCategoryOccurrences: 3,
			SignificanceMedium:     0.3,
			SignificanceHigh:       0.6,
			CategoricalRateMedium:  0.3,
			CategoricalRateHigh:    0.6,
			MinTrendSamples:        3,
			TrendSlopeBand:         0.2,
			TrendConfidenceDivisor: 30,
			TrendConfidenceCap:     0.9,
			Polarity: map[string]int{
				MetricPain:         1,
				MetricFatigue:      1,
				MetricSleepQuality: -1,
				MetricEnergy:       -1,
				MetricMoodScore:    -1,
			},
			MoodScale: map[string]float64{
				"Great":     9,
				"Good":      7,
				"Calm":      6,
				"Neutral":   5,
				"Tense":     4,
				"Low":       3,
				"Irritable": 2,
				"Awful":     1,
			},
			MinPatternFrequency:      2,
			TriggerSupportCutoff:     0.4,
			SequenceCrisisRateCutoff: 0.4,
			InsightStrengthCutoff:    0.5,
			InsightFrequencyMin:      3,
			CriticalConfidenceCutoff: 0.8,
			AlertStrengthCutoff:      0.6,
			PositiveVocabulary: []string{
				"improv", "positive", "reduc", "better", "fewer", "recover",
			},
		},
		Risk: RiskConfig{
			CriticalIntensity: 8,
			HighIntensity:     6,
			MediumIntensity:   4,
			HighWeeklyCrises:  3,
			MultipleSignals:   2,
			LowSleepQuality:   4,
		},
		Text: TextConfig{
			Provider:          "", // Disabled by default, local fallback only
			Model:             "",
			Timeout:           30,
			MaxTokens:         500,
			RequestsPerSecond: 2,
			Burst:             4,
			Lexicon: LexiconConfig{
				Negative: []string{
					"pain", "worse", "terrible", "awful", "unbearable",
					"exhausted", "crying", "hopeless", "nausea",
				},
				Positive: []string{
					"better", "good", "great", "calm", "rested", "relief",
					"improved",
				},
				Urgent: []string{
					"unbearable", "emergency", "can't move", "severe",
					"hospital", "ambulance",
				},
				Medications: []string{
					"ibuprofen", "paracetamol", "sumatriptan", "naproxen",
					"aspirin",
				},
			},
		},
		Concurrency: ConcurrencyConfig{
			AnalysisWorkers: 3,
			TextWorkers:     4,
		},
		Cache: CacheConfig{
			Enabled:        true,
			TTLMinutes:     60,
			CleanupMinutes: 10,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
