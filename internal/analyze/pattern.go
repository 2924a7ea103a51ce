package analyze

import (
	"fmt"
	"sort"
	"time"

	"github.com/ndvoru/healthscope/internal/model"
	"github.com/ndvoru/healthscope/internal/normalize"
)

// PatternMiner runs four independent detectors over crises and mood
// sequences. Every reported pattern is backed by at least the
// configured minimum supporting frequency.
type PatternMiner struct {
	cfg model.AnalysisConfig
}

// NewPatternMiner creates a pattern miner
func NewPatternMiner(cfg model.AnalysisConfig) *PatternMiner {
	return &PatternMiner{cfg: cfg}
}

// Mine runs all detectors and concatenates their sorted outputs
func (m *PatternMiner) Mine(crises []model.CrisisEvent, moods []normalize.DatedLabel) []model.PatternResult {
	var out []model.PatternResult
	out = append(out, m.TemporalClusters(crises)...)
	out = append(out, m.TriggerSymptomAssociations(crises)...)
	out = append(out, m.MoodSequences(moods, crises)...)
	out = append(out, m.SymptomCooccurrence(crises)...)
	return out
}

// TemporalClusters buckets crisis timestamps by hour of day and by day
// of week and reports the dominant bucket of each axis
func (m *PatternMiner) TemporalClusters(crises []model.CrisisEvent) []model.PatternResult {
	if len(crises) == 0 {
		return nil
	}
	var out []model.PatternResult
	total := len(crises)

	// Hour of day needs a clock time; entries without one are skipped
	var hourCounts [24]int
	timed := 0
	for _, c := range crises {
		if c.OccurredAt.IsZero() {
			continue
		}
		hourCounts[c.OccurredAt.Hour()]++
		timed++
	}
	if timed > 0 {
		peakHour, peakCount := 0, 0
		for h, count := range hourCounts {
			if count > peakCount {
				peakHour, peakCount = h, count
			}
		}
		if peakCount >= m.cfg.MinPatternFrequency {
			out = append(out, model.PatternResult{
				Kind:        model.PatternTemporal,
				Description: fmt.Sprintf("crises cluster around %02d:00", peakHour),
				Frequency:   peakCount,
				Strength:    float64(peakCount) / float64(total),
			})
		}
	}

	var dayCounts [7]int
	for _, c := range crises {
		dayCounts[int(c.Date.Weekday())]++
	}
	peakDay, peakCount := time.Sunday, 0
	for d, count := range dayCounts {
		if count > peakCount {
			peakDay, peakCount = time.Weekday(d), count
		}
	}
	if peakCount >= m.cfg.MinPatternFrequency {
		out = append(out, model.PatternResult{
			Kind:        model.PatternTemporal,
			Description: fmt.Sprintf("crises cluster on %s", peakDay),
			Frequency:   peakCount,
			Strength:    float64(peakCount) / float64(total),
		})
	}

	sortPatterns(out)
	return out
}

// TriggerSymptomAssociations reports (trigger, symptom) pairs whose
// conditional support exceeds the configured cutoff
func (m *PatternMiner) TriggerSymptomAssociations(crises []model.CrisisEvent) []model.PatternResult {
	type pair struct{ trigger, symptom string }

	withTrigger := make(map[string]int)
	withBoth := make(map[pair]int)
	var order []pair
	seen := make(map[pair]bool)
	var triggerOrder []string

	for _, c := range crises {
		for _, trigger := range c.Triggers {
			if withTrigger[trigger] == 0 {
				triggerOrder = append(triggerOrder, trigger)
			}
			withTrigger[trigger]++
			for _, symptom := range c.Symptoms {
				p := pair{trigger, symptom}
				withBoth[p]++
				if !seen[p] {
					seen[p] = true
					order = append(order, p)
				}
			}
		}
	}

	var out []model.PatternResult
	for _, p := range order {
		base := withTrigger[p.trigger]
		if base < m.cfg.MinPatternFrequency {
			continue
		}
		support := float64(withBoth[p]) / float64(base)
		if support <= m.cfg.TriggerSupportCutoff {
			continue
		}
		out = append(out, model.PatternResult{
			Kind:        model.PatternTrigger,
			Description: fmt.Sprintf("trigger %q is followed by %q in %.0f%% of episodes", p.trigger, p.symptom, support*100),
			Frequency:   withBoth[p],
			Strength:    support,
			Examples:    []string{fmt.Sprintf("%d of %d episodes with trigger %q", withBoth[p], base, p.trigger)},
		})
	}

	// A trigger that dominates the episode set is a pattern on its own,
	// even when no symptom pair clears the support cutoff.
	total := len(crises)
	for _, trigger := range triggerOrder {
		count := withTrigger[trigger]
		if count < m.cfg.MinPatternFrequency {
			continue
		}
		share := float64(count) / float64(total)
		if share <= m.cfg.TriggerSupportCutoff {
			continue
		}
		out = append(out, model.PatternResult{
			Kind:        model.PatternTrigger,
			Description: fmt.Sprintf("trigger %q reported in %.0f%% of episodes", trigger, share*100),
			Frequency:   count,
			Strength:    share,
		})
	}

	sortPatterns(out)
	return out
}

// MoodSequences slides a 2-day window over consecutive evening moods
// and tests whether a crisis occurred on the following day. Sequences
// are reported only when their crisis rate clears the cutoff.
func (m *PatternMiner) MoodSequences(moods []normalize.DatedLabel, crises []model.CrisisEvent) []model.PatternResult {
	if len(moods) < 2 {
		return nil
	}

	crisisDates := make(map[time.Time]bool, len(crises))
	for _, c := range crises {
		crisisDates[c.Date] = true
	}

	type seq struct{ first, second string }
	occurrences := make(map[seq]int)
	hits := make(map[seq]int)
	var order []seq
	seen := make(map[seq]bool)

	for i := 0; i+1 < len(moods); i++ {
		// The window must be two consecutive calendar days
		if !moods[i].Date.AddDate(0, 0, 1).Equal(moods[i+1].Date) {
			continue
		}
		s := seq{moods[i].Label, moods[i+1].Label}
		occurrences[s]++
		if crisisDates[moods[i].Date.AddDate(0, 0, 2)] {
			hits[s]++
		}
		if !seen[s] {
			seen[s] = true
			order = append(order, s)
		}
	}

	var out []model.PatternResult
	for _, s := range order {
		count := occurrences[s]
		if count < m.cfg.MinPatternFrequency {
			continue
		}
		rate := float64(hits[s]) / float64(count)
		if rate <= m.cfg.SequenceCrisisRateCutoff {
			continue
		}
		out = append(out, model.PatternResult{
			Kind:        model.PatternMoodSequence,
			Description: fmt.Sprintf("mood sequence %q, %q preceded a crisis in %.0f%% of occurrences", s.first, s.second, rate*100),
			Frequency:   count,
			Strength:    rate,
			Examples:    []string{fmt.Sprintf("%d of %d occurrences followed by a crisis", hits[s], count)},
		})
	}

	sortPatterns(out)
	return out
}

// SymptomCooccurrence counts unordered symptom pairs reported together
// within one emergency entry
func (m *PatternMiner) SymptomCooccurrence(crises []model.CrisisEvent) []model.PatternResult {
	if len(crises) == 0 {
		return nil
	}

	type pair struct{ a, b string }
	counts := make(map[pair]int)
	var order []pair
	seen := make(map[pair]bool)

	for _, c := range crises {
		for i := 0; i < len(c.Symptoms); i++ {
			for j := i + 1; j < len(c.Symptoms); j++ {
				a, b := c.Symptoms[i], c.Symptoms[j]
				if b < a {
					a, b = b, a
				}
				p := pair{a, b}
				counts[p]++
				if !seen[p] {
					seen[p] = true
					order = append(order, p)
				}
			}
		}
	}

	var out []model.PatternResult
	total := len(crises)
	for _, p := range order {
		count := counts[p]
		if count < m.cfg.MinPatternFrequency {
			continue
		}
		out = append(out, model.PatternResult{
			Kind:        model.PatternCooccurrence,
			Description: fmt.Sprintf("symptoms %q and %q occur together", p.a, p.b),
			Frequency:   count,
			Strength:    float64(count) / float64(total),
		})
	}

	sortPatterns(out)
	return out
}

// sortPatterns orders by strength then frequency descending. The sort
// is stable so equal patterns keep first-encountered order.
func sortPatterns(patterns []model.PatternResult) {
	sort.SliceStable(patterns, func(i, j int) bool {
		if patterns[i].Strength != patterns[j].Strength {
			return patterns[i].Strength > patterns[j].Strength
		}
		return patterns[i].Frequency > patterns[j].Frequency
	})
}
