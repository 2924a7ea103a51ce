package normalize

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ndvoru/healthscope/internal/model"
	"github.com/sirupsen/logrus"
)

// questionSpec describes one expected question within a questionnaire kind
type questionSpec struct {
	kind     model.AnswerKind
	min, max float64 // Numeric range, only meaningful for AnswerNumeric
}

// quizSchema resolves the per-kind question identifiers once, here,
// instead of duck-typing them at every consumer
var quizSchema = map[model.QuizKind]map[string]questionSpec{
	model.QuizMorning: {
		"sleepQuality": {kind: model.AnswerNumeric, min: 0, max: 10},
		"painLevel":    {kind: model.AnswerNumeric, min: 0, max: 10},
		"energy":       {kind: model.AnswerNumeric, min: 0, max: 10},
		"mood":         {kind: model.AnswerChoice},
	},
	model.QuizEvening: {
		"painLevel": {kind: model.AnswerNumeric, min: 0, max: 10},
		"fatigue":   {kind: model.AnswerNumeric, min: 0, max: 10},
		"mood":      {kind: model.AnswerChoice},
		"triggers":  {kind: model.AnswerMultiChoice},
		"notes":     {kind: model.AnswerFreeText},
	},
	model.QuizEmergency: {
		"intensity":          {kind: model.AnswerNumeric, min: 0, max: 10},
		"locations":          {kind: model.AnswerMultiChoice},
		"triggers":           {kind: model.AnswerMultiChoice},
		"symptoms":           {kind: model.AnswerMultiChoice},
		"medicationResponse": {kind: model.AnswerChoice},
		"notes":              {kind: model.AnswerFreeText},
	},
}

// DatedLabel pairs a calendar date with a single-choice label
type DatedLabel struct {
	Date  time.Time
	Label string
}

// Result is the normalized view of one diary snapshot
type Result struct {
	Records []model.DailyRecord
	Series  map[string]model.MetricSeries
	Crises  []model.CrisisEvent
	Notes   []model.Note

	// EveningMoods is the chronological sequence of evening mood labels,
	// one per date that reported one
	EveningMoods []DatedLabel

	// LabelCounts is the exploded frequency table for every multi-choice
	// question: question id -> label -> occurrence count
	LabelCounts map[string]map[string]int

	Warnings []model.NormalizationWarning
}

// Normalizer converts raw questionnaire payloads into the uniform
// record/series representation. It is a pure transform: malformed
// entries are skipped and recorded as warnings, never an error.
type Normalizer struct {
	moodScale map[string]float64
	log       *logrus.Logger
}

// New creates a normalizer. moodScale maps evening mood labels onto
// the 0-10 numeric scale used by the mood metric series.
func New(moodScale map[string]float64, log *logrus.Logger) *Normalizer {
	if log == nil {
		log = logrus.New()
	}
	return &Normalizer{moodScale: moodScale, log: log}
}

// Normalize resolves every raw entry against the questionnaire schema
// and derives the metric series, crisis events and note batch.
func (n *Normalizer) Normalize(snap model.Snapshot) *Result {
	res := &Result{
		Series:      make(map[string]model.MetricSeries),
		LabelCounts: make(map[string]map[string]int),
	}

	// Accumulate entries per calendar date; raw records sharing a date merge
	byDate := make(map[string]*model.DailyRecord)
	var dateOrder []string

	for _, raw := range snap.Records {
		date, err := time.Parse("2006-01-02", raw.Date)
		if err != nil {
			res.warn(raw.Date, "", fmt.Sprintf("unparseable date: %v", err))
			n.log.WithField("date", raw.Date).Warn("skipping record with unparseable date")
			continue
		}

		rec, ok := byDate[raw.Date]
		if !ok {
			rec = &model.DailyRecord{Date: date}
			byDate[raw.Date] = rec
			dateOrder = append(dateOrder, raw.Date)
		}

		for _, entry := range raw.Entries {
			normalized, ok := n.normalizeEntry(raw.Date, entry, res)
			if !ok {
				continue
			}
			rec.Entries = append(rec.Entries, normalized)
		}
	}

	sort.Strings(dateOrder)
	for _, d := range dateOrder {
		res.Records = append(res.Records, *byDate[d])
	}

	n.deriveSeries(res)
	n.deriveCrises(res)
	n.deriveNotes(res)
	n.countLabels(res)

	sort.Slice(res.EveningMoods, func(i, j int) bool {
		return res.EveningMoods[i].Date.Before(res.EveningMoods[j].Date)
	})

	return res
}

// normalizeEntry resolves one raw entry against the schema for its kind
func (n *Normalizer) normalizeEntry(date string, raw model.RawEntry, res *Result) (model.QuizEntry, bool) {
	kind := model.QuizKind(raw.Kind)
	schema, ok := quizSchema[kind]
	if !ok {
		res.warn(date, "", fmt.Sprintf("unknown questionnaire kind %q", raw.Kind))
		return model.QuizEntry{}, false
	}

	entry := model.QuizEntry{
		Kind:       kind,
		RecordedAt: raw.RecordedAt,
		Answers:    make(map[string]model.Answer),
	}

	ids := make([]string, 0, len(raw.Answers))
	for id := range raw.Answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		rawVal := raw.Answers[id]
		spec, ok := schema[id]
		if !ok {
			res.warn(date, id, "question not in schema")
			continue
		}
		answer, err := parseAnswer(spec, rawVal)
		if err != nil {
			res.warn(date, id, err.Error())
			continue
		}
		entry.Answers[id] = answer
	}

	return entry, true
}

// parseAnswer decodes a raw JSON answer into the typed union
func parseAnswer(spec questionSpec, raw json.RawMessage) (model.Answer, error) {
	switch spec.kind {
	case model.AnswerNumeric:
		var num float64
		if err := json.Unmarshal(raw, &num); err != nil {
			// The legacy exporter sometimes quotes scale values
			var s string
			if err2 := json.Unmarshal(raw, &s); err2 != nil {
				return model.Answer{}, fmt.Errorf("expected number, got %s", raw)
			}
			parsed, err2 := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err2 != nil {
				return model.Answer{}, fmt.Errorf("expected number, got %q", s)
			}
			num = parsed
		}
		if num < spec.min || num > spec.max {
			return model.Answer{}, fmt.Errorf("value %g outside scale [%g, %g]", num, spec.min, spec.max)
		}
		return model.Answer{Kind: model.AnswerNumeric, Number: num}, nil

	case model.AnswerChoice:
		var label string
		if err := json.Unmarshal(raw, &label); err != nil {
			return model.Answer{}, fmt.Errorf("expected label, got %s", raw)
		}
		return model.Answer{Kind: model.AnswerChoice, Label: label}, nil

	case model.AnswerMultiChoice:
		var labels []string
		if err := json.Unmarshal(raw, &labels); err != nil {
			return model.Answer{}, fmt.Errorf("expected label list, got %s", raw)
		}
		return model.Answer{Kind: model.AnswerMultiChoice, Labels: labels}, nil

	default:
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return model.Answer{}, fmt.Errorf("expected text, got %s", raw)
		}
		return model.Answer{Kind: model.AnswerFreeText, Text: text}, nil
	}
}

// metricSources maps each canonical metric to the questions that feed it
var metricSources = []struct {
	metric   string
	kind     model.QuizKind
	question string
}{
	{model.MetricPain, model.QuizMorning, "painLevel"},
	{model.MetricPain, model.QuizEvening, "painLevel"},
	{model.MetricSleepQuality, model.QuizMorning, "sleepQuality"},
	{model.MetricEnergy, model.QuizMorning, "energy"},
	{model.MetricFatigue, model.QuizEvening, "fatigue"},
}

// deriveSeries builds the per-metric series. Multiple numeric answers
// mapped to the same metric on the same date are averaged.
func (n *Normalizer) deriveSeries(res *Result) {
	type acc struct {
		sum   float64
		count int
	}
	perMetric := make(map[string]map[time.Time]*acc)

	add := func(metric string, date time.Time, value float64) {
		if perMetric[metric] == nil {
			perMetric[metric] = make(map[time.Time]*acc)
		}
		a := perMetric[metric][date]
		if a == nil {
			a = &acc{}
			perMetric[metric][date] = a
		}
		a.sum += value
		a.count++
	}

	for _, rec := range res.Records {
		for _, entry := range rec.Entries {
			for _, src := range metricSources {
				if entry.Kind != src.kind {
					continue
				}
				if ans, ok := entry.Answers[src.question]; ok && ans.Kind == model.AnswerNumeric {
					add(src.metric, rec.Date, ans.Number)
				}
			}

			// Evening mood becomes the numeric mood series via the scale
			if entry.Kind == model.QuizEvening {
				if ans, ok := entry.Answers["mood"]; ok && ans.Kind == model.AnswerChoice {
					res.EveningMoods = append(res.EveningMoods, DatedLabel{Date: rec.Date, Label: ans.Label})
					if score, ok := n.moodScale[ans.Label]; ok {
						add(model.MetricMoodScore, rec.Date, score)
					} else {
						res.warn(rec.Date.Format("2006-01-02"), "mood", fmt.Sprintf("label %q not in mood scale", ans.Label))
					}
				}
			}
		}
	}

	for metric, byDate := range perMetric {
		series := model.MetricSeries{Name: metric}
		dates := make([]time.Time, 0, len(byDate))
		for d := range byDate {
			dates = append(dates, d)
		}
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
		for _, d := range dates {
			a := byDate[d]
			series.Points = append(series.Points, model.MetricPoint{
				Date:  d,
				Value: a.sum / float64(a.count),
			})
		}
		res.Series[metric] = series
	}
}

// deriveCrises extracts one CrisisEvent per emergency entry that
// carries a valid intensity
func (n *Normalizer) deriveCrises(res *Result) {
	for _, rec := range res.Records {
		for _, entry := range rec.Entries {
			if entry.Kind != model.QuizEmergency {
				continue
			}
			intensity, ok := entry.Answers["intensity"]
			if !ok || intensity.Kind != model.AnswerNumeric {
				res.warn(rec.Date.Format("2006-01-02"), "intensity", "emergency entry without intensity")
				continue
			}
			ev := model.CrisisEvent{
				Date:       rec.Date,
				OccurredAt: entry.RecordedAt,
				Intensity:  intensity.Number,
			}
			if ans, ok := entry.Answers["locations"]; ok {
				ev.Locations = ans.Labels
			}
			if ans, ok := entry.Answers["triggers"]; ok {
				ev.Triggers = ans.Labels
			}
			if ans, ok := entry.Answers["symptoms"]; ok {
				ev.Symptoms = ans.Labels
			}
			if ans, ok := entry.Answers["medicationResponse"]; ok {
				ev.MedicationResponse = ans.Label
			}
			res.Crises = append(res.Crises, ev)
		}
	}
}

// deriveNotes collects the free-text batch for the text collaborator
func (n *Normalizer) deriveNotes(res *Result) {
	for _, rec := range res.Records {
		for _, entry := range rec.Entries {
			if ans, ok := entry.Answers["notes"]; ok && ans.Kind == model.AnswerFreeText {
				if text := strings.TrimSpace(ans.Text); text != "" {
					res.Notes = append(res.Notes, model.Note{Date: rec.Date, Text: text})
				}
			}
		}
	}
}

// countLabels explodes every multi-choice answer into a frequency table
func (n *Normalizer) countLabels(res *Result) {
	for _, rec := range res.Records {
		for _, entry := range rec.Entries {
			for id, ans := range entry.Answers {
				if ans.Kind != model.AnswerMultiChoice {
					continue
				}
				if res.LabelCounts[id] == nil {
					res.LabelCounts[id] = make(map[string]int)
				}
				for _, label := range ans.Labels {
					res.LabelCounts[id][label]++
				}
			}
		}
	}
}

func (r *Result) warn(date, field, reason string) {
	r.Warnings = append(r.Warnings, model.NormalizationWarning{
		Date:   date,
		Field:  field,
		Reason: reason,
	})
}
