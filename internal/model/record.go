package model

import (
	"encoding/json"
	"time"
)

// QuizKind identifies which questionnaire an entry belongs to
type QuizKind string

const (
	QuizMorning   QuizKind = "morning"   // Morning check-in
	QuizEvening   QuizKind = "evening"   // Evening check-in
	QuizEmergency QuizKind = "emergency" // Crisis episode report
)

// AnswerKind tags the shape of a questionnaire answer
type AnswerKind int

const (
	AnswerNumeric     AnswerKind = iota // 0-10 scale value
	AnswerChoice                        // Single-choice label
	AnswerMultiChoice                   // Set of labels
	AnswerFreeText                      // Free-form note
)

// Answer is a typed questionnaire answer. Exactly one of the value
// fields is meaningful, selected by Kind.
type Answer struct {
	Kind   AnswerKind `json:"kind"`
	Number float64    `json:"number,omitempty"`
	Label  string     `json:"label,omitempty"`
	Labels []string   `json:"labels,omitempty"`
	Text   string     `json:"text,omitempty"`
}

// QuizEntry is a single normalized questionnaire submission
type QuizEntry struct {
	Kind       QuizKind          `json:"kind"`
	RecordedAt time.Time         `json:"recorded_at,omitempty"` // Clock time, if the entry carried one
	Answers    map[string]Answer `json:"answers"`
}

// DailyRecord holds all questionnaire entries for one calendar date.
// Entries for the same date accumulate across questionnaire kinds.
type DailyRecord struct {
	Date    time.Time   `json:"date"` // Midnight UTC of the calendar date
	Entries []QuizEntry `json:"entries"`
}

// MetricPoint is one dated observation of a named metric
type MetricPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// MetricSeries is a chronologically ordered numeric series for one metric.
// Duplicate observations on the same date have already been averaged.
type MetricSeries struct {
	Name   string        `json:"name"`
	Points []MetricPoint `json:"points"`
}

// Values returns the values in chronological order
func (s MetricSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Canonical metric names produced by the normalizer
const (
	MetricPain         = "pain"
	MetricSleepQuality = "sleepQuality"
	MetricFatigue      = "fatigue"
	MetricEnergy       = "energy"
	MetricMoodScore    = "moodScore"
)

// CrisisEvent is derived from an emergency-kind entry
type CrisisEvent struct {
	Date               time.Time `json:"date"`
	OccurredAt         time.Time `json:"occurred_at,omitempty"` // With clock time when reported
	Intensity          float64   `json:"intensity"`             // 0-10
	Locations          []string  `json:"locations,omitempty"`
	Triggers           []string  `json:"triggers,omitempty"`
	Symptoms           []string  `json:"symptoms,omitempty"`
	MedicationResponse string    `json:"medication_response,omitempty"`
}

// Note is a dated free-text fragment collected during normalization,
// handed to the text understanding collaborator as a batch.
type Note struct {
	Date time.Time `json:"date"`
	Text string    `json:"text"`
}

// NormalizationWarning records a single skipped or partially skipped
// raw entry. Normalization never aborts the batch.
type NormalizationWarning struct {
	Date   string `json:"date"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

// RawEntry is one questionnaire submission as exported by the diary
// store. Answers stay opaque until the normalizer resolves them.
type RawEntry struct {
	Kind       string                     `json:"kind"`
	RecordedAt time.Time                  `json:"recorded_at,omitempty"`
	Answers    map[string]json.RawMessage `json:"answers"`
}

// RawRecord groups raw entries under one calendar date
type RawRecord struct {
	Date    string     `json:"date"` // YYYY-MM-DD
	Entries []RawEntry `json:"entries"`
}

// Snapshot is the immutable diary window fetched once per report
// request. The engine never writes back to it.
type Snapshot struct {
	UserID  string      `json:"user_id,omitempty"`
	From    time.Time   `json:"from"`
	To      time.Time   `json:"to"`
	Records []RawRecord `json:"records"`
}
