package textinsight

import (
	"sort"
	"strings"

	"github.com/ndvoru/healthscope/internal/model"
)

// LexiconClassifier is the local rule-based substitute used when the
// collaborator is disabled, rate limited, timed out or failing. It is
// deterministic: the same note always classifies identically.
type LexiconClassifier struct {
	lexicon model.LexiconConfig
}

// NewLexiconClassifier creates a classifier over the configured lexicon
func NewLexiconClassifier(lexicon model.LexiconConfig) *LexiconClassifier {
	return &LexiconClassifier{lexicon: lexicon}
}

// Name returns the classifier name
func (c *LexiconClassifier) Name() string {
	return "lexicon"
}

// Classify scores a note by keyword matching against the lexicon
func (c *LexiconClassifier) Classify(note model.Note) model.NoteAnalysis {
	lower := strings.ToLower(note.Text)

	negatives := countMatches(lower, c.lexicon.Negative)
	positives := countMatches(lower, c.lexicon.Positive)
	urgent := countMatches(lower, c.lexicon.Urgent)

	var entities []string
	for _, med := range c.lexicon.Medications {
		if strings.Contains(lower, strings.ToLower(med)) {
			entities = append(entities, med)
		}
	}
	sort.Strings(entities)

	score := 0.0
	if negatives+positives > 0 {
		score = float64(positives-negatives) / float64(positives+negatives)
	}
	label := "neutral"
	if score < -0.2 {
		label = "negative"
	} else if score > 0.2 {
		label = "positive"
	}

	// Urgency: any urgent keyword dominates; otherwise scale with the
	// negative keyword density, capped well below the urgent band
	urgency := float64(negatives)
	if urgency > 5 {
		urgency = 5
	}
	if urgent > 0 {
		urgency = 8
	}

	// Medication mentions and urgent wording both matter clinically
	relevance := 3.0 + 2*float64(len(entities))
	if urgent > 0 {
		relevance += 2
	}
	if relevance > 10 {
		relevance = 10
	}

	return model.NoteAnalysis{
		Date:              note.Date,
		SentimentLabel:    label,
		SentimentScore:    score,
		Urgency:           urgency,
		ClinicalRelevance: relevance,
		Entities:          entities,
		Source:            "fallback",
	}
}

func countMatches(lower string, words []string) int {
	count := 0
	for _, w := range words {
		if strings.Contains(lower, strings.ToLower(w)) {
			count++
		}
	}
	return count
}
