// Package textinsight talks to the free-text understanding
// collaborator: per-note sentiment, urgency and clinical relevance.
// The collaborator is optional; every path through this package
// degrades to the local lexicon fallback rather than failing the run.
package textinsight

import (
	"context"
	"fmt"
	"strings"

	"github.com/ndvoru/healthscope/internal/model"
)

// Provider defines the interface for text understanding backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// AnalyzeNote classifies a single diary note
	AnalyzeNote(ctx context.Context, note model.Note) (model.NoteAnalysis, error)
}

// NewProvider creates a provider based on configuration. An empty
// provider name disables the collaborator (nil, nil): the analyzer
// then uses the local fallback exclusively.
func NewProvider(cfg model.TextConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIProvider(cfg)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown text provider: %s (supported: openai)", cfg.Provider)
	}
}
