package textinsight

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ndvoru/healthscope/internal/model"
	"github.com/sashabaranov/go-openai"
)

const classifyPrompt = `You are classifying a single personal health-diary note.
Respond with ONLY a JSON object, no prose, in exactly this shape:
{"sentiment":"negative|neutral|positive","sentiment_score":-1.0,"urgency":0,"clinical_relevance":0,"entities":["..."]}

Rules:
- sentiment_score is in [-1, 1].
- urgency grades how acutely distressed the writer is, 0-10.
- clinical_relevance grades how useful the note is to a clinician, 0-10.
- entities lists medications, symptoms and triggers mentioned, verbatim.
- Never invent facts not present in the note.

Note (written %s):
%s`

// OpenAIProvider implements Provider against the OpenAI chat API
type OpenAIProvider struct {
	client *openai.Client
	config model.TextConfig
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(cfg model.TextConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// classifyResponse is the JSON shape the model is instructed to emit
type classifyResponse struct {
	Sentiment         string   `json:"sentiment"`
	SentimentScore    float64  `json:"sentiment_score"`
	Urgency           float64  `json:"urgency"`
	ClinicalRelevance float64  `json:"clinical_relevance"`
	Entities          []string `json:"entities"`
}

// AnalyzeNote classifies one note with a hard per-request timeout
func (p *OpenAIProvider) AnalyzeNote(ctx context.Context, note model.Note) (model.NoteAnalysis, error) {
	m := p.config.Model
	if m == "" {
		m = openai.GPT4oMini
	}

	maxTokens := p.config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 500
	}

	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: m,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You classify health-diary notes and answer with strict JSON only.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(classifyPrompt, note.Date.Format("2006-01-02"), note.Text),
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0, // Classification must be reproducible
	}

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, req)
	if err != nil {
		return model.NoteAnalysis{}, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.NoteAnalysis{}, fmt.Errorf("no response from OpenAI")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var parsed classifyResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &parsed); err != nil {
		return model.NoteAnalysis{}, fmt.Errorf("unparseable classification: %w", err)
	}

	return model.NoteAnalysis{
		Date:              note.Date,
		SentimentLabel:    parsed.Sentiment,
		SentimentScore:    clamp(parsed.SentimentScore, -1, 1),
		Urgency:           clamp(parsed.Urgency, 0, 10),
		ClinicalRelevance: clamp(parsed.ClinicalRelevance, 0, 10),
		Entities:          parsed.Entities,
		Source:            "collaborator",
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
