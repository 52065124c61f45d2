package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/terapiaconect/platform/internal/tokenledger"
	"github.com/terapiaconect/platform/pkg/logging"
)

const (
	summarySystemPrompt = "You are a clinical assistant for licensed therapists. " +
		"Summarize the session transcript in at most five sentences, in the transcript's language. " +
		"Stick to what was said; do not diagnose."
	insightsSystemPrompt = "You are a clinical assistant for licensed therapists. " +
		"From the session transcript, list recurring themes, notable shifts in mood " +
		"and suggested topics for the next session. Stick to what was said; do not diagnose."
)

// UsageLogger receives the token accounting of every model call. It never
// returns an error: persistence problems are the ledger's to absorb.
type UsageLogger interface {
	LogTokens(model string, inputTokens, outputTokens int) tokenledger.Usage
	LogUsage(model string, messages []tokenledger.Message, outputText string) tokenledger.Usage
}

// ChatCompleter is the slice of the OpenAI client the insights service uses.
type ChatCompleter interface {
	ChatCompletion(ctx context.Context, model string, messages []tokenledger.Message, temperature float64) (*ChatResponse, error)
}

// InsightsService turns session transcripts into summaries and clinical
// insights, logging every model call to the usage ledger.
type InsightsService struct {
	client ChatCompleter
	ledger UsageLogger
	model  string
	logger *logging.Logger
}

func NewInsightsService(client ChatCompleter, ledger UsageLogger, model string, logger *logging.Logger) *InsightsService {
	if client == nil {
		panic("ai: chat client is required")
	}
	if ledger == nil {
		panic("ai: usage ledger is required")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &InsightsService{client: client, ledger: ledger, model: model, logger: logger}
}

// Summarize produces a short summary of a session transcript.
func (s *InsightsService) Summarize(ctx context.Context, transcript string) (string, error) {
	return s.complete(ctx, summarySystemPrompt, transcript)
}

// GenerateInsights produces themes and followup suggestions from a transcript.
func (s *InsightsService) GenerateInsights(ctx context.Context, transcript string) (string, error) {
	return s.complete(ctx, insightsSystemPrompt, transcript)
}

func (s *InsightsService) complete(ctx context.Context, systemPrompt, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", errors.New("ai: transcript is empty")
	}
	messages := []tokenledger.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: transcript},
	}
	resp, err := s.client.ChatCompletion(ctx, s.model, messages, 0.3)
	if err != nil {
		return "", fmt.Errorf("ai: insights completion: %w", err)
	}
	// Prefer the provider's own token counts; estimate only when the usage
	// block was absent.
	if resp.InputTokens > 0 || resp.OutputTokens > 0 {
		s.ledger.LogTokens(s.model, resp.InputTokens, resp.OutputTokens)
	} else {
		s.ledger.LogUsage(s.model, messages, resp.Content)
	}
	return resp.Content, nil
}
