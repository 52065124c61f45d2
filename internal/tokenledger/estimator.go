package tokenledger

import (
	"github.com/terapiaconect/platform/internal/observability/metrics"
	"github.com/terapiaconect/platform/pkg/logging"
)

// messageOverheadTokens accounts for per-message framing in chat payloads.
const messageOverheadTokens = 4

// Message is one role/content pair of a chat request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Tokenizer counts tokens exactly. Optional; when absent or failing, the
// estimator falls back to a character-count heuristic.
type Tokenizer interface {
	CountTokens(text string) (int, error)
}

// Estimator approximates token counts for billing. The counts are estimates,
// not measurements: the fallback assumes ~4 characters per token, which is
// close for Latin-script text and off for dense scripts.
type Estimator struct {
	tokenizer Tokenizer
	metrics   *metrics.AIMetrics
	logger    *logging.Logger
}

// NewEstimator creates an estimator. tokenizer may be nil.
func NewEstimator(tokenizer Tokenizer, aiMetrics *metrics.AIMetrics, logger *logging.Logger) *Estimator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Estimator{tokenizer: tokenizer, metrics: aiMetrics, logger: logger}
}

// EstimateTokens maps text to an approximate token count.
func (e *Estimator) EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	if e.tokenizer != nil {
		if n, err := e.tokenizer.CountTokens(text); err == nil {
			return n
		} else {
			e.logger.Warn("tokenizer failed, using character heuristic", "error", err)
		}
	}
	e.metrics.ObserveEstimatorFallback()
	// ceil(len/4) without floating point.
	return (len(text) + 3) / 4
}

// EstimateMessages sums the token estimate of each message's content plus a
// fixed per-message framing overhead.
func (e *Estimator) EstimateMessages(messages []Message) int {
	total := 0
	for _, msg := range messages {
		total += e.EstimateTokens(msg.Content) + messageOverheadTokens
	}
	return total
}
