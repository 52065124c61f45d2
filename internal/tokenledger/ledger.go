package tokenledger

import (
	"sync"
	"time"

	"github.com/terapiaconect/platform/internal/observability/metrics"
	"github.com/terapiaconect/platform/pkg/logging"
)

// ModelTotals accumulates usage for a single model.
type ModelTotals struct {
	Calls        int     `json:"calls"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	InputCost    float64 `json:"input_cost"`
	OutputCost   float64 `json:"output_cost"`
	TotalCost    float64 `json:"total_cost"`
}

func (m *ModelTotals) add(u Usage) {
	m.Calls++
	m.InputTokens += u.InputTokens
	m.OutputTokens += u.OutputTokens
	m.InputCost += u.InputCost
	m.OutputCost += u.OutputCost
	m.TotalCost += u.TotalCost
}

// Aggregate is the persisted shape of the ledger: running totals since the
// ledger was created, broken down per model and per day per model.
type Aggregate struct {
	TotalCalls        int                                `json:"total_calls"`
	TotalInputTokens  int                                `json:"total_input_tokens"`
	TotalOutputTokens int                                `json:"total_output_tokens"`
	TotalCost         float64                            `json:"total_cost"`
	ByModel           map[string]*ModelTotals            `json:"by_model"`
	ByDay             map[string]map[string]*ModelTotals `json:"by_day"`
	UpdatedAt         time.Time                          `json:"updated_at"`
}

func newAggregate() *Aggregate {
	return &Aggregate{
		ByModel: make(map[string]*ModelTotals),
		ByDay:   make(map[string]map[string]*ModelTotals),
	}
}

// Usage is the breakdown for a single logged call.
type Usage struct {
	Model        string    `json:"model"`
	KnownPricing bool      `json:"known_pricing"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	InputCost    float64   `json:"input_cost"`
	OutputCost   float64   `json:"output_cost"`
	TotalCost    float64   `json:"total_cost"`
	At           time.Time `json:"at"`
}

// Store persists the aggregate between restarts.
type Store interface {
	Load() (*Aggregate, error)
	Save(*Aggregate) error
}

// Ledger tracks token usage and cost per model. Mutations are serialized
// under a mutex; persistence failures are logged and absorbed so a full
// disk never fails an AI call.
type Ledger struct {
	mu        sync.Mutex
	aggregate *Aggregate
	prices    *PriceTable
	estimator *Estimator
	store     Store
	metrics   *metrics.AIMetrics
	logger    *logging.Logger
	now       func() time.Time
}

// NewLedger loads any persisted aggregate from the store. A load failure
// starts an empty ledger rather than refusing to serve.
func NewLedger(store Store, prices *PriceTable, estimator *Estimator, m *metrics.AIMetrics, logger *logging.Logger) *Ledger {
	if prices == nil {
		panic("tokenledger: price table is required")
	}
	if estimator == nil {
		panic("tokenledger: estimator is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	aggregate := newAggregate()
	if store != nil {
		loaded, err := store.Load()
		if err != nil {
			logger.Warn("usage ledger load failed, starting empty", "error", err)
		} else if loaded != nil {
			if loaded.ByModel == nil {
				loaded.ByModel = make(map[string]*ModelTotals)
			}
			if loaded.ByDay == nil {
				loaded.ByDay = make(map[string]map[string]*ModelTotals)
			}
			aggregate = loaded
		}
	}
	return &Ledger{
		aggregate: aggregate,
		prices:    prices,
		estimator: estimator,
		store:     store,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// LogUsage records one model call: estimates input tokens from the messages,
// prices the call, folds it into the aggregate and persists. Returns this
// call's breakdown only.
func (l *Ledger) LogUsage(model string, messages []Message, outputText string) Usage {
	inputTokens := l.estimator.EstimateMessages(messages)
	outputTokens := l.estimator.EstimateTokens(outputText)
	return l.record(model, inputTokens, outputTokens)
}

// LogTokens records a call whose token counts are already known, e.g. from
// the provider's usage block in the API response.
func (l *Ledger) LogTokens(model string, inputTokens, outputTokens int) Usage {
	return l.record(model, inputTokens, outputTokens)
}

func (l *Ledger) record(model string, inputTokens, outputTokens int) Usage {
	tier, known := l.prices.Resolve(model)
	if !known {
		l.metrics.ObserveUnknownModel()
		l.logger.Warn("no pricing for model, using default tier", "model", model)
	}
	inputCost, outputCost := tier.Cost(inputTokens, outputTokens)
	usage := Usage{
		Model:        model,
		KnownPricing: known,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		InputCost:    inputCost,
		OutputCost:   outputCost,
		TotalCost:    inputCost + outputCost,
		At:           l.now().UTC(),
	}

	l.mu.Lock()
	l.apply(usage)
	snapshot := l.snapshotLocked()
	l.mu.Unlock()

	l.metrics.ObserveUsage(model, inputTokens, outputTokens, usage.TotalCost)

	if l.store != nil {
		if err := l.store.Save(snapshot); err != nil {
			l.metrics.ObserveLedgerWriteError()
			l.logger.Error("usage ledger write failed", "error", err, "path_hint", "aggregate")
		}
	}
	return usage
}

func (l *Ledger) apply(u Usage) {
	a := l.aggregate
	a.TotalCalls++
	a.TotalInputTokens += u.InputTokens
	a.TotalOutputTokens += u.OutputTokens
	a.TotalCost += u.TotalCost
	a.UpdatedAt = u.At

	perModel := a.ByModel[u.Model]
	if perModel == nil {
		perModel = &ModelTotals{}
		a.ByModel[u.Model] = perModel
	}
	perModel.add(u)

	day := u.At.Format("2006-01-02")
	perDay := a.ByDay[day]
	if perDay == nil {
		perDay = make(map[string]*ModelTotals)
		a.ByDay[day] = perDay
	}
	dayModel := perDay[u.Model]
	if dayModel == nil {
		dayModel = &ModelTotals{}
		perDay[u.Model] = dayModel
	}
	dayModel.add(u)
}

// Snapshot returns a deep copy of the aggregate safe for concurrent readers.
func (l *Ledger) Snapshot() *Aggregate {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Ledger) snapshotLocked() *Aggregate {
	out := &Aggregate{
		TotalCalls:        l.aggregate.TotalCalls,
		TotalInputTokens:  l.aggregate.TotalInputTokens,
		TotalOutputTokens: l.aggregate.TotalOutputTokens,
		TotalCost:         l.aggregate.TotalCost,
		ByModel:           make(map[string]*ModelTotals, len(l.aggregate.ByModel)),
		ByDay:             make(map[string]map[string]*ModelTotals, len(l.aggregate.ByDay)),
		UpdatedAt:         l.aggregate.UpdatedAt,
	}
	for model, totals := range l.aggregate.ByModel {
		cp := *totals
		out.ByModel[model] = &cp
	}
	for day, models := range l.aggregate.ByDay {
		dayCopy := make(map[string]*ModelTotals, len(models))
		for model, totals := range models {
			cp := *totals
			dayCopy[model] = &cp
		}
		out.ByDay[day] = dayCopy
	}
	return out
}
