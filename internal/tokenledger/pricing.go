package tokenledger

import (
	"encoding/json"
	"fmt"
	"os"
)

// Tier is a model's per-million-token cost pair in USD.
type Tier struct {
	InputPerMillion  float64 `json:"input_per_million"`
	OutputPerMillion float64 `json:"output_per_million"`
}

// Cost prices a token pair against the tier.
func (t Tier) Cost(inputTokens, outputTokens int) (inputCost, outputCost float64) {
	inputCost = float64(inputTokens) / 1_000_000 * t.InputPerMillion
	outputCost = float64(outputTokens) / 1_000_000 * t.OutputPerMillion
	return inputCost, outputCost
}

// PriceTable maps model names to tiers. Unknown models resolve to the
// default tier; Resolve tags the result so callers can tell estimated-from-
// unknown-model costs from real ones.
type PriceTable struct {
	Models       map[string]Tier `json:"models"`
	DefaultModel string          `json:"default_model"`
}

// DefaultPriceTable returns the built-in table used when no pricing file is
// configured. Prices are USD per million tokens.
func DefaultPriceTable() *PriceTable {
	return &PriceTable{
		Models: map[string]Tier{
			"gpt-4o":        {InputPerMillion: 2.50, OutputPerMillion: 10.00},
			"gpt-4o-mini":   {InputPerMillion: 0.15, OutputPerMillion: 0.60},
			"gpt-4-turbo":   {InputPerMillion: 10.00, OutputPerMillion: 30.00},
			"gpt-3.5-turbo": {InputPerMillion: 0.50, OutputPerMillion: 1.50},
			"whisper-1":     {InputPerMillion: 0.15, OutputPerMillion: 0.60},
		},
		DefaultModel: "gpt-4o-mini",
	}
}

// LoadPriceTable reads a pricing file so the table can change without a
// deploy. A missing path falls back to the built-in defaults.
func LoadPriceTable(path string) (*PriceTable, error) {
	if path == "" {
		return DefaultPriceTable(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultPriceTable(), nil
		}
		return nil, fmt.Errorf("tokenledger: read price table: %w", err)
	}
	var table PriceTable
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("tokenledger: parse price table: %w", err)
	}
	if len(table.Models) == 0 {
		return nil, fmt.Errorf("tokenledger: price table %s has no models", path)
	}
	if _, ok := table.Models[table.DefaultModel]; !ok {
		return nil, fmt.Errorf("tokenledger: default model %q missing from price table", table.DefaultModel)
	}
	return &table, nil
}

// Resolve returns the tier for a model and whether the model was listed.
// Unknown models get the default tier so new models never fail a call.
func (p *PriceTable) Resolve(model string) (Tier, bool) {
	if tier, ok := p.Models[model]; ok {
		return tier, true
	}
	return p.Models[p.DefaultModel], false
}
