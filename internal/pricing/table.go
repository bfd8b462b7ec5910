package pricing

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"mediagen-gateway/internal/request"
)

// UnitPrice holds the USD prices for one tier/operation pair. Text
// operations are priced per 1k input/output tokens; narration is priced per
// 1k synthesized characters and images per image, both via PerUnit.
type UnitPrice struct {
	InputPerKTok  float64 `yaml:"input_per_ktok"`
	OutputPerKTok float64 `yaml:"output_per_ktok"`
	PerUnit       float64 `yaml:"per_unit"`
}

// Table maps tier -> operation -> unit price. One table serves both the
// dry-run estimator and live cost accounting on provider responses, so the
// two can never drift apart.
type Table map[request.Tier]map[request.Operation]UnitPrice

// Default returns the built-in price table. The free tier routes text to the
// cheapest chat model, speech to a free synthesizer and images to free stock
// search; the high tier pays for the premium model, premium voices and
// generated images.
func Default() Table {
	return Table{
		request.TierFree: {
			request.OpScript:           {InputPerKTok: 0.0005, OutputPerKTok: 0.0015},
			request.OpTitles:           {InputPerKTok: 0.0005, OutputPerKTok: 0.0015},
			request.OpShortsExtraction: {InputPerKTok: 0.0005, OutputPerKTok: 0.0015},
			request.OpNarration:        {PerUnit: 0},
			request.OpImages:           {PerUnit: 0},
		},
		request.TierLow: {
			request.OpScript:           {InputPerKTok: 0.0015, OutputPerKTok: 0.002},
			request.OpTitles:           {InputPerKTok: 0.0015, OutputPerKTok: 0.002},
			request.OpShortsExtraction: {InputPerKTok: 0.0015, OutputPerKTok: 0.002},
			request.OpNarration:        {PerUnit: 0.15},
			request.OpImages:           {PerUnit: 0.004},
		},
		request.TierHigh: {
			request.OpScript:           {InputPerKTok: 0.0025, OutputPerKTok: 0.01},
			request.OpTitles:           {InputPerKTok: 0.0025, OutputPerKTok: 0.01},
			request.OpShortsExtraction: {InputPerKTok: 0.0025, OutputPerKTok: 0.01},
			request.OpNarration:        {PerUnit: 0.30},
			request.OpImages:           {PerUnit: 0.01},
		},
	}
}

// Load returns the default table merged with the optional YAML override
// file. An override entry replaces the matching tier/operation price.
func Load(path string) (Table, error) {
	table := Default()
	if path == "" {
		return table, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing file: %w", err)
	}

	var override Table
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return nil, fmt.Errorf("parse pricing file: %w", err)
	}

	for tier, ops := range override {
		if table[tier] == nil {
			table[tier] = make(map[request.Operation]UnitPrice)
		}
		for op, price := range ops {
			table[tier][op] = price
		}
	}
	return table, nil
}

// Validate checks the table at startup: every tier covers every operation,
// prices are non-negative, and prices do not decrease from free to low to
// high for any operation. A violation is a configuration error and the
// process must refuse to serve.
func (t Table) Validate() error {
	for _, tier := range request.Tiers() {
		ops, ok := t[tier]
		if !ok {
			return fmt.Errorf("pricing: tier %q missing from table", tier)
		}
		for _, op := range request.Operations() {
			price, ok := ops[op]
			if !ok {
				return fmt.Errorf("pricing: tier %q missing operation %q", tier, op)
			}
			if price.InputPerKTok < 0 || price.OutputPerKTok < 0 || price.PerUnit < 0 {
				return fmt.Errorf("pricing: negative price for %s/%s", tier, op)
			}
		}
	}

	tiers := request.Tiers()
	for i := 1; i < len(tiers); i++ {
		lower, higher := t[tiers[i-1]], t[tiers[i]]
		for _, op := range request.Operations() {
			a, b := lower[op], higher[op]
			if b.InputPerKTok < a.InputPerKTok ||
				b.OutputPerKTok < a.OutputPerKTok ||
				b.PerUnit < a.PerUnit {
				return fmt.Errorf("pricing: tier %q is cheaper than %q for %s",
					tiers[i], tiers[i-1], op)
			}
		}
	}
	return nil
}

// TextCost prices a completed text call from its token usage. Providers use
// this for live accounting so billed cost and the dry-run estimate come
// from the same table.
func (t Table) TextCost(tier request.Tier, op request.Operation, inputTokens, outputTokens int) float64 {
	price := t[tier][op]
	return float64(inputTokens)/1000*price.InputPerKTok +
		float64(outputTokens)/1000*price.OutputPerKTok
}

// UnitCost prices units (1k TTS characters, or images) for an operation.
func (t Table) UnitCost(tier request.Tier, op request.Operation, units float64) float64 {
	return units * t[tier][op].PerUnit
}
