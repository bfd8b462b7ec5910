package pricing

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"mediagen-gateway/internal/request"
)

func TestDefaultTableValidates(t *testing.T) {
	t.Parallel()

	if err := Default().Validate(); err != nil {
		t.Fatalf("default table must validate: %v", err)
	}
}

func TestValidateRejectsMissingOperation(t *testing.T) {
	t.Parallel()

	table := Default()
	delete(table[request.TierLow], request.OpNarration)
	if err := table.Validate(); err == nil {
		t.Fatal("expected error for missing operation")
	}
}

func TestValidateRejectsInvertedTierOrdering(t *testing.T) {
	t.Parallel()

	table := Default()
	price := table[request.TierHigh][request.OpScript]
	price.OutputPerKTok = 0 // cheaper than free tier
	table[request.TierHigh][request.OpScript] = price

	if err := table.Validate(); err == nil {
		t.Fatal("expected error for high tier cheaper than free")
	}
}

func TestLoadMergesOverride(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pricing.yaml")
	override := `
high:
  images:
    per_unit: 0.05
`
	if err := os.WriteFile(path, []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := table[request.TierHigh][request.OpImages].PerUnit; got != 0.05 {
		t.Fatalf("override not applied, got %v", got)
	}
	// Untouched entries keep their defaults.
	if got := table[request.TierFree][request.OpImages].PerUnit; got != 0 {
		t.Fatalf("default clobbered, got %v", got)
	}
	if err := table.Validate(); err != nil {
		t.Fatalf("merged table must validate: %v", err)
	}
}

func TestEstimateDeterministic(t *testing.T) {
	t.Parallel()

	est := NewEstimator(Default())
	specs := []request.Spec{
		{Operation: request.OpScript, Theme: "compound interest", Tier: request.TierLow, DurationMinutes: 20},
		{Operation: request.OpShortsExtraction, SourceScript: "some long script text", NumShorts: 4, Tier: request.TierLow},
		{Operation: request.OpImages, NumImages: 12, Tier: request.TierLow},
	}

	a := est.Estimate(specs, request.TierLow)
	b := est.Estimate(specs, request.TierLow)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("estimate not deterministic:\n%v\n%v", a, b)
	}
	if a.Total.USD <= 0 {
		t.Fatalf("expected positive total, got %v", a.Total.USD)
	}
	if len(a.PerStage) != 3 {
		t.Fatalf("expected 3 stages, got %d", len(a.PerStage))
	}
}

func TestEstimateMonotonicInNumShorts(t *testing.T) {
	t.Parallel()

	est := NewEstimator(Default())
	script := "a script long enough to extract from"

	var prev float64
	for n := request.MinShorts; n <= request.MaxShorts; n++ {
		specs := []request.Spec{{
			Operation:    request.OpShortsExtraction,
			SourceScript: script,
			NumShorts:    n,
			Tier:         request.TierLow,
		}}
		total := est.Estimate(specs, request.TierLow).Total
		if total.Units <= prev {
			t.Fatalf("units not increasing at num_shorts=%d: %v <= %v", n, total.Units, prev)
		}
		prev = total.Units
	}
}

func TestEstimateMonotonicAcrossTiers(t *testing.T) {
	t.Parallel()

	est := NewEstimator(Default())
	specs := []request.Spec{
		{Operation: request.OpScript, Theme: "morning meditation", DurationMinutes: 30},
		{Operation: request.OpNarration, DurationMinutes: 30},
		{Operation: request.OpImages, NumImages: 10},
	}

	var prevUSD, prevUnits float64
	for i, tier := range request.Tiers() {
		total := est.Estimate(specs, tier).Total
		if i > 0 {
			if total.USD < prevUSD {
				t.Fatalf("tier %s cheaper than previous: %v < %v", tier, total.USD, prevUSD)
			}
			if total.Units < prevUnits {
				t.Fatalf("tier %s fewer units than previous: %v < %v", tier, total.Units, prevUnits)
			}
		}
		prevUSD, prevUnits = total.USD, total.Units
	}
}
