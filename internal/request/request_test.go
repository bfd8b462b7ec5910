package request

import (
	"strings"
	"testing"
)

func TestFingerprintIgnoresIncidentalFormatting(t *testing.T) {
	t.Parallel()

	base := Spec{
		Operation: OpScript,
		Channel:   "Devotional",
		Theme:     "divine love and devotion",
		Week:      12,
		Tier:      TierFree,
	}

	variants := []Spec{
		{Operation: OpScript, Channel: "devotional", Theme: "  divine love and devotion  ", Week: 12, Tier: TierFree},
		{Operation: OpScript, Channel: "DEVOTIONAL", Theme: "divine  love\tand devotion", Week: 12, Tier: TierFree},
		{Operation: OpScript, Channel: "devotional ", Theme: "divine love and devotion\n", Week: 12, Tier: TierFree},
	}

	want := base.Fingerprint()
	for i, v := range variants {
		if got := v.Fingerprint(); got != want {
			t.Errorf("variant %d: fingerprint %s != %s", i, got, want)
		}
	}
}

func TestFingerprintSensitiveToParameters(t *testing.T) {
	t.Parallel()

	base := Spec{
		Operation:    OpShortsExtraction,
		Channel:      "finance",
		Theme:        "compound interest",
		Week:         3,
		Tier:         TierLow,
		NumShorts:    4,
		SourceScript: "a long script",
	}
	baseFP := base.Fingerprint()

	mutations := map[string]Spec{}

	m := base
	m.NumShorts = 5
	mutations["num_shorts"] = m

	m = base
	m.Theme = "compound interest explained"
	mutations["theme"] = m

	m = base
	m.Week = 4
	mutations["week"] = m

	m = base
	m.Tier = TierHigh
	mutations["tier"] = m

	m = base
	m.Operation = OpTitles
	mutations["operation"] = m

	for name, mut := range mutations {
		if mut.Fingerprint() == baseFP {
			t.Errorf("changing %s did not change the fingerprint", name)
		}
	}
}

func TestNormalizeClampsShortsCount(t *testing.T) {
	t.Parallel()

	s := Spec{Operation: OpShortsExtraction, NumShorts: 99, SourceScript: "x"}
	if got := s.Normalize().NumShorts; got != MaxShorts {
		t.Fatalf("expected clamp to %d, got %d", MaxShorts, got)
	}

	s.NumShorts = 0
	if got := s.Normalize().NumShorts; got != DefaultShorts {
		t.Fatalf("expected default %d, got %d", DefaultShorts, got)
	}

	s.NumShorts = -2
	if got := s.Normalize().NumShorts; got != MinShorts {
		t.Fatalf("expected clamp to %d, got %d", MinShorts, got)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := Spec{Operation: OpTitles, Channel: "c", Theme: "t", Tier: TierFree}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	invalid := Spec{Operation: "render", Tier: TierFree}
	if err := invalid.Validate(); err == nil {
		t.Fatal("expected error for unknown operation")
	}

	noSource := Spec{Operation: OpShortsExtraction, Tier: TierFree}
	err := noSource.Validate()
	if err == nil || !strings.Contains(err.Error(), "source script") {
		t.Fatalf("expected source script error, got %v", err)
	}
}

func TestParseTier(t *testing.T) {
	t.Parallel()

	cases := map[string]Tier{
		"free":     TierFree,
		"":         TierFree,
		"low":      TierLow,
		"low_cost": TierLow,
		"high":     TierHigh,
		"quality":  TierHigh,
		" HIGH ":   TierHigh,
	}
	for in, want := range cases {
		got, err := ParseTier(in)
		if err != nil {
			t.Errorf("ParseTier(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseTier(%q) = %s, want %s", in, got, want)
		}
	}

	if _, err := ParseTier("platinum"); err == nil {
		t.Fatal("expected error for unknown tier")
	}
}
