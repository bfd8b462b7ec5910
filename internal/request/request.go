package request

import (
	"errors"
	"fmt"
	"strings"
)

// Operation identifies one unit of generation work.
type Operation string

const (
	OpScript           Operation = "script"
	OpTitles           Operation = "titles"
	OpShortsExtraction Operation = "shorts_extraction"
	OpNarration        Operation = "narration"
	OpImages           Operation = "images"
)

// Tier selects which providers and pricing apply to a run.
type Tier string

const (
	TierFree Tier = "free"
	TierLow  Tier = "low"
	TierHigh Tier = "high"
)

// Operations lists every operation in a fixed order, used by the pricing
// table validator and the estimator.
func Operations() []Operation {
	return []Operation{OpScript, OpTitles, OpShortsExtraction, OpNarration, OpImages}
}

// Tiers lists tiers from cheapest to most expensive.
func Tiers() []Tier {
	return []Tier{TierFree, TierLow, TierHigh}
}

// ParseTier maps a user-supplied tier name to a Tier.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "free", "":
		return TierFree, nil
	case "low", "low_cost":
		return TierLow, nil
	case "high", "hq", "quality":
		return TierHigh, nil
	}
	return "", fmt.Errorf("unknown cost tier %q (valid: free, low, high)", s)
}

const (
	// MinShorts and MaxShorts bound the --num-shorts flag and the
	// num_shorts request field.
	MinShorts = 1
	MaxShorts = 8

	// DefaultShorts is used when a shorts request omits the count.
	DefaultShorts = 4
)

// Spec is an immutable description of one unit of work. Two specs that are
// semantically identical fingerprint identically; see Normalize.
type Spec struct {
	Operation Operation `json:"operation"`
	Channel   string    `json:"channel"`
	Theme     string    `json:"theme"`
	Week      int       `json:"week"`
	Tier      Tier      `json:"tier"`

	// Operation-specific parameters.
	NumShorts       int    `json:"num_shorts,omitempty"`       // shorts extraction
	SourceScript    string `json:"source_script,omitempty"`    // shorts extraction, narration
	Voice           string `json:"voice,omitempty"`            // narration
	ImageQuery      string `json:"image_query,omitempty"`      // images
	NumImages       int    `json:"num_images,omitempty"`       // images
	DurationMinutes int    `json:"duration_minutes,omitempty"` // script
}

// Validate rejects specs the providers could never serve.
func (s Spec) Validate() error {
	switch s.Operation {
	case OpScript, OpTitles, OpShortsExtraction, OpNarration, OpImages:
	default:
		return fmt.Errorf("unknown operation %q", s.Operation)
	}
	switch s.Tier {
	case TierFree, TierLow, TierHigh:
	default:
		return fmt.Errorf("unknown tier %q", s.Tier)
	}
	if s.Operation == OpShortsExtraction && strings.TrimSpace(s.SourceScript) == "" {
		return errors.New("shorts extraction requires a source script")
	}
	if s.Operation == OpNarration && strings.TrimSpace(s.SourceScript) == "" {
		return errors.New("narration requires a source script")
	}
	if strings.TrimSpace(s.Channel) == "" {
		return errors.New("channel is required")
	}
	return nil
}

// Normalize returns a canonical copy of the spec. Incidental formatting
// differences (surrounding whitespace, repeated spaces, channel casing) are
// erased so equivalent requests produce the same fingerprint. Out-of-range
// counts are clamped rather than rejected.
func (s Spec) Normalize() Spec {
	n := s
	n.Channel = strings.ToLower(collapseSpace(s.Channel))
	n.Theme = collapseSpace(s.Theme)
	n.SourceScript = collapseSpace(s.SourceScript)
	n.Voice = strings.ToLower(collapseSpace(s.Voice))
	n.ImageQuery = strings.ToLower(collapseSpace(s.ImageQuery))

	if n.Operation == OpShortsExtraction {
		if n.NumShorts == 0 {
			n.NumShorts = DefaultShorts
		}
		if n.NumShorts < MinShorts {
			n.NumShorts = MinShorts
		}
		if n.NumShorts > MaxShorts {
			n.NumShorts = MaxShorts
		}
	}
	return n
}

// collapseSpace trims and folds interior whitespace runs to single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
