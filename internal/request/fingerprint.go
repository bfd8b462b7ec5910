package request

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Fingerprint computes the deterministic cache key for a spec.
//
// The spec is normalized first, then serialized field-by-field in a fixed
// order so that the digest never depends on map iteration or marshal quirks.
// Any semantic parameter change produces a different digest.
func (s Spec) Fingerprint() string {
	n := s.Normalize()

	canonical := fmt.Sprintf(
		"op:%s|channel:%s|theme:%s|week:%d|tier:%s|num_shorts:%d|source:%s|voice:%s|image_query:%s|num_images:%d|duration:%d",
		n.Operation, n.Channel, n.Theme, n.Week, n.Tier,
		n.NumShorts, n.SourceScript, n.Voice, n.ImageQuery, n.NumImages, n.DurationMinutes,
	)

	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// Namespace returns the cache namespace entries for this spec live under.
// Each operation kind keeps its own namespace so the cache can be cleared
// per kind.
func (s Spec) Namespace() string {
	switch s.Operation {
	case OpScript:
		return "scripts"
	case OpTitles:
		return "titles"
	case OpShortsExtraction:
		return "shorts"
	case OpNarration:
		return "narration-audio"
	default:
		return "api-responses"
	}
}
