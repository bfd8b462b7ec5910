package cache

import (
	"context"
	"encoding/json"
	"time"

	"mediagen-gateway/internal/request"
)

// Cache namespaces, one per operation kind. Namespaces let the CLI clear a
// single kind of cached output without touching the others.
const (
	NamespaceScripts      = "scripts"
	NamespaceTitles       = "titles"
	NamespaceShorts       = "shorts"
	NamespaceNarration    = "narration-audio"
	NamespaceAPIResponses = "api-responses"
)

// Namespaces lists every known namespace.
func Namespaces() []string {
	return []string{
		NamespaceScripts,
		NamespaceTitles,
		NamespaceShorts,
		NamespaceNarration,
		NamespaceAPIResponses,
	}
}

// Entry is one cached generation result. Entries are immutable once
// written; a re-request with the same fingerprint is served verbatim.
type Entry struct {
	Fingerprint string            `json:"fingerprint"`
	Operation   request.Operation `json:"operation"`
	Payload     json.RawMessage   `json:"payload"`
	CreatedAt   time.Time         `json:"created_at"`
	Provider    string            `json:"provider"`
}

// Store is the fingerprint cache. Implemented by the disk store (default),
// the memory store (dev/tests) and the Redis store (multi-instance).
//
// Get must be safe for concurrent use and never performs network I/O beyond
// its own backend. A stored entry that cannot be decoded is reported as a
// miss, not an error; a damaged entry self-heals via regeneration.
//
// Put is first-write-wins unless force is set. The force path is reserved
// for an explicit user-requested cache bypass, never for concurrent races.
type Store interface {
	Get(ctx context.Context, namespace, fingerprint string) (Entry, bool, error)
	Put(ctx context.Context, namespace string, entry Entry, force bool) error
	// Clear removes entries in the given namespace, or in every namespace
	// when namespace is empty. Returns the number of entries removed.
	Clear(ctx context.Context, namespace string) (int, error)
}
