package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DiskStore persists entries as JSON files grouped by namespace:
// <root>/<namespace>/<fingerprint>.json. This is the default backend; the
// cache survives restarts so repeated runs never repeat provider spend.
type DiskStore struct {
	root string
}

// NewDiskStore creates the cache root if needed.
func NewDiskStore(root string) (*DiskStore, error) {
	if root == "" {
		return nil, fmt.Errorf("cache dir is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &DiskStore{root: root}, nil
}

func (s *DiskStore) path(namespace, fingerprint string) string {
	return filepath.Join(s.root, namespace, fingerprint+".json")
}

// envelope wraps an Entry on disk so extra bookkeeping fields can be added
// without changing the Entry shape.
type envelope struct {
	Entry    Entry     `json:"entry"`
	StoredAt time.Time `json:"stored_at"`
}

func (s *DiskStore) Get(ctx context.Context, namespace, fingerprint string) (Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, false, err
	}

	raw, err := os.ReadFile(s.path(namespace, fingerprint))
	if os.IsNotExist(err) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("read cache entry: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// Damaged entry: treat as a miss so the next execute regenerates it.
		return Entry{}, false, nil
	}
	if env.Entry.Fingerprint == "" || len(env.Entry.Payload) == 0 {
		return Entry{}, false, nil
	}
	return env.Entry, true, nil
}

func (s *DiskStore) Put(ctx context.Context, namespace string, entry Entry, force bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.path(namespace, entry.Fingerprint)
	if !force {
		if _, err := os.Stat(path); err == nil {
			// Entry already satisfies every future Get.
			return nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create namespace dir: %w", err)
	}

	raw, err := json.Marshal(envelope{Entry: entry, StoredAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	// Write-then-rename so a crash mid-write never leaves a truncated entry
	// under the final name.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".entry-*")
	if err != nil {
		return fmt.Errorf("create temp entry: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close cache entry: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("finalize cache entry: %w", err)
	}
	return nil
}

func (s *DiskStore) Clear(ctx context.Context, namespace string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	namespaces := []string{namespace}
	if namespace == "" {
		namespaces = Namespaces()
	}

	count := 0
	for _, ns := range namespaces {
		matches, err := filepath.Glob(filepath.Join(s.root, ns, "*.json"))
		if err != nil {
			return count, fmt.Errorf("scan namespace %s: %w", ns, err)
		}
		for _, path := range matches {
			if err := os.Remove(path); err != nil {
				return count, fmt.Errorf("remove %s: %w", path, err)
			}
			count++
		}
	}
	return count, nil
}
