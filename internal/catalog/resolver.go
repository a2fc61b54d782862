package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrCodeNotFound indicates the article code is absent from the catalog even
// after a fresh reload.
var ErrCodeNotFound = errors.New("article code not found")

// Mapping pairs an external article code with the internal ledger identifier.
type Mapping struct {
	Code      string
	ArticleID string
}

// Source provides the full code map from the external catalog store.
type Source interface {
	FetchArticleCodeMap(ctx context.Context) ([]Mapping, error)
}

// Resolver caches the code to identifier mapping for the process lifetime.
// The map is an all-or-nothing snapshot: a miss triggers a wholesale reload
// and the code is looked up once more against the fresh snapshot. Entries are
// never invalidated individually; staleness until the next miss is accepted.
type Resolver struct {
	source Source

	mu       sync.RWMutex
	snapshot map[string]string

	reloads singleflight.Group
}

// NewResolver builds a Resolver over the given catalog source.
func NewResolver(source Source) *Resolver {
	return &Resolver{source: source}
}

// Resolve returns the internal identifier for an article code. A miss refills
// the whole map from the source before giving up with ErrCodeNotFound.
func (r *Resolver) Resolve(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", ErrCodeNotFound
	}
	if id, ok := r.lookup(code); ok {
		return id, nil
	}
	if err := r.Reload(ctx); err != nil {
		return "", err
	}
	if id, ok := r.lookup(code); ok {
		return id, nil
	}
	return "", fmt.Errorf("%w: %s", ErrCodeNotFound, code)
}

// Reload replaces the snapshot with the source's current code map.
// Concurrent callers share a single fetch.
func (r *Resolver) Reload(ctx context.Context) error {
	_, err, _ := r.reloads.Do("reload", func() (interface{}, error) {
		mappings, err := r.source.FetchArticleCodeMap(ctx)
		if err != nil {
			return nil, fmt.Errorf("catalog: fetch code map: %w", err)
		}
		next := make(map[string]string, len(mappings))
		for _, m := range mappings {
			if m.Code == "" {
				continue
			}
			next[m.Code] = m.ArticleID
		}
		r.mu.Lock()
		r.snapshot = next
		r.mu.Unlock()
		return nil, nil
	})
	return err
}

// Len reports the number of cached mappings.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.snapshot)
}

func (r *Resolver) lookup(code string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.snapshot[code]
	return id, ok
}
