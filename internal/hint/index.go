// Package hint provides the prefix-searchable autocomplete index with
// debounced rebuilds.
package hint

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/clipseek/clipseek/internal/storage"
	"github.com/clipseek/clipseek/internal/text"
)

const defaultQuietPeriod = 5 * time.Second

// Index is a prefix index over the keyword vocabulary of all indexed videos.
// Rebuilds are coalesced: Notify schedules one rebuild after a quiet window,
// and further notifications while one is pending are dropped, so a batch
// indexing run produces a single rebuild. Lookups before the first build
// return an empty result.
type Index struct {
	store       storage.Storage
	quietPeriod time.Duration
	logger      *zap.Logger

	mu       sync.RWMutex
	keywords []string // sorted
	built    bool

	// trigger has capacity 1: extra notifications while a rebuild is
	// pending are dropped, making the rebuild single-flight.
	trigger chan struct{}
}

// Option configures an Index.
type Option func(*Index)

// WithQuietPeriod overrides the debounce window.
func WithQuietPeriod(d time.Duration) Option {
	return func(idx *Index) { idx.quietPeriod = d }
}

// WithLogger sets a logger for rebuild events.
func WithLogger(l *zap.Logger) Option {
	return func(idx *Index) { idx.logger = l }
}

// NewIndex creates a hint index over store.
func NewIndex(store storage.Storage, opts ...Option) *Index {
	idx := &Index{
		store:       store,
		quietPeriod: defaultQuietPeriod,
		trigger:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Start runs the rebuild loop until ctx is cancelled.
func (idx *Index) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-idx.trigger:
				select {
				case <-ctx.Done():
					return
				case <-time.After(idx.quietPeriod):
				}
				if err := idx.Rebuild(ctx); err != nil && idx.logger != nil {
					idx.logger.Warn("hint rebuild failed", zap.Error(err))
				}
			}
		}
	}()
}

// Notify schedules a rebuild after the quiet window. Safe to call from any
// worker; bursts coalesce into one rebuild.
func (idx *Index) Notify() {
	select {
	case idx.trigger <- struct{}{}:
	default:
	}
}

// WarmUp builds the index synchronously, typically at startup.
func (idx *Index) WarmUp(ctx context.Context) error {
	return idx.Rebuild(ctx)
}

// Rebuild collects the keyword vocabulary of all indexed videos and swaps in
// a freshly sorted snapshot.
func (idx *Index) Rebuild(ctx context.Context) error {
	start := time.Now()
	recs, err := idx.store.ListIndexed(ctx)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{})
	var keywords []string
	for _, rec := range recs {
		for _, kw := range rec.Keywords {
			if _, ok := seen[kw]; !ok {
				seen[kw] = struct{}{}
				keywords = append(keywords, kw)
			}
		}
		for _, kw := range rec.SttKeywords {
			if _, ok := seen[kw]; !ok {
				seen[kw] = struct{}{}
				keywords = append(keywords, kw)
			}
		}
	}
	sort.Strings(keywords)

	idx.mu.Lock()
	idx.keywords = keywords
	idx.built = true
	idx.mu.Unlock()

	if idx.logger != nil {
		idx.logger.Info("hint index rebuilt",
			zap.Int("keywords", len(keywords)),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	return nil
}

// Lookup returns all keywords sharing a prefix with the last word of query.
// The raw word split is used here: a half-typed word may look like a stop
// word ("со" for "собака") and must still complete. Returns nil before the
// first rebuild or for queries with no words.
func (idx *Index) Lookup(query string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if !idx.built || query == "" {
		return nil
	}
	tokens := text.Words(query)
	if len(tokens) == 0 {
		return nil
	}
	prefix := tokens[len(tokens)-1]

	// keywords are sorted, so all matches are contiguous from the first
	// keyword >= prefix.
	start := sort.SearchStrings(idx.keywords, prefix)
	var out []string
	for i := start; i < len(idx.keywords); i++ {
		if !strings.HasPrefix(idx.keywords[i], prefix) {
			break
		}
		out = append(out, idx.keywords[i])
	}
	return out
}
