package ontology

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jobdex/adsearch/internal/domain"
)

// Store holds the process-wide vocabulary/matcher pair behind an atomic
// pointer. Scans read the current matcher without locking; Refresh builds a
// new matcher off to the side and swaps it in, so in-flight scans finish
// against the old one and no reader ever observes a half-built trie.
type Store struct {
	matcher atomic.Pointer[Matcher]
	vocab   atomic.Pointer[Vocabulary]

	src    termScanner
	index  string
	opts   LoadOptions
	logger *zap.Logger
}

// NewStore creates a store with an empty matcher. Call Refresh to load the
// vocabulary.
func NewStore(src termScanner, index string, opts LoadOptions, logger *zap.Logger) *Store {
	s := &Store{src: src, index: index, opts: opts, logger: logger}
	empty := NewVocabulary(nil)
	s.vocab.Store(empty)
	s.matcher.Store(NewMatcher(empty))
	return s
}

// Matcher returns the current matcher. Safe for concurrent use.
func (s *Store) Matcher() *Matcher { return s.matcher.Load() }

// Vocabulary returns the current vocabulary. Safe for concurrent use.
func (s *Store) Vocabulary() *Vocabulary { return s.vocab.Load() }

// Refresh loads the vocabulary and atomically swaps in a freshly built
// matcher. An empty load is non-fatal: the empty matcher is installed and
// the condition logged.
func (s *Store) Refresh(ctx context.Context) error {
	v, err := Load(ctx, s.src, s.index, s.opts, s.logger)
	if err != nil {
		if !errors.Is(err, domain.ErrSourceEmpty) {
			return fmt.Errorf("refresh vocabulary: %w", err)
		}
		s.logger.Warn("vocabulary refresh matched no terms")
	}
	m := NewMatcher(v)
	s.vocab.Store(v)
	s.matcher.Store(m)
	s.logger.Info("matcher swapped", zap.Int("terms", m.Len()))
	return nil
}

// StartRefresher refreshes the vocabulary on the given interval until ctx is
// cancelled. A failed refresh keeps the previous matcher and logs the error.
func (s *Store) StartRefresher(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Refresh(ctx); err != nil {
					s.logger.Error("periodic vocabulary refresh failed", zap.Error(err))
				}
			}
		}
	}()
}
