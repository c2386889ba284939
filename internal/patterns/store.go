// Package patterns persists observed user behaviour: what they ask for,
// what they reject, which planning strategy they prefer. It backs both the
// context builder's userPatterns and the scheduling pipeline's historical
// context stage. Everything here is optional: callers degrade to empty
// pattern sets when the store is absent or failing.
package patterns

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"dayflow/internal/logging"
	"dayflow/internal/scheduling"
	"dayflow/internal/usercontext"
)

// StoreConfig holds pattern store configuration.
type StoreConfig struct {
	PersistPath string // empty keeps everything in memory
	Collection  string // defaults to "patterns"
}

const (
	kindRequest   = "request"
	kindRejection = "rejection"
)

// Store records and retrieves user patterns. Lookup tables serve the fast
// per-request path; the chromem collection serves similarity search over
// past requests.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	logger     logging.Logger

	mu         sync.RWMutex
	requests   map[string]map[string]int // userID -> request text -> count
	rejections map[string][]string
	strategies map[string]scheduling.Strategy
	seq        int
}

// NewStore creates a pattern store. embedder may be nil, in which case
// similarity search is disabled and only the lookup tables operate.
func NewStore(config StoreConfig, embedder Embedder, logger logging.Logger) (*Store, error) {
	if config.Collection == "" {
		config.Collection = "patterns"
	}

	store := &Store{
		logger:     logging.OrNop(logger),
		requests:   make(map[string]map[string]int),
		rejections: make(map[string][]string),
		strategies: make(map[string]scheduling.Strategy),
	}

	if embedder == nil {
		return store, nil
	}

	var db *chromem.DB
	var err error
	if config.PersistPath != "" {
		db, err = chromem.NewPersistentDB(filepath.Join(config.PersistPath, "patterns.gob"), false)
		if err != nil {
			return nil, fmt.Errorf("create persistent DB: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	embeddingFunc := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text)
	}
	collection, err := db.GetOrCreateCollection(config.Collection, nil, embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	store.db = db
	store.collection = collection
	return store, nil
}

// RecordRequest notes one user request. Vector indexing failures are logged
// and swallowed; the lookup tables always update.
func (s *Store) RecordRequest(ctx context.Context, userID, text string) {
	if text == "" {
		return
	}
	s.mu.Lock()
	if s.requests[userID] == nil {
		s.requests[userID] = make(map[string]int)
	}
	s.requests[userID][text]++
	s.seq++
	docID := fmt.Sprintf("%s-req-%d", userID, s.seq)
	s.mu.Unlock()

	s.index(ctx, docID, text, map[string]string{"userId": userID, "kind": kindRequest})
}

// RecordRejection notes an action the user declined. The classifier consults
// these to avoid re-proposing rejected actions.
func (s *Store) RecordRejection(ctx context.Context, userID, action string) {
	if action == "" {
		return
	}
	s.mu.Lock()
	s.rejections[userID] = append(s.rejections[userID], action)
	s.seq++
	docID := fmt.Sprintf("%s-rej-%d", userID, s.seq)
	s.mu.Unlock()

	s.index(ctx, docID, action, map[string]string{"userId": userID, "kind": kindRejection})
}

// RecordStrategyPreference notes which planning strategy the user favours.
func (s *Store) RecordStrategyPreference(userID string, strategy scheduling.Strategy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strategies[userID] = strategy
}

func (s *Store) index(ctx context.Context, id, content string, metadata map[string]string) {
	if s.collection == nil {
		return
	}
	err := s.collection.AddDocuments(ctx, []chromem.Document{{
		ID:       id,
		Content:  content,
		Metadata: metadata,
	}}, 1)
	if err != nil {
		s.logger.Debug("pattern indexing failed: %v", err)
	}
}

// SimilarRequests returns past requests of this user most similar to text.
func (s *Store) SimilarRequests(ctx context.Context, userID, text string, topK int) ([]string, error) {
	if s.collection == nil || text == "" {
		return nil, nil
	}
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	results, err := s.collection.Query(ctx, text, topK,
		map[string]string{"userId": userID, "kind": kindRequest}, nil)
	if err != nil {
		return nil, fmt.Errorf("query patterns: %w", err)
	}

	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Content)
	}
	return out, nil
}

// PatternsFor implements usercontext.PatternSource.
func (s *Store) PatternsFor(_ context.Context, userID string) (*usercontext.UserPatterns, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	patterns := &usercontext.UserPatterns{
		CommonRequests:  topRequests(s.requests[userID], 5),
		RejectedActions: append([]string(nil), s.rejections[userID]...),
	}
	if patterns.CommonRequests == nil && patterns.RejectedActions == nil {
		return nil, nil
	}
	return patterns, nil
}

// HistoricalPatterns implements scheduling.PatternProvider.
func (s *Store) HistoricalPatterns(_ context.Context, userID string) (scheduling.Patterns, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return scheduling.Patterns{
		PreferredStrategy: s.strategies[userID],
		CommonRequests:    topRequests(s.requests[userID], 5),
		RejectedActions:   append([]string(nil), s.rejections[userID]...),
	}, nil
}

// topRequests returns the most frequent request texts, ties broken
// alphabetically for determinism.
func topRequests(counts map[string]int, limit int) []string {
	if len(counts) == 0 {
		return nil
	}
	type pair struct {
		text  string
		count int
	}
	pairs := make([]pair, 0, len(counts))
	for text, count := range counts {
		pairs = append(pairs, pair{text, count})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].text < pairs[j].text
	})
	if len(pairs) > limit {
		pairs = pairs[:limit]
	}
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.text)
	}
	return out
}
