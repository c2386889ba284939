package patterns

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dayflow/internal/scheduling"
)

func TestStoreLookupTablesWithoutEmbedder(t *testing.T) {
	store, err := NewStore(StoreConfig{}, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	store.RecordRequest(ctx, "u1", "plan my day")
	store.RecordRequest(ctx, "u1", "plan my day")
	store.RecordRequest(ctx, "u1", "show my schedule")
	store.RecordRejection(ctx, "u1", "move lunch")

	patterns, err := store.PatternsFor(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, patterns)
	assert.Equal(t, []string{"plan my day", "show my schedule"}, patterns.CommonRequests)
	assert.Equal(t, []string{"move lunch"}, patterns.RejectedActions)
}

func TestStoreUnknownUserReturnsNil(t *testing.T) {
	store, err := NewStore(StoreConfig{}, nil, nil)
	require.NoError(t, err)

	patterns, err := store.PatternsFor(context.Background(), "stranger")
	require.NoError(t, err)
	assert.Nil(t, patterns)
}

func TestStoreHistoricalPatterns(t *testing.T) {
	store, err := NewStore(StoreConfig{}, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	store.RecordRequest(ctx, "u1", "optimize my schedule")
	store.RecordStrategyPreference("u1", scheduling.StrategyOptimize)

	hist, err := store.HistoricalPatterns(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, scheduling.StrategyOptimize, hist.PreferredStrategy)
	assert.Equal(t, []string{"optimize my schedule"}, hist.CommonRequests)
}

func TestStoreEmptyInputsIgnored(t *testing.T) {
	store, err := NewStore(StoreConfig{}, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	store.RecordRequest(ctx, "u1", "")
	store.RecordRejection(ctx, "u1", "")

	patterns, err := store.PatternsFor(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, patterns)
}

func TestTopRequestsOrderAndLimit(t *testing.T) {
	counts := map[string]int{
		"alpha": 2,
		"beta":  2,
		"gamma": 5,
		"delta": 1,
	}

	top := topRequests(counts, 3)

	// Frequency first, alphabetical tie-break.
	assert.Equal(t, []string{"gamma", "alpha", "beta"}, top)
}

// stubEmbedder returns deterministic unit vectors so similarity search is
// exercisable without a network.
type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := []float32{0, 0, 0}
	for i, c := range []byte(text) {
		v[i%3] += float32(c)
	}
	var norm float32
	for _, x := range v {
		norm += x * x
	}
	norm = float32(math.Sqrt(float64(norm)))
	for i := range v {
		v[i] /= norm
	}
	return v, nil
}

func TestStoreSimilarRequests(t *testing.T) {
	store, err := NewStore(StoreConfig{}, stubEmbedder{}, nil)
	require.NoError(t, err)

	ctx := context.Background()
	store.RecordRequest(ctx, "u1", "plan my day")
	store.RecordRequest(ctx, "u1", "triage my email")
	store.RecordRequest(ctx, "u2", "someone else entirely")

	similar, err := store.SimilarRequests(ctx, "u1", "plan my day", 2)
	require.NoError(t, err)
	require.NotEmpty(t, similar)
	assert.Contains(t, similar, "plan my day")
	// Another user's requests never leak into the results.
	assert.NotContains(t, similar, "someone else entirely")
}

func TestStoreSimilarRequestsEmptyStore(t *testing.T) {
	store, err := NewStore(StoreConfig{}, stubEmbedder{}, nil)
	require.NoError(t, err)

	similar, err := store.SimilarRequests(context.Background(), "u1", "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, similar)
}

func TestStoreSimilarRequestsDisabledWithoutEmbedder(t *testing.T) {
	store, err := NewStore(StoreConfig{}, nil, nil)
	require.NoError(t, err)

	store.RecordRequest(context.Background(), "u1", "plan my day")

	similar, err := store.SimilarRequests(context.Background(), "u1", "plan my day", 3)
	require.NoError(t, err)
	assert.Nil(t, similar)
}
