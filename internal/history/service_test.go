package history

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/nusapos/nusapos/internal/ledger"
)

type countingRepo struct {
	mu           sync.Mutex
	listCalls    int
	transactions []ledger.Transaction
	summary      ledger.PaidSummary
}

func (r *countingRepo) List(ctx context.Context) ([]ledger.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	return r.transactions, nil
}

func (r *countingRepo) PaidSummary(ctx context.Context) (ledger.PaidSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary, nil
}

func (r *countingRepo) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listCalls
}

func testCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCache(client, 10*time.Minute)
}

func TestSummaryServedFromCache(t *testing.T) {
	repo := &countingRepo{
		transactions: []ledger.Transaction{
			{ID: 1, Items: []string{"Indomie", "Teh Botol"}, Total: 8500, Status: ledger.StatusPaid},
			{ID: 2, Items: []string{"Zinc"}, Total: 18000, Status: ledger.StatusPending},
		},
		summary: ledger.PaidSummary{Omzet: 8500, Count: 2},
	}
	svc := NewService(repo, testCache(t))
	ctx := context.Background()

	first, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 8500, first.Omzet)
	require.Equal(t, "Rp8.500", first.OmzetDisplay)
	require.Equal(t, 2, first.Count)
	require.Len(t, first.Transactions, 2)

	second, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.calls())
}

func TestSummaryRefreshesAfterBump(t *testing.T) {
	repo := &countingRepo{summary: ledger.PaidSummary{Omzet: 3500, Count: 1}}
	cache := testCache(t)
	svc := NewService(repo, cache)
	ctx := context.Background()

	_, err := svc.Summary(ctx)
	require.NoError(t, err)

	repo.mu.Lock()
	repo.summary = ledger.PaidSummary{Omzet: 12000, Count: 2}
	repo.mu.Unlock()

	// Still the stale cached value until the version bump.
	stale, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3500, stale.Omzet)

	require.NoError(t, cache.Bump(ctx))

	fresh, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 12000, fresh.Omzet)
	require.Equal(t, "Rp12.000", fresh.OmzetDisplay)
	require.Equal(t, 2, repo.calls())
}

func TestSummaryWithoutRedis(t *testing.T) {
	repo := &countingRepo{summary: ledger.PaidSummary{Omzet: 5000, Count: 1}}
	svc := NewService(repo, NewCache(nil, 0))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		summary, err := svc.Summary(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 5000, summary.Omzet)
	}
	require.Equal(t, 2, repo.calls())
}
