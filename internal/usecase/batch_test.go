package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContentRefresher/internal/domain"
)

type countingRefresher struct {
	mu   sync.Mutex
	ids  []int64
	fail map[int64]bool
}

func (r *countingRefresher) RefreshArticle(_ context.Context, id int64) domain.RefreshResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
	if r.fail[id] {
		return domain.RefreshResult{ArticleID: id, Error: "boom"}
	}
	return domain.RefreshResult{ArticleID: id, Success: true}
}

func (r *countingRefresher) calls() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.ids...)
}

func newTestBatch(refresher Refresher, store *fakeStore, delay time.Duration) (*BatchRunner, *[]time.Duration) {
	var slept []time.Duration
	b := NewBatchRunner(refresher, store, BatchOptions{Delay: delay, PageSize: 100}, nil)
	b.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return b, &slept
}

func TestRefreshManyKeepsOrderWhenOneFails(t *testing.T) {
	store := newFakeStore(
		domain.Article{ID: 1, Title: "First article", OriginalContent: "a"},
		domain.Article{ID: 3, Title: "Third article", OriginalContent: "c"},
	)
	p := NewPipeline(PipelineDeps{Store: store, Finder: &fakeFinder{}, Extractor: &fakeExtractor{}})
	b, slept := newTestBatch(p, store, 2*time.Second)

	results := b.RefreshMany(context.Background(), []int64{1, 2, 3})

	require.Len(t, results, 3)
	assert.Equal(t, int64(1), results[0].ArticleID)
	assert.Equal(t, int64(2), results[1].ArticleID)
	assert.Equal(t, int64(3), results[2].ArticleID)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.True(t, results[2].Success)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, *slept)
}

func TestRefreshManyEmpty(t *testing.T) {
	refresher := &countingRefresher{}
	b, slept := newTestBatch(refresher, nil, time.Second)

	results := b.RefreshMany(context.Background(), nil)

	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Empty(t, refresher.calls())
	assert.Empty(t, *slept)
}

func TestRefreshManyStopsOnCancelledContext(t *testing.T) {
	refresher := &countingRefresher{}
	b := NewBatchRunner(refresher, nil, BatchOptions{Delay: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	b.sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}

	results := b.RefreshMany(ctx, []int64{1, 2, 3})

	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Equal(t, int64(3), results[2].ArticleID)
	assert.Equal(t, []int64{1}, refresher.calls())
}

func TestRefreshByStatusWithNoMatches(t *testing.T) {
	refresher := &countingRefresher{}
	store := newFakeStore(domain.Article{ID: 1, Title: "Done", Status: domain.StatusUpdated})
	b, _ := newTestBatch(refresher, store, time.Second)

	results, err := b.RefreshByStatus(context.Background(), domain.StatusScraped)

	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Empty(t, refresher.calls())
}

func TestRefreshByStatusFiltersAndPages(t *testing.T) {
	var articles []domain.Article
	for id := int64(1); id <= 250; id++ {
		status := domain.StatusScraped
		if id%50 == 0 {
			status = domain.StatusUpdated
		}
		articles = append(articles, domain.Article{ID: id, Title: "t", Status: status})
	}
	store := newFakeStore(articles...)
	refresher := &countingRefresher{fail: map[int64]bool{7: true}}
	b, _ := newTestBatch(refresher, store, 0)

	results, err := b.RefreshByStatus(context.Background(), domain.StatusScraped)

	require.NoError(t, err)
	assert.Len(t, results, 245)
	assert.Equal(t, 244, domain.CountSucceeded(results))
	calls := refresher.calls()
	assert.Equal(t, int64(1), calls[0])
	assert.Equal(t, int64(249), calls[len(calls)-1])

	require.Len(t, store.listCalls, 3)
	for i, call := range store.listCalls {
		assert.Equal(t, i+1, call.Page)
		assert.Equal(t, 100, call.PerPage)
		assert.Equal(t, domain.StatusScraped, call.Status)
	}
}

func TestRefreshAllCollectsEveryArticle(t *testing.T) {
	store := newFakeStore(
		domain.Article{ID: 1, Status: domain.StatusScraped},
		domain.Article{ID: 2, Status: domain.StatusError},
		domain.Article{ID: 3, Status: domain.StatusUpdated},
	)
	refresher := &countingRefresher{}
	b, _ := newTestBatch(refresher, store, 0)

	results, err := b.RefreshAll(context.Background())

	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, []int64{1, 2, 3}, refresher.calls())
	assert.Equal(t, domain.Status(""), store.listCalls[0].Status)
}

func TestRefreshAllListFailure(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("article service down")
	refresher := &countingRefresher{}
	b, _ := newTestBatch(refresher, store, 0)

	_, err := b.RefreshAll(context.Background())

	require.Error(t, err)
	assert.Empty(t, refresher.calls())
}

func TestRefreshByStatusRejectsUnknownStatus(t *testing.T) {
	b, _ := newTestBatch(&countingRefresher{}, newFakeStore(), 0)

	_, err := b.RefreshByStatus(context.Background(), domain.Status("archived"))

	assert.Error(t, err)
}
