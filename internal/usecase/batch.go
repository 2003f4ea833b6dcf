package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ContentRefresher/internal/domain"
	"ContentRefresher/internal/logging"
	"ContentRefresher/internal/ports"
)

const defaultPageSize = 100

// Refresher refreshes a single article.
type Refresher interface {
	RefreshArticle(ctx context.Context, id int64) domain.RefreshResult
}

// BatchOptions tune the batch runner.
type BatchOptions struct {
	// Delay is waited between consecutive articles, not after the last one.
	Delay time.Duration
	// PageSize is the per_page used while collecting ids from the store.
	PageSize int
}

// BatchRunner refreshes many articles one after another.
type BatchRunner struct {
	refresher Refresher
	store     ports.ArticleStore
	delay     time.Duration
	pageSize  int
	logger    *slog.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewBatchRunner builds a runner over refresher; store is only needed by RefreshAll and RefreshByStatus.
func NewBatchRunner(refresher Refresher, store ports.ArticleStore, opts BatchOptions, log *slog.Logger) *BatchRunner {
	if log == nil {
		log = logging.Discard()
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &BatchRunner{
		refresher: refresher,
		store:     store,
		delay:     opts.Delay,
		pageSize:  pageSize,
		logger:    log.With("component", "batch"),
		sleep:     sleepContext,
	}
}

// RefreshMany refreshes ids sequentially and returns one result per id in input order.
// A failing article never stops the batch; a cancelled ctx marks the remaining ids failed.
func (b *BatchRunner) RefreshMany(ctx context.Context, ids []int64) []domain.RefreshResult {
	results := make([]domain.RefreshResult, 0, len(ids))
	if len(ids) == 0 {
		return results
	}

	b.logger.Info("batch refresh started", "articles", len(ids))
	for i, id := range ids {
		if i > 0 && b.delay > 0 {
			if err := b.sleep(ctx, b.delay); err != nil {
				for _, rest := range ids[i:] {
					results = append(results, domain.RefreshResult{ArticleID: rest, Error: err.Error()})
				}
				b.logger.Warn("batch refresh interrupted", "remaining", len(ids)-i, "error", err)
				break
			}
		}
		results = append(results, b.refresher.RefreshArticle(ctx, id))
	}

	b.logger.Info("batch refresh completed",
		"succeeded", domain.CountSucceeded(results),
		"total", len(results))
	return results
}

// RefreshAll refreshes every stored article.
func (b *BatchRunner) RefreshAll(ctx context.Context) ([]domain.RefreshResult, error) {
	ids, err := b.collectIDs(ctx, domain.ArticleFilter{})
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		b.logger.Info("no articles found to refresh")
		return []domain.RefreshResult{}, nil
	}
	return b.RefreshMany(ctx, ids), nil
}

// RefreshByStatus refreshes every article currently in status.
func (b *BatchRunner) RefreshByStatus(ctx context.Context, status domain.Status) ([]domain.RefreshResult, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown status %q", status)
	}
	ids, err := b.collectIDs(ctx, domain.ArticleFilter{Status: status})
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		b.logger.Info("no articles found with status", "status", status)
		return []domain.RefreshResult{}, nil
	}
	return b.RefreshMany(ctx, ids), nil
}

func (b *BatchRunner) collectIDs(ctx context.Context, filter domain.ArticleFilter) ([]int64, error) {
	if b.store == nil {
		return nil, fmt.Errorf("article store missing: %w", domain.ErrConfiguration)
	}

	var ids []int64
	filter.PerPage = b.pageSize
	for page := 1; ; page++ {
		filter.Page = page
		listing, err := b.store.ListArticles(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("list articles page %d: %w", page, err)
		}
		for _, article := range listing.Articles {
			ids = append(ids, article.ID)
		}
		if len(listing.Articles) == 0 || !listing.HasMore() {
			return ids, nil
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
