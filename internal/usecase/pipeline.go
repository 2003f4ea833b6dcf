package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"ContentRefresher/internal/config"
	"ContentRefresher/internal/domain"
	"ContentRefresher/internal/logging"
	"ContentRefresher/internal/ports"
)

// PipelineDeps wires all driven adapters into the refresh pipeline.
type PipelineDeps struct {
	Store       ports.ArticleStore
	Finder      ports.RelatedContentFinder
	Extractor   ports.ContentExtractor
	Synthesizer *Synthesizer
	Locker      ports.Locker
	Metrics     ports.RefreshMetrics
	Logger      *slog.Logger

	// MaxSearchResults bounds the competitor candidates per article.
	MaxSearchResults int
	// ScrapeDelay paces consecutive candidate fetches. Zero disables pacing.
	ScrapeDelay time.Duration
}

// Pipeline implements the single-article refresh workflow.
type Pipeline struct {
	store       ports.ArticleStore
	finder      ports.RelatedContentFinder
	extractor   ports.ContentExtractor
	synthesizer *Synthesizer
	locker      ports.Locker
	metrics     ports.RefreshMetrics
	logger      *slog.Logger
	maxResults  int
	limiter     *rate.Limiter
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	maxResults := deps.MaxSearchResults
	if maxResults <= 0 {
		maxResults = 5
	}
	if maxResults > config.MaxSearchResults {
		maxResults = config.MaxSearchResults
	}

	limit := rate.Inf
	if deps.ScrapeDelay > 0 {
		limit = rate.Every(deps.ScrapeDelay)
	}

	synthesizer := deps.Synthesizer
	if synthesizer == nil {
		synthesizer = NewSynthesizer(nil, deps.Metrics, logger)
	}

	return &Pipeline{
		store:       deps.Store,
		finder:      deps.Finder,
		extractor:   deps.Extractor,
		synthesizer: synthesizer,
		locker:      deps.Locker,
		metrics:     deps.Metrics,
		logger:      logger.With("component", "pipeline"),
		maxResults:  maxResults,
		limiter:     rate.NewLimiter(limit, 1),
	}
}

// RefreshArticle runs the whole refresh for one article and never panics or returns an error:
// failures are reported in the result and mirrored as status "error" in the store.
func (p *Pipeline) RefreshArticle(ctx context.Context, id int64) domain.RefreshResult {
	started := time.Now()
	result := domain.RefreshResult{ArticleID: id}

	if p.locker != nil {
		release, err := p.locker.Acquire(ctx, id)
		if err != nil {
			p.logger.Warn("refresh skipped", "article_id", id, "error", err)
			result.Error = err.Error()
			p.observe(false, started)
			return result
		}
		defer release()
	}

	p.logger.Info("refresh started", "article_id", id)

	if err := p.refresh(ctx, id, &result); err != nil {
		p.logger.Error("refresh failed", "article_id", id, "error", err)
		p.markError(ctx, id)
		result.Success = false
		result.Error = err.Error()
		p.observe(false, started)
		return result
	}

	result.Success = true
	p.logger.Info("refresh completed",
		"article_id", id,
		"search_results", result.SearchResultsCount,
		"scraped", result.ScrapedCount,
		"elapsed", time.Since(started))
	p.observe(true, started)
	return result
}

func (p *Pipeline) refresh(ctx context.Context, id int64, result *domain.RefreshResult) error {
	if p.store == nil || p.finder == nil || p.extractor == nil {
		return fmt.Errorf("pipeline collaborators missing: %w", domain.ErrConfiguration)
	}

	if _, err := p.store.UpdateArticle(ctx, id, domain.StatusUpdate(domain.StatusProcessing)); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	article, err := p.store.GetArticle(ctx, id)
	if err != nil {
		return fmt.Errorf("load article: %w", err)
	}
	if strings.TrimSpace(article.Title) == "" {
		return fmt.Errorf("article %d has no title: %w", id, domain.ErrNotFound)
	}
	result.Title = article.Title

	query := p.finder.GenerateSearchQuery(article.Title)
	p.logger.Debug("searching related content", "article_id", id, "query", query)

	candidates, err := p.finder.Search(ctx, query, p.maxResults)
	if err != nil {
		return fmt.Errorf("search related content: %w", err)
	}
	result.SearchResultsCount = len(candidates)

	refs, err := p.scrape(ctx, candidates)
	if err != nil {
		return err
	}
	succeeded := domain.SucceededReferences(refs)
	result.ScrapedCount = len(succeeded)

	synthesis := p.synthesizer.Synthesize(ctx, article.OriginalContent, succeeded)
	p.logger.Debug("content synthesized",
		"article_id", id,
		"fallback", synthesis.Fallback,
		"model", synthesis.Model,
		"citations", len(synthesis.Citations))

	status := domain.StatusUpdated
	_, err = p.store.UpdateArticle(ctx, id, domain.ArticleUpdate{
		Status:         &status,
		UpdatedContent: &synthesis.Content,
		Citations:      synthesis.Citations,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrPersistence) {
			err = fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		}
		return fmt.Errorf("save updated content: %w", err)
	}
	return nil
}

// scrape extracts every candidate in order. Individual failures are kept as
// unsucceeded references; only context cancellation aborts the loop.
func (p *Pipeline) scrape(ctx context.Context, candidates []domain.SearchResult) ([]domain.ScrapedReference, error) {
	refs := make([]domain.ScrapedReference, 0, len(candidates))
	for _, candidate := range candidates {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("scrape candidates: %w", err)
		}

		ref := domain.ScrapedReference{URL: candidate.URL, Title: candidate.Title}
		content, err := p.extractor.Extract(ctx, candidate.URL)
		if err != nil {
			p.logger.Warn("candidate extraction failed", "url", candidate.URL, "error", err)
			ref.Err = err
		} else {
			ref.Succeeded = true
			ref.Content = content.Content
			if content.Title != "" {
				ref.Title = content.Title
			}
		}

		if p.metrics != nil {
			p.metrics.ObserveCandidate(ref.Succeeded)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// markError records the failure even when ctx is already cancelled.
func (p *Pipeline) markError(ctx context.Context, id int64) {
	if p.store == nil {
		return
	}
	if _, err := p.store.UpdateArticle(context.WithoutCancel(ctx), id, domain.StatusUpdate(domain.StatusError)); err != nil {
		p.logger.Error("failed to record error status", "article_id", id, "error", err)
	}
}

func (p *Pipeline) observe(success bool, started time.Time) {
	if p.metrics != nil {
		p.metrics.ObserveRefresh(success, time.Since(started))
	}
}
