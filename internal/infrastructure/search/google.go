package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"ContentRefresher/internal/config"
	"ContentRefresher/internal/domain"
	"ContentRefresher/internal/ports"
)

const defaultTimeout = 15 * time.Second

// GoogleFinder implements ports.RelatedContentFinder with Google Custom Search.
type GoogleFinder struct {
	service  *customsearch.Service
	engineID string
	timeout  time.Duration
	logger   *slog.Logger
}

var _ ports.RelatedContentFinder = (*GoogleFinder)(nil)

// NewGoogleFinder builds the finder. Missing credentials are not an error here:
// the finder is returned unconfigured and every Search reports domain.ErrConfiguration.
func NewGoogleFinder(ctx context.Context, cfg config.SearchConfig, log *slog.Logger, opts ...option.ClientOption) (*GoogleFinder, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	f := &GoogleFinder{engineID: cfg.EngineID, timeout: timeout, logger: log}
	if !cfg.Configured() {
		return f, nil
	}

	clientOpts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.Endpoint))
	}
	clientOpts = append(clientOpts, opts...)

	svc, err := customsearch.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create custom search service: %w", err)
	}
	f.service = svc
	return f, nil
}

// Search returns up to maxResults candidates for query, clamped to the provider maximum.
func (f *GoogleFinder) Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error) {
	if f == nil || f.service == nil || f.engineID == "" {
		return nil, fmt.Errorf("google custom search credentials not configured: %w", domain.ErrConfiguration)
	}

	num := ClampResults(maxResults)
	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, err := f.service.Cse.List().
		Cx(f.engineID).
		Q(query).
		Num(int64(num)).
		Context(callCtx).
		Do()
	if err != nil {
		return nil, translateError(err)
	}

	results := make([]domain.SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil || !strings.HasPrefix(item.Link, "http") {
			continue
		}
		results = append(results, domain.SearchResult{
			Title:      item.Title,
			URL:        item.Link,
			Snippet:    item.Snippet,
			DisplayURL: item.DisplayLink,
		})
		if len(results) == num {
			break
		}
	}

	f.debug("search done", "query", query, "requested", num, "results", len(results))
	return results, nil
}

// GenerateSearchQuery derives the keyword query used for title.
func (f *GoogleFinder) GenerateSearchQuery(title string) string {
	return GenerateSearchQuery(title)
}

// ClampResults bounds n to [1, config.MaxSearchResults].
func ClampResults(n int) int {
	if n < 1 {
		return 1
	}
	if n > config.MaxSearchResults {
		return config.MaxSearchResults
	}
	return n
}

func translateError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &domain.UpstreamStatusError{
			Service:    "google custom search",
			StatusCode: apiErr.Code,
			Body:       apiErr.Message,
		}
	}
	return fmt.Errorf("google custom search: %w: %w", domain.ErrUpstream, err)
}

func (f *GoogleFinder) debug(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
