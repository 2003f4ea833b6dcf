package parser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ContentRefresher/internal/domain"
	"ContentRefresher/internal/ports"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "Mozilla/5.0 (compatible; ContentRefresher/1.0)"
)

// Extractor fetches candidate pages and runs the title/body cascades over them.
type Extractor struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

var _ ports.ContentExtractor = (*Extractor)(nil)

// NewExtractor wires an HTTP client; a nil client gets a 30s timeout.
func NewExtractor(client *http.Client, userAgent string, log *slog.Logger) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = defaultUserAgent
	}
	return &Extractor{client: client, userAgent: userAgent, logger: log}
}

// Extract downloads url and derives a title and body from it.
// Only transport failures and non-2xx responses produce an error, always a *domain.FetchError.
func (e *Extractor) Extract(ctx context.Context, url string) (domain.ExtractedContent, error) {
	doc, err := e.fetchDocument(ctx, url)
	if err != nil {
		return domain.ExtractedContent{}, &domain.FetchError{URL: url, Err: err}
	}

	content := ExtractDocument(doc)
	e.debug("extracted page", "url", url, "title", content.Title, "content_length", len(content.Content))
	return content, nil
}

// ExtractDocument applies the stripping and both cascades to a parsed page.
func ExtractDocument(doc *goquery.Document) domain.ExtractedContent {
	Strip(doc)
	return domain.ExtractedContent{
		Title:   ExtractTitle(doc),
		Content: ExtractBody(doc),
	}
}

// ExtractHTML is ExtractDocument over raw markup. Malformed input degrades to defaults.
func ExtractHTML(r io.Reader) domain.ExtractedContent {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return domain.ExtractedContent{Title: untitled}
	}
	return ExtractDocument(doc)
}

func (e *Extractor) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &domain.UpstreamStatusError{Service: "page", StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	return doc, nil
}

func (e *Extractor) debug(msg string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
