package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ContentRefresher/internal/domain"
	"ContentRefresher/internal/ports"
)

// APIClient talks to the article service over its REST API.
type APIClient struct {
	baseURL string
	http    *http.Client
}

var _ ports.ArticleStore = (*APIClient)(nil)

// NewAPIClient creates a reusable HTTP client against baseURL (e.g. http://localhost:8000/api).
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &APIClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// GetArticle fetches one article; an unknown id yields domain.ErrNotFound.
func (c *APIClient) GetArticle(ctx context.Context, id int64) (domain.Article, error) {
	var article domain.Article
	if err := c.do(ctx, http.MethodGet, articlePath(id), nil, &article); err != nil {
		return domain.Article{}, fmt.Errorf("get article %d: %w", id, err)
	}
	return article, nil
}

// ListArticles returns one page of articles matching filter.
func (c *APIClient) ListArticles(ctx context.Context, filter domain.ArticleFilter) (domain.ArticlePage, error) {
	query := url.Values{}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}
	if filter.SortBy != "" {
		query.Set("sort_by", filter.SortBy)
	}
	if filter.SortOrder != "" {
		query.Set("sort_order", filter.SortOrder)
	}
	if filter.Page > 0 {
		query.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.PerPage > 0 {
		query.Set("per_page", strconv.Itoa(filter.PerPage))
	}

	path := "/articles"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var page domain.ArticlePage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return domain.ArticlePage{}, fmt.Errorf("list articles: %w", err)
	}
	if page.CurrentPage == 0 {
		page.CurrentPage = 1
	}
	if page.LastPage == 0 {
		page.LastPage = page.CurrentPage
	}
	return page, nil
}

// UpdateArticle applies a partial update and returns the stored article.
func (c *APIClient) UpdateArticle(ctx context.Context, id int64, update domain.ArticleUpdate) (domain.Article, error) {
	var article domain.Article
	if err := c.do(ctx, http.MethodPut, articlePath(id), update, &article); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Article{}, fmt.Errorf("update article %d: %w", id, err)
		}
		return domain.Article{}, fmt.Errorf("update article %d: %w: %w", id, domain.ErrPersistence, err)
	}
	return article, nil
}

// CreateArticle stores a new article; the service assigns status "scraped" by default.
func (c *APIClient) CreateArticle(ctx context.Context, article domain.NewArticle) (domain.Article, error) {
	var created domain.Article
	if err := c.do(ctx, http.MethodPost, "/articles", article, &created); err != nil {
		return domain.Article{}, fmt.Errorf("create article: %w: %w", domain.ErrPersistence, err)
	}
	return created, nil
}

func articlePath(id int64) string {
	return "/articles/" + strconv.FormatInt(id, 10)
}

func (c *APIClient) do(ctx context.Context, method, path string, payload any, v any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &domain.UpstreamStatusError{
			Service:    "article service",
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
