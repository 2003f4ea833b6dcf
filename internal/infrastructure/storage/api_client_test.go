package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ContentRefresher/internal/domain"
)

func TestAPIClientGetArticle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/articles/42" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":42,"title":"Chatbots","url":"https://example.com/c",
			"original_content":"Body","updated_content":null,"status":"scraped","citations":[]}`))
	}))
	defer server.Close()

	client := NewAPIClient(server.URL+"/api/", time.Second)
	article, err := client.GetArticle(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetArticle returned error: %v", err)
	}
	if article.ID != 42 || article.Title != "Chatbots" || article.OriginalContent != "Body" {
		t.Fatalf("unexpected article: %+v", article)
	}
	if article.SourceURL == nil || *article.SourceURL != "https://example.com/c" {
		t.Fatalf("source url not decoded: %v", article.SourceURL)
	}
	if article.UpdatedContent != nil {
		t.Fatalf("expected nil updated content")
	}
}

func TestAPIClientGetArticleNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewAPIClient(server.URL, time.Second).GetArticle(context.Background(), 999)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAPIClientListArticlesQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("status") != "scraped" || q.Get("page") != "2" || q.Get("per_page") != "100" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if q.Get("search") != "" {
			t.Errorf("empty filters must not be sent: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":1,"title":"A"},{"id":2,"title":"B"}],
			"current_page":2,"last_page":3,"per_page":100,"total":202}`))
	}))
	defer server.Close()

	page, err := NewAPIClient(server.URL, time.Second).ListArticles(context.Background(), domain.ArticleFilter{
		Status:  domain.StatusScraped,
		Page:    2,
		PerPage: 100,
	})
	if err != nil {
		t.Fatalf("ListArticles returned error: %v", err)
	}
	if len(page.Articles) != 2 || !page.HasMore() || page.Total != 202 {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestAPIClientUpdateArticleSendsPartialBody(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/articles/5" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":5,"title":"T","status":"processing"}`))
	}))
	defer server.Close()

	article, err := NewAPIClient(server.URL, time.Second).
		UpdateArticle(context.Background(), 5, domain.StatusUpdate(domain.StatusProcessing))
	if err != nil {
		t.Fatalf("UpdateArticle returned error: %v", err)
	}
	if article.Status != domain.StatusProcessing {
		t.Fatalf("unexpected status %q", article.Status)
	}
	if len(body) != 1 || body["status"] != "processing" {
		t.Fatalf("expected status-only payload, got %v", body)
	}
}

func TestAPIClientUpdateArticleFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid status"}`))
	}))
	defer server.Close()

	_, err := NewAPIClient(server.URL, time.Second).
		UpdateArticle(context.Background(), 5, domain.StatusUpdate(domain.StatusError))
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	var statusErr *domain.UpstreamStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestAPIClientCreateArticle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/articles" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var payload domain.NewArticle
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if payload.Title != "Fresh" {
			t.Errorf("unexpected payload %+v", payload)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":77,"title":"Fresh","status":"scraped"}`))
	}))
	defer server.Close()

	created, err := NewAPIClient(server.URL, time.Second).CreateArticle(context.Background(), domain.NewArticle{Title: "Fresh"})
	if err != nil {
		t.Fatalf("CreateArticle returned error: %v", err)
	}
	if created.ID != 77 || created.Status != domain.StatusScraped {
		t.Fatalf("unexpected article: %+v", created)
	}
}
