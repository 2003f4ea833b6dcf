package usecase

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"ContentRefresher/internal/domain"
)

type fakeStore struct {
	mu        sync.Mutex
	articles  map[int64]domain.Article
	updates   map[int64][]domain.ArticleUpdate
	failWrite func(update domain.ArticleUpdate) error
	listErr   error
	listCalls []domain.ArticleFilter
}

func newFakeStore(articles ...domain.Article) *fakeStore {
	s := &fakeStore{articles: map[int64]domain.Article{}, updates: map[int64][]domain.ArticleUpdate{}}
	for _, a := range articles {
		s.articles[a.ID] = a
	}
	return s
}

func (s *fakeStore) GetArticle(_ context.Context, id int64) (domain.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[id]
	if !ok {
		return domain.Article{}, fmt.Errorf("article %d: %w", id, domain.ErrNotFound)
	}
	return a, nil
}

func (s *fakeStore) ListArticles(_ context.Context, filter domain.ArticleFilter) (domain.ArticlePage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls = append(s.listCalls, filter)
	if s.listErr != nil {
		return domain.ArticlePage{}, s.listErr
	}

	var matching []domain.Article
	for _, id := range slices.Sorted(maps.Keys(s.articles)) {
		a := s.articles[id]
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		matching = append(matching, a)
	}

	perPage := filter.PerPage
	start := (filter.Page - 1) * perPage
	end := min(start+perPage, len(matching))
	if start > len(matching) {
		start = len(matching)
	}
	last := (len(matching) + perPage - 1) / perPage
	if last == 0 {
		last = 1
	}
	return domain.ArticlePage{
		Articles:    matching[start:end],
		CurrentPage: filter.Page,
		LastPage:    last,
		PerPage:     perPage,
		Total:       len(matching),
	}, nil
}

func (s *fakeStore) UpdateArticle(_ context.Context, id int64, update domain.ArticleUpdate) (domain.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite != nil {
		if err := s.failWrite(update); err != nil {
			return domain.Article{}, err
		}
	}
	s.updates[id] = append(s.updates[id], update)
	a := s.articles[id]
	if update.Status != nil {
		a.Status = *update.Status
	}
	if update.UpdatedContent != nil {
		a.UpdatedContent = update.UpdatedContent
	}
	if update.Citations != nil {
		a.Citations = update.Citations
	}
	if _, ok := s.articles[id]; ok {
		s.articles[id] = a
	}
	return a, nil
}

func (s *fakeStore) CreateArticle(_ context.Context, _ domain.NewArticle) (domain.Article, error) {
	return domain.Article{}, errors.New("not supported")
}

func (s *fakeStore) statuses(id int64) []domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Status
	for _, u := range s.updates[id] {
		if u.Status != nil {
			out = append(out, *u.Status)
		}
	}
	return out
}

func (s *fakeStore) lastUpdate(id int64) domain.ArticleUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	updates := s.updates[id]
	return updates[len(updates)-1]
}

type fakeFinder struct {
	results  []domain.SearchResult
	err      error
	gotQuery string
	gotMax   int
}

func (f *fakeFinder) GenerateSearchQuery(title string) string {
	return "query:" + title
}

func (f *fakeFinder) Search(_ context.Context, query string, maxResults int) ([]domain.SearchResult, error) {
	f.gotQuery = query
	f.gotMax = maxResults
	return f.results, f.err
}

type fakeExtractor struct {
	pages map[string]domain.ExtractedContent
	calls []string
}

func (f *fakeExtractor) Extract(_ context.Context, url string) (domain.ExtractedContent, error) {
	f.calls = append(f.calls, url)
	page, ok := f.pages[url]
	if !ok {
		return domain.ExtractedContent{}, &domain.FetchError{URL: url, Err: errors.New("connection refused")}
	}
	return page, nil
}

type fakeChat struct {
	reply  string
	err    error
	calls  int
	prompt domain.Prompt
}

func (f *fakeChat) Complete(_ context.Context, prompt domain.Prompt) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.reply, f.err
}

func (f *fakeChat) Model() string { return "test-model" }

type fakeMetrics struct {
	mu         sync.Mutex
	refreshes  map[bool]int
	candidates map[bool]int
	syntheses  map[bool]int
	jobs       []domain.JobState
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{refreshes: map[bool]int{}, candidates: map[bool]int{}, syntheses: map[bool]int{}}
}

func (m *fakeMetrics) ObserveRefresh(success bool, _ time.Duration) {
	m.mu.Lock()
	m.refreshes[success]++
	m.mu.Unlock()
}

func (m *fakeMetrics) ObserveCandidate(ok bool) {
	m.mu.Lock()
	m.candidates[ok]++
	m.mu.Unlock()
}

func (m *fakeMetrics) ObserveSynthesis(fallback bool) {
	m.mu.Lock()
	m.syntheses[fallback]++
	m.mu.Unlock()
}

func (m *fakeMetrics) ObserveJob(_ domain.JobKind, state domain.JobState) {
	m.mu.Lock()
	m.jobs = append(m.jobs, state)
	m.mu.Unlock()
}
