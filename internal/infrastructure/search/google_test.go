package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"ContentRefresher/internal/config"
	"ContentRefresher/internal/domain"
)

func newTestFinder(t *testing.T, handler http.HandlerFunc) *GoogleFinder {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	finder, err := NewGoogleFinder(context.Background(), config.SearchConfig{
		APIKey:   "key",
		EngineID: "engine",
		Endpoint: server.URL + "/",
	}, nil, option.WithHTTPClient(server.Client()))
	require.NoError(t, err)
	return finder
}

func TestGoogleFinderSearch(t *testing.T) {
	t.Parallel()

	var gotQuery, gotCx, gotNum string
	finder := newTestFinder(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotCx = r.URL.Query().Get("cx")
		gotNum = r.URL.Query().Get("num")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"title":"First","link":"https://x.com/a","snippet":"s1","displayLink":"x.com"},
			{"title":"Not http","link":"ftp://x.com/file"},
			{"title":"Second","link":"https://x.com/b"}
		]}`))
	})

	results, err := finder.Search(context.Background(), "helps support", 25)
	require.NoError(t, err)

	assert.Equal(t, "helps support", gotQuery)
	assert.Equal(t, "engine", gotCx)
	assert.Equal(t, "10", gotNum)
	assert.Equal(t, []domain.SearchResult{
		{Title: "First", URL: "https://x.com/a", Snippet: "s1", DisplayURL: "x.com"},
		{Title: "Second", URL: "https://x.com/b"},
	}, results)
}

func TestGoogleFinderEmptyResponse(t *testing.T) {
	t.Parallel()

	finder := newTestFinder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})

	results, err := finder.Search(context.Background(), "query", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestGoogleFinderUpstreamError(t *testing.T) {
	t.Parallel()

	finder := newTestFinder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quota exceeded"}}`))
	})

	_, err := finder.Search(context.Background(), "query", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)

	var statusErr *domain.UpstreamStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
}

func TestGoogleFinderMissingCredentials(t *testing.T) {
	t.Parallel()

	finder, err := NewGoogleFinder(context.Background(), config.SearchConfig{APIKey: "only-key"}, nil)
	require.NoError(t, err)

	_, err = finder.Search(context.Background(), "query", 5)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
