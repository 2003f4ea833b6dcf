package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContentRefresher/internal/config"
	"ContentRefresher/internal/domain"
)

func testConfig(baseURL string) config.ChatGPTConfig {
	return config.ChatGPTConfig{
		BaseURL:      baseURL,
		APIKey:       "sk-test",
		Model:        "gpt-4o-mini",
		SystemPrompt: "system",
		Temperature:  0.4,
		MaxTokens:    1500,
	}
}

func TestChatGPTClientComplete(t *testing.T) {
	t.Parallel()

	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  Rewritten body  "}}]}`))
	}))
	defer server.Close()

	client, err := NewChatGPTClient(testConfig(server.URL + "/"))
	require.NoError(t, err)

	out, err := client.Complete(context.Background(), domain.Prompt{User: "rewrite this"})
	require.NoError(t, err)
	assert.Equal(t, "Rewritten body", out)
	assert.Equal(t, "gpt-4o-mini", client.Model())

	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.InDelta(t, 0.4, body["temperature"], 0.0001)
	assert.EqualValues(t, 1500, body["max_tokens"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
}

func TestChatGPTClientSingleAttemptOnError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
	}))
	defer server.Close()

	client, err := NewChatGPTClient(testConfig(server.URL + "/"))
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), domain.Prompt{User: "rewrite this"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.EqualValues(t, 1, calls.Load())
}

func TestChatGPTClientEmptyChoice(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[]}`))
	}))
	defer server.Close()

	client, err := NewChatGPTClient(testConfig(server.URL + "/"))
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), domain.Prompt{User: "x"})
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestNewChatGPTClientWithoutKey(t *testing.T) {
	t.Parallel()

	_, err := NewChatGPTClient(config.ChatGPTConfig{Model: "gpt-4o-mini"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
