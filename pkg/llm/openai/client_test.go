package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragent/fragent-go/pkg/llm"
	"github.com/fragent/fragent-go/pkg/llm/openai"
)

func TestClient_GenerateWithMessages(t *testing.T) {
	var gotReferer, gotAuth string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		gotReferer = r.Header.Get("HTTP-Referer")
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"hi there"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	client, err := openai.NewClient(&openai.Config{
		APIKey:  "sk-test",
		Model:   "anthropic/claude-3-opus",
		BaseURL: srv.URL,
		Headers: map[string]string{"HTTP-Referer": "https://fragent.local"},
	})
	require.NoError(t, err)

	out, err := client.GenerateWithMessages(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "You are helpful"},
		{Role: llm.RoleUser, Content: "hello"},
	}, llm.WithTemperature(0.2), llm.WithMaxTokens(50))
	require.NoError(t, err)

	assert.Equal(t, "hi there", out)
	assert.Equal(t, "https://fragent.local", gotReferer)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "anthropic/claude-3-opus", gotBody["model"])
	assert.Len(t, gotBody["messages"], 2)
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client, err := openai.NewClient(&openai.Config{APIKey: "sk-bad", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "hello")
	require.Error(t, err)

	var statusErr *llm.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.True(t, statusErr.Unauthorized())
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := openai.NewClient(&openai.Config{})
	assert.Error(t, err)
}
