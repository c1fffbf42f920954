package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragent/fragent-go/pkg/llm"
	"github.com/fragent/fragent-go/pkg/llm/ollama"
)

func TestClient_GenerateWithMessages(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"local answer"},"done":true}`))
	}))
	defer srv.Close()

	client, err := ollama.NewClient(&ollama.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := client.GenerateWithMessages(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}, llm.WithMaxTokens(64))
	require.NoError(t, err)
	assert.Equal(t, "local answer", out)
	assert.Equal(t, "llama3", body["model"])
	assert.Equal(t, false, body["stream"])

	options, ok := body["options"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(64), options["num_predict"])
}

func TestClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := ollama.NewClient(&ollama.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
