package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/providers"
	"github.com/zatekoja/transcript-triage/backend/pkg/config"
)

func newTestClient(url string) *Client {
	return NewClient(&config.OllamaConfig{BaseURL: url, RateLimitRPM: -1})
}

func TestGenerate_PostsNonStreamingRequest(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"response": "{\"summary\":\"ok\"}", "done": true})
	}))
	defer server.Close()

	text, err := newTestClient(server.URL+"/").Generate(context.Background(), "qwen2.5:1.5b", "hello")

	require.NoError(t, err)
	assert.Equal(t, "{\"summary\":\"ok\"}", text)
	assert.Equal(t, "qwen2.5:1.5b", got.Model)
	assert.Equal(t, "hello", got.Prompt)
	assert.False(t, got.Stream)
}

func TestGenerate_FailuresAreBackendUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-2xx status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model not found", http.StatusNotFound)
			},
		},
		{
			name: "empty response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"response":""}`))
			},
		},
		{
			name: "invalid body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := newTestClient(server.URL).Generate(context.Background(), "llama3.2:1b", "ping")
			assert.ErrorIs(t, err, providers.ErrBackendUnavailable)
		})
	}
}

func TestGenerate_TimeoutIsBackendUnavailable(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(server.URL).Generate(ctx, "llama3.2:1b", "ping")
	assert.ErrorIs(t, err, providers.ErrBackendUnavailable)
}

func TestGenerate_UnreachableServer(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := newTestClient(url).Generate(context.Background(), "llama3.2:1b", "ping")
	assert.ErrorIs(t, err, providers.ErrBackendUnavailable)
}

func TestNewClient_DefaultsBaseURL(t *testing.T) {
	assert.Equal(t, config.DefaultOllamaBaseURL, NewClient(&config.OllamaConfig{}).BaseURL())
	assert.Equal(t, config.DefaultOllamaBaseURL, NewClient(nil).BaseURL())
}

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, newLimiter(-1, 4))
	limiter := newLimiter(120, 0)
	require.NotNil(t, limiter)
	assert.Equal(t, 1, limiter.Burst())
}
