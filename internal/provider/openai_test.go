package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"content-pipeline/shared/models"
)

func newOpenAITestServer(t *testing.T, status int, body string, inspect func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		if inspect != nil {
			inspect(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestOpenAI(url string) TextProvider {
	return NewOpenAI(OpenAIConfig{
		BaseURL: url + "/v1",
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
		Timeout: 5 * time.Second,
	}, zap.NewNop())
}

func TestOpenAIGenerateText(t *testing.T) {
	const okBody = `{
		"id": "chatcmpl-1",
		"model": "gpt-4o-mini-2024-07-18",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "Generated post"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 1000, "completion_tokens": 500, "total_tokens": 1500}
	}`

	var captured map[string]any
	srv := newOpenAITestServer(t, http.StatusOK, okBody, func(r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
	})

	system := "You are an editor."
	temp := 0.2
	maxTokens := 256
	res, err := newTestOpenAI(srv.URL).GenerateText(context.Background(), TextRequest{
		System:      &system,
		Prompt:      "Write about grace.",
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	require.NoError(t, err)

	assert.Equal(t, "Generated post", res.Text)
	assert.Equal(t, 1500, res.TokensUsed)
	assert.Equal(t, "gpt-4o-mini-2024-07-18", res.ModelUsed)
	assert.InDelta(t, 1000*0.1/1e6+500*0.4/1e6, res.CostEstimateUSD, 1e-12)

	assert.Equal(t, "gpt-4o-mini", captured["model"])
	assert.EqualValues(t, 256, captured["max_tokens"])
	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])
}

func TestOpenAIErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`,
			want:   models.ErrRateLimited,
		},
		{
			name:   "quota exceeded",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`,
			want:   models.ErrQuotaExceeded,
		},
		{
			name:   "server error",
			status: http.StatusServiceUnavailable,
			body:   `{"error":{"message":"overloaded","type":"server_error"}}`,
			want:   models.ErrProviderUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newOpenAITestServer(t, tt.status, tt.body, nil)
			_, err := newTestOpenAI(srv.URL).GenerateText(context.Background(), TextRequest{Prompt: "hi"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOpenAIContentFilter(t *testing.T) {
	srv := newOpenAITestServer(t, http.StatusOK, `{
		"choices": [{"index": 0, "message": {"role": "assistant", "content": ""}, "finish_reason": "content_filter"}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 0, "total_tokens": 10}
	}`, nil)

	_, err := newTestOpenAI(srv.URL).GenerateText(context.Background(), TextRequest{Prompt: "hi"})
	assert.ErrorIs(t, err, models.ErrUnsafeContent)
}

func TestOpenAIEmptyPrompt(t *testing.T) {
	p := newTestOpenAI("http://127.0.0.1:0")
	_, err := p.GenerateText(context.Background(), TextRequest{Prompt: "  "})
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestOpenAIDeadlineIsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := newTestOpenAI(srv.URL).GenerateText(ctx, TextRequest{Prompt: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrTimeout)
	assert.True(t, models.IsRetryable(err))
}
