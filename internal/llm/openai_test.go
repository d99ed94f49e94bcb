package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/scribe/internal/common"
)

func isRateLimit(err error) bool {
	return errors.Is(err, common.ErrRateLimit)
}

func TestNewOpenAIClient(t *testing.T) {
	_, err := newOpenAIClient(Config{})
	require.Error(t, err)

	client, err := newOpenAIClient(Config{APIKey: "k"})
	require.NoError(t, err)
	oc, ok := client.(*openAIClient)
	require.True(t, ok)
	assert.Equal(t, "gpt-4o", oc.model)
	assert.Equal(t, openAIBaseURL, oc.baseURL)
	assert.Equal(t, 4096, oc.maxTokens)
}

func TestOpenAIClient_Complete(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, &captured))

		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"{\"diagnoses\":[]}"}}]}`))
	}))
	defer server.Close()

	client, err := newOpenAIClient(Config{APIKey: "test-key", BaseURL: server.URL, Model: "gpt-4o-mini"})
	require.NoError(t, err)

	reply, err := client.Complete(context.Background(), "system text", "user text")
	require.NoError(t, err)
	assert.Equal(t, `{"diagnoses":[]}`, reply)

	assert.Equal(t, "gpt-4o-mini", captured["model"])
	format, ok := captured["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])
	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 2)
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client, err := newOpenAIClient(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "s", "p")
	assert.ErrorContains(t, err, "no completion choices")
}

func TestOpenAIClient_MalformedBodyIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer server.Close()

	client, err := newOpenAIClient(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "s", "p")
	require.Error(t, err)
	assert.False(t, common.IsRetryable(err))
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		provider string
		wantErr  bool
	}{
		{provider: "anthropic"},
		{provider: "OpenAI"},
		{provider: ""},
		{provider: "claudecode", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			client, err := NewClient(Config{Provider: tt.provider, APIKey: "k"})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}
