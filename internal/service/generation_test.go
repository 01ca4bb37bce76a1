package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/ghostline/internal/config"
	"github.com/timmy/ghostline/internal/domain"
)

func newTestGenerator(t *testing.T, handler http.HandlerFunc) *OpenAIGenerator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIGenerator(&config.GenerationConfig{
		Provider:   ProviderOpenAI,
		Model:      "gpt-4o-mini",
		ImageModel: "dall-e-3",
		APIKey:     "sk-test",
		BaseURL:    srv.URL + "/",
	})
}

func TestOpenAIGenerator_GenerateDescription(t *testing.T) {
	var got chatRequest
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  A kit for solo founders.  "}}]}`))
	})

	text, err := gen.GenerateDescription(context.Background(), "Solo Automation Kit", domain.CategoryAutomationKit)
	require.NoError(t, err)
	assert.Equal(t, "A kit for solo founders.", text)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[1].Content, "Category: Automation Kit")
	assert.Nil(t, got.ResponseFormat)
}

func TestOpenAIGenerator_GenerateContentStripsFences(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		body, _ := json.Marshal(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{
				"content": "```json\n{\"title\":\"Kit\",\"sections\":[]}\n```",
			}}},
		})
		_, _ = w.Write(body)
	})

	text, err := gen.GenerateContent(context.Background(), "Kit", domain.CategoryBundle)
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Kit","sections":[]}`, text)
}

func TestOpenAIGenerator_ErrorStatus(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"auth"}}`))
	})

	_, err := gen.GenerateDescription(context.Background(), "Kit", domain.CategoryBundle)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401: invalid api key")
}

func TestOpenAIGenerator_EmptyChoices(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := gen.GenerateDescription(context.Background(), "Kit", domain.CategoryBundle)
	require.Error(t, err)
}

func TestOpenAIGenerator_GenerateImage(t *testing.T) {
	payload := []byte("\x89PNG fake")
	var got imageRequest
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		body, _ := json.Marshal(map[string]any{
			"data": []any{map[string]any{"b64_json": base64.StdEncoding.EncodeToString(payload)}},
		})
		_, _ = w.Write(body)
	})

	img, err := gen.GenerateImage(context.Background(), "Creator Growth Bundle", domain.CategoryBundle)
	require.NoError(t, err)
	assert.Equal(t, payload, img)
	assert.Equal(t, "b64_json", got.ResponseFormat)
	assert.Contains(t, got.Prompt, "Creator Growth Bundle")
}

func TestOpenAIGenerator_GenerateImageDownloadsWithoutCredentials(t *testing.T) {
	payload := []byte("\x89PNG hosted")
	cdnAuth := make(chan string, 1)
	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cdnAuth <- r.Header.Get("Authorization")
		_, _ = w.Write(payload)
	}))
	t.Cleanup(cdn.Close)

	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		body, _ := json.Marshal(map[string]any{
			"data": []any{map[string]any{"url": cdn.URL + "/img/1.png"}},
		})
		_, _ = w.Write(body)
	})

	img, err := gen.GenerateImage(context.Background(), "Creator Growth Bundle", domain.CategoryBundle)
	require.NoError(t, err)
	assert.Equal(t, payload, img)
	assert.Empty(t, <-cdnAuth)
}

func TestOpenAIGenerator_GenerateImageRejectsOversizedDownload(t *testing.T) {
	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, maxImageBytes+1))
	}))
	t.Cleanup(cdn.Close)

	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		body, _ := json.Marshal(map[string]any{"data": []any{map[string]any{"url": cdn.URL}}})
		_, _ = w.Write(body)
	})

	_, err := gen.GenerateImage(context.Background(), "Kit", domain.CategoryBundle)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestNewGenerator(t *testing.T) {
	gen, err := NewGenerator(context.Background(), &config.GenerationConfig{Provider: ProviderOpenAI})
	require.NoError(t, err)
	assert.Nil(t, gen)

	gen, err = NewGenerator(context.Background(), &config.GenerationConfig{Provider: ProviderOpenAI, APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIGenerator{}, gen)

	_, err = NewGenerator(context.Background(), &config.GenerationConfig{Provider: "other", APIKey: "k"})
	require.Error(t, err)
}

func TestCleanJSONBlock(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanJSONBlock("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSONBlock("  {\"a\":1} "))
}
