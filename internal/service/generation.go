package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/ghostline/internal/config"
	"github.com/timmy/ghostline/internal/domain"
	"github.com/timmy/ghostline/internal/prompts"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// maxImageBytes caps a downloaded generated image.
const maxImageBytes = 20 << 20

// Generator writes descriptions and structured content for work items.
type Generator interface {
	GenerateDescription(ctx context.Context, title string, category domain.Category) (string, error)
	GenerateContent(ctx context.Context, title string, category domain.Category) (string, error)
	Close() error
}

// NewGenerator builds the configured provider. It returns nil without error
// when no API key is available so callers fall back to templates.
func NewGenerator(ctx context.Context, cfg *config.GenerationConfig) (Generator, error) {
	if cfg == nil || !cfg.Enabled() {
		return nil, nil
	}
	switch cfg.Provider {
	case ProviderGemini:
		g, err := NewGeminiGenerator(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	case ProviderOpenAI, "":
		return NewOpenAIGenerator(cfg), nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}

// OpenAIGenerator talks to any OpenAI-compatible chat and images API.
type OpenAIGenerator struct {
	client        *resty.Client
	downloader    *resty.Client
	model         string
	imageModel    string
	chatEndpoint  string
	imageEndpoint string
}

// NewOpenAIGenerator creates a generator for an OpenAI-compatible API.
func NewOpenAIGenerator(cfg *config.GenerationConfig) *OpenAIGenerator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(timeout)

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	// Image URLs point at third-party hosts and must not see the API key.
	downloader := resty.New().SetTimeout(timeout)

	return &OpenAIGenerator{
		client:        client,
		downloader:    downloader,
		model:         cfg.Model,
		imageModel:    cfg.ImageModel,
		chatEndpoint:  baseURL + "/chat/completions",
		imageEndpoint: baseURL + "/images/generations",
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float32         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format,omitempty"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

// GenerateDescription returns a plain-text product description.
func (g *OpenAIGenerator) GenerateDescription(ctx context.Context, title string, category domain.Category) (string, error) {
	text, err := g.chat(ctx, chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompts.DescriptionSystemPrompt},
			{Role: "user", Content: prompts.BuildDescriptionPrompt(title, category.Label())},
		},
		MaxTokens:   400,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("description generation failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// GenerateContent returns the structured content outline as a JSON document.
func (g *OpenAIGenerator) GenerateContent(ctx context.Context, title string, category domain.Category) (string, error) {
	text, err := g.chat(ctx, chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompts.ContentSystemPrompt},
			{Role: "user", Content: prompts.BuildContentPrompt(title, category.Label())},
		},
		MaxTokens:      1200,
		Temperature:    0.4,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("content generation failed: %w", err)
	}
	return cleanJSONBlock(text), nil
}

// GenerateImage renders a cover image and returns its bytes.
func (g *OpenAIGenerator) GenerateImage(ctx context.Context, title string, category domain.Category) ([]byte, error) {
	req := imageRequest{
		Model:  g.imageModel,
		Prompt: prompts.BuildImagePrompt(title, category.Label()),
		N:      1,
		Size:   "1024x1024",
	}
	// gpt-image models always answer with base64 and reject the field.
	if strings.HasPrefix(g.imageModel, "dall-e") {
		req.ResponseFormat = "b64_json"
	}

	var resp imageResponse
	httpResp, err := g.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post(g.imageEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to call image API: %w", err)
	}
	if httpResp.IsError() {
		return nil, fmt.Errorf("image API returned error: %s", errorMessage(httpResp, resp.Error))
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("image API returned no data (status: %d)", httpResp.StatusCode())
	}

	data := resp.Data[0]
	if data.B64JSON != "" {
		raw, err := base64.StdEncoding.DecodeString(data.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image payload: %w", err)
		}
		return raw, nil
	}
	if data.URL == "" {
		return nil, fmt.Errorf("image API returned neither data nor url")
	}

	return g.download(ctx, data.URL)
}

func (g *OpenAIGenerator) download(ctx context.Context, url string) ([]byte, error) {
	resp, err := g.downloader.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download generated image: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.IsError() {
		return nil, fmt.Errorf("failed to download generated image: HTTP %d", resp.StatusCode())
	}
	raw, err := io.ReadAll(io.LimitReader(body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read generated image: %w", err)
	}
	if len(raw) > maxImageBytes {
		return nil, fmt.Errorf("generated image exceeds %d bytes", maxImageBytes)
	}
	return raw, nil
}

// Close is a no-op; the HTTP client holds no resources worth releasing.
func (g *OpenAIGenerator) Close() error {
	return nil
}

func (g *OpenAIGenerator) chat(ctx context.Context, req chatRequest) (string, error) {
	var resp chatResponse
	httpResp, err := g.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post(g.chatEndpoint)
	if err != nil {
		return "", fmt.Errorf("failed to call chat API: %w", err)
	}
	if httpResp.IsError() {
		return "", fmt.Errorf("chat API returned error: %s", errorMessage(httpResp, resp.Error))
	}
	if resp.Error != nil {
		return "", fmt.Errorf("chat API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("no choices in chat response (status: %d)", httpResp.StatusCode())
	}
	return resp.Choices[0].Message.Content, nil
}

func errorMessage(resp *resty.Response, apiErr *apiError) string {
	if apiErr != nil && apiErr.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", resp.StatusCode(), apiErr.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", resp.StatusCode(), strings.TrimSpace(string(resp.Body())))
}

// cleanJSONBlock removes markdown code fences around a JSON answer.
func cleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
