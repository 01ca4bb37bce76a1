package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/timmy/ghostline/internal/config"
	"github.com/timmy/ghostline/internal/domain"
	"github.com/timmy/ghostline/internal/prompts"
	"google.golang.org/api/option"
)

// GeminiGenerator writes text through Google Gemini. It has no image support,
// so items enriched with it fall back to the placeholder image.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, cfg *config.GenerationConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" || strings.HasPrefix(model, "gpt-") {
		model = "gemini-1.5-flash"
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) GenerateDescription(ctx context.Context, title string, category domain.Category) (string, error) {
	model := g.newModel(prompts.DescriptionSystemPrompt, 0.7)

	resp, err := model.GenerateContent(ctx, genai.Text(prompts.BuildDescriptionPrompt(title, category.Label())))
	if err != nil {
		return "", fmt.Errorf("description generation failed: %w", err)
	}
	text, err := extractText(resp)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (g *GeminiGenerator) GenerateContent(ctx context.Context, title string, category domain.Category) (string, error) {
	model := g.newModel(prompts.ContentSystemPrompt, 0.4)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompts.BuildContentPrompt(title, category.Label())))
	if err != nil {
		return "", fmt.Errorf("content generation failed: %w", err)
	}
	text, err := extractText(resp)
	if err != nil {
		return "", err
	}
	return cleanJSONBlock(text), nil
}

func (g *GeminiGenerator) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *GeminiGenerator) newModel(system string, temperature float32) *genai.GenerativeModel {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(temperature)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	return model
}

// extractText joins the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", errors.New("no text parts in response")
	}
	return strings.Join(parts, ""), nil
}
