package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"github.com/timmy/ghostline/internal/domain"
	"github.com/timmy/ghostline/internal/logger"
	_ "golang.org/x/image/webp"
)

// EnricherConfig configures the fallbacks.
type EnricherConfig struct {
	PlaceholderImageURL string
	ImagePrefix         string
}

// Enricher fills description, content and image. None of its steps can fail
// an item: each one falls back to a deterministic value and logs a warning.
// Nil collaborators go straight to the fallback.
type Enricher struct {
	text    TextGenerator
	images  ImageGenerator
	store   ImageStore
	content *ContentValidator
	cfg     EnricherConfig
}

func NewEnricher(text TextGenerator, images ImageGenerator, store ImageStore, content *ContentValidator, cfg EnricherConfig) *Enricher {
	return &Enricher{text: text, images: images, store: store, content: content, cfg: cfg}
}

// Enrich mutates item in place and records provenance.
func (e *Enricher) Enrich(ctx context.Context, item *domain.WorkItem) {
	ctx = logger.SetStage(ctx, "Enrichment")
	e.describe(ctx, item)
	e.structure(ctx, item)
	e.illustrate(ctx, item)
}

func (e *Enricher) describe(ctx context.Context, item *domain.WorkItem) {
	if strings.TrimSpace(item.Description) != "" {
		item.DescriptionSource = domain.DescriptionProvided
		return
	}
	if e.text != nil {
		desc, err := e.text.GenerateDescription(ctx, item.Title, item.Category)
		if err == nil && strings.TrimSpace(desc) != "" {
			item.Description = strings.TrimSpace(desc)
			item.DescriptionSource = domain.DescriptionAI
			return
		}
		logger.FromContext(ctx).WithError(err).Warn("Description generation failed, using template")
	}
	item.Description = templateDescription(item)
	item.DescriptionSource = domain.DescriptionTemplate
}

func (e *Enricher) structure(ctx context.Context, item *domain.WorkItem) {
	if item.DigitalContent != "" {
		err := e.validContent(item.DigitalContent)
		if err == nil {
			item.HasContent = true
			return
		}
		logger.FromContext(ctx).WithError(err).Warn("Provided content is invalid, regenerating")
	}
	if e.text != nil {
		raw, err := e.text.GenerateContent(ctx, item.Title, item.Category)
		if err == nil {
			err = e.validContent(raw)
		}
		if err == nil {
			item.DigitalContent = raw
			item.HasContent = true
			return
		}
		logger.FromContext(ctx).WithError(err).Warn("Content generation failed, using template")
	}
	item.DigitalContent = templateContent(item)
	item.HasContent = false
}

func (e *Enricher) validContent(raw string) error {
	if e.content == nil {
		return nil
	}
	return e.content.Validate(raw)
}

func (e *Enricher) illustrate(ctx context.Context, item *domain.WorkItem) {
	if strings.TrimSpace(item.ImageURL) != "" {
		item.ImageSource = domain.ImageProvided
		return
	}
	if e.images != nil && e.store != nil {
		url, err := e.generateImage(ctx, item)
		if err == nil {
			item.ImageURL = url
			item.ImageSource = domain.ImageAI
			return
		}
		logger.FromContext(ctx).WithError(err).Warn("Image generation failed, using placeholder")
	}
	item.ImageURL = e.cfg.PlaceholderImageURL
	item.ImageSource = domain.ImagePlaceholder
}

func (e *Enricher) generateImage(ctx context.Context, item *domain.WorkItem) (string, error) {
	data, err := e.images.GenerateImage(ctx, item.Title, item.Category)
	if err != nil {
		return "", err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode generated image: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return "", fmt.Errorf("generated image has no pixels")
	}

	ext := format
	if ext == "jpeg" {
		ext = "jpg"
	}
	key := path.Join(e.cfg.ImagePrefix, item.ID+"."+ext)
	if err := e.store.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), "image/"+format); err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return e.store.GetURL(key), nil
}
