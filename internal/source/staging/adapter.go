package staging

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/timmy/ghostline/internal/domain"
	"github.com/timmy/ghostline/internal/logger"
	"github.com/timmy/ghostline/internal/source"
)

// ManifestFileName is the JSONL manifest file name in staging sources.
const ManifestFileName = "manifest.jsonl"

// ManifestItem is one line of manifest.jsonl.
type ManifestItem struct {
	ID             string              `json:"id"`
	Title          string              `json:"title"`
	Category       string              `json:"category"`
	Niche          string              `json:"niche"`
	Price          float64             `json:"price"`
	Currency       string              `json:"currency"`
	Description    string              `json:"description"`
	DigitalContent string              `json:"digitalContent"`
	ImagePrompt    string              `json:"imagePrompt"`
	ImageURL       string              `json:"imageUrl"`
	Tags           []string            `json:"tags"`
	Confidence     *float64            `json:"confidence"`
	Metrics        *domain.ItemMetrics `json:"metrics"`
}

// Adapter reads hand-curated drafts from a staging directory.
type Adapter struct {
	basePath string
	sourceID string
	drafts   []source.Draft
	loaded   bool
}

// NewAdapter creates a new staging adapter.
// Parameters:
//   - basePath: base path to the staging directory.
//   - sourceID: subdirectory holding manifest.jsonl.
//
// Returns:
//   - *Adapter: initialized staging adapter.
func NewAdapter(basePath, sourceID string) *Adapter {
	return &Adapter{
		basePath: basePath,
		sourceID: sourceID,
	}
}

// GetSourceID returns the source identifier with a "staging:" prefix.
func (a *Adapter) GetSourceID() string {
	return "staging:" + a.sourceID
}

func (a *Adapter) GetDisplayName() string {
	return fmt.Sprintf("Staging (%s)", a.sourceID)
}

// FetchBatch returns the next page of drafts. The cursor is a line index.
func (a *Adapter) FetchBatch(ctx context.Context, cursor string, limit int) ([]source.Draft, string, error) {
	if !a.loaded {
		if err := a.load(ctx); err != nil {
			return nil, "", fmt.Errorf("failed to load staging drafts: %w", err)
		}
		a.loaded = true
	}

	start := 0
	if cursor != "" {
		var err error
		start, err = strconv.Atoi(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", err)
		}
	}
	if start >= len(a.drafts) {
		return []source.Draft{}, "", nil
	}

	end := start + limit
	if end > len(a.drafts) {
		end = len(a.drafts)
	}

	next := ""
	if end < len(a.drafts) {
		next = strconv.Itoa(end)
	}
	return a.drafts[start:end], next, nil
}

// load reads the manifest in file order. Malformed lines and lines with an
// unknown category are skipped with a warning.
func (a *Adapter) load(ctx context.Context) error {
	manifestPath := filepath.Join(a.basePath, a.sourceID, ManifestFileName)

	file, err := os.Open(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("manifest file not found: %s", manifestPath)
		}
		return fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	log := logger.FromContext(ctx).WithField(logger.FieldSource, a.GetSourceID())
	a.drafts = []source.Draft{}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var item ManifestItem
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			log.WithError(err).Warnf("Skipping malformed manifest line %d", lineNo)
			continue
		}
		category := domain.Category(item.Category)
		if !category.Valid() {
			log.Warnf("Skipping manifest line %d: unknown category %q", lineNo, item.Category)
			continue
		}

		ref := item.ID
		if ref == "" {
			ref = strconv.Itoa(lineNo)
		}
		confidence := 1.0
		if item.Confidence != nil {
			confidence = *item.Confidence
		}
		currency := item.Currency
		if currency == "" {
			currency = "USD"
		}

		a.drafts = append(a.drafts, source.Draft{
			Ref:            fmt.Sprintf("%s_%s", a.sourceID, ref),
			Title:          item.Title,
			Category:       category,
			Niche:          item.Niche,
			Price:          item.Price,
			Currency:       currency,
			Description:    item.Description,
			DigitalContent: item.DigitalContent,
			ImagePrompt:    item.ImagePrompt,
			ImageURL:       item.ImageURL,
			Tags:           item.Tags,
			Confidence:     confidence,
			Metrics:        item.Metrics,
		})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading manifest: %w", err)
	}
	return nil
}

// ListStagingSources lists subdirectories of basePath that hold a manifest.
func ListStagingSources(basePath string) ([]string, error) {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var sources []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(basePath, entry.Name(), ManifestFileName)); err == nil {
			sources = append(sources, entry.Name())
		}
	}
	return sources, nil
}
