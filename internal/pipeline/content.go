package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/timmy/ghostline/internal/domain"
	"github.com/xeipuuv/gojsonschema"
)

// contentSchema is the shape of the structured digital content delivered
// with a product.
const contentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["title", "sections"],
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "sections": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["heading", "body"],
        "properties": {
          "heading": {"type": "string", "minLength": 1},
          "body": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

// Content is the structured digital content document.
type Content struct {
	Title    string           `json:"title"`
	Sections []ContentSection `json:"sections"`
}

type ContentSection struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// ContentValidator checks structured content against contentSchema.
type ContentValidator struct {
	schema *gojsonschema.Schema
}

func NewContentValidator() (*ContentValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(contentSchema))
	if err != nil {
		return nil, fmt.Errorf("compile content schema: %w", err)
	}
	return &ContentValidator{schema: schema}, nil
}

// Validate returns an error listing every schema violation in raw.
func (v *ContentValidator) Validate(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("content is empty")
	}
	result, err := v.schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("content is not valid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		msgs = append(msgs, re.String())
	}
	return fmt.Errorf("content schema: %s", strings.Join(msgs, "; "))
}

// templateDescription is the fallback description.
func templateDescription(item *domain.WorkItem) string {
	return fmt.Sprintf("A high-quality %s. %s.", item.Category, strings.TrimSpace(item.Title))
}

// templateContent is the fallback structured content.
func templateContent(item *domain.WorkItem) string {
	doc := Content{
		Title: strings.TrimSpace(item.Title),
		Sections: []ContentSection{
			{Heading: "Overview", Body: templateDescription(item)},
		},
	}
	raw, _ := json.Marshal(doc)
	return string(raw)
}
