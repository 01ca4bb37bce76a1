package prompts

import (
	"fmt"
	"strings"
)

// ============================================================================
// Description Prompts
// ============================================================================

// DescriptionSystemPrompt sets the copywriter role for product descriptions.
const DescriptionSystemPrompt = `You are a senior e-commerce copywriter for digital products.
You write short, concrete, benefit-led product descriptions.

Rules:
- 60 to 120 words, one or two paragraphs, plain text only
- No markdown, no headings, no emoji, no prices
- Make clear the product is a digital download with no physical items
- Never invent features that the title does not imply`

// DescriptionUserPrompt is filled with the product title and category label.
const DescriptionUserPrompt = `Write the product description.

Title: %s
Category: %s`

// ============================================================================
// Structured Content Prompts
// ============================================================================

// ContentSystemPrompt asks for the deliverable outline as JSON.
const ContentSystemPrompt = `You design the contents of digital products such as prompt packs,
automation kits and bundles. You answer with JSON only.

Output schema:
{
  "title": "product title",
  "sections": [
    {"heading": "section heading", "body": "what the buyer gets in this section"}
  ]
}

Rules:
- 3 to 6 sections
- Every body is one to three sentences
- No text outside the JSON object`

// ContentUserPrompt is filled with the product title and category label.
const ContentUserPrompt = `Create the content outline.

Title: %s
Category: %s`

// ============================================================================
// Image Prompts
// ============================================================================

// imageStyle is shared by every category.
const imageStyle = "dark modern tech theme, electric purple accent, clean typography, digital product packaging, ecommerce hero image"

// categoryMotifs gives each category its cover motif.
var categoryMotifs = map[string]string{
	"Prompt Pack":    "stacked prompt cards, glowing text snippets",
	"Automation Kit": "workflow diagram, connected nodes, dashboard panels",
	"Bundle":         "premium box set with two products side by side, luxury feel",
}

// BuildDescriptionPrompt returns the user prompt for a description.
func BuildDescriptionPrompt(title, categoryLabel string) string {
	return fmt.Sprintf(DescriptionUserPrompt, strings.TrimSpace(title), categoryLabel)
}

// BuildContentPrompt returns the user prompt for structured content.
func BuildContentPrompt(title, categoryLabel string) string {
	return fmt.Sprintf(ContentUserPrompt, strings.TrimSpace(title), categoryLabel)
}

// BuildImagePrompt returns a cover image prompt for the product.
func BuildImagePrompt(title, categoryLabel string) string {
	parts := []string{fmt.Sprintf("Cover art for a digital product titled %q", strings.TrimSpace(title))}
	if motif, ok := categoryMotifs[categoryLabel]; ok {
		parts = append(parts, motif)
	}
	parts = append(parts, imageStyle, "no watermark, no small text")
	return strings.Join(parts, ", ")
}
