package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildDescriptionPrompt(t *testing.T) {
	got := BuildDescriptionPrompt("  Solo Automation Kit ", "Automation Kit")
	assert.Contains(t, got, "Title: Solo Automation Kit\n")
	assert.Contains(t, got, "Category: Automation Kit")
}

func TestBuildImagePrompt(t *testing.T) {
	got := BuildImagePrompt("Creator Growth Bundle", "Bundle")
	assert.Contains(t, got, `"Creator Growth Bundle"`)
	assert.Contains(t, got, "premium box set")
	assert.Contains(t, got, "no watermark")

	unknown := BuildImagePrompt("Thing", "Other")
	assert.NotContains(t, unknown, "premium box set")
	assert.Contains(t, unknown, imageStyle)
}
