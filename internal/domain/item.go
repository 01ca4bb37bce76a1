package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Category is the closed set of catalog product types.
type Category string

const (
	CategoryPromptPack    Category = "prompt_pack"
	CategoryAutomationKit Category = "automation_kit"
	CategoryBundle        Category = "bundle"
)

// Categories returns every known category.
func Categories() []Category {
	return []Category{CategoryPromptPack, CategoryAutomationKit, CategoryBundle}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryPromptPack, CategoryAutomationKit, CategoryBundle:
		return true
	}
	return false
}

// Label is the storefront product type, e.g. "Prompt Pack".
func (c Category) Label() string {
	parts := strings.Split(string(c), "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

// ImageSource records where a published item's image came from.
type ImageSource string

const (
	ImageProvided    ImageSource = "provided"
	ImageAI          ImageSource = "ai"
	ImagePlaceholder ImageSource = "placeholder"
)

// DescriptionSource records where a published item's description came from.
type DescriptionSource string

const (
	DescriptionProvided DescriptionSource = "provided"
	DescriptionAI       DescriptionSource = "ai"
	DescriptionTemplate DescriptionSource = "template"
)

// ErrorDetail is stored on failed items.
type ErrorDetail struct {
	Step     string    `json:"step"`
	Message  string    `json:"message"`
	FailedAt time.Time `json:"failedAt"`
}

// ItemMetrics are producer estimates carried for reporting.
type ItemMetrics struct {
	EstimatedCost       float64 `json:"estimatedCost"`
	EstimatedProfitLow  float64 `json:"estimatedProfitLow"`
	EstimatedProfitHigh float64 `json:"estimatedProfitHigh"`
	PopularityDays      int     `json:"popularityDays"`
}

// WorkItem is a catalog record moving through ItemLifecycle.
type WorkItem struct {
	ID             string       `gorm:"type:text;primaryKey" json:"id"`
	Source         string       `gorm:"type:text;index:idx_work_items_source_created" json:"source"`
	Title          string       `gorm:"type:text" json:"title"`
	Category       Category     `gorm:"type:text;index:idx_work_items_category" json:"category"`
	Niche          string       `gorm:"type:text" json:"niche,omitempty"`
	Price          float64      `json:"price"`
	Currency       string       `gorm:"type:text;default:USD" json:"currency"`
	Description    string       `gorm:"type:text" json:"description,omitempty"`
	DigitalContent string       `gorm:"type:text" json:"digitalContent,omitempty"`
	ImageURL       string       `gorm:"type:text" json:"imageUrl,omitempty"`
	ImagePrompt    string       `gorm:"type:text" json:"imagePrompt,omitempty"`
	Tags           StringArray  `gorm:"type:text" json:"tags,omitempty"`
	Confidence     float64      `json:"confidence"`
	Metrics        *ItemMetrics `gorm:"type:text;serializer:json" json:"metrics,omitempty"`
	Status         ItemStatus   `gorm:"type:text;index:idx_work_items_status;default:pending" json:"status"`

	ExternalID        string            `gorm:"type:text" json:"externalId,omitempty"`
	ImageSource       ImageSource       `gorm:"type:text" json:"imageSource,omitempty"`
	DescriptionSource DescriptionSource `gorm:"type:text" json:"descriptionSource,omitempty"`
	HasContent        bool              `json:"hasContent"`
	ErrorDetail       *ErrorDetail      `gorm:"type:text;serializer:json" json:"error,omitempty"`

	CreatedAt           time.Time  `gorm:"index:idx_work_items_source_created" json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
	ProcessingStartedAt *time.Time `json:"processingStartedAt,omitempty"`
	PublishedAt         *time.Time `json:"publishedAt,omitempty"`
	FailedAt            *time.Time `json:"failedAt,omitempty"`
}

// TableName returns the database table name for WorkItem.
func (WorkItem) TableName() string {
	return "work_items"
}

// MarkFailed moves a processing item to failed with the failing step.
func (w *WorkItem) MarkFailed(step, message string, at time.Time) error {
	if err := ItemLifecycle.Transition(w.Status, StatusFailed); err != nil {
		return err
	}
	at = at.UTC()
	w.Status = StatusFailed
	w.ErrorDetail = &ErrorDetail{Step: step, Message: message, FailedAt: at}
	w.FailedAt = &at
	return nil
}

// MarkPublished moves a processing item to published. The external id is
// kept if one was already recorded.
func (w *WorkItem) MarkPublished(externalID string, at time.Time) error {
	if err := ItemLifecycle.Transition(w.Status, StatusPublished); err != nil {
		return err
	}
	at = at.UTC()
	w.Status = StatusPublished
	if w.ExternalID == "" {
		w.ExternalID = externalID
	}
	w.PublishedAt = &at
	w.ErrorDetail = nil
	w.FailedAt = nil
	return nil
}

// ResetToQA applies the operator reset edge back to qa_passed, clearing the
// failure and lease. ExternalID is never cleared.
func (w *WorkItem) ResetToQA() error {
	if err := ItemLifecycle.Reset(w.Status, StatusQAPassed); err != nil {
		return err
	}
	w.Status = StatusQAPassed
	w.ErrorDetail = nil
	w.FailedAt = nil
	w.ProcessingStartedAt = nil
	return nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// SKU builds the storefront variant sku: <slug>_<category>_<unix>.
func (w *WorkItem) SKU(at time.Time) string {
	return fmt.Sprintf("%s_%s_%d", Slugify(w.Title), w.Category, at.Unix())
}
