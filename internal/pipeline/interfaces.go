package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/timmy/ghostline/internal/domain"
)

// ItemStore is the slice of the state store the executor writes through.
type ItemStore interface {
	GetByID(ctx context.Context, id string) (*domain.WorkItem, error)
	Claim(ctx context.Context, id string, from, to domain.ItemStatus, at time.Time) error
	SaveTransition(ctx context.Context, item *domain.WorkItem, expected domain.ItemStatus) error
}

// TextGenerator writes descriptions and structured content.
type TextGenerator interface {
	GenerateDescription(ctx context.Context, title string, category domain.Category) (string, error)
	GenerateContent(ctx context.Context, title string, category domain.Category) (string, error)
}

// ImageGenerator renders a product image.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, title string, category domain.Category) ([]byte, error)
}

// ImageStore keeps generated images and serves them by URL.
type ImageStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	GetURL(key string) string
}

// Publisher creates the listing on the commerce platform and returns its id.
type Publisher interface {
	CreateProduct(ctx context.Context, listing domain.Listing) (string, error)
}

// Notifier delivers operator notifications.
type Notifier interface {
	Notify(ctx context.Context, subject, html string) error
}

// Processor handles one queued item.
type Processor interface {
	Process(ctx context.Context, id string) (Outcome, error)
}
