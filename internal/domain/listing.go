package domain

import "time"

// Listing is what the commerce platform receives for a publish call.
type Listing struct {
	Title       string
	BodyHTML    string
	ProductType string
	Vendor      string
	Price       float64
	Currency    string
	SKU         string
	ImageURL    string
	Tags        []string
}

// NewListing builds the listing for an enriched item.
func NewListing(item *WorkItem, vendor string, at time.Time) Listing {
	return Listing{
		Title:       item.Title,
		BodyHTML:    item.Description,
		ProductType: item.Category.Label(),
		Vendor:      vendor,
		Price:       item.Price,
		Currency:    item.Currency,
		SKU:         item.SKU(at),
		ImageURL:    item.ImageURL,
		Tags:        append([]string(nil), item.Tags...),
	}
}
