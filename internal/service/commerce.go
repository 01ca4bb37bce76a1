package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/ghostline/internal/config"
	"github.com/timmy/ghostline/internal/domain"
)

// ShopifyClient publishes listings through the Shopify Admin REST API.
type ShopifyClient struct {
	client   *resty.Client
	endpoint string
	status   string
}

// NewShopifyClient creates a commerce client. Rate-limited (429) and 5xx
// responses are retried with backoff, honouring Retry-After when present.
func NewShopifyClient(cfg *config.CommerceConfig) (*ShopifyClient, error) {
	if cfg.StoreURL == "" || cfg.AccessToken == "" {
		return nil, errors.New("commerce store url and access token are required")
	}

	storeURL := strings.TrimSuffix(cfg.StoreURL, "/")
	if !strings.HasPrefix(storeURL, "http://") && !strings.HasPrefix(storeURL, "https://") {
		storeURL = "https://" + storeURL
	}

	client := resty.New()
	client.SetAuthToken(cfg.AccessToken)
	client.SetHeader("X-Shopify-Access-Token", cfg.AccessToken)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(cfg.Timeout)
	client.SetRetryCount(cfg.RetryCount)
	client.SetRetryWaitTime(cfg.RetryWait)
	client.SetRetryMaxWaitTime(cfg.RetryMaxWait)
	client.AddRetryCondition(func(resp *resty.Response, err error) bool {
		if resp == nil {
			return false
		}
		return resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= 500
	})
	client.SetRetryAfter(retryAfter)

	status := cfg.PublishStatus
	if status == "" {
		status = "active"
	}

	return &ShopifyClient{
		client:   client,
		endpoint: fmt.Sprintf("%s/admin/api/%s/products.json", storeURL, cfg.APIVersion),
		status:   status,
	}, nil
}

type shopifyProductRequest struct {
	Product shopifyProduct `json:"product"`
}

type shopifyProduct struct {
	Title       string           `json:"title"`
	BodyHTML    string           `json:"body_html"`
	Vendor      string           `json:"vendor"`
	ProductType string           `json:"product_type"`
	Status      string           `json:"status"`
	Tags        string           `json:"tags,omitempty"`
	Variants    []shopifyVariant `json:"variants"`
	Images      []shopifyImage   `json:"images,omitempty"`
}

type shopifyVariant struct {
	Price            string `json:"price"`
	SKU              string `json:"sku"`
	RequiresShipping bool   `json:"requires_shipping"`
	Taxable          bool   `json:"taxable"`
}

type shopifyImage struct {
	Src string `json:"src"`
}

type shopifyProductResponse struct {
	Product struct {
		ID int64 `json:"id"`
	} `json:"product"`
}

// CreateProduct creates the listing and returns the platform's product id.
func (c *ShopifyClient) CreateProduct(ctx context.Context, listing domain.Listing) (string, error) {
	product := shopifyProduct{
		Title:       listing.Title,
		BodyHTML:    listing.BodyHTML,
		Vendor:      listing.Vendor,
		ProductType: listing.ProductType,
		Status:      c.status,
		Tags:        strings.Join(listing.Tags, ", "),
		Variants: []shopifyVariant{{
			Price:            strconv.FormatFloat(listing.Price, 'f', 2, 64),
			SKU:              listing.SKU,
			RequiresShipping: false,
			Taxable:          true,
		}},
	}
	if listing.ImageURL != "" {
		product.Images = []shopifyImage{{Src: listing.ImageURL}}
	}

	var result shopifyProductResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(shopifyProductRequest{Product: product}).
		SetResult(&result).
		Post(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to call commerce API: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("commerce API returned HTTP %d: %s", resp.StatusCode(), strings.TrimSpace(string(resp.Body())))
	}
	if result.Product.ID == 0 {
		return "", fmt.Errorf("commerce API response has no product id: %s", strings.TrimSpace(string(resp.Body())))
	}
	return strconv.FormatInt(result.Product.ID, 10), nil
}

// retryAfter reads the Retry-After header in seconds. Zero lets resty use its
// own backoff.
func retryAfter(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
	if resp == nil {
		return 0, nil
	}
	header := resp.Header().Get("Retry-After")
	if header == "" {
		return 0, nil
	}
	secs, err := strconv.ParseFloat(header, 64)
	if err != nil || secs <= 0 {
		return 0, nil
	}
	return time.Duration(secs * float64(time.Second)), nil
}
