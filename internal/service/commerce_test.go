package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/ghostline/internal/config"
	"github.com/timmy/ghostline/internal/domain"
)

func commerceConfig(url string) *config.CommerceConfig {
	return &config.CommerceConfig{
		StoreURL:     url,
		AccessToken:  "shpat_test",
		APIVersion:   "2024-01",
		Timeout:      5 * time.Second,
		RetryCount:   3,
		RetryWait:    5 * time.Millisecond,
		RetryMaxWait: 20 * time.Millisecond,
	}
}

func testListing() domain.Listing {
	return domain.Listing{
		Title:       "Solo Automation Kit",
		BodyHTML:    "A high-quality Automation Kit. Solo Automation Kit.",
		ProductType: "Automation Kit",
		Vendor:      "NexusAI",
		Price:       29,
		Currency:    "USD",
		SKU:         "NEXUS-SOLO-AUTOMATION-KIT-1",
		ImageURL:    "https://placehold.co/x.png",
		Tags:        []string{"automation", "digital"},
	}
}

func TestShopifyClient_CreateProduct(t *testing.T) {
	var got shopifyProductRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/2024-01/products.json", r.URL.Path)
		assert.Equal(t, "Bearer shpat_test", r.Header.Get("Authorization"))
		assert.Equal(t, "shpat_test", r.Header.Get("X-Shopify-Access-Token"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"product":{"id":999,"title":"Solo Automation Kit"}}`))
	}))
	defer srv.Close()

	client, err := NewShopifyClient(commerceConfig(srv.URL))
	require.NoError(t, err)

	id, err := client.CreateProduct(context.Background(), testListing())
	require.NoError(t, err)
	assert.Equal(t, "999", id)

	assert.Equal(t, "Solo Automation Kit", got.Product.Title)
	assert.Equal(t, "active", got.Product.Status)
	assert.Equal(t, "automation, digital", got.Product.Tags)
	require.Len(t, got.Product.Variants, 1)
	assert.Equal(t, "29.00", got.Product.Variants[0].Price)
	assert.False(t, got.Product.Variants[0].RequiresShipping)
	require.Len(t, got.Product.Images, 1)
}

func TestShopifyClient_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"product":{"id":1234567890123}}`))
	}))
	defer srv.Close()

	client, err := NewShopifyClient(commerceConfig(srv.URL))
	require.NoError(t, err)

	id, err := client.CreateProduct(context.Background(), testListing())
	require.NoError(t, err)
	assert.Equal(t, "1234567890123", id)
	assert.Equal(t, int32(3), calls.Load())
}

func TestShopifyClient_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":{"title":["can't be blank"]}}`))
	}))
	defer srv.Close()

	client, err := NewShopifyClient(commerceConfig(srv.URL))
	require.NoError(t, err)

	_, err = client.CreateProduct(context.Background(), testListing())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 422")
	assert.Contains(t, err.Error(), "can't be blank")
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewShopifyClient_RequiresCredentials(t *testing.T) {
	_, err := NewShopifyClient(&config.CommerceConfig{StoreURL: "shop.myshopify.com"})
	require.Error(t, err)
}
