// Package catalog fetches the product catalogue from the backend and keeps
// the most recent snapshot for the storefront and the cart.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"shophub/internal/apiclient"
	"shophub/internal/model"

	"github.com/rs/zerolog"
)

// ProductsPath is the backend collection endpoint.
const ProductsPath = "/api/products"

// Requester sends a request to the backend.
type Requester interface {
	Do(ctx context.Context, method, path string, body io.Reader, contentType string) (*apiclient.Response, error)
}

// Fetcher retrieves the full catalogue.
type Fetcher interface {
	FetchCatalog(ctx context.Context) ([]model.Product, error)
}

// Client fetches the product list from the backend.
type Client struct {
	api    Requester
	logger zerolog.Logger
}

// NewClient creates a catalogue client on top of the given requester.
func NewClient(api Requester, logger zerolog.Logger) *Client {
	return &Client{
		api:    api,
		logger: logger.With().Str("component", "catalog-client").Logger(),
	}
}

// FetchCatalog retrieves every product. It fails with *model.NetworkError,
// *model.ServerError or *model.MalformedResponseError.
func (c *Client) FetchCatalog(ctx context.Context) ([]model.Product, error) {
	resp, err := c.api.Do(ctx, http.MethodGet, ProductsPath, nil, "")
	if err != nil {
		return nil, err
	}

	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 || body[0] != '[' {
		c.logger.Error().
			Int("bytes", len(resp.Body)).
			Msg("catalogue response is not an array")
		return nil, &model.MalformedResponseError{Message: "invalid response format: expected a product array"}
	}

	products := []model.Product{}
	if err := json.Unmarshal(body, &products); err != nil {
		c.logger.Error().Err(err).Msg("failed to decode catalogue response")
		return nil, &model.MalformedResponseError{
			Message: "invalid response format: " + err.Error(),
			Err:     err,
		}
	}

	c.logger.Debug().Int("count", len(products)).Msg("catalogue fetched")

	return products, nil
}

// Filter returns the products whose name or description contains query,
// ignoring case. An empty query returns products unchanged.
func Filter(products []model.Product, query string) []model.Product {
	if query == "" {
		return products
	}

	needle := strings.ToLower(query)
	filtered := make([]model.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) {
			filtered = append(filtered, p)
		}
	}

	return filtered
}
