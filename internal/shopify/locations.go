// Package shopify calls the upstream Shopify Admin API for shop data
// the import flow needs.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopbulk/bulk-import-backend/internal/models"
)

const locationsQuery = `{ locations(first: 250) { edges { node { id name } } } }`

// Client calls a shop's Admin GraphQL endpoint.
type Client struct {
	apiVersion string
	scheme     string
	httpClient *http.Client
}

// NewClient constructs a locations client for the given API version.
func NewClient(apiVersion string) *Client {
	return &Client{
		apiVersion: apiVersion,
		scheme:     "https",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type graphqlRequest struct {
	Query string `json:"query"`
}

type locationsResponse struct {
	Data *struct {
		Locations *struct {
			Edges []struct {
				Node models.Location `json:"node"`
			} `json:"edges"`
		} `json:"locations"`
	} `json:"data"`
}

// Locations fetches the shop's inventory locations with the user's
// stored access token. A missing or malformed locations list is fatal
// for the call; the caller decides whether to retry.
func (c *Client) Locations(ctx context.Context, shopDomain, accessToken string) ([]models.Location, error) {
	body, err := json.Marshal(graphqlRequest{Query: locationsQuery})
	if err != nil {
		return nil, fmt.Errorf("marshal locations query: %w", err)
	}

	url := fmt.Sprintf("%s://%s/admin/api/%s/graphql.json", c.scheme, shopDomain, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build locations request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", shopDomain, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read locations response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("locations request to %s failed with status %d", shopDomain, resp.StatusCode)
	}

	var parsed locationsResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode locations response: %w", err)
	}
	if parsed.Data == nil || parsed.Data.Locations == nil {
		return nil, fmt.Errorf("locations response from %s has no locations list", shopDomain)
	}

	locations := make([]models.Location, 0, len(parsed.Data.Locations.Edges))
	for _, edge := range parsed.Data.Locations.Edges {
		locations = append(locations, edge.Node)
	}
	return locations, nil
}
