package directus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client represents a Directus API client
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new Directus client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// ListProductLines fetches all active product lines
func (c *Client) ListProductLines(ctx context.Context) ([]ProductLineItem, error) {
	query := url.Values{}
	query.Set("filter[active][_eq]", "true")

	raw, err := c.doRequest(ctx, "items/product_lines", query)
	if err != nil {
		return nil, fmt.Errorf("failed to list product lines: %w", err)
	}

	var lines []ProductLineItem
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product lines: %w", err)
	}
	return lines, nil
}

// GetProductLine fetches a single product line by slug
func (c *Client) GetProductLine(ctx context.Context, slug string) (*ProductLineItem, error) {
	query := url.Values{}
	query.Set("filter[slug][_eq]", slug)
	query.Set("limit", "1")

	raw, err := c.doRequest(ctx, "items/product_lines", query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product line: %w", err)
	}

	var lines []ProductLineItem
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product line: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrNotFound
	}
	return &lines[0], nil
}

// ListProducts fetches the catalog rows of a product line, with their
// option and sku overrides expanded
func (c *Client) ListProducts(ctx context.Context, productLineID uint) ([]ProductItem, error) {
	query := url.Values{}
	query.Set("filter[product_line][_eq]", fmt.Sprintf("%d", productLineID))
	query.Set("fields", "*,option_overrides.*,sku_overrides.*")
	query.Set("limit", "-1")

	raw, err := c.doRequest(ctx, "items/products", query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	var products []ProductItem
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("failed to unmarshal products: %w", err)
	}
	return products, nil
}

// ListRules fetches the rules of a product line in priority order
func (c *Client) ListRules(ctx context.Context, productLineID uint) ([]RuleItem, error) {
	query := url.Values{}
	query.Set("filter[product_line][_eq]", fmt.Sprintf("%d", productLineID))
	query.Set("sort", "priority")
	query.Set("limit", "-1")

	raw, err := c.doRequest(ctx, "items/rules", query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}

	var rules []RuleItem
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rules: %w", err)
	}
	return rules, nil
}

// doRequest performs a GET against the Directus items API and returns the
// unwrapped data payload
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/%s", c.config.BaseURL, path)
	if len(query) > 0 {
		endpoint = fmt.Sprintf("%s?%s", endpoint, query.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrServer, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var envelope listEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response envelope: %w", err)
	}
	return envelope.Data, nil
}
