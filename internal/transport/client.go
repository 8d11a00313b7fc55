// Package transport provides the HTTP plumbing shared by the catalog and
// directory clients: a JSON client with optional API-key authentication and
// a lightweight header probe for change detection.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/openmobility/feedsync/pkg/constants"
	"github.com/openmobility/feedsync/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// Client provides HTTP client functionality with API-key authentication.
type Client struct {
	http    *http.Client
	apiKey  string
	service string
}

// New creates a new transport client for the named service. The API key may
// be empty, in which case requests are unauthenticated.
func New(service, apiKey string) *Client {
	return &Client{
		http:    &http.Client{Timeout: DefaultHTTPTimeout},
		apiKey:  apiKey,
		service: service,
	}
}

// GetJSON performs a GET request and decodes the JSON response into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.WrapAPI(c.service, 0, err)
	}
	return c.doJSON(req, v)
}

// PostJSON performs a POST request with a JSON body and decodes the JSON
// response into v.
func (c *Client) PostJSON(ctx context.Context, url string, body, v any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.WrapAPI(c.service, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return errors.WrapAPI(c.service, 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, v)
}

// doJSON executes the request with authentication and common headers applied.
func (c *Client) doJSON(req *http.Request, v any) error {
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.WrapAPI(c.service, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little of the body for the error message.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &errors.APIError{
			Service:    c.service,
			StatusCode: resp.StatusCode,
			Message:    string(snippet),
			Endpoint:   req.URL.String(),
		}
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.WrapParse("json", req.URL.String(), err)
	}
	return nil
}
