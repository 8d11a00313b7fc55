// Package catalog implements the national open-data catalog provider: the
// source of truth for feed download URLs.
package catalog

import (
	"context"

	"github.com/openmobility/feedsync/internal/transport"
	"github.com/openmobility/feedsync/pkg/feeds"
	"github.com/openmobility/feedsync/pkg/logging"
)

// Client lists datasets from the catalog API.
type Client struct {
	http *transport.Client
	url  string
}

// New creates a catalog client for the given dataset listing URL.
func New(url string) *Client {
	return &Client{
		http: transport.New("catalog", ""),
		url:  url,
	}
}

// ListEntries fetches all catalog datasets. It is called once per
// reconciliation pass.
func (c *Client) ListEntries(ctx context.Context) ([]feeds.CatalogEntry, error) {
	var entries []feeds.CatalogEntry
	if err := c.http.GetJSON(ctx, c.url, &entries); err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Int("datasets", len(entries)).
		Msg("Fetched catalog datasets")
	return entries, nil
}
