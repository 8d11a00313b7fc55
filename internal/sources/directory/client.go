// Package directory implements the federated transit-feed directory
// provider: the source of truth for stable identifiers, content history, and
// license metadata.
package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/openmobility/feedsync/internal/transport"
	"github.com/openmobility/feedsync/pkg/errors"
	"github.com/openmobility/feedsync/pkg/feeds"
	"github.com/openmobility/feedsync/pkg/logging"
)

// knownFeedsQuery fetches every feed referenced by an agency in the given
// country, together with the directory's latest observed content snapshot.
const knownFeedsQuery = `
query($country: String!) {
  agencies(where: {adm0_iso: $country}) {
    feed_version {
      sha1
      url
      size_bytes
      fetched_at
      feed {
        onestop_id
        spec
        name
        urls {
          static_current
        }
        license {
          spdx_identifier
          url
          attribution_text
          redistribution_allowed
          commercial_use_allowed
          create_derived_product
          share_alike_optional
        }
        tags
        languages
        feed_versions(limit: 10) {
          sha1
          url
          size_bytes
          fetched_at
          latest_calendar_date
        }
      }
    }
  }
}
`

// Client queries the directory's REST and GraphQL APIs.
type Client struct {
	http       *transport.Client
	restURL    string
	graphqlURL string
}

// New creates a directory client. The API key may be empty; the directory
// then serves unauthenticated (rate-limited) responses.
func New(restURL, graphqlURL, apiKey string) *Client {
	return &Client{
		http:       transport.New("directory", apiKey),
		restURL:    restURL,
		graphqlURL: graphqlURL,
	}
}

// graphql response shapes, kept private to the client.

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type knownFeedsResponse struct {
	Data struct {
		Agencies []struct {
			FeedVersion *feedVersion `json:"feed_version"`
		} `json:"agencies"`
	} `json:"data"`
}

type feedVersion struct {
	SHA1      string    `json:"sha1"`
	URL       string    `json:"url"`
	SizeBytes int64     `json:"size_bytes"`
	FetchedAt time.Time `json:"fetched_at"`
	Feed      *struct {
		OnestopID    string            `json:"onestop_id"`
		Spec         string            `json:"spec"`
		Name         string            `json:"name"`
		URLs         feeds.URLs        `json:"urls"`
		License      feeds.License     `json:"license"`
		Tags         map[string]string `json:"tags"`
		Languages    []string          `json:"languages"`
		FeedVersions feeds.Versions    `json:"feed_versions"`
	} `json:"feed"`
}

// ListKnownFeeds returns the directory's prior feed records for a country,
// keyed by identifier. It is called once per reconciliation pass; the result
// is the lookup table the merger and change detector consult.
func (c *Client) ListKnownFeeds(ctx context.Context, country string) (feeds.KnownFeeds, error) {
	var resp knownFeedsResponse
	req := graphqlRequest{
		Query:     knownFeedsQuery,
		Variables: map[string]any{"country": country},
	}
	if err := c.http.PostJSON(ctx, c.graphqlURL, req, &resp); err != nil {
		return nil, err
	}

	known := make(feeds.KnownFeeds)
	for _, agency := range resp.Data.Agencies {
		version := agency.FeedVersion
		if version == nil || version.Feed == nil {
			continue
		}
		id := feeds.Identifier(version.Feed.OnestopID)
		if id == "" {
			continue
		}
		if _, seen := known[id]; seen {
			continue
		}

		known[id] = feeds.PriorFeedRecord{
			FeedRecord: feeds.FeedRecord{
				ID:           id,
				Spec:         version.Feed.Spec,
				Name:         version.Feed.Name,
				URLs:         version.Feed.URLs,
				License:      version.Feed.License,
				Tags:         version.Feed.Tags,
				Languages:    version.Feed.Languages,
				FeedVersions: version.Feed.FeedVersions,
			},
			LatestVersion: &feeds.VersionDescriptor{
				ContentHash: version.SHA1,
				URL:         version.URL,
				SizeBytes:   version.SizeBytes,
				FetchedAt:   version.FetchedAt,
			},
		}
	}

	logging.Ctx(ctx).Info().
		Str("country", country).
		Int("feeds", len(known)).
		Msg("Fetched known feeds from directory")
	return known, nil
}

type restFeedsResponse struct {
	Feeds []restFeed `json:"feeds"`
}

type restFeed struct {
	OnestopID    string            `json:"onestop_id"`
	Spec         string            `json:"spec"`
	Name         string            `json:"name"`
	URLs         feeds.URLs        `json:"urls"`
	License      feeds.License     `json:"license"`
	Tags         map[string]string `json:"tags"`
	Languages    []string          `json:"languages"`
	FeedVersions feeds.Versions    `json:"feed_versions"`
	FeedState    map[string]any    `json:"feed_state"`
}

// Feed fetches one feed record by identifier over the REST API. It is the
// fallback for identifiers the country-scoped GraphQL listing missed.
func (c *Client) Feed(ctx context.Context, id feeds.Identifier) (*feeds.PriorFeedRecord, error) {
	var resp restFeedsResponse
	url := fmt.Sprintf("%s/feeds/%s", c.restURL, id)
	if err := c.http.GetJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	if len(resp.Feeds) == 0 {
		return nil, errors.NewNotFoundError("feed", id.String())
	}

	f := resp.Feeds[0]
	prior := &feeds.PriorFeedRecord{
		FeedRecord: feeds.FeedRecord{
			ID:           feeds.Identifier(f.OnestopID),
			Spec:         f.Spec,
			Name:         f.Name,
			URLs:         f.URLs,
			License:      f.License,
			Tags:         f.Tags,
			Languages:    f.Languages,
			FeedVersions: f.FeedVersions,
			FeedState:    f.FeedState,
		},
		LatestVersion: f.FeedVersions.Latest(),
	}
	return prior, nil
}
