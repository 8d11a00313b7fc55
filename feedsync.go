// Package feedsync reconciles transit feed metadata between a national
// open-data catalog and a federated feed directory. One reconciliation pass
// lists the catalog's datasets, merges them with the directory's prior
// knowledge into canonical feed records, writes the registry document, and
// optionally fetches feed content to confirm what actually changed.
package feedsync

import (
	"context"

	"github.com/openmobility/feedsync/internal/fetchexec"
	"github.com/openmobility/feedsync/internal/sources/catalog"
	"github.com/openmobility/feedsync/internal/sources/directory"
	"github.com/openmobility/feedsync/internal/transport"
	"github.com/openmobility/feedsync/internal/versionstore"
	"github.com/openmobility/feedsync/pkg/errors"
	"github.com/openmobility/feedsync/pkg/feeds"
	"github.com/openmobility/feedsync/pkg/license"
	"github.com/openmobility/feedsync/pkg/reconcile"
)

// CatalogSource lists the datasets published by the open-data catalog.
type CatalogSource interface {
	ListEntries(ctx context.Context) ([]feeds.CatalogEntry, error)
}

// DirectorySource answers what the federated directory already knows about
// feeds in one country.
type DirectorySource interface {
	ListKnownFeeds(ctx context.Context, country string) (feeds.KnownFeeds, error)
}

// Executor runs the external binary that loads the registry into the
// content-version store and fetches feed archives.
type Executor interface {
	Available() bool
	Sync(ctx context.Context, registryPath string) error
	Fetch(ctx context.Context) error
}

// VersionStore is a read-only view over the store the Executor writes.
type VersionStore interface {
	Verify(ctx context.Context) (feedCount, versionCount int64, err error)
	LatestVersions(ctx context.Context) (map[feeds.Identifier]feeds.VersionDescriptor, error)
	Close() error
}

// StoreOpener opens the version store at the given dburl.
type StoreOpener func(dburl string) (VersionStore, error)

// Feedsync runs reconciliation passes against the catalog and directory.
type Feedsync interface {
	// Sync runs one full reconciliation pass.
	Sync(ctx context.Context, opts ...SyncOption) (*Result, error)

	// Lookup fetches the directory's current record for one feed.
	Lookup(ctx context.Context, id feeds.Identifier) (*feeds.PriorFeedRecord, error)
}

// feedsync is the internal implementation of the Feedsync interface.
type feedsync struct {
	config *config

	catalog   CatalogSource
	directory DirectorySource
	probe     reconcile.HeadProbe
	merger    *reconcile.Merger
	executor  Executor
	openStore StoreOpener

	// lookup is the REST fallback for single-feed queries; nil when a
	// custom DirectorySource was injected.
	lookup interface {
		Feed(ctx context.Context, id feeds.Identifier) (*feeds.PriorFeedRecord, error)
	}
}

// New creates a Feedsync instance with the given options.
func New(opts ...Option) (Feedsync, error) {
	fs := &feedsync{config: defaultConfig()}

	if err := fs.options(opts...); err != nil {
		return nil, err
	}

	mapper := license.NewMapper()
	if fs.config.licenseOverridesPath != "" {
		if err := mapper.LoadOverrides(fs.config.licenseOverridesPath); err != nil {
			return nil, err
		}
	}
	fs.merger = reconcile.NewMerger(mapper)

	if fs.catalog == nil {
		fs.catalog = catalog.New(fs.config.catalogURL)
	}
	if fs.directory == nil {
		client := directory.New(fs.config.directoryRESTURL, fs.config.directoryGraphQLURL, fs.config.directoryAPIKey)
		fs.directory = client
		fs.lookup = client
	}
	if fs.probe == nil {
		fs.probe = transport.NewProbe()
	}
	if fs.executor == nil {
		fs.executor = fetchexec.New(fs.config.executorBinary, fs.config.storeURL, fs.config.storageDir)
	}
	if fs.openStore == nil {
		fs.openStore = func(dburl string) (VersionStore, error) {
			return versionstore.Open(dburl)
		}
	}

	return fs, nil
}

// Lookup fetches the directory's current record for one feed.
func (fs *feedsync) Lookup(ctx context.Context, id feeds.Identifier) (*feeds.PriorFeedRecord, error) {
	if fs.lookup == nil {
		return nil, &errors.ConfigError{
			Component: "feedsync",
			Message:   "single-feed lookup requires the default directory source",
		}
	}
	return fs.lookup.Feed(ctx, id)
}
