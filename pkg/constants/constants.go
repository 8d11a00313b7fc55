// Package constants provides shared constants used throughout the feedsync
// codebase. This includes timeouts, file permissions, default endpoints, and
// other configuration values that should be consistent across the
// application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to the
	// catalog and directory APIs
	DefaultHTTPTimeout = 30 * time.Second

	// ProbeTimeout is the timeout for lightweight header probes against feed
	// download URLs
	ProbeTimeout = 15 * time.Second

	// SyncTimeout is the timeout for one full reconciliation pass
	SyncTimeout = 30 * time.Minute

	// ExecutorTimeout is the timeout for the external sync/fetch executor,
	// which downloads every accepted feed
	ExecutorTimeout = 2 * time.Hour
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Default endpoint and path constants
const (
	// DefaultCatalogURL is the national open-data catalog dataset listing
	DefaultCatalogURL = "https://transport.data.gouv.fr/api/datasets"

	// DefaultDirectoryRESTURL is the federated directory REST API base
	DefaultDirectoryRESTURL = "https://transit.land/api/v2/rest"

	// DefaultDirectoryGraphQLURL is the federated directory GraphQL endpoint
	DefaultDirectoryGraphQLURL = "https://transit.land/api/v2/query"

	// DefaultRegistryPath is the persisted registry document location
	DefaultRegistryPath = "feeds/transport.data.gouv.fr.dmfr.json"

	// DefaultStoreURL is the content-version store the executor writes
	DefaultStoreURL = "sqlite3://data/transitland.db"

	// DefaultExportDir is where diagnostic CSV reports are written
	DefaultExportDir = "reports"

	// DefaultStorageDir is where the executor stores fetched feed archives
	DefaultStorageDir = "data/gtfs"

	// DefaultExecutorBinary is the external sync/fetch CLI
	DefaultExecutorBinary = "transitland"
)

// Reconciliation defaults
const (
	// DefaultCountryFilter scopes prior-feed lookups in the directory
	DefaultCountryFilter = "FR"

	// DirectoryAPIKeyEnv is the environment variable holding the directory
	// API key
	DirectoryAPIKeyEnv = "TLV2"
)
