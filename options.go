package feedsync

import (
	"github.com/openmobility/feedsync/pkg/constants"
	"github.com/openmobility/feedsync/pkg/errors"
	"github.com/openmobility/feedsync/pkg/reconcile"
)

// config holds the construction-time settings of a Feedsync instance.
type config struct {
	catalogURL           string
	directoryRESTURL     string
	directoryGraphQLURL  string
	directoryAPIKey      string
	registryPath         string
	exportDir            string
	country              string
	storeURL             string
	storageDir           string
	executorBinary       string
	licenseOverridesPath string
}

func defaultConfig() *config {
	return &config{
		catalogURL:          constants.DefaultCatalogURL,
		directoryRESTURL:    constants.DefaultDirectoryRESTURL,
		directoryGraphQLURL: constants.DefaultDirectoryGraphQLURL,
		registryPath:        constants.DefaultRegistryPath,
		exportDir:           constants.DefaultExportDir,
		country:             constants.DefaultCountryFilter,
		storeURL:            constants.DefaultStoreURL,
		storageDir:          constants.DefaultStorageDir,
		executorBinary:      constants.DefaultExecutorBinary,
	}
}

// Option is a function that configures a Feedsync instance.
type Option func(*feedsync) error

// options applies the given options in order.
func (fs *feedsync) options(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(fs); err != nil {
			return err
		}
	}
	return nil
}

// WithCatalogURL overrides the open-data catalog listing endpoint.
func WithCatalogURL(url string) Option {
	return func(fs *feedsync) error {
		if url == "" {
			return &errors.ConfigError{Component: "catalog", Message: "catalog URL must not be empty"}
		}
		fs.config.catalogURL = url
		return nil
	}
}

// WithDirectory configures the federated directory endpoints and API key.
func WithDirectory(restURL, graphqlURL, apiKey string) Option {
	return func(fs *feedsync) error {
		if restURL != "" {
			fs.config.directoryRESTURL = restURL
		}
		if graphqlURL != "" {
			fs.config.directoryGraphQLURL = graphqlURL
		}
		fs.config.directoryAPIKey = apiKey
		return nil
	}
}

// WithRegistryPath overrides where the registry document is read and written.
func WithRegistryPath(path string) Option {
	return func(fs *feedsync) error {
		if path == "" {
			return &errors.ConfigError{Component: "registry", Message: "registry path must not be empty"}
		}
		fs.config.registryPath = path
		return nil
	}
}

// WithExportDir overrides where diagnostic CSV reports are written.
func WithExportDir(dir string) Option {
	return func(fs *feedsync) error {
		fs.config.exportDir = dir
		return nil
	}
}

// WithCountry scopes directory prior-feed lookups to one country code.
func WithCountry(code string) Option {
	return func(fs *feedsync) error {
		if code != "" {
			fs.config.country = code
		}
		return nil
	}
}

// WithStore configures the content-version store dburl and the archive
// storage directory used by the executor.
func WithStore(dburl, storageDir string) Option {
	return func(fs *feedsync) error {
		if dburl != "" {
			fs.config.storeURL = dburl
		}
		if storageDir != "" {
			fs.config.storageDir = storageDir
		}
		return nil
	}
}

// WithExecutorBinary overrides the external sync/fetch binary.
func WithExecutorBinary(binary string) Option {
	return func(fs *feedsync) error {
		if binary != "" {
			fs.config.executorBinary = binary
		}
		return nil
	}
}

// WithLicenseOverrides loads additional license code mappings from a YAML
// file on top of the built-in table.
func WithLicenseOverrides(path string) Option {
	return func(fs *feedsync) error {
		fs.config.licenseOverridesPath = path
		return nil
	}
}

// WithCatalogSource injects a catalog source, replacing the HTTP client.
func WithCatalogSource(source CatalogSource) Option {
	return func(fs *feedsync) error {
		fs.catalog = source
		return nil
	}
}

// WithDirectorySource injects a directory source, replacing the HTTP client.
// Single-feed Lookup is unavailable with an injected source.
func WithDirectorySource(source DirectorySource) Option {
	return func(fs *feedsync) error {
		fs.directory = source
		return nil
	}
}

// WithProbe injects the HEAD probe used by first-stage change detection.
func WithProbe(probe reconcile.HeadProbe) Option {
	return func(fs *feedsync) error {
		fs.probe = probe
		return nil
	}
}

// WithExecutor injects the external fetch executor.
func WithExecutor(executor Executor) Option {
	return func(fs *feedsync) error {
		fs.executor = executor
		return nil
	}
}

// WithStoreOpener injects how the version store is opened.
func WithStoreOpener(open StoreOpener) Option {
	return func(fs *feedsync) error {
		fs.openStore = open
		return nil
	}
}
