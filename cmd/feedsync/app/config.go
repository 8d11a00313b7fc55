package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/openmobility/feedsync/pkg/constants"
)

// Config holds the application configuration loaded from config files,
// environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Config file
	ConfigFile string

	// Reconciliation configuration
	CatalogURL          string
	DirectoryRESTURL    string
	DirectoryGraphQLURL string
	DirectoryAPIKey     string
	RegistryPath        string
	StoreURL            string
	StorageDir          string
	Country             string
	ExportDir           string
	ExecutorBinary      string
	LicenseOverrides    string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.feedsync.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// The directory API key lives in an unprefixed variable, bind it
	// explicitly.
	_ = viper.BindEnv("directory_api_key", constants.DirectoryAPIKeyEnv)

	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigType("yaml")
			viper.SetConfigName(".feedsync")
		}
	}

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()

	config := &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),

		ConfigFile: viper.ConfigFileUsed(),

		CatalogURL:          viper.GetString("catalog_url"),
		DirectoryRESTURL:    viper.GetString("directory_rest_url"),
		DirectoryGraphQLURL: viper.GetString("directory_graphql_url"),
		DirectoryAPIKey:     viper.GetString("directory_api_key"),
		RegistryPath:        viper.GetString("registry_path"),
		StoreURL:            viper.GetString("dburl"),
		StorageDir:          viper.GetString("storage_dir"),
		Country:             viper.GetString("country"),
		ExportDir:           viper.GetString("export_dir"),
		ExecutorBinary:      viper.GetString("executor_binary"),
		LicenseOverrides:    viper.GetString("license_overrides"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	if config.ExportDir == "" {
		config.ExportDir = constants.DefaultExportDir
	}

	return config, nil
}

// UpdateFromFlags updates config values from parsed command flags. Called
// after cobra parses flags so flag values take precedence over config file
// and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if
// not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
