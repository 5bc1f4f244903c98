// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"

	"playprice/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// PackageName is the app package the subscription belongs to
	PackageName string `json:"package_name"`

	// ProductID is the subscription product identifier
	ProductID string `json:"product_id"`

	// BasePlanID is the base plan carrying regional prices
	BasePlanID string `json:"base_plan_id"`

	// CSVPath is the default price sheet location
	CSVPath string `json:"csv_path"`

	// RegionsVersion is an explicit regions version override
	RegionsVersion string `json:"regions_version"`

	// API contains billing platform settings
	API APIConfig `json:"api"`

	// Defaults contains default values for update flags
	Defaults Defaults `json:"defaults"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// APIConfig contains billing platform connection settings
type APIConfig struct {
	// BaseURL is the platform API endpoint
	BaseURL string `json:"base_url"`

	// TokenEnv names the environment variable holding the API token
	TokenEnv string `json:"token_env"`
}

// Defaults contains default values for the update command flags
type Defaults struct {
	// FixCurrency replaces mismatched currency codes with the
	// region's required currency
	FixCurrency bool `json:"fix_currency"`

	// ConvertCurrency also converts the numeric amount when fixing
	ConvertCurrency bool `json:"convert_currency"`

	// UseRecommended overrides sheet prices with platform
	// recommended per-region prices
	UseRecommended bool `json:"use_recommended"`

	// BatchSize applies prices in chunks of this size (0 = single request)
	BatchSize int `json:"batch_size"`

	// EnableAvailability also opens updated regions to new subscribers
	EnableAvailability bool `json:"enable_availability"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version:    "1.0",
		ProductID:  "subscription-product",
		BasePlanID: "monthly-plan",
		CSVPath:    "prices.csv",
		API: APIConfig{
			BaseURL:  "https://androidpublisher.googleapis.com",
			TokenEnv: "PLAYPRICE_API_TOKEN",
		},
		Defaults: Defaults{},
		Logging:  logging.DefaultConfig(),
	}
}

// Load loads configuration from a file. A missing file yields the
// defaults so the CLI can still run fully flag-driven.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
