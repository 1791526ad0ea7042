// Package config provides a reusable loader for ledger node configuration
// files and environment variables. It is versioned so that applications
// can depend on a stable API contract.
//
// Version: v0.2.0
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Version is the semantic version of this configuration package.
const Version = "v0.2.0"

// Config represents the unified configuration for a ledger node.
type Config struct {
	Node struct {
		ID           string `mapstructure:"id" json:"id"`
		BlockchainMode bool `mapstructure:"blockchain_mode" json:"blockchain_mode"`
	} `mapstructure:"node" json:"node"`

	Storage struct {
		Path             string `mapstructure:"path" json:"path"`
		GenesisFile      string `mapstructure:"genesis_file" json:"genesis_file"`
		SnapshotInterval int    `mapstructure:"snapshot_interval" json:"snapshot_interval"`
	} `mapstructure:"storage" json:"storage"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// wrapErr adds context to an error message. It returns nil if err is nil.
func wrapErr(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// envOrDefault returns the value of the environment variable identified by
// key, or fallback if the variable is unset or empty.
func envOrDefault(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and returned.
//
// The function uses the provided environment name to merge additional config
// files. If env is empty, only the default configuration is loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("config")
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, wrapErr(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, wrapErr(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.SetEnvPrefix("LEDGER")
	viper.AutomaticEnv()

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, wrapErr(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the LEDGER_ENV environment variable.
func LoadFromEnv() (*Config, error) {
	return Load(envOrDefault("LEDGER_ENV", ""))
}
