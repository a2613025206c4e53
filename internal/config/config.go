// Package config loads application settings from the user config file and
// SEELAYER_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the resolved application configuration.
type Config struct {
	DataDir   string `mapstructure:"data_dir"`
	DBPath    string `mapstructure:"db_path"`
	DraftDir  string `mapstructure:"draft_dir"`
	ExportDir string `mapstructure:"export_dir"`
	LogLevel  string `mapstructure:"log_level"`

	// AuthorID identifies the local user in saved records and export
	// file names.
	AuthorID string `mapstructure:"author_id"`

	// Viewport is the fixed size of each editor card's image area.
	Viewport struct {
		Width  float64 `mapstructure:"width"`
		Height float64 `mapstructure:"height"`
	} `mapstructure:"viewport"`
}

// Load reads configuration, creating defaults under the user config dir when
// no file exists yet.
func Load() (Config, error) {
	v := viper.New()

	dataDir := defaultDataDir()
	v.SetDefault("data_dir", dataDir)
	v.SetDefault("db_path", filepath.Join(dataDir, "seelayer.db"))
	v.SetDefault("draft_dir", filepath.Join(dataDir, "drafts"))
	v.SetDefault("export_dir", dataDir)
	v.SetDefault("log_level", "info")
	v.SetDefault("author_id", defaultAuthorID())
	v.SetDefault("viewport.width", 500.0)
	v.SetDefault("viewport.height", 300.0)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dataDir)
	v.AddConfigPath(".")

	v.SetEnvPrefix("SEELAYER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func defaultDataDir() string {
	if base, err := os.UserConfigDir(); err == nil {
		return filepath.Join(base, "seelayer")
	}
	return ".seelayer"
}

func defaultAuthorID() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}
