// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Dashboard DashboardConfig `toml:"dashboard"`
	Source    SourceConfig    `toml:"source"`
	Log       LogConfig       `toml:"log"`
	Server    ServerConfig    `toml:"server"`
	Export    ExportConfig    `toml:"export"`
}

// DashboardConfig maps report defaults.
type DashboardConfig struct {
	Period   *string `toml:"period"`
	Timezone *string `toml:"timezone"`
	Locale   *string `toml:"locale"`
}

// SourceConfig maps data acquisition settings.
type SourceConfig struct {
	SyncInterval   *string `toml:"sync-interval"`
	SampleFallback *bool   `toml:"sample-fallback"`
	Timeout        *string `toml:"timeout"`
	KeepSnapshots  *int    `toml:"keep-snapshots"`
}

// LogConfig maps logger settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// ServerConfig maps HTTP API settings.
type ServerConfig struct {
	Addr        *string  `toml:"addr"`
	CORSOrigins []string `toml:"cors-origins"`
}

// ExportConfig maps object storage settings for PDF uploads.
type ExportConfig struct {
	Endpoint      *string `toml:"endpoint"`
	Region        *string `toml:"region"`
	Bucket        *string `toml:"bucket"`
	PublicBaseURL *string `toml:"public-base-url"`
	StorageClass  *string `toml:"storage-class"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
