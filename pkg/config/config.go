// Package config loads railbook's runtime configuration from cobra
// flags, RAILBOOK_* environment variables, and an optional
// railbook.yaml in the data directory, via viper.
package config

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is every tunable railbook's CLI reads at startup.
type Config struct {
	DataDir        string `mapstructure:"data_dir"`
	IndexCacheSize int    `mapstructure:"index_cache_size"`
	LeafCacheSize  int    `mapstructure:"leaf_cache_size"`
	LogLevel       string `mapstructure:"log_level"`
	LogFormat      string `mapstructure:"log_format"`
}

// Defaults match the engine's own defaults (spec §4.2): 1024 index /
// 2048 leaf entries per B+ tree.
const (
	DefaultIndexCacheSize = 1024
	DefaultLeafCacheSize  = 2048
)

// Load binds flags, RAILBOOK_* environment variables, and an optional
// railbook.yaml under the resolved data directory into a Config.
func Load(flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RAILBOOK")
	v.AutomaticEnv()

	v.SetDefault("data_dir", "./data")
	v.SetDefault("index_cache_size", DefaultIndexCacheSize)
	v.SetDefault("leaf_cache_size", DefaultLeafCacheSize)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	if flags != nil {
		for key, name := range map[string]string{"data_dir": "data-dir", "index_cache_size": "index-cache-size",
			"leaf_cache_size": "leaf-cache-size", "log_level": "log-level", "log_format": "log-format"} {
			if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
				return Config{}, errors.Wrap(err, "bind flags")
			}
		}
	}

	v.SetConfigName("railbook")
	v.SetConfigType("yaml")
	v.AddConfigPath(v.GetString("data_dir"))
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return Config{}, errors.Wrap(err, "read railbook.yaml")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "unmarshal config")
	}
	cfg.DataDir = filepath.Clean(cfg.DataDir)
	return cfg, nil
}
