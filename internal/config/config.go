package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type StoreConfig struct {
	Path         string `mapstructure:"path"`
	DocCacheSize int    `mapstructure:"doc_cache_size"`
}

type ConvertConfig struct {
	Workers int `mapstructure:"workers"`
}

type LogConfig struct {
	Level slog.Level `mapstructure:"level"`
}

type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Convert ConvertConfig `mapstructure:"convert"`
	Log     LogConfig     `mapstructure:"log"`
}

// cacheBase returns the base cache directory for oxidoc.
// Checks XDG_CACHE_HOME, then ~/.cache, then /tmp/oxidoc as fallback.
func cacheBase() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "oxidoc")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "oxidoc")
	}
	return filepath.Join(os.TempDir(), "oxidoc")
}

// DBPath returns the path to the SQLite search index.
func DBPath() string {
	return filepath.Join(cacheBase(), "index.db")
}

// StoreDir returns the default root under which each crate's store lives.
func StoreDir() string {
	return filepath.Join(cacheBase(), "store")
}

// JSONCacheDir returns the path to the rustdoc JSON cache directory.
func JSONCacheDir() string {
	return filepath.Join(cacheBase(), "json")
}

// CrateStoreDir returns the store root for one crate.
func (c *Config) CrateStoreDir(crate string) string {
	return filepath.Join(c.Store.Path, crate)
}

func InitializeViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	viper.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		viper.AddConfigPath(filepath.Join(xdg, "oxidoc"))
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "oxidoc"))
	}

	viper.SetDefault("store.path", StoreDir())
	viper.SetDefault("store.doc_cache_size", 256)
	viper.SetDefault("convert.workers", 0)
	viper.SetDefault("log.level", "info")

	viper.SetEnvPrefix("OXIDOC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

func stringToLevelHookFunc() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(slog.Level(0)) || f.Kind() != reflect.String {
			return data, nil
		}
		var level slog.Level
		if err := level.UnmarshalText([]byte(data.(string))); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", data, err)
		}
		return level, nil
	}
}

func Load() (*Config, error) {
	if err := InitializeViper(); err != nil {
		return nil, err
	}
	return decode(viper.AllSettings())
}

func decode(settings map[string]interface{}) (*Config, error) {
	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       stringToLevelHookFunc(),
		WeaklyTypedInput: true,
		Result:           &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Store.Path = expandHome(config.Store.Path)
	if config.Store.Path == "" {
		config.Store.Path = StoreDir()
	}
	if config.Store.DocCacheSize < 1 {
		config.Store.DocCacheSize = 1
	}
	if config.Convert.Workers < 0 {
		config.Convert.Workers = 0
	}
	return &config, nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
