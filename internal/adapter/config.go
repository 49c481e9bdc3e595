package adapter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mmcdole/libria/internal/store"
)

const appName = "libria"

// Config holds all application configuration
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Storage StorageConfig `mapstructure:"storage"`
	Query   QueryConfig   `mapstructure:"query"`
	Player  PlayerConfig  `mapstructure:"player"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig holds catalog API configuration
type APIConfig struct {
	URL     string        `mapstructure:"url"`
	PerPage int           `mapstructure:"per_page"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StorageConfig selects the document backend
type StorageConfig struct {
	Backend string `mapstructure:"backend"` // "file" or "bolt"
	Dir     string `mapstructure:"dir"`     // empty = $XDG_DATA_HOME/libria
}

// QueryConfig holds query engine switches
type QueryConfig struct {
	// LegacyAmbientOrder sorts the shared collection in place on every query.
	LegacyAmbientOrder bool `mapstructure:"legacy_ambient_order"`
}

// PlayerConfig holds media player configuration
type PlayerConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
	Quality string   `mapstructure:"quality"` // "fullhd", "hd" or "sd"
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			URL:     "https://www.anilibria.tv",
			PerPage: 2000,
			Timeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Backend: store.BackendFile,
		},
		Player: PlayerConfig{
			Args:    []string{},
			Quality: "hd",
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path
func defaultLogPath() string {
	return filepath.Join(xdg.StateHome, appName, appName+".log")
}

// defaultConfigPath returns the default config directory
func defaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// defaultDataPath returns the default cache directory
func defaultDataPath() string {
	return filepath.Join(xdg.DataHome, appName)
}

// DataDir returns the directory that holds the cache documents.
func (c *Config) DataDir() string {
	if c.Storage.Dir != "" {
		return expandHome(c.Storage.Dir)
	}
	return defaultDataPath()
}

// LoadConfig loads configuration from file and environment. An explicit
// path must exist; otherwise config.yaml is looked up in the config
// directory and the working directory, and a missing file means defaults.
func LoadConfig(path string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	cfg := DefaultConfig()
	v := newViper(cfg)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// newViper registers every key with its default so environment overrides
// (LIBRIA_API_URL, LIBRIA_STORAGE_BACKEND, ...) reach Unmarshal.
func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range settings(cfg) {
		v.SetDefault(key, value)
	}
	return v
}

// settings flattens cfg into snake_case viper keys.
func settings(cfg *Config) map[string]any {
	return map[string]any{
		"api.url":                    cfg.API.URL,
		"api.per_page":               cfg.API.PerPage,
		"api.timeout":                cfg.API.Timeout.String(),
		"storage.backend":            cfg.Storage.Backend,
		"storage.dir":                cfg.Storage.Dir,
		"query.legacy_ambient_order": cfg.Query.LegacyAmbientOrder,
		"player.command":             cfg.Player.Command,
		"player.args":                cfg.Player.Args,
		"player.quality":             cfg.Player.Quality,
		"logging.file":               cfg.Logging.File,
		"logging.level":              cfg.Logging.Level,
	}
}

// SaveConfig writes cfg to config.yaml in the config directory
func SaveConfig(cfg *Config) error {
	return SaveConfigAs(cfg, filepath.Join(defaultConfigPath(), "config.yaml"))
}

// SaveConfigAs writes cfg to path as YAML
func SaveConfigAs(cfg *Config, path string) error {
	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	for key, value := range settings(cfg) {
		v.Set(key, value)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ClearCache removes all cached documents
func ClearCache(cfg *Config) error {
	if err := os.RemoveAll(cfg.DataDir()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
