// Package config loads the client configuration from YAML with environment
// overrides and hot reload, exposing one process-wide snapshot.
package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
)

// Config represents the application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	API      APIConfig      `mapstructure:"api"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
	Search   SearchConfig   `mapstructure:"search"`
	Prefs    PrefsConfig    `mapstructure:"prefs"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
}

// APIConfig describes the REST backend the client talks to.
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// RealtimeConfig tunes the socket reconnect policy.
type RealtimeConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	BackoffBase time.Duration `mapstructure:"backoff_base"`
	MaxBackoff  time.Duration `mapstructure:"max_backoff"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

// SearchConfig tunes the global search box.
type SearchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// PrefsConfig locates the local preferences file. An empty path means the
// platform default under the user config directory.
type PrefsConfig struct {
	Path string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "icomplain")
	v.SetDefault("app.env", "development")
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("realtime.enabled", true)
	v.SetDefault("realtime.backoff_base", time.Second)
	v.SetDefault("realtime.max_backoff", 30*time.Second)
	v.SetDefault("realtime.max_attempts", 10)
	v.SetDefault("search.debounce", 300*time.Millisecond)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load initializes the configuration with hot reload support. The config
// file is optional; defaults and ICOMPLAIN_* environment variables alone
// produce a usable configuration.
func Load(configPath string) error {
	var err error
	once.Do(func() {
		v := viper.New()
		v.SetConfigType("yaml")
		setDefaults(v)

		v.SetConfigName("config")
		v.AddConfigPath(configPath)
		if readErr := v.ReadInConfig(); readErr != nil {
			if _, ok := readErr.(viper.ConfigFileNotFoundError); !ok {
				err = fmt.Errorf("failed to read config: %w", readErr)
				return
			}
		}

		v.SetEnvPrefix("ICOMPLAIN")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		cfg = &Config{}
		if err = v.Unmarshal(cfg); err != nil {
			err = fmt.Errorf("failed to unmarshal config: %w", err)
			return
		}

		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			newCfg := &Config{}
			if reloadErr := v.Unmarshal(newCfg); reloadErr != nil {
				fmt.Printf("Failed to reload config: %v\n", reloadErr)
				return
			}
			mu.Lock()
			cfg = newCfg
			mu.Unlock()
		})
	})

	return err
}

// Get returns the current configuration (thread-safe)
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// LoadFromFile loads configuration from a specific file (useful for testing)
func LoadFromFile(configFile string) error {
	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()

	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}

// MustLoad loads configuration and panics on error
func MustLoad(configPath string) {
	if err := Load(configPath); err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}
}

// IsProduction returns true if running in production mode
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// BuildLogger constructs the zap logger the rest of the client shares.
func (c *LoggingConfig) BuildLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	var zc zap.Config
	if c.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
