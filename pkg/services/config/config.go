package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "SALES_ATLAS"

const (
	EngineMemory = "memory"
	EngineDuckDB = "duckdb"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Data      DataConfig      `mapstructure:"data"`
	Engine    string          `mapstructure:"engine"`
	DuckDB    DuckDBConfig    `mapstructure:"duckdb"`
	Cache     CacheConfig     `mapstructure:"cache"`
	AWS       AWSConfig       `mapstructure:"aws"`
	Log       LogConfig       `mapstructure:"log"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DataConfig struct {
	// Path is the single dataset served when no profiles file is set.
	Path string `mapstructure:"path"`
	// Profiles points to an ini file with one section per dataset.
	Profiles string `mapstructure:"profiles"`
}

type DuckDBConfig struct {
	Path    string `mapstructure:"path"`
	Threads int    `mapstructure:"threads"`
}

type CacheConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	MaxEntries int  `mapstructure:"max_entries"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type DashboardConfig struct {
	TopN int `mapstructure:"top_n"`
}

var defaults = map[string]any{
	"server.host":             "127.0.0.1",
	"server.port":             8080,
	"server.shutdown_timeout": "10s",
	"data.path":               "data/sales.csv",
	"data.profiles":           "",
	"engine":                  EngineMemory,
	"duckdb.path":             ":memory:",
	"duckdb.threads":          4,
	"cache.enabled":           true,
	"cache.max_entries":       64,
	"aws.region":              "",
	"log.level":               "info",
	"dashboard.top_n":         10,
}

// LoadConfig reads configuration from defaults, the optional file at path
// and SALES_ATLAS_* environment variables, in increasing precedence.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Engine != EngineMemory && c.Engine != EngineDuckDB {
		errs = append(errs, fmt.Errorf("engine must be %q or %q, got %q", EngineMemory, EngineDuckDB, c.Engine))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Data.Path == "" && c.Data.Profiles == "" {
		errs = append(errs, errors.New("either data.path or data.profiles is required"))
	}
	if c.Dashboard.TopN < 0 {
		errs = append(errs, fmt.Errorf("dashboard.top_n must not be negative: %d", c.Dashboard.TopN))
	}
	return errors.Join(errs...)
}
