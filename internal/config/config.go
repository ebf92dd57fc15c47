// Package config loads client configuration from the environment, an optional
// .env file and an optional YAML profile.
//
// Precedence, lowest first: built-in defaults, YAML profile, environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/R3E-Network/complaint_client/internal/httputil"
	"github.com/R3E-Network/complaint_client/internal/kvstore"
	"github.com/R3E-Network/complaint_client/pkg/logger"
)

// Config is the complete client configuration.
type Config struct {
	APIURL  string        `env:"COMPLAINTS_API_URL,default=http://192.168.0.104:8000" yaml:"api_url"`
	Timeout time.Duration `env:"COMPLAINTS_TIMEOUT,default=10s" yaml:"timeout"`

	TokenStore    string        `env:"COMPLAINTS_TOKEN_STORE,default=file" yaml:"token_store"`
	TokenDir      string        `env:"COMPLAINTS_TOKEN_DIR" yaml:"token_dir"`
	RedisAddr     string        `env:"COMPLAINTS_REDIS_ADDR,default=127.0.0.1:6379" yaml:"redis_addr"`
	RedisPassword string        `env:"COMPLAINTS_REDIS_PASSWORD" yaml:"redis_password"`
	RedisDB       int           `env:"COMPLAINTS_REDIS_DB,default=0" yaml:"redis_db"`
	RedisPrefix   string        `env:"COMPLAINTS_REDIS_PREFIX,default=complaints:" yaml:"redis_prefix"`
	RedisTTL      time.Duration `env:"COMPLAINTS_REDIS_TTL" yaml:"redis_ttl"`

	LogLevel  string `env:"COMPLAINTS_LOG_LEVEL,default=info" yaml:"log_level"`
	LogFormat string `env:"COMPLAINTS_LOG_FORMAT,default=text" yaml:"log_format"`

	WatchInterval time.Duration `env:"COMPLAINTS_WATCH_INTERVAL,default=30s" yaml:"watch_interval"`
}

// Options selects optional configuration sources.
type Options struct {
	// EnvFile is loaded with godotenv before decoding. A missing file is
	// ignored unless it was named explicitly.
	EnvFile string
	// ConfigFile is a YAML profile. Empty skips it.
	ConfigFile string
}

const defaultEnvFile = ".env"

// Load reads configuration from all sources and validates it.
func Load(opts Options) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if opts.ConfigFile != "" {
		profile, err := LoadFile(opts.ConfigFile)
		if err != nil {
			return nil, err
		}
		overlay(cfg, profile)
	}

	if cfg.TokenDir == "" {
		cfg.TokenDir = DefaultTokenDir()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile parses a YAML profile.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// DefaultTokenDir is ~/.complaintctl, or a relative directory when the home
// directory is unknown.
func DefaultTokenDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".complaintctl"
	}
	return filepath.Join(home, ".complaintctl")
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if _, _, err := httputil.ResolveBaseURL(c.APIURL); err != nil {
		return fmt.Errorf("COMPLAINTS_API_URL: %w", err)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("COMPLAINTS_TIMEOUT must be positive, got %s", c.Timeout)
	}
	if c.WatchInterval <= 0 {
		return fmt.Errorf("COMPLAINTS_WATCH_INTERVAL must be positive, got %s", c.WatchInterval)
	}

	switch strings.ToLower(c.TokenStore) {
	case kvstore.BackendMemory:
	case kvstore.BackendFile:
		if strings.TrimSpace(c.TokenDir) == "" {
			return fmt.Errorf("COMPLAINTS_TOKEN_DIR is required for the file token store")
		}
	case kvstore.BackendRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return fmt.Errorf("COMPLAINTS_REDIS_ADDR is required for the redis token store")
		}
	default:
		return fmt.Errorf("COMPLAINTS_TOKEN_STORE must be memory, file or redis, got %q", c.TokenStore)
	}

	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("COMPLAINTS_LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	return nil
}

// KVStore returns the token store settings.
func (c *Config) KVStore() kvstore.Config {
	return kvstore.Config{
		Backend:       c.TokenStore,
		Dir:           c.TokenDir,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
		RedisPrefix:   c.RedisPrefix,
		RedisTTL:      c.RedisTTL,
	}
}

// HTTP returns the HTTP client settings.
func (c *Config) HTTP() httputil.Config {
	return httputil.Config{BaseURL: c.APIURL, Timeout: c.Timeout}
}

// Logger returns logger settings for component.
func (c *Config) Logger(component string) logger.Config {
	return logger.Config{Component: component, Level: c.LogLevel, Format: c.LogFormat}
}

func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// overlay copies non-zero profile fields into cfg unless the matching
// environment variable is set.
func overlay(cfg, profile *Config) {
	dst := reflect.ValueOf(cfg).Elem()
	src := reflect.ValueOf(profile).Elem()
	typ := dst.Type()

	for i := 0; i < typ.NumField(); i++ {
		value := src.Field(i)
		if value.IsZero() {
			continue
		}
		name := strings.SplitN(typ.Field(i).Tag.Get("env"), ",", 2)[0]
		if name != "" {
			if env, ok := os.LookupEnv(name); ok && env != "" {
				continue
			}
		}
		dst.Field(i).Set(value)
	}
}
