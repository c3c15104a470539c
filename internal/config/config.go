// Package config loads runtime settings: built-in defaults, then an optional
// YAML file, then AUTICONNECT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/auticonnect/internal/logging"
	"github.com/aretw0/auticonnect/internal/sanitize"
	"github.com/aretw0/auticonnect/pkg/adapters/file"
	"github.com/aretw0/auticonnect/pkg/mediation"
	"github.com/aretw0/auticonnect/pkg/persistence/middleware"
	"github.com/aretw0/auticonnect/pkg/session"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "AUTICONNECT_"

// Backend names.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendCanned = "canned"
	BackendArk    = "ark"
)

type LogConfig struct {
	Level  string `yaml:"level"  env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr" env:"ADDR"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"     env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db"       env:"DB"`
	Prefix   string `yaml:"prefix"   env:"PREFIX"`
}

type SessionConfig struct {
	Backend       string        `yaml:"backend"        env:"BACKEND"`
	TTL           time.Duration `yaml:"ttl"            env:"TTL"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"SWEEP_INTERVAL"`
	LockTTL       time.Duration `yaml:"lock_ttl"       env:"LOCK_TTL"`
	Dir           string        `yaml:"dir"            env:"DIR"`
	Redis         RedisConfig   `yaml:"redis"          envPrefix:"REDIS_"`
	// EncryptionKey is a base64 AES-256 key. Empty stores sessions in clear.
	EncryptionKey string   `yaml:"encryption_key"           env:"ENCRYPTION_KEY"`
	FallbackKeys  []string `yaml:"encryption_fallback_keys" env:"ENCRYPTION_FALLBACK_KEYS" envSeparator:","`
}

type StoreConfig struct {
	Backend string `yaml:"backend" env:"BACKEND"`
	Path    string `yaml:"path"    env:"PATH"`
}

type ArkConfig struct {
	APIKey  string `yaml:"api_key"  env:"API_KEY"`
	Model   string `yaml:"model"    env:"MODEL"`
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	Region  string `yaml:"region"   env:"REGION"`
}

type MediatorConfig struct {
	Backend       string        `yaml:"backend"        env:"BACKEND"`
	GroupCooldown time.Duration `yaml:"group_cooldown" env:"GROUP_COOLDOWN"`
	Ark           ArkConfig     `yaml:"ark"            envPrefix:"ARK_"`
}

// Encryption decodes the session keys. It returns nil when encryption is off.
func (s SessionConfig) Encryption() (*middleware.EncryptionConfig, error) {
	if s.EncryptionKey == "" {
		if len(s.FallbackKeys) > 0 {
			return nil, errors.New("session fallback keys require an encryption key")
		}
		return nil, nil
	}
	active, err := middleware.DecodeKey(s.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("session encryption key: %w", err)
	}
	enc := &middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range s.FallbackKeys {
		key, err := middleware.DecodeKey(k)
		if err != nil {
			return nil, fmt.Errorf("session fallback key %d: %w", i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	return enc, nil
}

// Config is the full runtime configuration.
type Config struct {
	Log          LogConfig      `yaml:"log"            envPrefix:"LOG_"`
	HTTP         HTTPConfig     `yaml:"http"           envPrefix:"HTTP_"`
	Session      SessionConfig  `yaml:"session"        envPrefix:"SESSION_"`
	Store        StoreConfig    `yaml:"store"          envPrefix:"STORE_"`
	Mediator     MediatorConfig `yaml:"mediator"       envPrefix:"MEDIATOR_"`
	MaxInputSize int            `yaml:"max_input_size" env:"MAX_INPUT_SIZE"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Log:  LogConfig{Level: "info", Format: string(logging.FormatText)},
		HTTP: HTTPConfig{Addr: ":8080"},
		Session: SessionConfig{
			Backend:       BackendMemory,
			TTL:           session.DefaultTTL,
			SweepInterval: time.Minute,
			LockTTL:       session.DefaultLockTTL,
			Dir:           file.DefaultDir,
			Redis:         RedisConfig{Addr: "localhost:6379", Prefix: "auticonnect:"},
		},
		Store: StoreConfig{Backend: BackendMemory, Path: "auticonnect.db"},
		Mediator: MediatorConfig{
			Backend:       BackendCanned,
			GroupCooldown: mediation.DefaultGroupCooldown,
		},
		MaxInputSize: sanitize.DefaultMaxInputSize,
	}
}

// Load builds the configuration. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate rejects unknown backends and non-positive durations.
func (c Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch logging.Format(c.Log.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http addr is required"))
	}

	switch c.Session.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Session.Dir == "" {
			errs = append(errs, errors.New("session dir is required for the file backend"))
		}
	case BackendRedis:
		if c.Session.Redis.Addr == "" {
			errs = append(errs, errors.New("session redis addr is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown session backend %q", c.Session.Backend))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session ttl must be positive"))
	}
	if c.Session.SweepInterval <= 0 {
		errs = append(errs, errors.New("session sweep interval must be positive"))
	}
	if c.Session.LockTTL <= 0 {
		errs = append(errs, errors.New("session lock ttl must be positive"))
	}
	if _, err := c.Session.Encryption(); err != nil {
		errs = append(errs, err)
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store path is required for sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}

	switch c.Mediator.Backend {
	case BackendCanned:
	case BackendArk:
		if c.Mediator.Ark.APIKey == "" || c.Mediator.Ark.Model == "" {
			errs = append(errs, errors.New("mediator ark requires api key and model"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown mediator backend %q", c.Mediator.Backend))
	}
	if c.Mediator.GroupCooldown < 0 {
		errs = append(errs, errors.New("mediator group cooldown must not be negative"))
	}

	if c.MaxInputSize <= 0 {
		errs = append(errs, errors.New("max input size must be positive"))
	}
	return errors.Join(errs...)
}
