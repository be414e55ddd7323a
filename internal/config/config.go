package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Token store backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the resolved client configuration.
type Config struct {
	APIURL         string
	RequestTimeout time.Duration
	PollInterval   time.Duration
	MetricsAddr    string
	TokenStore     TokenStore
	Log            Log
}

// TokenStore selects where the bearer token is persisted.
type TokenStore struct {
	Backend       string
	Path          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Log configures the zap logger.
type Log struct {
	Level  string
	Format string
	Output string
}

const (
	defaultConfigPath     = "~/.config/journey/config.toml"
	defaultSessionPath    = "~/.config/journey/session.toml"
	defaultAPIURL         = "127.0.0.1:8000"
	defaultRequestTimeout = 15 * time.Second
	defaultPollInterval   = 30 * time.Second
	defaultRedisAddr      = "127.0.0.1:6379"
	defaultRedisPrefix    = "journey:"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:         defaultAPIURL,
		RequestTimeout: defaultRequestTimeout,
		PollInterval:   defaultPollInterval,
		TokenStore: TokenStore{
			Backend:     BackendFile,
			Path:        mustExpand(defaultSessionPath),
			RedisAddr:   defaultRedisAddr,
			RedisPrefix: defaultRedisPrefix,
		},
		Log: Log{Level: "info", Format: "console", Output: "stderr"},
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL         string `toml:"api_url"`
		RequestTimeout int    `toml:"request_timeout_seconds"`
		PollSeconds    int    `toml:"poll_seconds"`
		MetricsAddr    string `toml:"metrics_addr"`
		TokenStore     struct {
			Backend       string `toml:"backend"`
			Path          string `toml:"path"`
			RedisAddr     string `toml:"redis_addr"`
			RedisPassword string `toml:"redis_password"`
			RedisDB       int    `toml:"redis_db"`
			RedisPrefix   string `toml:"redis_prefix"`
		} `toml:"token_store"`
		Log struct {
			Level  string `toml:"level"`
			Format string `toml:"format"`
			Output string `toml:"output"`
		} `toml:"log"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.APIURL = orDefault(raw.APIURL, defaultAPIURL)
	if raw.RequestTimeout > 0 {
		cfg.RequestTimeout = time.Duration(raw.RequestTimeout) * time.Second
	}
	if raw.PollSeconds > 0 {
		cfg.PollInterval = time.Duration(raw.PollSeconds) * time.Second
	}
	cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)

	ts := raw.TokenStore
	cfg.TokenStore.Backend = strings.ToLower(orDefault(ts.Backend, BackendFile))
	cfg.TokenStore.Path = mustExpand(orDefault(ts.Path, defaultSessionPath))
	cfg.TokenStore.RedisAddr = orDefault(ts.RedisAddr, defaultRedisAddr)
	cfg.TokenStore.RedisPassword = ts.RedisPassword
	cfg.TokenStore.RedisDB = ts.RedisDB
	cfg.TokenStore.RedisPrefix = orDefault(ts.RedisPrefix, defaultRedisPrefix)

	cfg.Log.Level = strings.ToLower(orDefault(raw.Log.Level, cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(orDefault(raw.Log.Format, cfg.Log.Format))
	cfg.Log.Output = orDefault(raw.Log.Output, cfg.Log.Output)
	switch strings.ToLower(cfg.Log.Output) {
	case "stdout", "stderr":
	default:
		cfg.Log.Output = mustExpand(cfg.Log.Output)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.TokenStore.Backend {
	case BackendFile, BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("token_store.backend %q: want file, memory or redis", c.TokenStore.Backend)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format %q: want console or json", c.Log.Format)
	}
	return nil
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
