// Package config loads gymsync settings from flags, the environment,
// an optional .env file and an optional gymsync.yaml, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "GYMSYNC"
	FileName  = "gymsync"
)

type Config struct {
	BackendURL     string        `mapstructure:"backend_url"`
	ListenAddr     string        `mapstructure:"listen_addr"`
	TokenDB        string        `mapstructure:"token_db"` // empty keeps the session in memory only
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`
}

// InMemory reports whether the session should not survive a restart.
func (c *Config) InMemory() bool {
	return strings.TrimSpace(c.TokenDB) == ""
}

// New returns a viper instance with defaults and environment bindings set.
// Callers may bind flags onto it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("backend_url", "http://localhost:8000")
	v.SetDefault("listen_addr", "127.0.0.1:3000")
	v.SetDefault("token_db", DefaultTokenDB())
	v.SetDefault("request_timeout", "10s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true) // GYMSYNC_TOKEN_DB= selects the in-memory store
	v.AutomaticEnv()
	_ = v.BindEnv("config", EnvPrefix+"_CONFIG")

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "gymsync"))
	}
	return v
}

// DefaultTokenDB is <user config dir>/gymsync/session.db, or empty when the
// platform has no config dir.
func DefaultTokenDB() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "gymsync", "session.db")
}

// LoadDotEnv loads the given .env files (".env" when none are given) into the
// process environment. Missing files are skipped; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Debug("no .env file found", "path", f)
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the config file if one exists and decodes the result.
// An explicit file set through the "config" key must exist.
func Load(v *viper.Viper) (*Config, error) {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: backend_url must be an http(s) URL, got %q", c.BackendURL)
	}
	if c.ListenAddr == "" {
		return errors.New("config: listen_addr is required")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("config: request_timeout must not be negative, got %s", c.RequestTimeout)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("config: log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// ParseLevel maps log_level onto a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: invalid log_level %q", s)
	}
	return l, nil
}
