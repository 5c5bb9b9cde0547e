// Package config loads querydeck settings from defaults, a YAML file, a .env
// file, QUERYDECK_ environment variables and command-line flags, in that
// order of precedence (lowest first).
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	// EnvPrefix prefixes every environment override. Nested keys are
	// separated by a double underscore: QUERYDECK_SERVER__ADDR.
	EnvPrefix = "QUERYDECK_"

	DefaultConfigFile = "querydeck.yaml"
	DefaultEnvFile    = ".env"
)

// Config holds all runtime settings.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Store    StoreConfig    `koanf:"store"`
	Secret   SecretConfig   `koanf:"secret"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`

	// File is the config file that was read, if any.
	File string `koanf:"-"`
}

type ServerConfig struct {
	Addr              string        `koanf:"addr"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

type StoreConfig struct {
	Path string `koanf:"path"`
}

type SecretConfig struct {
	// Key is a 64-character hex AES-256 key.
	Key     string `koanf:"key"`
	Keyring bool   `koanf:"keyring"`
}

type DatabaseConfig struct {
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	QueryTimeout    time.Duration `koanf:"query_timeout"`
	MaxConns        int           `koanf:"max_conns"`
	DefaultPageSize int64         `koanf:"default_page_size"`
}

type LogConfig struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
}

// Defaults returns the built-in settings as a flat koanf map.
func Defaults() map[string]any {
	return map[string]any{
		"server.addr":                ":3000",
		"server.read_header_timeout": 10 * time.Second,
		"server.shutdown_timeout":    5 * time.Second,
		"store.path":                 "data/querydeck.db",
		"secret.key":                 "",
		"secret.keyring":             true,
		"database.connect_timeout":   15 * time.Second,
		"database.query_timeout":     30 * time.Second,
		"database.max_conns":         4,
		"database.default_page_size": 50,
		"log.level":                  "info",
		"log.format":                 "text",
		"log.file":                   "",
		"log.max_size_mb":            10,
		"log.max_backups":            3,
		"log.max_age_days":           7,
	}
}

// flagKeys maps command-line flag names to config keys. Flags not listed
// here are command options, not settings.
var flagKeys = map[string]string{
	"addr":            "server.addr",
	"store":           "store.path",
	"secret-key":      "secret.key",
	"no-keyring":      "secret.keyring",
	"connect-timeout": "database.connect_timeout",
	"query-timeout":   "database.query_timeout",
	"max-conns":       "database.max_conns",
	"page-size":       "database.default_page_size",
	"log-level":       "log.level",
	"log-format":      "log.format",
	"log-file":        "log.file",
}

// Options tells Load where to look.
type Options struct {
	// ConfigFile is an explicit YAML path. When empty, querydeck.yaml in the
	// working directory is used if present.
	ConfigFile string
	// EnvFile defaults to .env. A missing file is not an error.
	EnvFile string
	// Flags, when set, override everything else. Only changed flags apply.
	Flags *pflag.FlagSet
}

// Load builds the configuration and validates it.
func Load(opts Options) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	cfgFile, err := findConfigFile(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading env file %s: %w", envFile, err)
	}
	if len(dotenv) > 0 {
		if err := k.Load(confmap.Provider(envMap(dotenv), "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if opts.Flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(opts.Flags, ".", k, flagValue(opts.Flags)), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = cfgFile

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		errs = append(errs, errors.New("server.read_header_timeout must be positive"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	if c.Store.Path == "" {
		errs = append(errs, errors.New("store.path must not be empty"))
	}
	if c.Secret.Key != "" {
		if b, err := hex.DecodeString(c.Secret.Key); err != nil || len(b) != 32 {
			errs = append(errs, errors.New("secret.key must be 64 hex characters"))
		}
	}
	if c.Database.ConnectTimeout <= 0 {
		errs = append(errs, errors.New("database.connect_timeout must be positive"))
	}
	if c.Database.QueryTimeout <= 0 {
		errs = append(errs, errors.New("database.query_timeout must be positive"))
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, errors.New("database.max_conns must be positive"))
	}
	if c.Database.DefaultPageSize <= 0 {
		errs = append(errs, errors.New("database.default_page_size must be positive"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not text or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// findConfigFile returns the explicit path, which must exist, or the
// default file when present.
func findConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return explicit, nil
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile, nil
	}
	return "", nil
}

// envKey turns QUERYDECK_SERVER__READ_HEADER_TIMEOUT into
// server.read_header_timeout.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func envMap(vars map[string]string) map[string]any {
	out := make(map[string]any, len(vars))
	for name, v := range vars {
		if !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		out[envKey(name)] = v
	}
	return out
}

func flagValue(flags *pflag.FlagSet) func(f *pflag.Flag) (string, any) {
	return func(f *pflag.Flag) (string, any) {
		if !f.Changed {
			return "", nil
		}
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		if f.Name == "no-keyring" {
			v, _ := flags.GetBool(f.Name)
			return key, !v
		}
		return key, posflag.FlagVal(flags, f)
	}
}
