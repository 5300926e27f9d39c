// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 keyspring Contributors

// Package config loads service configuration from defaults, an optional
// YAML file, command-line flags and the environment.
package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Environment variables consulted for secrets. Secrets never live in the
// config file.
const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvSigningKey  = "KEYSPRING_JWT_SECRET"
)

// Config holds the full service configuration.
type Config struct {
	ListenAddr  string `koanf:"listen_addr"`
	MetricsAddr string `koanf:"metrics_addr"`
	LogFormat   string `koanf:"log_format"`
	AutoMigrate bool   `koanf:"auto_migrate"`

	// TokenLifetime bounds every issued token; iat+lifetime = exp.
	TokenLifetime time.Duration `koanf:"token_lifetime"`

	// Argon2 cost profile; zero values fall back to the defaults.
	Argon2 Argon2Config `koanf:"argon2"`

	// Secrets, environment-only.
	DatabaseURL string `koanf:"-"`
	SigningKey  string `koanf:"-"`
}

// Argon2Config is the configurable slice of the hashing cost profile.
type Argon2Config struct {
	Time    uint32 `koanf:"time"`
	Memory  uint32 `koanf:"memory"`
	Threads uint8  `koanf:"threads"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		ListenAddr:    ":8080",
		MetricsAddr:   "127.0.0.1:9100",
		LogFormat:     "json",
		AutoMigrate:   false,
		TokenLifetime: time.Hour,
	}
}

// Load merges configuration in precedence order: defaults, then the YAML
// file at path (if non-empty), then the given flag set, then secrets from
// the environment. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := Defaults()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_FILE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	cfg.DatabaseURL = os.Getenv(EnvDatabaseURL)
	cfg.SigningKey = os.Getenv(EnvSigningKey)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is serviceable.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("listen_addr is required")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			With("log_format", c.LogFormat).
			Errorf("log_format must be 'json' or 'text'")
	}
	if c.TokenLifetime <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("token_lifetime must be positive")
	}
	return nil
}
