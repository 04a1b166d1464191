package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime setting of the account service. Values come from
// environment variables; nothing else in the service reads the environment.
type Config struct {
	EnvVars
	Cors     Cors     `envPrefix:"CORS_"`
	Session  Session  `envPrefix:"SESSION_"`
	Password Password `envPrefix:"PASSWORD_"`
	Mail     Mail
	Store    Store
	Avatar   Avatar `envPrefix:"AVATAR_"`
	Minio    Minio  `envPrefix:"MINIO_"`
	S3       S3     `envPrefix:"S3_"`
}

// New loads the configuration from the process environment.
func New() (*Config, error) {
	return Parse(env.Options{})
}

// Parse loads the configuration with explicit options. Tests pass
// env.Options{Environment: map[string]string{...}} to avoid touching os.Environ.
func Parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Session.Secret == "" && cfg.IsDev() {
		cfg.Session.Secret = DevSessionSecret
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case StoreMemory, StorePostgres, StoreMongo, StoreSQLite:
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.Store.Driver)
	}
	switch c.Avatar.Backend {
	case AvatarInline, AvatarMinio, AvatarS3:
	default:
		return fmt.Errorf("config: unknown AVATAR_BACKEND %q", c.Avatar.Backend)
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("config: SESSION_SECRET must be set outside DEV")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("config: SESSION_TTL must be positive")
	}
	if c.Avatar.MaxBytes <= 0 {
		return fmt.Errorf("config: AVATAR_MAX_BYTES must be positive")
	}
	return nil
}
