package config

import (
	"strings"

	"github.com/rs/zerolog"
)

// EnvVars are the process level settings.
type EnvVars struct {
	Env      string `env:"ENV" envDefault:"DEV"`
	AppName  string `env:"APP_NAME" envDefault:"Account Service"`
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// GetPort returns the listen address in ":port" form
func (e EnvVars) GetPort() string {
	port := e.Port
	if port == "" {
		port = "8080"
	}
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return strings.ToUpper(e.Env)
}

func (e EnvVars) IsDev() bool {
	return e.GetEnv() == "DEV"
}

// GetLogLevel falls back to info for unknown level names
func (e EnvVars) GetLogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(e.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
