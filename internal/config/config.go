package config

import (
	"errors"
	"fmt"
	"imgenhance/internal/core/domain"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	ErrMissingAPIKey = errors.New("fal.api_key is not set")
	ErrInvalidPort   = errors.New("invalid server port")
	ErrShortShutdown = errors.New("server.shutdown_timeout is shorter than the longest request")
)

type Config struct {
	Port            int
	ShutdownTimeout time.Duration
	LogLevel        string
	LogConsole      bool
	Strictness      domain.Strictness
	FAL             FAL
}

type FAL struct {
	EnhanceURL string
	APIKey     string
	Timeout    time.Duration
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

var envBindings = map[string]string{
	"server.port":             "PORT",
	"server.shutdown_timeout": "SERVER_SHUTDOWN_TIMEOUT",
	"server.log_level":        "LOG_LEVEL",
	"server.log_console":      "LOG_CONSOLE",
	"pipeline.strictness":     "PIPELINE_STRICTNESS",
	"fal.enhance_url":         "FAL_ENHANCE_URL",
	"fal.api_key":             "FAL_KEY",
	"fal.timeout":             "FAL_TIMEOUT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.shutdown_timeout", "130s")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_console", false)
	v.SetDefault("pipeline.strictness", string(domain.Strict))
	v.SetDefault("fal.enhance_url", "https://fal.run/fal-ai/clarity-upscaler")
	v.SetDefault("fal.timeout", "120s")
}

// Load reads config.toml from dir if present and applies environment overrides on top.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("could not bind %s: %w", env, err)
		}
	}

	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("toml")

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
		log.Info().Str("dir", dir).Msg("no config file found, using defaults and environment")
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	port := v.GetInt("server.port")
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPort, v.GetString("server.port"))
	}

	shutdownTimeout, err := time.ParseDuration(v.GetString("server.shutdown_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid server.shutdown_timeout: %w", err)
	}

	falTimeout, err := time.ParseDuration(v.GetString("fal.timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid fal.timeout: %w", err)
	}

	// a request may wait on the provider and on two probes, shutdown must outlast it
	longestRequest := falTimeout + 2*domain.ProbeTimeout
	if shutdownTimeout < longestRequest {
		return nil, fmt.Errorf("%w: %s < %s", ErrShortShutdown, shutdownTimeout, longestRequest)
	}

	strictness, err := domain.ParseStrictness(v.GetString("pipeline.strictness"))
	if err != nil {
		return nil, err
	}

	apiKey := v.GetString("fal.api_key")
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	return &Config{
		Port:            port,
		ShutdownTimeout: shutdownTimeout,
		LogLevel:        v.GetString("server.log_level"),
		LogConsole:      v.GetBool("server.log_console"),
		Strictness:      strictness,
		FAL: FAL{
			EnhanceURL: v.GetString("fal.enhance_url"),
			APIKey:     apiKey,
			Timeout:    falTimeout,
		},
	}, nil
}
