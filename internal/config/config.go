// Package config loads server settings from command-line flags, falling back
// to environment variables and then to built-in defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/aoideee/bookshelf-api/internal/validator"
)

// Config holds all the values that can be tweaked at startup.
type Config struct {
	ServiceName string // Name attached to every log line
	Port        int    // TCP port the HTTP server listens on
	Environment string // development, staging or production
	LogLevel    string // debug, info, warn or error
	AMQPURL     string // RabbitMQ URL; empty disables event publishing
	Limiter     struct {
		Enabled bool
		RPS     float64 // Tokens added per second for each client IP
		Burst   int     // Bucket capacity for each client IP
	}
}

// Load parses args (normally os.Args[1:]).
func Load(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("bookshelf", flag.ContinueOnError)
	fs.StringVar(&cfg.ServiceName, "service-name", getEnv("SERVICE_NAME", "bookshelf"), "Service name used in logs")
	fs.IntVar(&cfg.Port, "port", getEnvInt("PORT", 9000), "Server port")
	fs.StringVar(&cfg.Environment, "env", getEnv("APP_ENV", "development"), "Environment (development|staging|production)")
	fs.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level (debug|info|warn|error)")
	fs.StringVar(&cfg.AMQPURL, "amqp-url", getEnv("AMQP_URL", ""), "RabbitMQ URL for book events (empty disables)")
	fs.BoolVar(&cfg.Limiter.Enabled, "limiter-enabled", getEnvBool("LIMITER_ENABLED", true), "Enable per-IP rate limiting")
	fs.Float64Var(&cfg.Limiter.RPS, "limiter-rps", getEnvFloat("LIMITER_RPS", 2), "Rate limiter requests per second")
	fs.IntVar(&cfg.Limiter.Burst, "limiter-burst", getEnvInt("LIMITER_BURST", 4), "Rate limiter burst")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	v := validator.New()
	v.Check(c.Port >= 0 && c.Port <= 65535, "port", "must be between 0 and 65535")
	v.Check(validator.In(c.Environment, "development", "staging", "production"), "env", "must be development, staging or production")
	v.Check(validator.In(c.LogLevel, "debug", "info", "warn", "error"), "log-level", "must be debug, info, warn or error")
	v.Check(!c.Limiter.Enabled || c.Limiter.RPS > 0, "limiter-rps", "must be greater than zero")
	v.Check(!c.Limiter.Enabled || c.Limiter.Burst > 0, "limiter-burst", "must be greater than zero")

	if key, message, failed := v.First(); failed {
		return fmt.Errorf("invalid -%s: %s", key, message)
	}
	return nil
}

// IsHelp reports whether err came from a -h or -help request.
func IsHelp(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	i, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return i
}

func getEnvFloat(key string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return b
}
