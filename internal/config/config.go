// Package config loads the application configuration from defaults, an
// optional .env file, command-line flags and environment variables, in
// increasing order of priority, and validates the result.
package config

import (
	"flag"
	"log"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all runtime settings of the service.
type Config struct {
	RunAddr                    string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	ShortURLBase               string        `env:"BASE_URL" validate:"url"`
	LogLevel                   string        `env:"LOG_LEVEL" validate:"loglevel"`
	AuthCookieName             string        `env:"AUTH_COOKIE_NAME" validate:"required"`
	AuthCookieSigningSecretKey string        `env:"AUTH_COOKIE_SIGNING_SECRET_KEY" validate:"required,base64url"`
	PasswordHashCost           int           `env:"PASSWORD_HASH_COST" validate:"min=4,max=31"`
	ShortKeyLength             int           `env:"SHORT_KEY_LENGTH" validate:"min=1"`
	TrustedSubnet              string        `env:"TRUSTED_SUBNET" validate:"omitempty,cidr"`
	ShutdownTimeout            time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

var defaultConfig = Config{
	RunAddr:        ":8080",
	ShortURLBase:   "http://localhost:8080",
	LogLevel:       "info",
	AuthCookieName: "tinylinks_session",
	// Development-only key; override via env in any real deployment.
	AuthCookieSigningSecretKey: "c2VjcmV0LWRldi1zaWduaW5nLWtleQ==",
	PasswordHashCost:           10,
	ShortKeyLength:             6,
	ShutdownTimeout:            10 * time.Second,
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[value]
}

func (c *Config) validate() error {
	validate := validator.New()

	if err := validate.RegisterValidation("loglevel", validateLogLevel); err != nil {
		return err
	}

	return validate.Struct(c)
}

// InitOption customizes config loading.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing skips flag.Parse; tests use this so the test
// binary's own flags are left alone.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// New loads and validates the configuration.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	values := defaultConfig

	if !options.disableFlagsParsing {
		flag.StringVar(&values.RunAddr, "a", values.RunAddr, "address and port to run server")
		flag.StringVar(&values.ShortURLBase, "b", values.ShortURLBase, "base address of the resulting shortened URL")
		flag.StringVar(&values.LogLevel, "l", values.LogLevel, "logger level")
		flag.IntVar(&values.ShortKeyLength, "k", values.ShortKeyLength, "length of generated short keys")
		flag.StringVar(&values.TrustedSubnet, "t", values.TrustedSubnet, "trusted subnet for the internal stats endpoint, in CIDR notation")
		flag.Parse()
	}

	var valuesFromEnv Config
	if err := env.Parse(&valuesFromEnv); err != nil {
		return nil, err
	}

	if valuesFromEnv.RunAddr != "" {
		values.RunAddr = valuesFromEnv.RunAddr
	}

	if valuesFromEnv.ShortURLBase != "" {
		values.ShortURLBase = valuesFromEnv.ShortURLBase
	}

	if valuesFromEnv.LogLevel != "" {
		values.LogLevel = valuesFromEnv.LogLevel
	}

	if valuesFromEnv.AuthCookieName != "" {
		values.AuthCookieName = valuesFromEnv.AuthCookieName
	}

	if valuesFromEnv.AuthCookieSigningSecretKey != "" {
		values.AuthCookieSigningSecretKey = valuesFromEnv.AuthCookieSigningSecretKey
	}

	if valuesFromEnv.PasswordHashCost != 0 {
		values.PasswordHashCost = valuesFromEnv.PasswordHashCost
	}

	if valuesFromEnv.ShortKeyLength != 0 {
		values.ShortKeyLength = valuesFromEnv.ShortKeyLength
	}

	if valuesFromEnv.TrustedSubnet != "" {
		values.TrustedSubnet = valuesFromEnv.TrustedSubnet
	}

	if valuesFromEnv.ShutdownTimeout != 0 {
		values.ShutdownTimeout = valuesFromEnv.ShutdownTimeout
	}

	if err := values.validate(); err != nil {
		return nil, err
	}

	return &values, nil
}
