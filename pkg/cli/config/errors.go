package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound     = goerr.New("configuration file not found")
	ErrInvalidConfig      = goerr.New("invalid configuration")
	ErrMissingCredential  = goerr.New("credential is required")
	ErrUnknownProvider    = goerr.New("unknown provider")
	ErrInvalidDuration    = goerr.New("invalid duration")
	ErrInvalidTemperature = goerr.New("temperature must be between 0 and 2")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	ProviderKey   = "provider"
	FieldKey      = "field"
)
