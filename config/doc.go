// Package config loads the service configuration from an optional config.yaml
// and environment variables, applies defaults and validates the result.
//
// Environment variables use the key path in upper case with dots replaced by
// underscores, e.g. DATASOURCE_URL or CIRCUIT_BREAKER_ENGINE.
package config
