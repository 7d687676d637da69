// Package config loads application configuration from environment variables
// using envconfig. Every field carries a default, so an empty environment
// yields a runnable HTTP-only setup.
package config
