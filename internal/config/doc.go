// Package config handles configuration loading, parsing, and validation.
// Settings come from environment variables with the BOOKIT_ prefix and from
// an optional YAML config file, with the environment taking precedence. It
// provides type-safe access to application settings needed by different
// components while keeping configuration details separate from business logic.
package config
