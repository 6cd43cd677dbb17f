// Package config provides configuration loading and validation for the voice service.
// It handles YAML-based configuration layered over built-in defaults, with
// environment overrides for backend endpoints and secrets.
package config
