// Package config loads and validates the TOML configuration shared by the
// rlviz CLI and viewer server. Defaults live in defaults.go; the embedded
// sample_config.toml documents every key for `rlviz config init`.
package config
