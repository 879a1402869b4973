// Package config loads, normalizes, and validates photoflow's TOML
// configuration. Defaults live in defaults.go and a documented sample is
// embedded for `photoflow config init`.
package config
