// Package config handles launcher service configuration from environment
// variables and YAML files.
//
// Configuration is loaded in layers: struct-tag defaults, then an
// optional config.yaml next to the executable (or GL_CONFIG_FILE), then
// GL_-prefixed environment variables, which win. Secrets such as the
// device salt and the store token are always externally supplied.
package config
