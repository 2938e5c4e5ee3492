// Package config defines the redikv-server configuration structure, its
// defaults and its validation.
//
// Values are loaded by internal/infra/confloader from a YAML file, REDIKV_*
// environment variables and command-line flags, in increasing precedence.
package config
