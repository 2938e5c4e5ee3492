// Package config holds redikv-cli settings.
//
// Settings come from ~/.redikv/cli.yaml (optional) and REDIKV_CLI_*
// environment variables; command-line flags override both.
package config
