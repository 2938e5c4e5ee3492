// Package confloader loads configuration with koanf and watches the config
// file with fsnotify.
//
// Sources, later ones overriding earlier ones:
//
//  1. values already present in the target struct (defaults)
//  2. the YAML config file
//  3. REDIKV_* environment variables
//  4. overrides supplied by the caller, usually command-line flags
//
// An environment variable maps to a key by dropping the prefix, lowering the
// case and turning the first underscore into a dot:
// REDIKV_SERVER_MAX_CONNECTIONS is server.max_connections.
package confloader
