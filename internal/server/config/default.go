package config

import "time"

// Default configuration values.
const (
	DefaultHost           = "127.0.0.1"
	DefaultPort           = 6379
	DefaultMaxConnections = 100
	DefaultPermitTimeout  = 5000 * time.Millisecond
	DefaultReadBufferSize = 4096

	DefaultEvictionInterval = 100 * time.Millisecond

	DefaultMetricsAddr = "127.0.0.1:9121"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Host:           DefaultHost,
			Port:           DefaultPort,
			MaxConnections: DefaultMaxConnections,
			PermitTimeout:  DefaultPermitTimeout,
			ReadBufferSize: DefaultReadBufferSize,
			ReplyErrors:    true,
		},
		Storage: StorageSection{
			EvictionInterval: DefaultEvictionInterval,
		},
		Metrics: MetricsSection{
			Enabled: false,
			Addr:    DefaultMetricsAddr,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
