package config

import (
	"net"
	"strconv"
	"time"
)

// ServerConfig is the root configuration for redikv-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Metrics MetricsSection `koanf:"metrics"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures the RESP listener and connection admission.
type ServerSection struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// MaxConnections is the number of clients served at once.
	MaxConnections int `koanf:"max_connections"`

	// PermitTimeout bounds how long an accepted connection waits for a slot.
	PermitTimeout time.Duration `koanf:"permit_timeout"`

	// ReadBufferSize is the largest request accepted in one read.
	ReadBufferSize int `koanf:"read_buffer_size"`

	// RateLimit is requests per second per client IP, 0 to disable.
	RateLimit int `koanf:"rate_limit"`

	// ReplyErrors sends "-ERR" before closing on a request error.
	ReplyErrors bool `koanf:"reply_errors"`
}

// Address returns host:port.
func (s ServerSection) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// StorageSection configures the in-memory store.
type StorageSection struct {
	// EvictionInterval is the pause between two active expiry passes.
	EvictionInterval time.Duration `koanf:"eviction_interval"`
}

// MetricsSection configures the ops HTTP endpoint.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
