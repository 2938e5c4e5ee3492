package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/yndnr/redikv/internal/telemetry/logger"
)

// maxReadBufferSize matches the largest bulk string the codec accepts.
const maxReadBufferSize = 512 * 1024 * 1024

// Verify validates the configuration and reports every problem found.
func Verify(cfg *ServerConfig) error {
	return errors.Join(
		verifyServer(&cfg.Server),
		verifyStorage(&cfg.Storage),
		verifyMetrics(&cfg.Metrics),
		verifyLog(&cfg.Log),
	)
}

func verifyServer(cfg *ServerSection) error {
	var errs []error
	if cfg.Host == "" {
		errs = append(errs, errors.New("server.host is required"))
	}
	// Port 0 asks the kernel for a free port.
	if cfg.Port < 0 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range 0-65535", cfg.Port))
	}
	if cfg.MaxConnections < 1 {
		errs = append(errs, errors.New("server.max_connections must be at least 1"))
	}
	if cfg.PermitTimeout <= 0 {
		errs = append(errs, errors.New("server.permit_timeout must be positive"))
	}
	if cfg.ReadBufferSize < 16 || cfg.ReadBufferSize > maxReadBufferSize {
		errs = append(errs, fmt.Errorf("server.read_buffer_size %d out of range 16-%d", cfg.ReadBufferSize, maxReadBufferSize))
	}
	if cfg.RateLimit < 0 {
		errs = append(errs, errors.New("server.rate_limit must not be negative"))
	}
	return errors.Join(errs...)
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.EvictionInterval <= 0 {
		return errors.New("storage.eviction_interval must be positive")
	}
	return nil
}

func verifyMetrics(cfg *MetricsSection) error {
	if !cfg.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("metrics.addr %q: %w", cfg.Addr, err)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	var errs []error
	if !logger.ValidLevel(cfg.Level) {
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level))
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not json or text", cfg.Format))
	}
	return errors.Join(errs...)
}
