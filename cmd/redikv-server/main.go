// Package main provides the entry point for redikv-server.
//
// redikv-server is an in-memory key-value server speaking a subset of the
// Redis protocol (PING, ECHO, GET, SET with EX/PX).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/yndnr/redikv/internal/core/command"
	"github.com/yndnr/redikv/internal/infra/buildinfo"
	"github.com/yndnr/redikv/internal/infra/confloader"
	"github.com/yndnr/redikv/internal/infra/shutdown"
	"github.com/yndnr/redikv/internal/server/config"
	"github.com/yndnr/redikv/internal/server/httpserver"
	"github.com/yndnr/redikv/internal/server/redisserver"
	"github.com/yndnr/redikv/internal/storage/expiry"
	"github.com/yndnr/redikv/internal/storage/memory"
	"github.com/yndnr/redikv/internal/telemetry/logger"
	"github.com/yndnr/redikv/internal/telemetry/metric"
)

const shutdownTimeout = 10 * time.Second

// exitError carries the process exit code out of the cli action.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	if err := newApp().Run(args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		return shutdown.ExitError
	}
	return shutdown.ExitOK
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "redikv-server",
		Usage:   "in-memory key-value server speaking RESP",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "TCP port to listen on",
				Value:   config.DefaultPort,
			},
			&cli.IntFlag{
				Name:    "max-conn",
				Aliases: []string{"m"},
				Usage:   "maximum number of concurrent connections",
				Value:   config.DefaultMaxConnections,
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML config file",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "address to bind",
				Value: config.DefaultHost,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "serve /metrics and /health on this address",
			},
		},
		Action: serve,
	}
}

// overrides maps explicitly set flags onto config keys. Unset flags are left
// out so file and environment values survive.
func overrides(c *cli.Context) map[string]any {
	m := map[string]any{}
	if c.IsSet("port") {
		m["server.port"] = c.Int("port")
	}
	if c.IsSet("max-conn") {
		m["server.max_connections"] = c.Int("max-conn")
	}
	if c.IsSet("host") {
		m["server.host"] = c.String("host")
	}
	if c.IsSet("log-level") {
		m["log.level"] = c.String("log-level")
	}
	if c.IsSet("metrics-addr") {
		m["metrics.enabled"] = true
		m["metrics.addr"] = c.String("metrics-addr")
	}
	return m
}

func loadConfig(c *cli.Context) (*config.ServerConfig, *confloader.Loader, error) {
	opts := []confloader.Option{confloader.WithOverrides(overrides(c))}
	if path := c.String("config"); path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	loader := confloader.NewLoader(opts...)

	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		return nil, nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, nil, err
	}
	return cfg, loader, nil
}

func serve(c *cli.Context) error {
	cfg, loader, err := loadConfig(c)
	if err != nil {
		return &exitError{code: shutdown.ExitError, err: fmt.Errorf("load config: %w", err)}
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	if err != nil {
		return &exitError{code: shutdown.ExitError, err: fmt.Errorf("init logger: %w", err)}
	}
	logger.SetDefault(log)
	slogger := logger.Slog(log)

	log.Info("starting redikv-server",
		"build", buildinfo.Get(),
		"config", loader.FilePath(),
	)

	var reg *metric.Registry
	if cfg.Metrics.Enabled {
		reg = metric.NewRegistry()
	}

	store := memory.New()
	router := command.NewRouter(store, command.WithMetrics(reg))
	sweeper := expiry.New(store,
		expiry.WithInterval(cfg.Storage.EvictionInterval),
		expiry.WithLogger(slogger),
		expiry.WithMetrics(reg),
	)
	srv := redisserver.New(&redisserver.Config{
		Address:        cfg.Server.Address(),
		MaxConnections: cfg.Server.MaxConnections,
		PermitTimeout:  cfg.Server.PermitTimeout,
		ReadBufferSize: cfg.Server.ReadBufferSize,
		RateLimit:      cfg.Server.RateLimit,
		ReplyErrors:    cfg.Server.ReplyErrors,
	}, router,
		redisserver.WithLogger(slogger),
		redisserver.WithMetrics(reg),
	)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	startupErr := func(err error) error {
		return &exitError{code: shutdown.ExitError, err: err}
	}

	if err := srv.Start(gctx); err != nil {
		return startupErr(err)
	}

	sh := shutdown.NewHandler(shutdownTimeout)
	sh.OnShutdown(func(context.Context) error {
		cancel()
		return nil
	})

	if reg != nil {
		if err := reg.Register(metric.NewStoreCollector(store)); err != nil {
			_ = srv.Shutdown(context.Background())
			return startupErr(fmt.Errorf("register store metrics: %w", err))
		}
		hs := httpserver.New(cfg.Metrics.Addr, httpserver.NewRouter(&httpserver.RouterConfig{
			Metrics: reg,
			Logger:  slogger,
			Health: func() map[string]any {
				return map[string]any{
					"version": buildinfo.Version,
					"keys":    store.Len(),
				}
			},
		}))
		if err := hs.Listen(); err != nil {
			_ = srv.Shutdown(context.Background())
			return startupErr(err)
		}
		log.Info("ops endpoint listening", "address", hs.Addr().String())
		g.Go(hs.Serve)
		sh.OnShutdown(func(ctx context.Context) error {
			log.Info("shutting down ops endpoint")
			return hs.Shutdown(ctx)
		})
	}

	log.Info("expiry sweeper running", "interval", sweeper.Interval())
	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	sh.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down RESP server")
		return srv.Shutdown(ctx)
	})

	if path := loader.FilePath(); path != "" {
		w, err := watchLogLevel(loader, path, log, slogger)
		if err != nil {
			log.Warn("config hot reload disabled", "error", err)
		} else {
			sh.OnShutdown(func(context.Context) error { return w.Stop() })
		}
	}

	// A failing component, such as the sweeper on a clock error, stops the
	// whole process.
	go func() {
		<-gctx.Done()
		sh.Trigger()
	}()

	log.Info("server started, press Ctrl+C to stop")
	waitErr := sh.Wait(ctx)
	groupErr := g.Wait()

	if waitErr != nil {
		log.Error("shutdown failed", "error", waitErr)
		return &exitError{code: shutdown.ExitCode(waitErr), err: waitErr}
	}
	if groupErr != nil {
		log.Error("server stopped on error", "error", groupErr)
		return &exitError{code: shutdown.ExitError, err: groupErr}
	}

	log.Info("server stopped gracefully")
	return nil
}

// watchLogLevel applies log.level changes in the config file without a
// restart.
func watchLogLevel(loader *confloader.Loader, path string, log logger.Logger, slogger *slog.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(slogger))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Stop()
		return nil, err
	}

	w.OnChange(loader.OnKeyChange("log.level",
		func(level string) {
			if !logger.ValidLevel(level) {
				log.Warn("ignoring invalid log level", "level", level)
				return
			}
			logger.SetLevel(level)
			log.Info("log level changed", "level", level)
		},
		func(err error) {
			log.Warn("config reload failed", "error", err)
		},
	))
	w.StartAsync()
	return w, nil
}
