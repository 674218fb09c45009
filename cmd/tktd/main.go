package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	apiPkg "github.com/h1v3-io/tkt/internal/api"
	"github.com/h1v3-io/tkt/internal/config"
	"github.com/h1v3-io/tkt/internal/connector"
	slackconn "github.com/h1v3-io/tkt/internal/connector/slack"
	"github.com/h1v3-io/tkt/internal/connector/telegram"
	"github.com/h1v3-io/tkt/internal/connector/webhook"
	"github.com/h1v3-io/tkt/internal/desk"
	"github.com/h1v3-io/tkt/internal/logbuf"
	"github.com/h1v3-io/tkt/internal/scheduler"
	"github.com/h1v3-io/tkt/internal/sentry"
	"github.com/h1v3-io/tkt/internal/ticket"
	"github.com/h1v3-io/tkt/internal/watch"
)

var version = "dev"

type options struct {
	configPath  string
	configURL   string
	configToken string
	seed        bool
	verbose     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", os.Getenv("TKT_CONFIG"), "Path to config file (.json, .yaml, .toml)")
	flag.StringVar(&opts.configURL, "config-url", os.Getenv("TKT_CONFIG_URL"), "URL to fetch the config from")
	flag.StringVar(&opts.configToken, "config-token", os.Getenv("TKT_CONFIG_TOKEN"), "Bearer token for -config-url")
	flag.BoolVar(&opts.seed, "seed", false, "Create demo tickets when the store is empty")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose logging")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintln(os.Stderr, "tktd:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	// Load config (3 modes: file, remote, env)
	cfg, err := loadConfig(ctx, opts)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := sentry.Init(sentry.Options{
		DSN:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
		Release:     version,
	}); err != nil {
		return err
	}
	defer sentry.Flush()

	level := logbuf.ParseLevel(cfg.Log.Level)
	if opts.verbose {
		level = slog.LevelDebug
	}
	logBuf := logbuf.New(2000)
	logger := newLogger(os.Stdout, cfg.Log.Format, level, logBuf)
	slog.SetDefault(logger)

	logger.Info("tktd starting", "version", version, "backend", cfg.Store.Backend, "path", cfg.Store.Path)

	// 1. Ticket store
	backend, err := ticket.NewBackend(cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		return err
	}
	if c, ok := backend.(io.Closer); ok {
		defer c.Close()
	}
	store, err := ticket.Open(backend, ticket.WithLogger(logger))
	if err != nil {
		return err
	}

	deskCfg := desk.Config{Store: store, Logger: logger}
	jsonFile, isJSON := backend.(*ticket.JSONFile)
	if isJSON {
		deskCfg.Detector = jsonFile
	}
	d := desk.New(deskCfg)

	if opts.seed {
		n, err := d.Seed(desk.DemoTickets)
		if err != nil {
			return err
		}
		logger.Info("demo tickets seeded", "created", n)
	}

	// 2. API server, with the webhook connector mounted on it
	apiSrv := apiPkg.NewServer(d, apiPkg.Config{
		Host: cfg.API.Host,
		Port: cfg.API.Port,
		Key:  cfg.API.Key,
	}, logger, logBuf)

	handler := connector.DeskHandler(d)
	if wh := cfg.Connectors.Webhook; wh != nil {
		apiSrv.Mount("POST /api/webhook/{name}", webhook.New(webhookConfig(wh), handler, logger))
		logger.Info("webhook connector mounted", "endpoints", len(wh.Endpoints))
	}

	// 3. Chat connectors
	conns, err := buildConnectors(cfg, handler, logger)
	if err != nil {
		return err
	}
	for _, c := range conns {
		go safeGo(logger, c.Name(), func() {
			if err := c.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("connector stopped", "connector", c.Name(), "error", err)
			}
		})
	}

	// 4. Digest schedule
	if cfg.Digest.Schedule != "" {
		sched := scheduler.New(logger)
		if err := sched.AddJob(scheduler.DigestJobName, cfg.Digest.Schedule, scheduler.Digest(d, logger)); err != nil {
			return err
		}
		go safeGo(logger, "scheduler", func() { sched.Start(ctx) })
	}

	// 5. External change watcher
	if cfg.Store.Watch && isJSON {
		w := watch.New(jsonFile.Path(), func() {
			if _, err := d.CheckExternalChange(); err != nil {
				logger.Warn("change check failed", "error", err)
			}
		}, logger)
		go safeGo(logger, "watcher", func() {
			if err := w.Run(ctx); err != nil {
				logger.Error("watcher stopped", "error", err)
			}
		})
	}

	// 6. Serve until a signal arrives
	errCh := make(chan error, 1)
	go safeGo(logger, "api-server", func() { errCh <- apiSrv.Start(ctx) })

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("received signal, shutting down")
		// Give the API server its shutdown window.
		select {
		case <-errCh:
		case <-time.After(6 * time.Second):
		}
	}
	for _, c := range conns {
		c.Stop()
	}
	logger.Info("tktd stopped")
	return nil
}

func loadConfig(ctx context.Context, opts options) (*config.Config, error) {
	switch {
	case opts.configPath != "":
		return config.Load(opts.configPath)
	case opts.configURL != "":
		return config.LoadRemote(ctx, config.RemoteOptions{URL: opts.configURL, Token: opts.configToken})
	default:
		return config.LoadFromEnv()
	}
}

func buildConnectors(cfg *config.Config, handler connector.InboundHandler, logger *slog.Logger) ([]connector.Connector, error) {
	var conns []connector.Connector
	if tg := cfg.Connectors.Telegram; tg != nil {
		c, err := telegram.New(telegram.Config{Token: tg.Token, AllowFrom: tg.AllowFrom}, handler, logger)
		if err != nil {
			return nil, err
		}
		conns = append(conns, c)
	}
	if sc := cfg.Connectors.Slack; sc != nil {
		c, err := slackconn.New(slackconn.Config{
			BotToken: sc.BotToken,
			AppToken: sc.AppToken,
			Channels: sc.Channels,
		}, handler, logger)
		if err != nil {
			return nil, err
		}
		conns = append(conns, c)
	}
	return conns, nil
}

func webhookConfig(wh *config.WebhookConfig) webhook.Config {
	out := webhook.Config{Endpoints: make(map[string]webhook.EndpointConfig, len(wh.Endpoints))}
	for name, ep := range wh.Endpoints {
		out.Endpoints[name] = webhook.EndpointConfig{Secret: ep.Secret, BearerToken: ep.BearerToken}
	}
	return out
}

// newLogger builds the handler chain: console output, then the in-memory
// buffer behind /api/logs, then Sentry when it is enabled.
func newLogger(w io.Writer, format string, level slog.Level, buf *logbuf.Buffer) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if format == "text" {
		h = slog.NewTextHandler(w, hopts)
	} else {
		h = slog.NewJSONHandler(w, hopts)
	}
	h = logbuf.NewHandler(h, buf)
	if sentry.IsEnabled() {
		h = sentry.NewHandler(h)
	}
	return slog.New(h)
}

// safeGo runs fn with panic recovery.
func safeGo(logger *slog.Logger, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("goroutine panicked", "name", name, "panic", fmt.Sprintf("%v", r))
			sentry.CapturePanic(name, r)
		}
	}()
	fn()
}
