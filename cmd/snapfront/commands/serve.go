package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/snapfront/internal/config"
	"git.home.luguber.info/inful/snapfront/internal/github"
	"git.home.luguber.info/inful/snapfront/internal/marketo"
	"git.home.luguber.info/inful/snapfront/internal/metrics"
	"git.home.luguber.info/inful/snapfront/internal/retry"
	"git.home.luguber.info/inful/snapfront/internal/server/httpserver"
	"git.home.luguber.info/inful/snapfront/internal/storeapi"
	"git.home.luguber.info/inful/snapfront/internal/upstream"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr string `help:"Listen address (overrides server.addr)"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if s.Addr != "" {
		cfg.Server.Addr = s.Addr
	}
	logger := cfg.Logging.NewLogger(os.Stderr, root.Verbose)
	slog.SetDefault(logger)
	g.Logger = logger

	srv, err := NewServer(cfg, logger)
	if err != nil {
		return err
	}
	return RunServer(srv, cfg, logger)
}

// NewServer wires the upstream clients and metrics into an HTTP server.
func NewServer(cfg *config.Config, logger *slog.Logger) (*httpserver.Server, error) {
	deps := httpserver.Dependencies{Recorder: metrics.NoopRecorder{}}
	if cfg.Metrics.Enabled {
		reg := metrics.NewRegistry()
		deps.Recorder = metrics.NewPrometheusRecorder(reg)
		deps.PrometheusHandler = metrics.HTTPHandler(reg)
	}

	common := []upstream.Option{
		upstream.WithRetryPolicy(retry.FromConfig(cfg.Retry)),
		upstream.WithRecorder(deps.Recorder),
		upstream.WithLogger(logger),
	}
	with := func(extra ...upstream.Option) []upstream.Option {
		return append(append([]upstream.Option{}, common...), extra...)
	}

	deps.Store = storeapi.New(cfg.Store.APIURL, with(upstream.WithTimeout(cfg.Store.Timeout))...)
	deps.GitHub = github.New(cfg.GitHub.APIURL, with(upstream.WithTimeout(cfg.GitHub.Timeout))...)
	deps.Newsletter = marketo.New(marketo.Config{
		BaseURL:      cfg.Marketo.BaseURL,
		ClientID:     cfg.Marketo.ClientID,
		ClientSecret: cfg.Marketo.ClientSecret,
	}, with(
		upstream.WithTimeout(cfg.Marketo.Timeout),
		upstream.WithRateLimit(cfg.Marketo.RequestsPerSecond, cfg.Marketo.Burst),
	)...)

	return httpserver.New(cfg, deps, logger)
}

// RunServer starts srv and blocks until SIGINT or SIGTERM, then shuts down
// within the configured timeout.
func RunServer(srv *httpserver.Server, cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	logger.Info("Shutdown signal received, stopping server...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stopCancel()
	if err := srv.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	return nil
}
