// Package httpserver wires the snapfront handlers into a chi router and runs it.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/snapfront/internal/config"
	"git.home.luguber.info/inful/snapfront/internal/foundation/errors"
	"git.home.luguber.info/inful/snapfront/internal/metrics"
	"git.home.luguber.info/inful/snapfront/internal/server/handlers"
	smw "git.home.luguber.info/inful/snapfront/internal/server/middleware"
	"git.home.luguber.info/inful/snapfront/internal/session"
)

// Server serves the admin pages, publisher views and status endpoints.
type Server struct {
	cfg          *config.Config
	deps         Dependencies
	logger       *slog.Logger
	router       *chi.Mux
	httpServer   *http.Server
	errorAdapter *errors.HTTPErrorAdapter

	// Handler modules
	monitoringHandlers *handlers.MonitoringHandlers
	adminHandlers      *handlers.AdminHandlers
	publisherHandlers  *handlers.PublisherHandlers
	accountHandlers    *handlers.AccountHandlers
}

// New constructs the server and its routes.
func New(cfg *config.Config, deps Dependencies, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Recorder == nil {
		deps.Recorder = metrics.NoopRecorder{}
	}
	views, err := handlers.NewViews()
	if err != nil {
		return nil, err
	}

	sessions := session.NewStore([]byte(cfg.Server.SecretKey),
		session.WithCookieName(cfg.Server.SessionCookie),
		session.WithTTL(cfg.Server.SessionTTL),
		session.WithSecure(cfg.Server.SecureCookies))

	s := &Server{
		cfg:          cfg,
		deps:         deps,
		logger:       logger,
		errorAdapter: errors.NewHTTPErrorAdapter(logger),
	}
	s.monitoringHandlers = handlers.NewMonitoringHandlers(time.Now())
	s.adminHandlers = handlers.NewAdminHandlers(deps.Store, sessions, views, handlers.AdminConfig{
		LoginURL:     cfg.Server.LoginURL,
		AgreementURL: cfg.Server.AgreementURL,
	}, logger)
	s.publisherHandlers = handlers.NewPublisherHandlers(deps.GitHub, cfg.Builds.BSIURL, logger)
	s.accountHandlers = handlers.NewAccountHandlers(deps.Newsletter, logger)

	s.router = s.routes(sessions)
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(sessions *session.Store) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(smw.Chain(s.logger, s.errorAdapter, s.deps.Recorder))

	r.Get("/_status/check", s.monitoringHandlers.HandleHealthCheck)
	if s.cfg.Metrics.Enabled && s.deps.PrometheusHandler != nil {
		r.Handle("/_status/metrics", s.deps.PrometheusHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(smw.Session(sessions))
		r.Use(smw.RequireLogin(s.cfg.Server.LoginURL))
		r.Use(smw.CSRF(s.errorAdapter))

		r.Get("/admin", s.adminHandlers.HandleStores)
		r.Route("/admin/{store_id}", func(r chi.Router) {
			r.Get("/snaps", s.adminHandlers.HandleSnaps)
			r.Get("/members", s.adminHandlers.HandleMembers)
			r.Get("/members/manage", s.adminHandlers.HandleManageMembers)
			r.Post("/members/manage", s.adminHandlers.HandleUpdateMembers)
			r.Post("/members/invite", s.adminHandlers.HandleInviteMembers)
			r.Get("/settings", s.adminHandlers.HandleSettings)
			r.Post("/settings", s.adminHandlers.HandleUpdateSettings)
			r.Get("/models", s.adminHandlers.HandleModels)
		})

		r.Get("/publisher/github/get-repos", s.publisherHandlers.HandleGetRepos)
		r.Post("/publisher/builds/status", s.publisherHandlers.HandleBuildStatus)
		r.Get("/publisher/builds/link", s.publisherHandlers.HandleBuildLink)

		r.Get("/account/newsletter", s.accountHandlers.HandleGetNewsletter)
		r.Post("/account/newsletter", s.accountHandlers.HandleSetNewsletter)
	})
	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the listen address and serves in the background. Binding
// happens before returning so address conflicts surface immediately.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("http startup failed: %w", err)
	}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()
	s.logger.Info("HTTP server started", slog.String("addr", ln.Addr().String()))
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
