// Package app wires all Attune subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP until the context is cancelled, and Shutdown
// tears everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithSink, WithNotifier, etc.). When an option is not provided, New
// creates real implementations from the config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/attune/internal/config"
	"github.com/MrWong99/attune/internal/eventlog"
	"github.com/MrWong99/attune/internal/eventlog/postgres"
	"github.com/MrWong99/attune/internal/health"
	"github.com/MrWong99/attune/internal/lexicon"
	"github.com/MrWong99/attune/internal/notify"
	"github.com/MrWong99/attune/internal/observe"
)

// readHeaderTimeout bounds how long a client may take to send headers.
const readHeaderTimeout = 10 * time.Second

// App owns all subsystem lifetimes for the Attune server.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	// Subsystems — initialised in New, torn down in Shutdown.
	lexicon  *lexicon.Set
	store    *postgres.Store
	sink     eventlog.Sink
	notifier *notify.Notifier
	metrics  *observe.Metrics
	Sessions *SessionManager

	server *http.Server

	// closers are called in reverse order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithSink injects an event log sink instead of connecting to PostgreSQL.
func WithSink(s eventlog.Sink) Option {
	return func(a *App) { a.sink = s }
}

// WithNotifier injects a notifier instead of connecting to NATS.
func WithNotifier(n *notify.Notifier) Option {
	return func(a *App) { a.notifier = n }
}

// WithMetrics injects a metrics set instead of the package default.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New creates an App by wiring all subsystems together: the sentiment
// lexicon (with optional overlay), the PostgreSQL event log store, the NATS
// notifier, and the session manager. Use Option functions to inject test
// doubles for any subsystem.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	if err := a.initLexicon(); err != nil {
		return nil, fmt.Errorf("app: init lexicon: %w", err)
	}
	if err := a.initStore(ctx); err != nil {
		return nil, fmt.Errorf("app: init event log store: %w", err)
	}
	if err := a.initNotifier(); err != nil {
		return nil, fmt.Errorf("app: init notifier: %w", err)
	}

	a.Sessions = NewSessionManager(SessionManagerConfig{
		Config:   cfg,
		Lexicon:  a.lexicon,
		Sink:     a.sink,
		Notifier: a.notifier,
		Metrics:  a.metrics,
		Logger:   a.logger,
	})

	return a, nil
}

// initLexicon loads the built-in sentiment tables and merges the configured
// overlay file on top, if any.
func (a *App) initLexicon() error {
	set := lexicon.Default()
	if path := a.cfg.Analysis.LexiconOverlay; path != "" {
		if err := set.LoadOverlay(path); err != nil {
			return err
		}
		a.logger.Info("lexicon overlay loaded", "path", path)
	}
	a.lexicon = set
	return nil
}

// initStore connects the PostgreSQL event log store or uses an injected sink.
func (a *App) initStore(ctx context.Context) error {
	if a.sink != nil {
		return nil // injected
	}
	dsn := a.cfg.Storage.PostgresDSN
	if dsn == "" {
		return nil // in-memory only; Validate already warned
	}

	store, err := postgres.NewStore(ctx, dsn)
	if err != nil {
		return err
	}
	a.store = store
	a.sink = store
	a.closers = append(a.closers, func() error {
		store.Close()
		return nil
	})
	return nil
}

// initNotifier connects the NATS publisher or uses an injected one.
func (a *App) initNotifier() error {
	if a.notifier != nil {
		return nil // injected
	}
	url := a.cfg.Notify.NATSURL
	if url == "" {
		return nil // publication disabled; nil notifier is a no-op
	}

	n, err := notify.New(url, a.logger)
	if err != nil {
		return err
	}
	a.notifier = n
	a.closers = append(a.closers, func() error {
		n.Close()
		return nil
	})
	return nil
}

// Handler assembles the HTTP routing table: the session API, health probes
// and the Prometheus scrape endpoint, all behind the metrics middleware.
func (a *App) Handler(register func(mux *http.ServeMux)) http.Handler {
	mux := http.NewServeMux()
	if register != nil {
		register(mux)
	}

	checkers := []health.Checker{}
	if a.store != nil {
		checkers = append(checkers, health.Checker{
			Name:  "eventlog",
			Check: a.store.Ping,
		})
	}
	if a.notifier != nil {
		checkers = append(checkers, health.Checker{
			Name:  "notify",
			Check: a.notifier.Ping,
		})
	}
	health.New(checkers...).Register(mux)

	mux.Handle("GET /metrics", promhttp.Handler())

	return observe.Middleware(a.metrics)(mux)
}

// Run serves HTTP on the configured listen address until ctx is cancelled,
// then drains in-flight requests and stops all sessions.
func (a *App) Run(ctx context.Context, handler http.Handler) error {
	addr := a.cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	a.server = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			err = a.server.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = a.server.ListenAndServe()
		}
		errCh <- err
	}()

	a.logger.Info("server listening", "addr", addr, "tls", a.cfg.Server.TLS != nil)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("app: serve: %w", err)
	}
}

// Shutdown drains the HTTP server, stops every session (flushing event
// logs), and runs closers in reverse order. It respects the context
// deadline: if ctx expires, remaining closers are skipped and the context
// error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		a.logger.Info("shutting down", "sessions", a.Sessions.Count())

		if a.server != nil {
			if err := a.server.Shutdown(ctx); err != nil {
				a.logger.Warn("http shutdown error", "err", err)
			}
		}

		a.Sessions.StopAll(ctx)

		for i := len(a.closers) - 1; i >= 0; i-- {
			select {
			case <-ctx.Done():
				a.logger.Warn("shutdown deadline exceeded", "remaining", i+1)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := a.closers[i](); err != nil {
				a.logger.Warn("closer error", "index", i, "err", err)
			}
		}

		a.logger.Info("shutdown complete")
	})
	return shutdownErr
}
