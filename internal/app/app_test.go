package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrWong99/attune/internal/app"
	"github.com/MrWong99/attune/internal/config"
	"github.com/MrWong99/attune/internal/ingest"
)

func newApp(t *testing.T) *app.App {
	t.Helper()
	application, err := app.New(context.Background(), &config.Config{}, app.WithSink(&memorySink{}))
	if err != nil {
		t.Fatalf("app.New() error: %v", err)
	}
	t.Cleanup(func() { _ = application.Shutdown(context.Background()) })
	return application
}

func TestApp_HandlerRoutes(t *testing.T) {
	t.Parallel()

	application := newApp(t)
	api := ingest.New(application.Sessions, nil, nil)
	handler := application.Handler(api.Register)

	// Health probes.
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want %d (body %s)", path, rec.Code, http.StatusOK, rec.Body)
		}
	}

	// Prometheus scrape endpoint responds.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /metrics = %d, want %d", rec.Code, http.StatusOK)
	}

	// The session API is mounted.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/sessions",
		strings.NewReader(`{"session_id":"session-app-test"}`)))
	if rec.Code != http.StatusCreated {
		t.Errorf("POST /v1/sessions = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body)
	}
}

func TestApp_ShutdownStopsSessions(t *testing.T) {
	t.Parallel()

	application := newApp(t)
	if _, err := application.Sessions.Start(context.Background(), app.StartOptions{SessionID: "s1"}); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	if err := application.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
	if application.Sessions.Count() != 0 {
		t.Errorf("%d sessions alive after shutdown", application.Sessions.Count())
	}
}
