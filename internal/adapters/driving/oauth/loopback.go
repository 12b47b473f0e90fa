// Package oauth provides the transports that receive the OAuth 2.0
// authorization code redirect.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/custodia-labs/suitetalk/internal/core/ports/driven"
)

// Ensure LoopbackTransport implements the interface.
var _ driven.AuthorizationTransport = (*LoopbackTransport)(nil)

// Callback listener defaults.
const (
	DefaultAddr = "127.0.0.1:8787"
	DefaultPath = "/oauth/callback"
)

// ErrAlreadyRunning is returned when Start is called on a running listener.
var ErrAlreadyRunning = errors.New("callback listener already running")

// LoopbackConfig configures the local callback listener.
type LoopbackConfig struct {
	// Addr is the host:port to bind. The tunnel forwards to it.
	Addr string
	// Path is the redirect path.
	Path   string
	Logger *zap.Logger
}

// LoopbackTransport serves GET <path>?code&state&error&error_description on a
// fixed local address and delivers the first redirect it receives.
type LoopbackTransport struct {
	cfg LoopbackConfig

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewLoopbackTransport creates a loopback transport.
func NewLoopbackTransport(cfg LoopbackConfig) *LoopbackTransport {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &LoopbackTransport{cfg: cfg}
}

// RedirectPath returns the callback path.
func (t *LoopbackTransport) RedirectPath() string {
	return t.cfg.Path
}

// Addr returns the bound address while running, or the configured one.
func (t *LoopbackTransport) Addr() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener != nil {
		return t.listener.Addr().String()
	}
	return t.cfg.Addr
}

// Start binds the listener. The returned channel receives exactly one callback.
func (t *LoopbackTransport) Start(_ context.Context) (<-chan driven.AuthorizationCallback, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.server != nil {
		return nil, ErrAlreadyRunning
	}

	ln, err := net.Listen("tcp", t.cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", t.cfg.Addr, err)
	}

	callbacks := make(chan driven.AuthorizationCallback, 1)
	var once sync.Once

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get(t.cfg.Path, t.handleCallback(callbacks, &once))

	srv := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.cfg.Logger.Error("callback listener stopped", zap.Error(err))
		}
	}()

	t.server = srv
	t.listener = ln
	t.cfg.Logger.Debug("callback listener started",
		zap.String("addr", ln.Addr().String()),
		zap.String("path", t.cfg.Path))
	return callbacks, nil
}

// Stop shuts the listener down. Stopping a stopped listener is a no-op.
func (t *LoopbackTransport) Stop(ctx context.Context) error {
	t.mu.Lock()
	srv := t.server
	t.server = nil
	t.listener = nil
	t.mu.Unlock()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown callback listener: %w", err)
	}
	return nil
}

func (t *LoopbackTransport) handleCallback(
	callbacks chan<- driven.AuthorizationCallback,
	once *sync.Once,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		cb := driven.AuthorizationCallback{
			Code:             q.Get("code"),
			State:            q.Get("state"),
			Error:            q.Get("error"),
			ErrorDescription: q.Get("error_description"),
		}

		delivered := false
		once.Do(func() {
			callbacks <- cb
			delivered = true
		})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch {
		case !delivered:
			w.WriteHeader(http.StatusConflict)
			writePage(w, "Authorization already handled", "You can close this window.")
		case cb.Error != "":
			w.WriteHeader(http.StatusBadRequest)
			writePage(w, "Authorization failed", cb.Error+": "+cb.ErrorDescription)
		default:
			writePage(w, "Authorization complete", "You can close this window and return to the terminal.")
		}
	}
}

func writePage(w http.ResponseWriter, title, message string) {
	_, _ = fmt.Fprintf(w,
		"<!DOCTYPE html><html><head><title>%s</title></head><body><h1>%s</h1><p>%s</p></body></html>",
		html.EscapeString(title), html.EscapeString(title), html.EscapeString(message))
}
