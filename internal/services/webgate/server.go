// Package webgate hosts the HTTP gateway for the web client: the auth
// endpoints that drive the session manager and the guarded application
// routes behind the route guard.
package webgate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/meridianvest/meridian/internal/auth/session"
	"github.com/meridianvest/meridian/internal/guard"
	"github.com/meridianvest/meridian/internal/platform/timeouts"
	"github.com/meridianvest/meridian/internal/profile"
)

// ProfileFetcher is the narrow profile surface the gateway needs.
type ProfileFetcher interface {
	Fetch(ctx context.Context) (profile.UserProfile, error)
}

// Config defines the inputs for the gateway process.
type Config struct {
	HTTPAddr string
}

// Server hosts the gateway HTTP server.
type Server struct {
	httpAddr   string
	httpServer *http.Server
	sessions   *session.Manager
}

// NewServer builds a configured gateway server.
func NewServer(config Config, sessions *session.Manager, profiles ProfileFetcher) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if sessions == nil {
		return nil, errors.New("session manager is required")
	}
	if profiles == nil {
		return nil, errors.New("profile fetcher is required")
	}

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           NewHandler(sessions, profiles),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	return &Server{
		httpAddr:   httpAddr,
		httpServer: httpServer,
		sessions:   sessions,
	}, nil
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("gateway server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	serveErr := make(chan error, 1)
	log.Printf("webgate listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// NewHandler composes the gateway mux: public auth endpoints, the
// health check, and guarded application routes.
func NewHandler(sessions *session.Manager, profiles ProfileFetcher) http.Handler {
	h := &handler{sessions: sessions, profiles: profiles}
	protect := guard.NewMiddleware(sessions)

	mux := http.NewServeMux()
	registerAuthRoutes(mux, h)
	registerAppRoutes(mux, protect)
	return mux
}
