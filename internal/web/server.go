// Package web provides the public HTTP server, router and middlewares.
package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fd1az/tonswap/internal/logger"
)

// Server serves the REST, WebSocket and proxy routes of every module.
type Server struct {
	router *mux.Router
	server *http.Server
	log    logger.LoggerInterface
}

// NewServer creates a server with logging and CORS middlewares installed.
// allowedOrigins follows AllowedOrigin; nil allows any origin.
func NewServer(address string, readHeaderTimeout time.Duration, allowedOrigins []string, log logger.LoggerInterface) *Server {
	s := &Server{
		router: mux.NewRouter(),
		log:    log,
	}

	s.router.Use(s.loggingMiddleware)
	s.router.Use(CORSMiddleware(allowedOrigins))

	s.server = &http.Server{
		Addr:              address,
		Handler:           otelhttp.NewHandler(s.router, "http.server"),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Router returns the router modules mount their routes on.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info(context.Background(), "http server listening", "address", ln.Addr().String())

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
