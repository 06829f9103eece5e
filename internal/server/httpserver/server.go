// Package httpserver exposes the user and file services over HTTP with a
// chi router.
package httpserver

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/dmitrijs2005/filekeeper/internal/server/ratelimit"
	"github.com/dmitrijs2005/filekeeper/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

// UserService is what the handlers need from services.UserService.
type UserService interface {
	Register(ctx context.Context, email, password string) (*services.TokenPair, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	Authenticate(token string) (string, error)
}

// FileService is what the handlers need from services.FileService.
type FileService interface {
	Upload(ctx context.Context, userID, filename string, r io.Reader) (*models.StoredFile, error)
	Get(ctx context.Context, userID, path, mode string) (*models.FetchedFile, error)
}

type HTTPServer struct {
	address string
	users   UserService
	files   FileService
	limiter ratelimit.Limiter
	logger  logging.Logger
	handler http.Handler
}

func NewHTTPServer(address string, l logging.Logger, us UserService, fs FileService, limiter ratelimit.Limiter) *HTTPServer {
	s := &HTTPServer{
		address: address,
		users:   us,
		files:   fs,
		limiter: limiter,
		logger:  l.With("module", "http_server"),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the fully wired router.
func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to five seconds.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *HTTPServer) serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}
