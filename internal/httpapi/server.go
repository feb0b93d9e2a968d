// Package httpapi exposes course authoring over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/coursegen/internal/authoring"
	"github.com/abhisek/coursegen/internal/logging"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// NewRouter wires the generation routes and middleware.
func NewRouter(h *Handler, logger *zap.Logger) *gin.Engine {
	logger = logging.OrNop(logger)

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, errorBody{Error: "use POST"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody{Error: "not found"})
	})

	r.Use(RequestID(), AccessLog(logger), Recovery(logger))

	r.GET("/healthz", h.Health)
	r.POST("/api/generate", h.Generate)

	return r
}

// Server hosts the generation endpoint.
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

// NewServer builds a Server listening on addr.
func NewServer(addr string, gen authoring.Generator, logger *zap.Logger) *Server {
	logger = logging.OrNop(logger)
	if addr == "" {
		addr = DefaultAddr
	}
	h := NewHandler(gen, logger)
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(h, logger),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("generation endpoint listening", zap.String("addr", s.srv.Addr))
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
