package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ContentRefresher/internal/logging"
)

const (
	readTimeout     = 10 * time.Second
	writeTimeout    = 15 * time.Minute
	idleTimeout     = 120 * time.Second
	shutdownTimeout = 10 * time.Second
)

// NewRouter registers every endpoint on a gin engine. metrics may be nil.
func NewRouter(h *Handler, metrics http.Handler, log *slog.Logger) *gin.Engine {
	if log == nil {
		log = logging.Discard()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))

	router.GET("/health", h.Health)
	router.GET("/status", h.Status)
	router.POST("/refresh/:articleId", h.RefreshArticle)
	router.POST("/refresh", h.RefreshMany)
	router.POST("/refresh-all", h.RefreshAll)
	router.POST("/refresh-by-status", h.RefreshByStatus)
	router.GET("/jobs/:id", h.Job)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	return router
}

// Server owns the HTTP listener.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer binds router to addr.
func NewServer(addr string, router http.Handler, log *slog.Logger) *Server {
	if log == nil {
		log = logging.Discard()
	}
	return &Server{
		server: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
		logger: log.With("component", "http"),
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start))
	}
}
