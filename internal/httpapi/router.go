// Package httpapi exposes the query engine as a read-only JSON API for
// dashboards and other presentation clients.
//
// Country selections follow the query engine: endpoints taking repeated
// country parameters return an empty result when none is given. Only
// /api/countries treats a missing continent as "all continents".
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rewired-gh/covidsynth/internal/logger"
	"github.com/rewired-gh/covidsynth/internal/query"
)

// NewRouter builds the gin engine. CORS is enabled only when origins is non-empty.
func NewRouter(engine *query.Engine, origins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	if len(origins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodOptions},
			AllowHeaders: []string{"Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	h := &handler{engine: engine}

	router.GET("/healthz", h.health)
	api := router.Group("/api")
	{
		api.GET("/metrics", h.metrics)
		api.GET("/continents", h.continents)
		api.GET("/countries", h.countries)
		api.GET("/bounds", h.bounds)
		api.GET("/series", h.series)
		api.GET("/latest", h.latest)
		api.GET("/summary", h.summary)
		api.GET("/overview", h.overview)
		api.GET("/vaccination", h.vaccination)
	}

	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.RequestURI(), c.Writer.Status(), time.Since(start))
	}
}

// Server runs the router on an http.Server with graceful shutdown
type Server struct {
	srv             *http.Server
	shutdownTimeout time.Duration
}

// NewServer creates a Server listening on addr
func NewServer(addr string, router http.Handler, shutdownTimeout time.Duration) *Server {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		shutdownTimeout: shutdownTimeout,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	logger.Info("HTTP API stopped")
	return nil
}
