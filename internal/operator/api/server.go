// Package api serves the operator's status, metrics and recent task
// outcomes over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trigg3rX/irs-avs/internal/operator/dispatcher"
	"github.com/trigg3rX/irs-avs/internal/operator/metrics"
	"github.com/trigg3rX/irs-avs/internal/operator/outcomes"
	"github.com/trigg3rX/irs-avs/pkg/logging"
)

// NodeInfo is static information reported by /status.
type NodeInfo struct {
	Operator string `json:"operator"`
	ChainID  string `json:"chain_id"`
	Protocol string `json:"protocol"`
	Strategy string `json:"settlement_strategy"`
	Version  string `json:"version"`
}

type StateReader interface {
	State() dispatcher.State
}

type Deps struct {
	Info       NodeInfo
	Dispatcher StateReader
	Outcomes   *outcomes.Store
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
}

type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	deps       Deps
	logger     logging.Logger
}

func NewServer(addr string, deps Deps, logger logging.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	srv := &Server{
		router: router,
		deps:   deps,
		logger: logger,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
	srv.setupRoutes()
	return srv
}

func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery())
	s.router.Use(LoggingMiddleware(s.logger))

	s.router.GET("/status", s.handleStatus)
	s.router.GET("/metrics", s.handleMetrics)
	s.router.GET("/outcomes", s.handleListOutcomes)
	s.router.GET("/outcomes/:index", s.handleGetOutcome)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func LoggingMiddleware(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("HTTP Request: %s %s %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
