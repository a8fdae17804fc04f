// Package opsapi serves engine health, status and the execution audit trail.
package opsapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"solana-curve-maker/internal/engine"
	"solana-curve-maker/internal/storage"
)

// DefaultExecutionLimit caps /executions responses without ?limit.
const DefaultExecutionLimit = 50

// Engines exposes the running engines.
type Engines interface {
	Engines() []*engine.Engine
	Engine(mint string) (*engine.Engine, bool)
}

// Options for creating a Server.
type Options struct {
	Addr       string
	Engines    Engines
	Executions storage.ExecutionStore
	Metrics    http.Handler // nil disables /metrics
	Mode       string
	Logger     *zap.Logger
}

// Server is the ops HTTP server.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	engines    Engines
	executions storage.ExecutionStore
	mode       string
	started    time.Time
	logger     *zap.Logger
}

// New creates a Server with routes registered.
func New(opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	s := &Server{
		router:     router,
		engines:    opts.Engines,
		executions: opts.Executions,
		mode:       opts.Mode,
		started:    time.Now(),
		logger:     logger,
		httpServer: &http.Server{
			Addr:         opts.Addr,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	router.GET("/healthz", s.handleHealth)
	router.GET("/status", s.handleStatus)
	router.GET("/status/:mint", s.handleAssetStatus)
	router.GET("/executions/:mint", s.handleExecutions)
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics))
	}
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("ops api listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ops api: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("ops request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"mode":           s.mode,
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	var out []AssetStatus
	if s.engines != nil {
		for _, e := range s.engines.Engines() {
			out = append(out, statusOf(e))
		}
	}
	if out == nil {
		out = []AssetStatus{}
	}
	c.JSON(http.StatusOK, gin.H{"mode": s.mode, "assets": out})
}

func (s *Server) handleAssetStatus(c *gin.Context) {
	if s.engines == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown mint"})
		return
	}
	e, ok := s.engines.Engine(c.Param("mint"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown mint"})
		return
	}
	c.JSON(http.StatusOK, statusOf(e))
}

func (s *Server) handleExecutions(c *gin.Context) {
	if s.executions == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "execution store not configured"})
		return
	}

	limit := DefaultExecutionLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	recs, err := s.executions.GetByMint(c.Request.Context(), c.Param("mint"), limit)
	if err != nil {
		s.logger.Error("list executions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list executions"})
		return
	}

	out := make([]ExecutionView, len(recs))
	for i, r := range recs {
		out[i] = executionView(r)
	}
	c.JSON(http.StatusOK, gin.H{"mint": c.Param("mint"), "executions": out})
}
