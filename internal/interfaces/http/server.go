// Package http provides the HTTP adapter for the application layer.
// This is a thin adapter that translates HTTP requests to service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cmcs/claims-api/internal/application/service"
	"github.com/cmcs/claims-api/internal/domain/claim"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	JWTSecret    string
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	config ServerConfig,
	claimService service.ClaimService,
	paymentService service.PaymentService,
	reportService service.ReportService,
	exportService service.ExportService,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: NewHandlers(claimService, paymentService, reportService, exportService, logger),
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware logs one line per request
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api")
	api.Use(authMiddleware(s.config.JWTSecret))
	{
		// Any authenticated role
		api.GET("/claims/:id", h.GetClaim)
		api.GET("/claims/:id/timeline", h.ClaimTimeline)
		api.GET("/documents/:id/download", h.DownloadDocument)
		api.GET("/dashboard/counts", h.DashboardCounts)
		api.GET("/dashboard/recent", h.RecentActivity)

		// Lecturer
		lecturer := api.Group("", requireRole(claim.RoleLecturer))
		{
			lecturer.POST("/claims", h.SubmitClaim)
			lecturer.GET("/claims/mine", h.MyClaims)
			lecturer.POST("/claims/:id/resubmit", h.ResubmitClaim)
			lecturer.POST("/claims/:id/documents", h.UploadDocument)
			lecturer.DELETE("/documents/:id", h.DeleteDocument)
		}

		// Review
		review := api.Group("", requireRole(claim.RoleCoordinator, claim.RoleManager))
		{
			review.GET("/claims", h.ListClaims)
			review.POST("/claims/:id/transition", h.TransitionClaim)
			review.POST("/claims/transition/bulk", h.BulkTransitionClaims)
		}
		api.POST("/documents/:id/verify", requireRole(claim.RoleCoordinator), h.VerifyDocument)

		// Payments
		payments := api.Group("/payments", requireRole(claim.RoleHR))
		{
			payments.GET("/payable", h.PayableClaims)
			payments.POST("/batches", h.GenerateBatch)
			payments.GET("/batches", h.ListBatches)
			payments.GET("/batches/:id", h.GetBatch)
			payments.GET("/batches/:id/export", h.ExportBatch)
		}

		// Reports
		reports := api.Group("/reports", requireRole(claim.RoleCoordinator, claim.RoleManager, claim.RoleHR))
		{
			reports.GET("/summary", h.ReportSummary)
			reports.GET("/monthly", h.MonthlyReport)
			reports.GET("/departments", h.DepartmentReport)
			reports.GET("/processing-time", h.ProcessingTimeReport)
			reports.GET("/trend", h.ClaimsTrend)
			reports.GET("/export", h.ExportReport)
		}
	}
}

// Start starts the HTTP server and blocks until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
