// Package stubapi is an in-memory development backend that speaks the REST
// contract of the lead-scoring API
package stubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/smartconvert/leadcrm/internal/auth"
	"github.com/smartconvert/leadcrm/internal/config"
)

// APIPrefix is where every endpoint is mounted
const APIPrefix = "/api/v1"

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Server represents the HTTP server
type Server struct {
	router    *gin.Engine
	store     *Store
	issuer    *auth.Issuer
	config    config.StubConfig
	logger    zerolog.Logger
	validator *validator.Validate
	version   string
}

// New creates a new server instance over store
func New(cfg config.StubConfig, store *Store, zlog zerolog.Logger, version string) (*Server, error) {
	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT: %w", err)
	}

	// Initialize validator
	validate := validator.New()

	// Register custom validators
	if err := validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("failed to register validator: %w", err)
	}

	server := &Server{
		store:     store,
		issuer:    issuer,
		config:    cfg,
		logger:    zlog,
		validator: validate,
		version:   version,
	}

	// Setup router
	server.setupRouter()

	return server, nil
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
	})

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	api := s.router.Group(APIPrefix)

	// Public auth endpoints (no auth required)
	api.POST("/login", s.login)
	api.POST("/register", s.register)

	// Authenticated API routes (JWT required)
	protected := api.Group("")
	protected.Use(JWTAuthMiddleware(s.issuer, s.store, s.logger))
	{
		protected.GET("/leads", s.listLeads)
		protected.GET("/leads/:id", s.getLead)
		protected.PUT("/leads/:id", s.updateLead)
		protected.POST("/upload-csv", s.uploadCSV)

		protected.GET("/dashboard/stats", s.dashboardStats)

		protected.GET("/user/profile", s.getProfile)
		protected.PUT("/user/profile", s.updateProfile)
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("request_id", c.GetHeader("X-Request-ID")).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"service":   "leadcrm-stub",
		"version":   s.version,
	})
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.config.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
