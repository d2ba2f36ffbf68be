package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	limits "github.com/gin-contrib/size"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/isdmx/portfolio/config"
)

const (
	maxReadHeaderTimeout = 10 * time.Second
	// execute-code requests may spend two full sandbox steps in flight
	minWriteTimeout = 30 * time.Second
	idleTimeout     = 120 * time.Second
)

// Server is the HTTP front of the site.
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	handler *Handler
	engine  *gin.Engine
	srv     *http.Server
}

// New builds the router for h. mcp is mounted at cfg.MCP.Path when MCP is
// enabled and mcp is not nil.
func New(cfg *config.Config, logger *zap.Logger, h *Handler, mcp http.Handler) *Server {
	engine := NewRouter(cfg, logger, h, mcp)

	writeTimeout := cfg.CompileTimeout() + cfg.RunTimeout() + 5*time.Second
	if writeTimeout < minWriteTimeout {
		writeTimeout = minWriteTimeout
	}

	return &Server{
		cfg:     cfg,
		logger:  logger,
		handler: h,
		engine:  engine,
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
			Handler:           engine,
			ReadHeaderTimeout: maxReadHeaderTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		},
	}
}

// NewRouter returns the gin engine serving every route of the site.
func NewRouter(cfg *config.Config, logger *zap.Logger, h *Handler, mcp http.Handler) *gin.Engine {
	engine := gin.New()

	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.CORSAllowOrigins) == 0 || (len(cfg.Server.CORSAllowOrigins) == 1 && cfg.Server.CORSAllowOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.Server.CORSAllowOrigins
	}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Accept",
		// streamable HTTP session of MCP clients
		"Mcp-Session-Id",
		"Mcp-Protocol-Version",
	}
	corsConfig.ExposeHeaders = []string{"Mcp-Session-Id"}

	engine.Use(
		ginzap.RecoveryWithZap(logger, true),
		ginzap.GinzapWithConfig(logger, &ginzap.Config{
			TimeFormat: time.RFC3339Nano,
			UTC:        true,
			SkipPaths:  []string{"/healthz"},
		}),
		cors.New(corsConfig),
		limits.RequestSizeLimiter(cfg.Server.MaxBodyBytes),
		cacheHeaders(),
	)

	engine.GET("/healthz", h.Health)

	api := engine.Group("/api")
	api.POST("/execute-code", h.ExecuteCode)
	api.POST("/mood-analysis", h.MoodAnalysis)
	api.POST("/pass-predict", h.PassPredict)
	api.POST("/contact", h.SubmitContact)
	api.GET("/blogs", h.ListBlogs)
	api.GET("/blogs/*filename", h.BlogContent)

	engine.GET("/admin/contacts", h.ListContacts)

	download := engine.Group("/download")
	download.GET("/resume/web-developer", h.DownloadResume(ResumeWebDeveloper))
	download.GET("/resume/software-developer", h.DownloadResume(ResumeSoftwareDeveloper))
	download.GET("/certificate/:id", h.DownloadCertificate)

	if cfg.Server.StaticDir != "" {
		engine.Static("/static", cfg.Server.StaticDir)
	}

	if cfg.MCP.Enabled && mcp != nil {
		engine.Any(cfg.MCP.Path, gin.WrapH(mcp))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Not found"})
	})

	return engine
}

// Engine returns the underlying router.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start binds the listen address and serves in the background. A bind
// failure is returned immediately.
func (s *Server) Start(context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.srv.Addr, err)
	}

	s.logger.Info("starting HTTP server",
		zap.String("addr", ln.Addr().String()),
		zap.String("sandbox.backend", s.cfg.Sandbox.Backend),
		zap.Bool("mcp.enabled", s.cfg.MCP.Enabled),
		zap.String("mcp.path", s.cfg.MCP.Path))

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Stop shuts the server down gracefully, bounded by the configured
// shutdown timeout.
func (s *Server) Stop(ctx context.Context) error {
	if timeout := s.cfg.ShutdownTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	s.logger.Info("stopping HTTP server")
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}
