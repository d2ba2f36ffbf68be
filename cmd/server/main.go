package main

import (
	"context"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/isdmx/portfolio/blog"
	"github.com/isdmx/portfolio/cache"
	"github.com/isdmx/portfolio/config"
	"github.com/isdmx/portfolio/contact"
	"github.com/isdmx/portfolio/httpserver"
	"github.com/isdmx/portfolio/logger"
	"github.com/isdmx/portfolio/mcpserver"
	"github.com/isdmx/portfolio/sandbox"
	"github.com/isdmx/portfolio/scoring"
)

func main() {
	fx.New(options()).Run()
}

func options() fx.Option {
	return fx.Options(
		fx.Provide(
			// Config
			config.New,

			// Logger with configuration
			logger.NewFromConfig,

			// Shared result cache
			cache.NewFromConfig,

			// Sandbox executor based on config
			sandbox.NewFromConfig,

			// Scorers and their cached front
			scoring.NewMoodAnalyzer,
			func() *scoring.PassPredictor { return scoring.NewPassPredictor() },
			scoring.NewServiceFromConfig,

			// Site content
			newContactStore,
			newBlogLibrary,

			// MCP tools and the HTTP server they are mounted on
			mcpserver.New,
			func(s *mcpserver.MCPServer) http.Handler { return s.Handler() },
			httpserver.NewHandler,
			httpserver.New,
		),

		fx.Invoke(registerHTTPServer),

		// Use the application logger for fx logs
		fx.WithLogger(logger.FxLogger),
	)
}

func newContactStore(cfg *config.Config, log *zap.Logger) (*contact.Store, error) {
	store := contact.NewStore(log.Named("contact"), cfg.Contact.File)
	if err := store.Init(); err != nil {
		return nil, err
	}
	return store, nil
}

func newBlogLibrary(cfg *config.Config, log *zap.Logger) *blog.Library {
	return blog.NewLibrary(log.Named("blog"), cfg.Blog.Dir)
}

func registerHTTPServer(lc fx.Lifecycle, server *httpserver.Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return server.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return server.Stop(ctx)
		},
	})
}
