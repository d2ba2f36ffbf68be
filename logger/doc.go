// Package logger provides structured logging capabilities.
//
// The logger package sets up the application's zap logger in either a JSON
// production mode or a coloured development mode, and adapts it for fx's
// lifecycle event log.
//
// Usage:
//
//	log, err := logger.New("production", "info")
//	if err != nil {
//	    panic(err)
//	}
//	log.Info("server started", zap.Int("port", 8080))
package logger
