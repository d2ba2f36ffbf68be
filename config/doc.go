// Package config provides application configuration management.
//
// The config package handles loading and validation of the application's
// configuration from YAML files and PORTFOLIO_* environment variables. It
// covers the HTTP server, the code execution sandbox, per-language toolchain
// overrides, cache TTLs, the contact log, blog posts and logging.
//
// Usage:
//
//	cfg, err := config.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Listening on: %d\n", cfg.Server.HTTPPort)
package config
