package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig        `mapstructure:"server"`
	Sandbox   SandboxConfig       `mapstructure:"sandbox"`
	Languages map[string]Language `mapstructure:"languages"`
	Cache     CacheConfig         `mapstructure:"cache"`
	Contact   ContactConfig       `mapstructure:"contact"`
	Blog      BlogConfig          `mapstructure:"blog"`
	MCP       MCPConfig           `mapstructure:"mcp"`
	Logging   LoggingConfig       `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPPort           int      `mapstructure:"http_port"`
	CORSAllowOrigins   []string `mapstructure:"cors_allow_origins"`
	MaxBodyBytes       int64    `mapstructure:"max_body_bytes"`
	StaticDir          string   `mapstructure:"static_dir"`
	ShutdownTimeoutSec int      `mapstructure:"shutdown_timeout_sec"`
}

// SandboxConfig holds sandbox configuration
type SandboxConfig struct {
	Backend           string `mapstructure:"backend"`
	CompileTimeoutSec int    `mapstructure:"compile_timeout_sec"`
	RunTimeoutSec     int    `mapstructure:"run_timeout_sec"`
	MemoryMB          int    `mapstructure:"memory_mb"`
	NetworkEnabled    bool   `mapstructure:"network_enabled"`
	WorkspaceRoot     string `mapstructure:"workspace_root"`
}

// Language holds per-language toolchain overrides. Empty fields fall back
// to the built-in defaults of the sandbox package.
type Language struct {
	Image       string            `mapstructure:"image"`
	Compiler    string            `mapstructure:"compiler"`
	Interpreter string            `mapstructure:"interpreter"`
	Environment map[string]string `mapstructure:"environment"`
}

// CacheConfig holds TTLs for memoized endpoint results
type CacheConfig struct {
	DefaultTTLSec    int `mapstructure:"default_ttl_sec"`
	MoodTTLSec       int `mapstructure:"mood_ttl_sec"`
	PredictionTTLSec int `mapstructure:"prediction_ttl_sec"`
	// Capacity bounds the number of entries; 0 leaves the cache unbounded.
	Capacity int `mapstructure:"capacity"`
}

// ContactConfig holds the contact log location
type ContactConfig struct {
	File string `mapstructure:"file"`
}

// BlogConfig holds the markdown posts location
type BlogConfig struct {
	Dir string `mapstructure:"dir"`
}

// MCPConfig controls the MCP tool endpoint
type MCPConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

// New loads and validates the application configuration
func New() (*Config, error) {
	return Load(viper.New(), ".", "./config")
}

// Load reads configuration into v from the first config.yaml found in paths.
func Load(v *viper.Viper, paths ...string) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("PORTFOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, continue with defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.cors_allow_origins", []string{"*"})
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.static_dir", "static")
	v.SetDefault("server.shutdown_timeout_sec", 10)

	v.SetDefault("sandbox.backend", "local")
	v.SetDefault("sandbox.compile_timeout_sec", 30)
	v.SetDefault("sandbox.run_timeout_sec", 30)
	v.SetDefault("sandbox.memory_mb", 256)
	v.SetDefault("sandbox.network_enabled", false)
	v.SetDefault("sandbox.workspace_root", "")

	// Container images, only consulted by the docker and podman backends
	v.SetDefault("languages.python.image", "python:3.11-slim")
	v.SetDefault("languages.javascript.image", "node:20-alpine")
	v.SetDefault("languages.cpp.image", "gcc:13")
	v.SetDefault("languages.c.image", "gcc:13")
	v.SetDefault("languages.java.image", "eclipse-temurin:21-jdk")

	v.SetDefault("cache.default_ttl_sec", 300)
	v.SetDefault("cache.mood_ttl_sec", 600)
	v.SetDefault("cache.prediction_ttl_sec", 1800)
	v.SetDefault("cache.capacity", 0)

	v.SetDefault("contact.file", "contact_submissions.json")
	v.SetDefault("blog.dir", "Blogs")

	v.SetDefault("mcp.enabled", true)
	v.SetDefault("mcp.path", "/mcp")

	v.SetDefault("logging.mode", "production")
	v.SetDefault("logging.level", "info")
}

// validate ensures the configuration is valid
func (c *Config) validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid server.http_port: %d", c.Server.HTTPPort)
	}

	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive, got: %d", c.Server.MaxBodyBytes)
	}

	if c.Sandbox.CompileTimeoutSec <= 0 {
		return fmt.Errorf("sandbox.compile_timeout_sec must be positive, got: %d", c.Sandbox.CompileTimeoutSec)
	}

	if c.Sandbox.RunTimeoutSec <= 0 {
		return fmt.Errorf("sandbox.run_timeout_sec must be positive, got: %d", c.Sandbox.RunTimeoutSec)
	}

	if c.Sandbox.MemoryMB <= 0 {
		return fmt.Errorf("sandbox.memory_mb must be positive, got: %d", c.Sandbox.MemoryMB)
	}

	supportedBackends := map[string]bool{
		"local":  true,
		"docker": true,
		"podman": true,
	}
	if !supportedBackends[c.Sandbox.Backend] {
		return fmt.Errorf("unsupported sandbox.backend: %s", c.Sandbox.Backend)
	}

	if c.Cache.DefaultTTLSec < 0 || c.Cache.MoodTTLSec < 0 || c.Cache.PredictionTTLSec < 0 {
		return errors.New("cache TTLs must not be negative")
	}

	if c.Cache.Capacity < 0 {
		return fmt.Errorf("cache.capacity must not be negative, got: %d", c.Cache.Capacity)
	}

	if c.MCP.Enabled && !strings.HasPrefix(c.MCP.Path, "/") {
		return fmt.Errorf("invalid mcp.path: %q, must start with '/'", c.MCP.Path)
	}

	if c.Logging.Mode != "production" && c.Logging.Mode != "development" {
		return fmt.Errorf("invalid logging.mode: %s, must be 'production' or 'development'", c.Logging.Mode)
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	return nil
}

// CompileTimeout returns the toolchain timeout as a duration
func (c *Config) CompileTimeout() time.Duration {
	return time.Duration(c.Sandbox.CompileTimeoutSec) * time.Second
}

// RunTimeout returns the program timeout as a duration
func (c *Config) RunTimeout() time.Duration {
	return time.Duration(c.Sandbox.RunTimeoutSec) * time.Second
}

// ShutdownTimeout returns the graceful shutdown bound as a duration
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSec) * time.Second
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// DefaultTTL returns the cache's fallback TTL
func (c *Config) DefaultTTL() time.Duration { return seconds(c.Cache.DefaultTTLSec) }

// MoodTTL returns the TTL of memoized mood analyses
func (c *Config) MoodTTL() time.Duration { return seconds(c.Cache.MoodTTLSec) }

// PredictionTTL returns the TTL of memoized pass predictions
func (c *Config) PredictionTTL() time.Duration { return seconds(c.Cache.PredictionTTLSec) }
