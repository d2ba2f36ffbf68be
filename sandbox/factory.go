package sandbox

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/isdmx/portfolio/config"
)

// NewFromConfig creates an executor for the configured backend
func NewFromConfig(logger *zap.Logger, cfg *config.Config) (SandboxExecutor, error) {
	opts := Options{
		CompileTimeout: cfg.CompileTimeout(),
		RunTimeout:     cfg.RunTimeout(),
		WorkspaceRoot:  cfg.Sandbox.WorkspaceRoot,
		Toolchains:     make(map[Language]Toolchain),
		Environment:    make(map[Language]map[string]string),
	}
	images := make(map[Language]string)

	for name, lc := range cfg.Languages {
		lang, ok := ParseLanguage(name)
		if !ok {
			return nil, fmt.Errorf("unsupported language in config: %s", name)
		}
		opts.Toolchains[lang] = Toolchain{Compiler: lc.Compiler, Interpreter: lc.Interpreter}
		if len(lc.Environment) > 0 {
			opts.Environment[lang] = lc.Environment
		}
		images[lang] = lc.Image
	}

	logger = logger.Named("sandbox")
	runner := ProcessRunner{}

	switch cfg.Sandbox.Backend {
	case "local":
		return NewExecutor(logger, opts, WithCommandRunner(runner)), nil
	case "docker", "podman":
		for _, lang := range Languages() {
			if images[lang] == "" {
				return nil, fmt.Errorf("no image configured for %s on backend %s", lang, cfg.Sandbox.Backend)
			}
		}
		launcher := NewContainerLauncher(logger, ContainerOptions{
			Engine:         cfg.Sandbox.Backend,
			Images:         images,
			MemoryMB:       cfg.Sandbox.MemoryMB,
			NetworkEnabled: cfg.Sandbox.NetworkEnabled,
		}, runner)
		return NewExecutor(logger, opts, WithCommandRunner(runner), WithLauncher(launcher)), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", cfg.Sandbox.Backend)
	}
}
