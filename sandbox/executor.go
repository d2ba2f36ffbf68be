package sandbox

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Default step timeouts
const (
	DefaultCompileTimeout = 30 * time.Second
	DefaultRunTimeout     = 30 * time.Second
)

// Options holds executor settings.
type Options struct {
	CompileTimeout time.Duration
	RunTimeout     time.Duration
	// WorkspaceRoot is the parent of every scratch workspace; empty selects
	// the OS temp directory.
	WorkspaceRoot string
	Toolchains    map[Language]Toolchain
	Environment   map[Language]map[string]string
}

// Executor compiles and runs untrusted source in per-request workspaces.
type Executor struct {
	logger   *zap.Logger
	opts     Options
	runner   CommandRunner
	launcher Launcher
	fs       FileSystem
}

// ExecutorOption defines a functional option for Executor
type ExecutorOption func(*Executor)

// WithCommandRunner sets the CommandRunner for Executor
func WithCommandRunner(runner CommandRunner) ExecutorOption {
	return func(e *Executor) {
		e.runner = runner
	}
}

// WithFileSystem sets the FileSystem for Executor
func WithFileSystem(fs FileSystem) ExecutorOption {
	return func(e *Executor) {
		e.fs = fs
	}
}

// WithLauncher sets the Launcher for Executor
func WithLauncher(launcher Launcher) ExecutorOption {
	return func(e *Executor) {
		e.launcher = launcher
	}
}

// NewExecutor creates an Executor that runs toolchains locally unless a
// different Launcher is supplied.
func NewExecutor(logger *zap.Logger, opts Options, options ...ExecutorOption) *Executor {
	if opts.CompileTimeout <= 0 {
		opts.CompileTimeout = DefaultCompileTimeout
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = DefaultRunTimeout
	}
	if opts.WorkspaceRoot != "" {
		if abs, err := filepath.Abs(opts.WorkspaceRoot); err == nil {
			opts.WorkspaceRoot = abs
		}
	}

	e := &Executor{
		logger:   logger,
		opts:     opts,
		runner:   ProcessRunner{},
		launcher: LocalLauncher{},
		fs:       RealFileSystem{},
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// Execute validates req, stages it in a fresh workspace, compiles it when
// the language needs it and runs it. Expected failures (compile errors,
// non-zero exits, timeouts) are reported in the result; the error return is
// reserved for invalid requests and infrastructure faults. The workspace is
// removed before Execute returns, whatever the outcome.
func (e *Executor) Execute(ctx context.Context, req ExecuteRequest) (ExecuteResult, error) {
	if req.Code == "" {
		return ExecuteResult{}, ErrEmptyCode
	}

	lang, ok := ParseLanguage(req.Language)
	if !ok {
		// anything that is not interpreted is handed to the compile path
		return ExecuteResult{}, &UnsupportedLanguageError{Language: req.Language, Phase: "compilation"}
	}
	spec, _ := SpecFor(lang)

	start := time.Now()
	execID := uuid.NewString()
	log := e.logger.With(zap.String("exec_id", execID), zap.Stringer("language", lang))

	workspace, err := e.fs.MkdirTemp(e.opts.WorkspaceRoot, "portfolio-exec-*")
	if err != nil {
		return ExecuteResult{}, fmt.Errorf("failed to create workspace: %w", err)
	}
	defer func() {
		if rmErr := e.fs.RemoveAll(workspace); rmErr != nil {
			log.Error("failed to remove workspace", zap.String("path", workspace), zap.Error(rmErr))
		}
	}()

	sourcePath := filepath.Join(workspace, spec.FileName)
	if err := e.fs.WriteFile(sourcePath, []byte(req.Code), FilePermission); err != nil {
		return ExecuteResult{}, fmt.Errorf("failed to write source: %w", err)
	}
	log.Debug("source written", zap.String("path", sourcePath), zap.Int("bytes", len(req.Code)))

	tc := e.opts.Toolchains[lang]
	dir := e.launcher.WorkspacePath(workspace)

	if spec.Compiled() {
		res, err := e.step(ctx, log, Invocation{
			Name:     "portfolio-" + execID + "-compile",
			HostDir:  workspace,
			Language: lang,
			Args:     spec.Compile(tc, dir),
			Env:      e.opts.Environment[lang],
		}, e.opts.CompileTimeout)
		if err != nil {
			return ExecuteResult{}, fmt.Errorf("compile step: %w", err)
		}
		if res.TimedOut {
			return e.finish(log, start, timedOut(lang, e.opts.CompileTimeout, res)), nil
		}
		if res.ExitCode != 0 {
			diag := res.Stderr
			if diag == "" {
				diag = res.Stdout
			}
			return e.finish(log, start, ExecuteResult{
				Outcome:      OutcomeCompileFailed,
				Stdout:       res.Stdout,
				Stderr:       res.Stderr,
				ErrorMessage: "Compilation error:\n" + diag,
				ExitCode:     res.ExitCode,
			}), nil
		}
	}

	res, err := e.step(ctx, log, Invocation{
		Name:     "portfolio-" + execID + "-run",
		HostDir:  workspace,
		Language: lang,
		Args:     spec.Run(tc, dir),
		Env:      e.opts.Environment[lang],
	}, e.opts.RunTimeout)
	if err != nil {
		return ExecuteResult{}, fmt.Errorf("run step: %w", err)
	}
	if res.TimedOut {
		return e.finish(log, start, timedOut(lang, e.opts.RunTimeout, res)), nil
	}
	if res.ExitCode != 0 {
		msg := res.Stderr
		if msg == "" {
			msg = "Execution failed"
		}
		return e.finish(log, start, ExecuteResult{
			Outcome:      OutcomeExecFailed,
			Stdout:       res.Stdout,
			Stderr:       res.Stderr,
			ErrorMessage: msg,
			ExitCode:     res.ExitCode,
		}), nil
	}

	return e.finish(log, start, ExecuteResult{
		Outcome: OutcomeCompleted,
		Stdout:  res.Stdout,
		Stderr:  res.Stderr,
	}), nil
}

// step runs one toolchain invocation under its own deadline.
func (e *Executor) step(ctx context.Context, log *zap.Logger, inv Invocation, timeout time.Duration) (RunResult, error) {
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log.Debug("starting step", zap.String("step", inv.Name), zap.Strings("args", inv.Args))

	res, err := e.runner.Run(stepCtx, e.launcher.Command(inv))
	if res.TimedOut || stepCtx.Err() != nil {
		// the step was cut short by its deadline or by the caller
		e.launcher.Abort(ctx, inv)
	}
	if err != nil {
		return RunResult{}, err
	}
	return res, nil
}

func (*Executor) finish(log *zap.Logger, start time.Time, res ExecuteResult) ExecuteResult {
	res.Duration = time.Since(start)
	log.Info("code execution finished",
		zap.Stringer("outcome", res.Outcome),
		zap.Int("exit_code", res.ExitCode),
		zap.Int("stdout_len", len(res.Stdout)),
		zap.Int("stderr_len", len(res.Stderr)),
		zap.Duration("duration", res.Duration))
	return res
}

func timedOut(lang Language, timeout time.Duration, res RunResult) ExecuteResult {
	return ExecuteResult{
		Outcome:      OutcomeTimedOut,
		Stdout:       res.Stdout,
		Stderr:       res.Stderr,
		ErrorMessage: TimeoutMessage(lang, timeout),
		ExitCode:     res.ExitCode,
	}
}

// TimeoutMessage is the error reported when a step of lang exceeds timeout.
func TimeoutMessage(lang Language, timeout time.Duration) string {
	return fmt.Sprintf("%s code execution timed out (%d seconds)", strings.ToUpper(lang.String()), int(timeout.Seconds()))
}
