package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// ExecuteRequest represents the parameters for code execution
type ExecuteRequest struct {
	Language string
	Code     string
}

// Outcome is the terminal state of an execution.
type Outcome int

// Execution outcomes
const (
	OutcomeCompleted Outcome = iota
	OutcomeCompileFailed
	OutcomeTimedOut
	OutcomeExecFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeCompileFailed:
		return "compile_failed"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeExecFailed:
		return "exec_failed"
	default:
		return "unknown"
	}
}

// ExecuteResult represents the result of code execution. It is built once
// per request and never modified afterwards.
type ExecuteResult struct {
	Outcome Outcome
	Stdout  string
	Stderr  string
	// ErrorMessage is set for every outcome except OutcomeCompleted.
	ErrorMessage string
	ExitCode     int
	Duration     time.Duration
}

// Success reports whether the program ran to a zero exit status.
func (r ExecuteResult) Success() bool {
	return r.Outcome == OutcomeCompleted
}

var (
	// ErrEmptyCode is returned for a request without source code.
	ErrEmptyCode = errors.New("no code provided")
	// ErrUnsupportedLanguage is matched by every UnsupportedLanguageError.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// UnsupportedLanguageError reports a language outside the supported set.
type UnsupportedLanguageError struct {
	Language string
	// Phase is "compilation" or "interpretation".
	Phase string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("Unsupported language for %s: %s", e.Phase, e.Language)
}

func (*UnsupportedLanguageError) Unwrap() error {
	return ErrUnsupportedLanguage
}

// SandboxExecutor defines the interface for sandbox execution
type SandboxExecutor interface {
	Execute(ctx context.Context, req ExecuteRequest) (ExecuteResult, error)
}

// Command is a single process invocation.
type Command struct {
	Args []string
	Dir  string
	// Env is appended to the server's own environment.
	Env []string
}

// RunResult is what a CommandRunner observed of a finished process.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// TimedOut is set when ctx expired before the process exited; the
	// process tree has been killed by the time Run returns.
	TimedOut bool
}

// CommandRunner defines an interface for executing system commands
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (RunResult, error)
}

// Output limits
const (
	// MaxOutputBytes caps each captured stream; the rest is discarded.
	MaxOutputBytes = 1 << 20
	// killGrace bounds how long Run waits for pipes to drain after a kill.
	killGrace = 2 * time.Second
)

// ProcessRunner implements CommandRunner with os/exec. On expiry of ctx the
// whole process group is killed, not only the direct child. Members of the
// group still running when the child exits are killed as well.
type ProcessRunner struct{}

// Run executes cmd and captures stdout and stderr separately.
func (ProcessRunner) Run(ctx context.Context, c Command) (RunResult, error) {
	if len(c.Args) < 1 {
		return RunResult{}, fmt.Errorf("no command provided")
	}

	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...) //nolint:gosec // running user programs is the purpose
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.WaitDelay = killGrace
	configureProcessGroup(cmd)

	stdout := &limitedBuffer{limit: MaxOutputBytes}
	stderr := &limitedBuffer{limit: MaxOutputBytes}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	killProcessGroup(cmd)
	if errors.Is(err, exec.ErrWaitDelay) {
		// the program exited but a descendant kept its output open
		err = nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return RunResult{
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			ExitCode: -1,
			TimedOut: true,
		}, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return RunResult{}, fmt.Errorf("run of %s aborted: %w", c.Args[0], ctxErr)
	}

	exitCode := 0
	if err != nil {
		var exitError *exec.ExitError
		if !errors.As(err, &exitError) {
			return RunResult{}, fmt.Errorf("failed to run %s: %w", c.Args[0], err)
		}
		exitCode = exitError.ExitCode()
	}

	return RunResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}, nil
}

// limitedBuffer keeps the first limit bytes written to it and reports every
// write as successful so the child never sees EPIPE.
type limitedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	room := b.limit - b.buf.Len()
	if room <= 0 {
		b.truncated = true
		return len(p), nil
	}
	if len(p) > room {
		b.buf.Write(p[:room])
		b.truncated = true
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *limitedBuffer) String() string {
	if b.truncated {
		return b.buf.String() + "\n[output truncated]"
	}
	return b.buf.String()
}

// FileSystem defines an interface for file system operations
type FileSystem interface {
	MkdirTemp(dir, pattern string) (string, error)
	WriteFile(filename string, data []byte, perm os.FileMode) error
	RemoveAll(path string) error
}

// RealFileSystem implements FileSystem using actual file system operations
type RealFileSystem struct{}

func (RealFileSystem) MkdirTemp(dir, pattern string) (string, error) {
	return os.MkdirTemp(dir, pattern)
}

func (RealFileSystem) WriteFile(filename string, data []byte, perm os.FileMode) error {
	return os.WriteFile(filename, data, perm)
}

func (RealFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// File permission constants
const (
	FilePermission = 0o644
)
