package sandbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// MockCommandRunner implements CommandRunner for testing. Results are
// looked up by the command's first argument.
type MockCommandRunner struct {
	mu       sync.Mutex
	results  map[string]RunResult
	errs     map[string]error
	commands []Command
}

func (m *MockCommandRunner) Run(_ context.Context, cmd Command) (RunResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = append(m.commands, cmd)

	name := filepath.Base(cmd.Args[0])
	if err, ok := m.errs[name]; ok {
		return RunResult{}, err
	}
	return m.results[name], nil
}

func (m *MockCommandRunner) binaries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.commands))
	for _, c := range m.commands {
		out = append(out, filepath.Base(c.Args[0]))
	}
	return out
}

// recordingFileSystem records the workspaces it creates.
type recordingFileSystem struct {
	RealFileSystem
	mu      sync.Mutex
	created []string
	written map[string][]byte
}

func (r *recordingFileSystem) MkdirTemp(dir, pattern string) (string, error) {
	path, err := r.RealFileSystem.MkdirTemp(dir, pattern)
	if err == nil {
		r.mu.Lock()
		r.created = append(r.created, path)
		r.mu.Unlock()
	}
	return path, err
}

func (r *recordingFileSystem) WriteFile(filename string, data []byte, perm os.FileMode) error {
	r.mu.Lock()
	if r.written == nil {
		r.written = make(map[string][]byte)
	}
	r.written[filepath.Base(filename)] = data
	r.mu.Unlock()
	return r.RealFileSystem.WriteFile(filename, data, perm)
}

func (r *recordingFileSystem) assertCleaned(t *testing.T) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, dir := range r.created {
		_, err := os.Stat(dir)
		assert.True(t, os.IsNotExist(err), "workspace %s still exists", dir)
	}
}

type failingFileSystem struct {
	RealFileSystem
}

func (failingFileSystem) WriteFile(string, []byte, os.FileMode) error {
	return errors.New("disk full")
}

func newTestExecutor(t *testing.T, runner CommandRunner, fs FileSystem) *Executor {
	t.Helper()
	return NewExecutor(zaptest.NewLogger(t), Options{WorkspaceRoot: t.TempDir()},
		WithCommandRunner(runner),
		WithFileSystem(fs),
	)
}

func TestExecutorConstructor(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("Defaults", func(t *testing.T) {
		e := NewExecutor(logger, Options{})
		assert.Equal(t, DefaultCompileTimeout, e.opts.CompileTimeout)
		assert.Equal(t, DefaultRunTimeout, e.opts.RunTimeout)
		assert.IsType(t, ProcessRunner{}, e.runner)
		assert.IsType(t, LocalLauncher{}, e.launcher)
		assert.IsType(t, RealFileSystem{}, e.fs)
	})

	t.Run("WithOptions", func(t *testing.T) {
		runner := &MockCommandRunner{}
		fs := &recordingFileSystem{}
		launcher := &ContainerLauncher{}
		e := NewExecutor(logger, Options{WorkspaceRoot: "rel"},
			WithCommandRunner(runner), WithFileSystem(fs), WithLauncher(launcher))
		assert.Equal(t, runner, e.runner)
		assert.Equal(t, fs, e.fs)
		assert.Equal(t, launcher, e.launcher)
		assert.True(t, filepath.IsAbs(e.opts.WorkspaceRoot))
	})
}

func TestExecuteValidation(t *testing.T) {
	runner := &MockCommandRunner{}
	fs := &recordingFileSystem{}
	e := newTestExecutor(t, runner, fs)

	t.Run("EmptyCode", func(t *testing.T) {
		_, err := e.Execute(context.Background(), ExecuteRequest{Language: "python"})
		require.ErrorIs(t, err, ErrEmptyCode)
	})

	t.Run("UnsupportedLanguage", func(t *testing.T) {
		_, err := e.Execute(context.Background(), ExecuteRequest{Language: "ruby", Code: "puts 1"})
		require.ErrorIs(t, err, ErrUnsupportedLanguage)
		assert.EqualError(t, err, "Unsupported language for compilation: ruby")
	})

	assert.Empty(t, fs.created, "no workspace for invalid requests")
	assert.Empty(t, runner.commands)
}

func TestExecuteInterpreted(t *testing.T) {
	runner := &MockCommandRunner{results: map[string]RunResult{
		"python3": {Stdout: "hello\n", Stderr: "warning\n"},
	}}
	fs := &recordingFileSystem{}
	e := newTestExecutor(t, runner, fs)

	res, err := e.Execute(context.Background(), ExecuteRequest{Language: "python", Code: `print("hello")`})
	require.NoError(t, err)

	assert.True(t, res.Success())
	assert.Equal(t, OutcomeCompleted, res.Outcome)
	assert.Equal(t, "hello\n", res.Stdout)
	assert.Equal(t, "warning\n", res.Stderr)
	assert.Empty(t, res.ErrorMessage)
	assert.Equal(t, []string{"python3"}, runner.binaries())
	assert.Equal(t, []byte(`print("hello")`), fs.written["main.py"])

	cmd := runner.commands[0]
	require.Len(t, fs.created, 1)
	assert.Equal(t, fs.created[0], cmd.Dir, "runs inside the workspace")
	fs.assertCleaned(t)
}

func TestExecuteCompiled(t *testing.T) {
	t.Run("CompileAndRun", func(t *testing.T) {
		runner := &MockCommandRunner{results: map[string]RunResult{
			"g++":     {},
			"program": {Stdout: "42\n"},
		}}
		fs := &recordingFileSystem{}
		e := newTestExecutor(t, runner, fs)

		res, err := e.Execute(context.Background(), ExecuteRequest{Language: "cpp", Code: "int main(){}"})
		require.NoError(t, err)
		assert.True(t, res.Success())
		assert.Equal(t, "42\n", res.Stdout)
		assert.Equal(t, []string{"g++", "program"}, runner.binaries())
		fs.assertCleaned(t)
	})

	t.Run("CompileErrorSkipsRun", func(t *testing.T) {
		runner := &MockCommandRunner{results: map[string]RunResult{
			"g++": {Stderr: "main.cpp:1:1: error: expected ';'", ExitCode: 1},
		}}
		fs := &recordingFileSystem{}
		e := newTestExecutor(t, runner, fs)

		res, err := e.Execute(context.Background(), ExecuteRequest{Language: "cpp", Code: "int main(){"})
		require.NoError(t, err)
		assert.False(t, res.Success())
		assert.Equal(t, OutcomeCompileFailed, res.Outcome)
		assert.Equal(t, "Compilation error:\nmain.cpp:1:1: error: expected ';'", res.ErrorMessage)
		assert.Equal(t, []string{"g++"}, runner.binaries())
		fs.assertCleaned(t)
	})

	t.Run("CompileErrorOnStdout", func(t *testing.T) {
		runner := &MockCommandRunner{results: map[string]RunResult{
			"gcc": {Stdout: "bad", ExitCode: 1},
		}}
		e := newTestExecutor(t, runner, &recordingFileSystem{})

		res, err := e.Execute(context.Background(), ExecuteRequest{Language: "c", Code: "x"})
		require.NoError(t, err)
		assert.Equal(t, "Compilation error:\nbad", res.ErrorMessage)
	})

	t.Run("JavaUsesMainClass", func(t *testing.T) {
		runner := &MockCommandRunner{results: map[string]RunResult{
			"javac": {},
			"java":  {Stdout: "hi\n"},
		}}
		fs := &recordingFileSystem{}
		e := newTestExecutor(t, runner, fs)

		res, err := e.Execute(context.Background(), ExecuteRequest{Language: "java", Code: "public class Main{}"})
		require.NoError(t, err)
		assert.True(t, res.Success())
		assert.Contains(t, fs.written, "Main.java")
		assert.Equal(t, "Main", runner.commands[1].Args[len(runner.commands[1].Args)-1])
	})
}

func TestExecuteFailures(t *testing.T) {
	t.Run("NonZeroExit", func(t *testing.T) {
		runner := &MockCommandRunner{results: map[string]RunResult{
			"node": {Stdout: "partial", Stderr: "ReferenceError: x is not defined", ExitCode: 1},
		}}
		fs := &recordingFileSystem{}
		e := newTestExecutor(t, runner, fs)

		res, err := e.Execute(context.Background(), ExecuteRequest{Language: "javascript", Code: "x"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeExecFailed, res.Outcome)
		assert.Equal(t, "ReferenceError: x is not defined", res.ErrorMessage)
		assert.Equal(t, 1, res.ExitCode)
		fs.assertCleaned(t)
	})

	t.Run("NonZeroExitWithoutStderr", func(t *testing.T) {
		runner := &MockCommandRunner{results: map[string]RunResult{
			"python3": {ExitCode: 3},
		}}
		e := newTestExecutor(t, runner, &recordingFileSystem{})

		res, err := e.Execute(context.Background(), ExecuteRequest{Language: "python", Code: "exit(3)"})
		require.NoError(t, err)
		assert.Equal(t, "Execution failed", res.ErrorMessage)
	})

	t.Run("RunTimeout", func(t *testing.T) {
		runner := &MockCommandRunner{results: map[string]RunResult{
			"python3": {Stdout: "spin", TimedOut: true, ExitCode: -1},
		}}
		fs := &recordingFileSystem{}
		e := newTestExecutor(t, runner, fs)

		res, err := e.Execute(context.Background(), ExecuteRequest{Language: "python", Code: "while True: pass"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeTimedOut, res.Outcome)
		assert.Equal(t, "PYTHON code execution timed out (30 seconds)", res.ErrorMessage)
		assert.Equal(t, "spin", res.Stdout)
		fs.assertCleaned(t)
	})

	t.Run("CompileTimeout", func(t *testing.T) {
		runner := &MockCommandRunner{results: map[string]RunResult{
			"javac": {TimedOut: true},
		}}
		e := newTestExecutor(t, runner, &recordingFileSystem{})

		res, err := e.Execute(context.Background(), ExecuteRequest{Language: "java", Code: "class Main{}"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeTimedOut, res.Outcome)
		assert.Equal(t, "JAVA code execution timed out (30 seconds)", res.ErrorMessage)
		assert.Equal(t, []string{"javac"}, runner.binaries())
	})

	t.Run("RunnerError", func(t *testing.T) {
		runner := &MockCommandRunner{errs: map[string]error{
			"python3": errors.New("executable file not found"),
		}}
		fs := &recordingFileSystem{}
		e := newTestExecutor(t, runner, fs)

		_, err := e.Execute(context.Background(), ExecuteRequest{Language: "python", Code: "print(1)"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "run step")
		fs.assertCleaned(t)
	})

	t.Run("WriteError", func(t *testing.T) {
		root := t.TempDir()
		e := NewExecutor(zaptest.NewLogger(t), Options{WorkspaceRoot: root},
			WithCommandRunner(&MockCommandRunner{}), WithFileSystem(failingFileSystem{}))

		_, err := e.Execute(context.Background(), ExecuteRequest{Language: "python", Code: "print(1)"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to write source")

		entries, readErr := os.ReadDir(root)
		require.NoError(t, readErr)
		assert.Empty(t, entries, "workspace removed after write failure")
	})
}

func TestTimeoutMessage(t *testing.T) {
	assert.Equal(t, "CPP code execution timed out (30 seconds)", TimeoutMessage(Cpp, 30*time.Second))
	assert.Equal(t, "JAVASCRIPT code execution timed out (5 seconds)", TimeoutMessage(JavaScript, 5*time.Second))
}

func TestLimitedBuffer(t *testing.T) {
	b := &limitedBuffer{limit: 4}
	n, err := b.Write([]byte("abcdef"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	n, err = b.Write([]byte("gh"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "abcd\n[output truncated]", b.String())
}
