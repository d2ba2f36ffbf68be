package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isdmx/portfolio/cache"
	"github.com/isdmx/portfolio/config"
	"github.com/isdmx/portfolio/sandbox"
	"github.com/isdmx/portfolio/scoring"
)

// MockSandboxExecutor implements sandbox.SandboxExecutor for testing
type MockSandboxExecutor struct {
	executeResult sandbox.ExecuteResult
	executeError  error
	lastRequest   sandbox.ExecuteRequest
}

func (m *MockSandboxExecutor) Execute(_ context.Context, req sandbox.ExecuteRequest) (sandbox.ExecuteResult, error) { //nolint:gocritic // Mock implementation requires full parameter signature
	m.lastRequest = req
	return m.executeResult, m.executeError
}

type fixedNoise float64

func (n fixedNoise) NormFloat64() float64 { return float64(n) }

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{HTTPPort: 8080},
		Sandbox: config.SandboxConfig{Backend: "local", CompileTimeoutSec: 30, RunTimeoutSec: 30, MemoryMB: 256},
		Cache:   config.CacheConfig{MoodTTLSec: 600, PredictionTTLSec: 1800},
		MCP:     config.MCPConfig{Enabled: true, Path: "/mcp"},
		Logging: config.LoggingConfig{Mode: "production", Level: "info"},
	}
}

func newTestServer(t *testing.T, exec sandbox.SandboxExecutor) *MCPServer {
	t.Helper()
	logger := zaptest.NewLogger(t)
	cfg := testConfig()
	scores := scoring.NewServiceFromConfig(logger, cfg,
		cache.New[any](cache.Options{Logger: logger}),
		scoring.NewMoodAnalyzer(),
		scoring.NewPassPredictor(scoring.WithNoiseSource(fixedNoise(0))))

	s, err := New(cfg, logger, exec, scores)
	require.NoError(t, err)
	return s
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	default:
		t.Fatalf("unexpected content type %T", res.Content[0])
		return ""
	}
}

func TestNewMCPServer(t *testing.T) {
	mockExecutor := &MockSandboxExecutor{}
	server := newTestServer(t, mockExecutor)

	assert.Equal(t, mockExecutor, server.sandboxExec)
	assert.NotNil(t, server.GetMCPServer())
	assert.NotNil(t, server.Handler())
}

func TestToolsList(t *testing.T) {
	server := newTestServer(t, &MockSandboxExecutor{})

	resp := server.GetMCPServer().HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded), string(data))

	names := make([]string, 0, len(decoded.Result.Tools))
	for _, tool := range decoded.Result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"execute_code", "analyze_mood", "predict_pass"}, names)
}

func TestHandleExecuteCode(t *testing.T) {
	mockExecutor := &MockSandboxExecutor{
		executeResult: sandbox.ExecuteResult{
			Outcome:  sandbox.OutcomeCompleted,
			Stdout:   "2\n",
			Duration: 15 * time.Millisecond,
		},
	}
	server := newTestServer(t, mockExecutor)

	res, err := server.handleExecuteCode(context.Background(), callRequest("execute_code", map[string]any{
		"code":     "print(1+1)",
		"language": "python",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.JSONEq(t,
		`{"success":true,"outcome":"completed","stdout":"2\n","stderr":"","exit_code":0,"duration_ms":15}`,
		resultText(t, res))
}

func TestHandleExecuteCode_DefaultsToPython(t *testing.T) {
	mockExecutor := &MockSandboxExecutor{executeResult: sandbox.ExecuteResult{Outcome: sandbox.OutcomeCompleted}}
	server := newTestServer(t, mockExecutor)

	_, err := server.handleExecuteCode(context.Background(), callRequest("execute_code", map[string]any{"code": "print(1)"}))
	require.NoError(t, err)
	assert.Equal(t, "python", mockExecutor.lastRequest.Language)
}

func TestHandleExecuteCode_Failures(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]any
		result   sandbox.ExecuteResult
		err      error
		isError  bool
		contains string
	}{
		{
			name:     "missing code",
			args:     map[string]any{"language": "python"},
			isError:  true,
			contains: "code parameter is required",
		},
		{
			name:     "unsupported language",
			args:     map[string]any{"code": "x", "language": "rust"},
			err:      &sandbox.UnsupportedLanguageError{Language: "rust", Phase: "compilation"},
			isError:  true,
			contains: "Unsupported language for compilation: rust",
		},
		{
			name:     "infrastructure error",
			args:     map[string]any{"code": "x", "language": "python"},
			err:      errors.New("disk full"),
			isError:  true,
			contains: "Execution failed: disk full",
		},
		{
			name: "compile failure is a regular result",
			args: map[string]any{"code": "int main(", "language": "c"},
			result: sandbox.ExecuteResult{
				Outcome:      sandbox.OutcomeCompileFailed,
				ErrorMessage: "Compilation error:\nmain.c:1: error",
				ExitCode:     1,
			},
			contains: `"outcome":"compile_failed"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, &MockSandboxExecutor{executeResult: tt.result, executeError: tt.err})

			res, err := server.handleExecuteCode(context.Background(), callRequest("execute_code", tt.args))
			require.NoError(t, err)
			assert.Equal(t, tt.isError, res.IsError)
			assert.Contains(t, resultText(t, res), tt.contains)
		})
	}
}

func TestHandleAnalyzeMood(t *testing.T) {
	server := newTestServer(t, &MockSandboxExecutor{})

	res, err := server.handleAnalyzeMood(context.Background(), callRequest("analyze_mood", map[string]any{
		"text": "I love this, it is great and amazing",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var mood scoring.MoodResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &mood))
	assert.Equal(t, scoring.MoodPositive, mood.Mood)
	assert.InDelta(t, 90, mood.Confidence, 0.001)

	res, err = server.handleAnalyzeMood(context.Background(), callRequest("analyze_mood", map[string]any{"text": ""}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "Please provide text for analysis", resultText(t, res))
}

func predictArgs() map[string]any {
	return map[string]any{
		"study_hours":              6.0,
		"sleep_hours":              7.5,
		"attendance":               80.0,
		"class_avg_score":          70.0,
		"student_test_score":       75.0,
		"student_assignment_score": 72.0,
		"num_failed_before":        0.0,
		"participation_score":      7.0,
	}
}

func TestHandlePredictPass(t *testing.T) {
	server := newTestServer(t, &MockSandboxExecutor{})

	res, err := server.handlePredictPass(context.Background(), callRequest("predict_pass", predictArgs()))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var pass scoring.PassResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &pass))
	assert.Equal(t, scoring.LabelPass, pass.Label)
	assert.InDelta(t, 95, pass.ProbPass, 0.001)
}

func TestHandlePredictPass_MissingField(t *testing.T) {
	server := newTestServer(t, &MockSandboxExecutor{})
	args := predictArgs()
	delete(args, "attendance")

	res, err := server.handlePredictPass(context.Background(), callRequest("predict_pass", args))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "Missing fields.", resultText(t, res))
}
