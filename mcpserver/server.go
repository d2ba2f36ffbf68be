// Package mcpserver provides the Model Context Protocol (MCP) server implementation.
//
// The mcpserver package exposes the site's interactive demos as MCP tools:
// execute_code runs a snippet in the sandbox, analyze_mood and predict_pass
// return the same cached results as the HTTP endpoints. It uses the
// mark3labs/mcp-go library to handle the protocol details and is served
// over streamable HTTP on the site's own listener.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/isdmx/portfolio/config"
	"github.com/isdmx/portfolio/sandbox"
	"github.com/isdmx/portfolio/scoring"
)

const (
	serverName    = "portfolio-tools"
	serverVersion = "1.0.0"
)

// MCPServer represents the MCP server
type MCPServer struct {
	config      *config.Config
	logger      *zap.Logger
	sandboxExec sandbox.SandboxExecutor
	scores      *scoring.Service
	mcpServer   *server.MCPServer
	httpServer  *server.StreamableHTTPServer
}

// New creates a new MCPServer
func New(cfg *config.Config, logger *zap.Logger, sandboxExec sandbox.SandboxExecutor, scores *scoring.Service) (*MCPServer, error) {
	s := &MCPServer{
		config:      cfg,
		logger:      logger,
		sandboxExec: sandboxExec,
		scores:      scores,
	}

	logger.Info("configuration loaded",
		zap.Int("server.http_port", cfg.Server.HTTPPort),
		zap.String("sandbox.backend", cfg.Sandbox.Backend),
		zap.Int("sandbox.compile_timeout_sec", cfg.Sandbox.CompileTimeoutSec),
		zap.Int("sandbox.run_timeout_sec", cfg.Sandbox.RunTimeoutSec),
		zap.Int("sandbox.memory_mb", cfg.Sandbox.MemoryMB),
		zap.Bool("sandbox.network_enabled", cfg.Sandbox.NetworkEnabled),
		zap.Int("cache.mood_ttl_sec", cfg.Cache.MoodTTLSec),
		zap.Int("cache.prediction_ttl_sec", cfg.Cache.PredictionTTLSec),
		zap.Bool("mcp.enabled", cfg.MCP.Enabled),
		zap.String("mcp.path", cfg.MCP.Path),
	)

	s.mcpServer = server.NewMCPServer(serverName, serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.registerExecuteCodeTool()
	s.registerAnalyzeMoodTool()
	s.registerPredictPassTool()

	s.httpServer = server.NewStreamableHTTPServer(s.mcpServer,
		server.WithEndpointPath(cfg.MCP.Path),
		server.WithStateLess(true),
	)

	return s, nil
}

func languageNames() []string {
	langs := sandbox.Languages()
	names := make([]string, len(langs))
	for i, l := range langs {
		names[i] = l.String()
	}
	return names
}

// registerExecuteCodeTool registers the execute_code tool
func (s *MCPServer) registerExecuteCodeTool() {
	tool := mcp.NewTool("execute_code",
		mcp.WithDescription("Compile (when needed) and run a source snippet in the sandbox"),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("Source code of a complete program"),
		),
		mcp.WithString("language",
			mcp.Description("Source language, python when omitted"),
			mcp.Enum(languageNames()...),
		),
	)

	s.mcpServer.AddTool(tool, s.handleExecuteCode)
}

// executeCodeResult is the JSON text content of an execute_code result.
type executeCodeResult struct {
	Success    bool   `json:"success"`
	Outcome    string `json:"outcome"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	Error      string `json:"error,omitempty"`
	ExitCode   int    `json:"exit_code"`
	DurationMS int64  `json:"duration_ms"`
}

// handleExecuteCode handles the execute_code tool
func (s *MCPServer) handleExecuteCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError("code parameter is required"), nil
	}
	language := request.GetString("language", "python")

	s.logger.Info("executing code in sandbox", zap.String("language", language), zap.Int("code_len", len(code)))

	result, err := s.sandboxExec.Execute(ctx, sandbox.ExecuteRequest{
		Language: language,
		Code:     code,
	})
	if err != nil {
		var unsupported *sandbox.UnsupportedLanguageError
		if errors.As(err, &unsupported) || errors.Is(err, sandbox.ErrEmptyCode) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		s.logger.Error("sandbox execution failed", zap.Error(err), zap.String("language", language))
		return mcp.NewToolResultError(fmt.Sprintf("Execution failed: %v", err)), nil
	}

	return jsonResult(executeCodeResult{
		Success:    result.Success(),
		Outcome:    result.Outcome.String(),
		Stdout:     result.Stdout,
		Stderr:     result.Stderr,
		Error:      result.ErrorMessage,
		ExitCode:   result.ExitCode,
		DurationMS: result.Duration.Milliseconds(),
	})
}

// registerAnalyzeMoodTool registers the analyze_mood tool
func (s *MCPServer) registerAnalyzeMoodTool() {
	tool := mcp.NewTool("analyze_mood",
		mcp.WithDescription("Classify the sentiment of a text as Positive, Negative or Neutral"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to analyze"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleAnalyzeMood)
}

// handleAnalyzeMood handles the analyze_mood tool
func (s *MCPServer) handleAnalyzeMood(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil || text == "" {
		return mcp.NewToolResultError("Please provide text for analysis"), nil
	}

	result, _, err := s.scores.AnalyzeMood(ctx, text)
	if err != nil {
		s.logger.Error("mood analysis failed", zap.Error(err))
		return mcp.NewToolResultError("Error analyzing text"), nil
	}
	return jsonResult(result)
}

// predictionFields lists the numeric arguments of predict_pass.
var predictionFields = []struct {
	name        string
	description string
}{
	{"study_hours", "Hours of study per day"},
	{"sleep_hours", "Hours of sleep per night"},
	{"attendance", "Attendance percentage"},
	{"class_avg_score", "Class average score"},
	{"student_test_score", "Student test score"},
	{"student_assignment_score", "Student assignment score"},
	{"num_failed_before", "Number of previously failed courses"},
	{"participation_score", "Participation score"},
}

// registerPredictPassTool registers the predict_pass tool
func (s *MCPServer) registerPredictPassTool() {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Predict whether a student passes from study habits and scores"),
	}
	for _, f := range predictionFields {
		opts = append(opts, mcp.WithNumber(f.name, mcp.Required(), mcp.Description(f.description)))
	}

	s.mcpServer.AddTool(mcp.NewTool("predict_pass", opts...), s.handlePredictPass)
}

// handlePredictPass handles the predict_pass tool
func (s *MCPServer) handlePredictPass(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	values := make(map[string]*float64, len(predictionFields))
	for _, f := range predictionFields {
		v, err := request.RequireFloat(f.name)
		if err != nil {
			return mcp.NewToolResultError("Missing fields."), nil
		}
		values[f.name] = &v
	}

	result, _, err := s.scores.PredictPass(ctx, scoring.Features{
		StudyHours:             values["study_hours"],
		SleepHours:             values["sleep_hours"],
		Attendance:             values["attendance"],
		ClassAvgScore:          values["class_avg_score"],
		StudentTestScore:       values["student_test_score"],
		StudentAssignmentScore: values["student_assignment_score"],
		NumFailedBefore:        values["num_failed_before"],
		ParticipationScore:     values["participation_score"],
	})
	if err != nil {
		s.logger.Error("pass prediction failed", zap.Error(err))
		return mcp.NewToolResultError("Server error"), nil
	}
	return jsonResult(result)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// Handler returns the streamable HTTP handler of the server.
func (s *MCPServer) Handler() http.Handler {
	return s.httpServer
}

// GetMCPServer returns the underlying MCP server
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
