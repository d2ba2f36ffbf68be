package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/isdmx/portfolio/blog"
	"github.com/isdmx/portfolio/config"
	"github.com/isdmx/portfolio/contact"
	"github.com/isdmx/portfolio/sandbox"
	"github.com/isdmx/portfolio/scoring"
)

// defaultLanguage is used when a request names no language.
const defaultLanguage = "python"

// Handler handles HTTP requests
type Handler struct {
	logger    *zap.Logger
	executor  sandbox.SandboxExecutor
	scores    *scoring.Service
	contacts  *contact.Store
	blogs     *blog.Library
	staticDir string
}

// NewHandler creates a new handler
func NewHandler(cfg *config.Config, logger *zap.Logger, executor sandbox.SandboxExecutor, scores *scoring.Service, contacts *contact.Store, blogs *blog.Library) *Handler {
	return &Handler{
		logger:    logger,
		executor:  executor,
		scores:    scores,
		contacts:  contacts,
		blogs:     blogs,
		staticDir: cfg.Server.StaticDir,
	}
}

// Health handles GET /healthz
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ExecuteCodeRequest represents the request body for /api/execute-code
type ExecuteCodeRequest struct {
	Code string `json:"code"`
	// Language is nil when the field is absent, which selects python.
	Language *string `json:"language"`
}

// ExecuteCode handles POST /api/execute-code
func (h *Handler) ExecuteCode(c *gin.Context) {
	var req ExecuteCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}
	if req.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No code provided"})
		return
	}

	language := defaultLanguage
	if req.Language != nil {
		language = *req.Language
	}

	result, err := h.executor.Execute(c.Request.Context(), sandbox.ExecuteRequest{
		Language: language,
		Code:     req.Code,
	})
	if err != nil {
		var unsupported *sandbox.UnsupportedLanguageError
		switch {
		case errors.As(err, &unsupported):
			c.JSON(http.StatusOK, gin.H{"success": false, "error": unsupported.Error()})
		case errors.Is(err, sandbox.ErrEmptyCode):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No code provided"})
		default:
			h.logger.Error("code execution failed", zap.String("language", language), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Server error: " + err.Error()})
		}
		return
	}

	if !result.Success() {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": result.ErrorMessage})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "output": result.Stdout, "error": result.Stderr})
}

// MoodAnalysisRequest represents the request body for /api/mood-analysis
type MoodAnalysisRequest struct {
	Text string `json:"text"`
}

// MoodAnalysis handles POST /api/mood-analysis
func (h *Handler) MoodAnalysis(c *gin.Context) {
	var req MoodAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please provide text for analysis"})
		return
	}

	result, _, err := h.scores.AnalyzeMood(c.Request.Context(), req.Text)
	if err != nil {
		h.logger.Error("mood analysis failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error analyzing text"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// PassPredict handles POST /api/pass-predict
func (h *Handler) PassPredict(c *gin.Context) {
	var features scoring.Features
	if err := c.ShouldBindJSON(&features); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid input."})
		return
	}

	result, _, err := h.scores.PredictPass(c.Request.Context(), features)
	if errors.Is(err, scoring.ErrMissingFields) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing fields."})
		return
	}
	if err != nil {
		h.logger.Error("pass prediction failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// SubmitContact handles POST /api/contact
func (h *Handler) SubmitContact(c *gin.Context) {
	var msg contact.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please fill all fields!"})
		return
	}

	if _, err := h.contacts.Save(msg); err != nil {
		if errors.Is(err, contact.ErrMissingFields) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please fill all fields!"})
			return
		}
		h.logger.Error("failed to save contact submission", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error saving message. Please try again."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message saved! I'll get back to you soon."})
}

// ListContacts handles GET /admin/contacts
func (h *Handler) ListContacts(c *gin.Context) {
	submissions, err := h.contacts.List()
	if err != nil {
		h.logger.Error("failed to read contact submissions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error reading contacts: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "submissions": submissions, "count": len(submissions)})
}

// ListBlogs handles GET /api/blogs
func (h *Handler) ListBlogs(c *gin.Context) {
	posts, err := h.blogs.List()
	if err != nil {
		h.logger.Error("failed to list blog posts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error listing posts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "posts": posts, "count": len(posts)})
}

// BlogContent handles GET /api/blogs/*filename
func (h *Handler) BlogContent(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("filename"), "/")
	if name == "" {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Post not found"})
		return
	}

	post, err := h.blogs.Render(name)
	switch {
	case errors.Is(err, blog.ErrInvalidPath):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid blog path"})
	case errors.Is(err, blog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Post not found"})
	case err != nil:
		h.logger.Error("failed to render blog post", zap.String("file", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"title":    post.Title,
			"html":     post.HTML,
			"filename": post.Filename,
		})
	}
}
