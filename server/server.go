// Package server exposes the dashboard state store and the transcription
// pipeline over HTTP: a REST surface for widget and layout operations, a
// token endpoint for client session credentials, and a WebSocket bridge that
// relays browser audio to the realtime recognition service.
package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/outsquaremd/medidash/dashboard"
	"github.com/outsquaremd/medidash/speech"
)

// Config contains server dependencies and settings.
type Config struct {
	// AllowedOrigins restricts browser access. Empty allows any origin.
	AllowedOrigins []string

	// Tokens issues client session tokens. Required.
	Tokens *TokenManager

	// Dial connects one live transcription session to the recognition
	// service. Nil disables the bridge.
	Dial speech.DialFunc

	// Transcribers holds batch providers for whole-recording uploads.
	Transcribers *speech.Registry

	// DefaultTranscriber selects the batch provider when a request names
	// none.
	DefaultTranscriber string

	// SampleRate is the PCM sample rate of bridge audio. Default 16000.
	SampleRate int

	// Framing selects the outbound audio framing strategy, "pcm" or "wav".
	Framing string
}

// Server wraps the HTTP router and its dependencies.
type Server struct {
	router *gin.Engine
	store  *dashboard.Store
	defs   *dashboard.Registry
	cfg    Config
}

// New creates a server over the dashboard store and widget registry.
func New(cfg Config, store *dashboard.Store, defs *dashboard.Registry) (*Server, error) {
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("token manager required")
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Transcribers == nil {
		cfg.Transcribers = speech.NewRegistry()
	}

	s := &Server{
		store: store,
		defs:  defs,
		cfg:   cfg,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), corsMiddleware(cfg.AllowedOrigins))

	router.GET("/", s.root)
	router.GET("/health", s.health)

	api := router.Group("/api")
	{
		api.POST("/token", s.issueToken)

		api.GET("/dashboard", s.getDashboard)
		api.POST("/widgets", s.addWidget)
		api.PATCH("/widgets/:id", s.updateWidget)
		api.DELETE("/widgets/:id", s.removeWidget)
		api.PUT("/layout", s.replaceLayout)
		api.POST("/edit-mode/toggle", s.toggleEditMode)

		api.GET("/layouts", s.listLayouts)
		api.POST("/layouts", s.saveLayout)
		api.POST("/layouts/:id/load", s.loadLayout)
		api.DELETE("/layouts/:id", s.deleteLayout)

		api.GET("/widget-definitions", s.listDefinitions)

		api.POST("/transcribe-file", s.transcribeFile)
	}

	router.GET("/ws/transcribe", s.transcribeStream)

	s.router = router
	return s, nil
}

// Handler returns the underlying HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the server on addr and blocks.
func (s *Server) Run(addr string) error {
	slog.Info("http server listening", "addr", addr)
	return s.router.Run(addr)
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "medidash",
		"status":  "running",
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":             "healthy",
		"dashboard":          s.store.Stats(),
		"live_transcription": s.cfg.Dial != nil,
		"batch_providers":    len(s.cfg.Transcribers.List()),
	})
}

// issueToken hands the browser a short-lived session token for the
// transcription bridge.
func (s *Server) issueToken(c *gin.Context) {
	var req struct {
		Subject string `json:"subject"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	if req.Subject == "" {
		req.Subject = "browser"
	}

	token, expires, err := s.cfg.Tokens.Generate(req.Subject, ScopeTranscribe)
	if err != nil {
		slog.Error("issue session token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expires.Unix(),
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
