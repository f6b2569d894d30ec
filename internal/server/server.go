// Package server exposes the knowledge, chat, session and sensor endpoints
// over HTTP.
package server

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agenthands/loubot/internal/chat"
	"github.com/agenthands/loubot/internal/collab"
	"github.com/agenthands/loubot/internal/core/ingest"
	"github.com/agenthands/loubot/internal/core/relations"
	"github.com/agenthands/loubot/internal/session"
)

// SessionHeader carries the caller's session id; authentication happens
// upstream.
const SessionHeader = "X-Session-ID"

const sessionKey = "session"

// Deps are the services the handlers call. All fields are required.
type Deps struct {
	Ingest     *ingest.Service
	Chat       *chat.Service
	Relations  *relations.Service
	Sessions   session.Store
	SessionTTL time.Duration
	Detections *collab.DetectionStore
	Telemetry  *collab.LatestTelemetry
	Health     interface {
		Ping(ctx context.Context) error
	}
}

type Server struct {
	deps        Deps
	corsOrigins []string
	logger      *zap.Logger
}

func NewServer(deps Deps, corsOrigins []string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = session.DefaultTTL
	}
	return &Server{deps: deps, corsOrigins: corsOrigins, logger: logger.Named("http")}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), cors.New(s.corsConfig()))

	r.GET("/healthz", s.Health)

	api := r.Group("/")
	api.Use(requireSession())
	{
		api.POST("/knowledge/upload", s.UploadKnowledge)

		api.POST("/chat/relation", s.RelationChat)
		api.POST("/chat/social", s.SocialChat)
		api.POST("/chat/turn", s.Turn)

		api.GET("/graph/relation", s.RelationGraph)
		api.GET("/graph/clusters", s.Clusters)

		api.PUT("/session/:key", s.SetSessionValue)
		api.GET("/session/:key", s.GetSessionValue)

		api.POST("/detections", s.UpdateDetections)
		api.GET("/detections", s.CurrentDetections)
		api.POST("/telemetry", s.UpdateTelemetry)
	}

	return r
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", SessionHeader},
		MaxAge:       12 * time.Hour,
	}
	if len(s.corsOrigins) == 0 || slices.Contains(s.corsOrigins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = s.corsOrigins
	cfg.AllowCredentials = true
	return cfg
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []zap.Field{
			zap.String("method", strings.ToUpper(c.Request.Method)),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if id := c.GetString(sessionKey); id != "" {
			fields = append(fields, zap.String("session", id))
		}

		switch {
		case status >= 500:
			s.logger.Error("HTTP request", fields...)
		case status >= 400:
			s.logger.Warn("HTTP request", fields...)
		default:
			s.logger.Debug("HTTP request", fields...)
		}
	}
}

func requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(SessionHeader))
		if id == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing " + SessionHeader + " header"})
			return
		}
		c.Set(sessionKey, id)
		c.Next()
	}
}
