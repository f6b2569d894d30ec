package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agenthands/loubot/internal/collab"
	"github.com/agenthands/loubot/internal/core/ingest"
	"github.com/agenthands/loubot/internal/core/kb"
	"github.com/agenthands/loubot/internal/graph"
)

const uploadField = "prolog_file"

func sessionOf(c *gin.Context) string {
	return c.GetString(sessionKey)
}

func (s *Server) Health(c *gin.Context) {
	if err := s.deps.Health.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) UploadKnowledge(c *gin.Context) {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file received."})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read uploaded file."})
		return
	}
	defer f.Close()

	res, err := s.deps.Ingest.Ingest(c.Request.Context(), sessionOf(c), f)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"bot_response": res.Message, "summary": res.Summary})
	case errors.Is(err, kb.ErrSyntax):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Syntax error in Prolog file.", "details": err.Error()})
	case errors.Is(err, ingest.ErrIngestionInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "An upload is already being processed for this session."})
	case errors.Is(err, graph.ErrStoreUnavailable) && res != nil:
		c.JSON(http.StatusOK, gin.H{"bot_response": res.Message, "error": "graph store unavailable"})
	default:
		s.logger.Error("Failed to ingest program", zap.String("session", sessionOf(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process file"})
	}
}

type RelationChatRequest struct {
	Subject  string `json:"subject" binding:"required"`
	Relation string `json:"relation" binding:"required"`
	Message  string `json:"message"`
}

func (s *Server) RelationChat(c *gin.Context) {
	var req RelationChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	reply, err := s.deps.Chat.RelationTurn(c.Request.Context(), sessionOf(c), req.Message, req.Subject, req.Relation)
	if err != nil {
		s.logger.Error("Failed to answer relation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to answer"})
		return
	}
	c.JSON(http.StatusOK, reply)
}

type SocialChatRequest struct {
	AccountEmail string `json:"account_email"`
	Relation     string `json:"relation" binding:"required"`
	Message      string `json:"message"`
	BotResponse  string `json:"bot_response"`
}

func (s *Server) SocialChat(c *gin.Context) {
	var req SocialChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	email := req.AccountEmail
	if email == "" {
		email = sessionOf(c)
	}

	reply, err := s.deps.Chat.SocialTurn(c.Request.Context(), sessionOf(c), email, req.Relation, req.Message, req.BotResponse)
	if err != nil {
		s.logger.Error("Failed to record social mention", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record mention"})
		return
	}
	c.JSON(http.StatusOK, reply)
}

type TurnRequest struct {
	Message     string `json:"message"`
	BotResponse string `json:"bot_response" binding:"required"`
}

func (s *Server) Turn(c *gin.Context) {
	var req TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	reply, err := s.deps.Chat.Turn(c.Request.Context(), sessionOf(c), req.Message, req.BotResponse)
	if err != nil {
		s.logger.Error("Failed to record turn", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record turn"})
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (s *Server) RelationGraph(c *gin.Context) {
	name, relation := c.Query("name"), c.Query("relation")
	if name == "" || relation == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and relation are required"})
		return
	}

	data, err := s.deps.Relations.Graph(c.Request.Context(), sessionOf(c), name, relation)
	if err != nil {
		s.logger.Error("Failed to build relation graph", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build graph"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"graph_data": data})
}

func (s *Server) Clusters(c *gin.Context) {
	clusters, err := s.deps.Relations.Clusters(c.Request.Context(), sessionOf(c))
	if err != nil {
		s.logger.Error("Failed to detect clusters", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to detect clusters"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"clusters": clusters})
}

type SessionValueRequest struct {
	Value string `json:"value"`
}

func (s *Server) SetSessionValue(c *gin.Context) {
	var req SessionValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := s.deps.Sessions.SetWithTimestamp(c.Request.Context(), sessionOf(c), c.Param("key"), req.Value); err != nil {
		s.logger.Error("Failed to store session value", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store value"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (s *Server) GetSessionValue(c *gin.Context) {
	ttl := s.deps.SessionTTL
	if raw := c.Query("ttl"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ttl must be a positive number of seconds"})
			return
		}
		ttl = time.Duration(n) * time.Second
	}

	key := c.Param("key")
	value, ok, err := s.deps.Sessions.GetIfNotExpired(c.Request.Context(), sessionOf(c), key, ttl)
	if err != nil {
		s.logger.Error("Failed to read session value", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read value"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Value missing or expired"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

type DetectionsRequest struct {
	Detections []collab.Detection `json:"detections"`
}

func (s *Server) UpdateDetections(c *gin.Context) {
	var req DetectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	s.deps.Detections.Update(sessionOf(c), req.Detections)
	c.JSON(http.StatusOK, gin.H{"status": "success", "count": len(req.Detections)})
}

func (s *Server) CurrentDetections(c *gin.Context) {
	id := sessionOf(c)
	dets := s.deps.Detections.Current(id)
	if dets == nil {
		dets = []collab.Detection{}
	}
	c.JSON(http.StatusOK, gin.H{
		"detections": dets,
		"summary":    s.deps.Detections.Summary(id),
		"stats":      s.deps.Detections.Stats(),
	})
}

func (s *Server) UpdateTelemetry(c *gin.Context) {
	var t collab.Telemetry
	if err := c.ShouldBindJSON(&t); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	s.deps.Telemetry.Update(t)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
