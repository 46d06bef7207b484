package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sharmasuraj0123/xo-cowork-api/agent"
	"github.com/sharmasuraj0123/xo-cowork-api/agentstream"
	"github.com/sharmasuraj0123/xo-cowork-api/cliexec"
)

// AskQuestionRequest is the body of both ask endpoints.
type AskQuestionRequest struct {
	ProjectName string `json:"project_name" binding:"required"`
	Question    string `json:"question" binding:"required"`
	UserID      string `json:"user_id"`
	MessageType string `json:"message_type"`
	AgentType   string `json:"agent_type"`
}

func (r *AskQuestionRequest) applyDefaults() {
	if r.UserID == "" {
		r.UserID = "default_user"
	}
	if r.MessageType == "" {
		r.MessageType = "@xo"
	}
}

func (r *AskQuestionRequest) params() agent.AskParams {
	return agent.AskParams{
		ConversationKey: r.ProjectName,
		ActorID:         r.UserID,
		Question:        r.Question,
		AgentType:       r.AgentType,
		MessageType:     r.MessageType,
	}
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "running",
		"service": "xo-cowork-api",
		"backend": s.svc.Backend().Name(),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
		"backend":         s.svc.Backend().Name(),
		"chat_api_url":    s.chatAPIURL,
		"active_sessions": s.svc.Registry().Len(),
	})
}

func (s *Server) handleListSessions(c *gin.Context) {
	sessions := s.svc.Registry().Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	key := c.Param("project_id")
	_, existed := s.svc.Registry().Resolve(key)
	s.svc.Registry().Remove(key)

	if !existed {
		c.JSON(http.StatusOK, gin.H{
			"message":    fmt.Sprintf("no session for project %s", key),
			"project_id": key,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    fmt.Sprintf("session cleared for project %s", key),
		"project_id": key,
	})
}

func (s *Server) handleAskQuestion(c *gin.Context) {
	var req AskQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.applyDefaults()

	answer, err := s.svc.Ask(c.Request.Context(), req.params())
	if err != nil {
		s.logger.Error("ask failed", "project", req.ProjectName, "error", err)
		c.JSON(askErrorStatus(err), gin.H{"error": fmt.Sprintf("Failed to process question: %v", err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":             nil,
		"message":        answer.Text,
		"project_id":     req.ProjectName,
		"user_id":        req.UserID,
		"session_id":     answer.SessionID,
		"is_new_session": answer.IsNew,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleAskQuestionStreaming(c *gin.Context) {
	var req AskQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.applyDefaults()

	stream, err := s.svc.AskStream(c.Request.Context(), req.params())
	if err != nil {
		s.logger.Error("stream start failed", "project", req.ProjectName, "error", err)
		c.JSON(askErrorStatus(err), gin.H{"error": fmt.Sprintf("Failed to process question: %v", err)})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	for ev := range stream.Events {
		frame, err := agentstream.Marshal(ev)
		if err != nil {
			s.logger.Warn("event marshal failed", "error", err)
			continue
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", frame); err != nil {
			// Client went away; the service goroutine drains the rest.
			return
		}
		c.Writer.Flush()
	}
}

// askErrorStatus maps turn failures to HTTP statuses. Timeouts become 504,
// resume against an unknown session 409, everything else 500.
func askErrorStatus(err error) int {
	switch {
	case errors.Is(err, cliexec.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, agent.ErrNoResumeTarget):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
