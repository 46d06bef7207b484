package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sharmasuraj0123/xo-cowork-api/auth"
)

func (s *Server) registerAuthRoutes(g *gin.RouterGroup) {
	g.POST("/start", s.handleAuthStart)
	g.GET("/status/:auth_session_id", s.handleAuthStatus)
	g.POST("/consume", s.handleAuthConsume)
	g.GET("/whoami", s.handleAuthWhoAmI)
	g.GET("/state", s.handleAuthState)
	g.POST("/logout", s.handleAuthLogout)
}

type authStartRequest struct {
	Scopes          string `json:"scopes"`
	ClientReference string `json:"client_reference"`
}

type authConsumeRequest struct {
	AuthSessionID string `json:"auth_session_id"`
	PollToken     string `json:"poll_token"`
}

func (s *Server) handleAuthStart(c *gin.Context) {
	// The body is optional; both fields have defaults upstream.
	var req authStartRequest
	_ = c.ShouldBindJSON(&req)

	out, err := s.flow.Start(c.Request.Context(), req.Scopes, req.ClientReference)
	if err != nil {
		s.authError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleAuthStatus(c *gin.Context) {
	out, err := s.flow.Status(c.Request.Context(), c.Param("auth_session_id"), c.Query("poll_token"))
	if err != nil {
		s.authError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleAuthConsume(c *gin.Context) {
	var req authConsumeRequest
	_ = c.ShouldBindJSON(&req)

	authSessionID, pollToken, err := auth.ResolveConsumeCredentials(req.AuthSessionID, req.PollToken)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := s.flow.Consume(c.Request.Context(), authSessionID, pollToken)
	if err != nil {
		s.authError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleAuthWhoAmI(c *gin.Context) {
	userID, err := s.flow.WhoAmI(c.Request.Context())
	if err != nil {
		s.authError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID})
}

func (s *Server) handleAuthState(c *gin.Context) {
	c.JSON(http.StatusOK, s.flow.State.Snapshot())
}

func (s *Server) handleAuthLogout(c *gin.Context) {
	s.flow.State.Clear()
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// authError maps auth flow failures to responses, preserving upstream HTTP
// statuses where the failure came from the auth provider.
func (s *Server) authError(c *gin.Context, err error) {
	var upstream *auth.UpstreamError
	switch {
	case errors.As(err, &upstream):
		c.JSON(upstream.Status, gin.H{"error": upstream.Body})
	case errors.Is(err, auth.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		s.logger.Error("auth request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
