// Package server exposes the agent adapter over HTTP: buffered and
// SSE-streamed question endpoints, session management, health, and the
// browser-auth flow routes.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sharmasuraj0123/xo-cowork-api/agent"
	"github.com/sharmasuraj0123/xo-cowork-api/auth"
)

// Server is the HTTP front end.
type Server struct {
	engine     *gin.Engine
	svc        *agent.Service
	flow       *auth.Flow
	logger     *slog.Logger
	chatAPIURL string
}

// New assembles the router. flow may be nil to disable the auth routes.
func New(svc *agent.Service, flow *auth.Flow, chatAPIURL string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		svc:        svc,
		flow:       flow,
		logger:     logger,
		chatAPIURL: chatAPIURL,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
	}))

	engine.GET("/", s.handleRoot)
	engine.GET("/health", s.handleHealth)
	engine.GET("/sessions", s.handleListSessions)
	engine.DELETE("/sessions/:project_id", s.handleDeleteSession)
	engine.POST("/ask_question", s.handleAskQuestion)
	engine.POST("/ask_question_streaming", s.handleAskQuestionStreaming)

	if flow != nil {
		s.registerAuthRoutes(engine.Group("/xo-auth"))
	}

	s.engine = engine
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("server listening", "addr", addr, "backend", s.svc.Backend().Name())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		err := <-errCh
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
