package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/xhad/bookrag/internal/types"
	"github.com/xhad/bookrag/pkg/llm"
	"github.com/xhad/bookrag/pkg/workerpool"
)

const invalidBodyMessage = "Error: invalid request body"

type Config struct {
	Name           string
	Port           int
	Workers        int
	AllowedOrigins []string
}

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatResponse always carries both fields; Error is null on success.
type ChatResponse struct {
	Response string  `json:"response"`
	Error    *string `json:"error"`
}

// Server exposes the answering agent over HTTP.
type Server struct {
	config     Config
	answerer   types.Answerer
	guard      llm.Guard
	pool       *workerpool.Pool
	engine     *gin.Engine
	httpServer *http.Server
	log        *logrus.Entry
}

// New builds the HTTP service. guard may be nil, in which case every message
// goes to the answerer.
func New(config Config, answerer types.Answerer, guard llm.Guard) (*Server, error) {
	if config.Name == "" {
		config.Name = "Enhanced RAG Chatbot API"
	}
	if config.Port == 0 {
		config.Port = 8000
	}

	corsConfig := cors.Config{
		AllowOrigins:     config.AllowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		MaxAge:           12 * time.Hour,
	}
	if err := corsConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid allowed origins: %w", err)
	}

	s := &Server{
		config:   config,
		answerer: answerer,
		guard:    guard,
		pool:     workerpool.New(config.Workers),
		log:      logrus.WithField("component", "server"),
	}

	engine := gin.New()
	engine.Use(requestID(), requestLogger(s.log), gin.Recovery(), cors.New(corsConfig))
	engine.GET("/", s.root)
	engine.POST("/chat", s.chat)
	s.engine = engine

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// Handler returns the routed engine.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully, letting
// in-flight answers finish.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithFields(logrus.Fields{"addr": s.httpServer.Addr, "workers": s.pool.Size()}).Info("server listening")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": s.config.Name + " is running"})
}

func (s *Server) chat(c *gin.Context) {
	log := entry(c, s.log)

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.WithError(err).Warn("invalid chat request")
		c.JSON(http.StatusOK, failure(invalidBodyMessage))
		return
	}

	if s.guard != nil && s.guard.IsGeneral(req.Message) {
		log.Debug("answered general question")
		c.JSON(http.StatusOK, ChatResponse{Response: s.guard.Reply(req.Message)})
		return
	}

	answer, err := workerpool.Run(c.Request.Context(), s.pool, func(ctx context.Context) (string, error) {
		return s.answerer.Answer(ctx, req.Message)
	})
	if err != nil {
		kind, message := llm.ClassifyError(err)
		log.WithError(err).WithField("kind", kind).Error("chat failed")
		c.JSON(http.StatusOK, failure(message))
		return
	}

	c.JSON(http.StatusOK, ChatResponse{Response: answer})
}

func failure(message string) ChatResponse {
	return ChatResponse{Response: "", Error: &message}
}
