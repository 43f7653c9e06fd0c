// Package api exposes the webhook HTTP server that turns GitLab merge
// request events into review pipeline runs.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/docreview/internal/review"
)

// reviewTimeout bounds one webhook-triggered pipeline run.
const reviewTimeout = 5 * time.Minute

// Reviewer runs one review. Satisfied by *review.Service.
type Reviewer interface {
	Run(ctx context.Context, req review.Request) (*review.Outcome, error)
}

// Server is the webhook API server.
type Server struct {
	echo          *echo.Echo
	port          int
	webhookSecret string
	reviewer      Reviewer
}

// NewServer creates the API server around a reviewer.
func NewServer(port int, webhookSecret string, reviewer Reviewer) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())

	server := &Server{
		echo:          e,
		port:          port,
		webhookSecret: webhookSecret,
		reviewer:      reviewer,
	}
	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.echo.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})
	s.echo.POST("/webhook/gitlab", s.handleGitLabWebhook)
}

// Start runs the server until an interrupt, then shuts down gracefully.
func (s *Server) Start() error {
	go func() {
		if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Int("port", s.port).Msg("webhook server listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(ctx)
}

// Handler exposes the routing tree for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
