// Package web serves the read-side HTTP API consumed by the front-end:
// course and topic listings plus the rate-limited file-request endpoint.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"lectorium/core/config"
	"lectorium/core/logger"
)

// Server is the HTTP API around the lecture store and the bot's outbound
// delivery path.
type Server struct {
	listen      string
	accessToken string
	staticDir   string

	store   LectureReader
	sender  FileSender
	limiter *Cooldown

	router *gin.Engine
}

// New builds the server and mounts its routes.
func New(cfg config.WebConfig, profile string, store LectureReader, sender FileSender) *Server {
	if !strings.EqualFold(profile, "debug") && !strings.EqualFold(profile, "dev") {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		listen:      cfg.Listen,
		accessToken: cfg.AccessToken,
		staticDir:   cfg.StaticDir,
		store:       store,
		sender:      sender,
		limiter:     NewCooldown(time.Duration(cfg.CooldownSeconds * float64(time.Second))),
		router:      gin.New(),
	}
	s.mount()
	return s
}

func (s *Server) mount() {
	r := s.router
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	r.GET("/courses", s.handleCourses)
	r.GET("/topics/:courseId", s.handleTopics)
	r.POST("/requestFile", s.handleRequestFile)

	if s.staticDir != "" {
		// Front-end assets; anything unmatched by the API falls through here.
		r.NoRoute(gin.WrapH(http.FileServer(http.Dir(s.staticDir))))
	}
}

// Handler exposes the mounted router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WEB.Info("listening",
			slog.String("event", "web.start"),
			slog.String("addr", s.listen),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.WEB.Info("stopped", slog.String("event", "web.stop"))
	return <-errCh
}
