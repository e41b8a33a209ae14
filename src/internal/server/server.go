package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"wellmind-session-svc/src/clients"
	"wellmind-session-svc/src/internal/config"
	"wellmind-session-svc/src/internal/dependency"
)

var log = logrus.StandardLogger()

type Server struct {
	cfg *config.Configuration
}

func New(cfg *config.Configuration) *Server {
	return &Server{cfg: cfg}
}

// Start connects the external resources, restores the persisted session once
// and serves the HTTP surface until interrupted.
func (s *Server) Start() error {
	gin.SetMode(s.cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())

	redisClient, err := clients.NewRedisClient(&s.cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	// Activity publishing is best-effort; a missing broker degrades to
	// local-only tracking instead of blocking startup.
	rabbitMQ, err := clients.NewRabbitMQ(&s.cfg.Queue)
	if err != nil {
		log.WithError(err).Warn("RabbitMQ unavailable, activity events will not be published")
		rabbitMQ = nil
	} else {
		defer rabbitMQ.Close()
		if err := rabbitMQ.SetupExchange(); err != nil {
			log.WithError(err).Warn("Failed to declare activity exchange")
		}
	}

	deps := dependency.NewDependencyManager(router, redisClient, rabbitMQ, s.cfg)
	SetupRoutes(deps)

	// Restore before any route may read the session.
	restoreCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	deps.SessionManager.Restore(restoreCtx)
	cancel()
	defer deps.SessionManager.Close()

	srv := &http.Server{
		Addr:         ":" + s.cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Listening on :%s", s.cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Infof("Received signal %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
