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

	"scorely-session-svc/src/clients"
	"scorely-session-svc/src/internal/config"
	"scorely-session-svc/src/internal/dependency"
)

var log = logrus.StandardLogger()

type Server struct {
	cfg        *config.Configuration
	deps       *dependency.Manager
	httpServer *http.Server
}

// New connects the backing services and wires the dependency graph.
func New(cfg *config.Configuration) (*Server, error) {
	mongodb, err := clients.NewMongoDB(&cfg.Database)
	if err != nil {
		return nil, err
	}

	redisClient, err := clients.NewRedisClient(&cfg.Redis)
	if err != nil {
		return nil, err
	}

	rabbitMQ, err := clients.NewRabbitMQ(&cfg.Queue)
	if err != nil {
		return nil, err
	}
	if err := rabbitMQ.SetupExchange(); err != nil {
		return nil, err
	}

	broker, err := clients.NewMQTT(&cfg.Broker)
	if err != nil {
		return nil, err
	}

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.Default()

	deps, err := dependency.NewDependencyManager(router, mongodb, redisClient, rabbitMQ, broker, cfg)
	if err != nil {
		return nil, err
	}

	SetupRoutes(deps)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	return &Server{
		cfg:        cfg,
		deps:       deps,
		httpServer: httpServer,
	}, nil
}

// Start launches the dispatcher and the HTTP server and blocks until the
// process receives SIGINT or SIGTERM, then shuts everything down.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.deps.Dispatcher.Start(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("HTTP server listening on port %s", s.cfg.Server.Port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Infof("Received signal %s, shutting down...", sig)
	}

	return s.shutdown(cancel)
}

func (s *Server) shutdown(cancelDispatcher context.CancelFunc) error {
	cancelDispatcher()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}

	s.deps.Broker.Close()

	if err := s.deps.RabbitMQ.Close(); err != nil {
		log.WithError(err).Error("Failed to close RabbitMQ")
	}

	if err := s.deps.Redis.Close(); err != nil {
		log.WithError(err).Error("Failed to close Redis")
	}

	if err := s.deps.Mongodb.Close(shutdownCtx); err != nil {
		log.WithError(err).Error("Failed to close MongoDB")
	}

	log.Info("Shutdown complete")
	return nil
}
