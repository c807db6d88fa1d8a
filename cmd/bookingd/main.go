package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"eventbooking/internal/config"
	"eventbooking/internal/infra/db"
	httpinfra "eventbooking/internal/infra/http"
	"eventbooking/internal/infra/logging"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("failed to read config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	logger := logging.New(cfg)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.JWTSecret == config.InsecureDefaultSecret {
		logger.Warn("JWT_SECRET is not set; using the insecure development default")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.NewStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}
	defer store.Close()

	srv, err := httpinfra.NewServer(ctx, cfg, store, logger)
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}
	defer srv.Close()

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
