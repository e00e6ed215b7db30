package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"styleguide-bot/internal/backend"
	"styleguide-bot/internal/config"
)

// healthcheck consulta /bot/health y sale con codigo 1 si el backend no esta sano.
func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := backend.NewHTTPClient(cfg.APIURL, cfg.QueryTimeout, logger)
	hs, err := client.CheckHealth(ctx)
	if err != nil {
		logger.Error("health check failed", zap.String("api_url", cfg.APIURL), zap.Error(err))
		os.Exit(1)
	}
	logger.Info("health check", zap.String("status", hs.Status), zap.String("time", hs.Time))
	fmt.Println(hs.Status)
	if hs.Status != "healthy" {
		os.Exit(1)
	}
}
