package main

import (
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"styleguide-bot/internal/config"
	apihttp "styleguide-bot/internal/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	stubHandler := apihttp.NewStubHandler(logger, cfg.RecaptchaSiteKey, apihttp.DefaultStyleCorpus)
	router := apihttp.NewRouter(logger, stubHandler)

	server := &http.Server{
		Addr:              ":" + cfg.StubPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting stub backend", zap.String("port", cfg.StubPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
