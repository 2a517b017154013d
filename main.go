package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voteaudit/internal/api"
	"voteaudit/internal/config"
	"voteaudit/internal/container"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load(os.Getenv("VOTEAUDIT_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	if err := appContainer.InitWithDatabase(ctx); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	hub := appContainer.EnableEvents()

	server := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           api.NewRouter(appContainer.Audit, hub, appContainer.Logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			appContainer.Logger.Error("[main] shutdown: %v", err)
		}
	}()

	appContainer.Logger.Info("[main] voteaudit listening on %s (%d detectors)", server.Addr, len(appContainer.Engine.Names()))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appContainer.Logger.Error("[main] server failed: %v", err)
		os.Exit(1)
	}
}
