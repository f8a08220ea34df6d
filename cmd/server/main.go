package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"marquee/internal/container"
	"marquee/internal/handlers"
	"marquee/internal/logger"
)

func main() {
	logger.Init()
	log := logger.Get()

	err := godotenv.Load(".env.local")
	if err != nil {
		log.Info("No .env file found, using system environment variables")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := container.New(ctx)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize services")
	}
	defer c.Close()

	router := handlers.NewRouter(
		handlers.NewCatalogHandler(c.Resolver, log),
		handlers.NewAdminHandler(c.Pipeline, c.Store, c.Config.IngestPageCap, c.Config.IngestTimeout, log),
		c.Config.AdminToken,
	)

	c.Scheduler.Start(ctx)

	srv := &http.Server{
		Addr:        ":" + c.Config.Port,
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// Manual ingestion holds the connection for the whole run.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Infof("Catalog server starting on port %s", c.Config.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server error")
		}
	}()

	<-shutdownChan
	log.Info("Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown error")
	}
	cancel()
	log.Info("Shutdown complete")
}
