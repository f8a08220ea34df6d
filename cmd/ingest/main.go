package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"marquee/internal/container"
	"marquee/internal/logger"
)

func main() {
	pages := flag.Int("pages", 0, "maximum pages per endpoint (0 uses INGEST_PAGE_CAP)")
	flag.Parse()

	logger.Init()
	log := logger.Get()

	if err := godotenv.Load(".env.local"); err != nil {
		log.Info("No .env file found, using system environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.New(ctx)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize services")
	}
	defer c.Close()

	if !c.Upstream.Configured() {
		log.Fatal("TMDB_API_KEY is required. Set it in .env file or as environment variable")
	}

	pageCap := *pages
	if pageCap <= 0 {
		pageCap = c.Config.IngestPageCap
	}

	if c.Config.IngestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Config.IngestTimeout)
		defer cancel()
	}

	result, err := c.Pipeline.Run(ctx, pageCap)
	if err != nil {
		log.WithError(err).Fatal("Ingestion failed")
	}

	log.WithFields(logrus.Fields{
		"items_written":     result.ItemsWritten,
		"endpoints_aborted": result.EndpointsAborted,
		"duration":          result.Duration.String(),
	}).Info("Batch ingestion complete")
}
