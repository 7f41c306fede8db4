package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"clinical-note-cleaner/config"
	"clinical-note-cleaner/server"
	"clinical-note-cleaner/services"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := services.NewServiceFactory(cfg).CreateServices(ctx)
	if err != nil {
		log.Fatalf("Failed to create services: %v", err)
	}
	defer container.Close()

	srv := server.NewServer(cfg, container)

	var watch func(context.Context) error
	if container.Watcher != nil {
		watch = container.Watcher.Run
	}

	container.Logger.Info("Clinical note cleaner started", services.String("version", services.Version))
	if err := serve(ctx, srv.Start, watch, container.Logger); err != nil {
		container.Logger.Error("Server stopped with error", err)
		container.Close()
		os.Exit(1)
	}
	container.Logger.Info("Server stopped")
}

// serve runs the HTTP server until ctx ends. A dictionary watcher that fails
// only disables hot reload; the server keeps running on the loaded dictionary.
func serve(ctx context.Context, start, watch func(context.Context) error, logger services.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return start(gctx)
	})
	if watch != nil {
		g.Go(func() error {
			if err := watch(gctx); err != nil && gctx.Err() == nil {
				logger.Error("Dictionary watcher stopped, hot reload disabled", err)
			}
			return nil
		})
	}
	return g.Wait()
}
