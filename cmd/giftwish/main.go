package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mkruglov/giftwish/internal/api"
	"github.com/mkruglov/giftwish/internal/client"
	"github.com/mkruglov/giftwish/internal/config"
	syncpkg "github.com/mkruglov/giftwish/internal/sync"
	"github.com/mkruglov/giftwish/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel)
	l.Info("Starting giftwish...")

	// Backend REST client
	backend := client.New(cfg.APIBaseURL, cfg.HTTPTimeout, l)

	// Sync core: bus, session and the gateway's view
	bus := syncpkg.NewBus()
	session := syncpkg.NewSession(backend, bus, l)
	view := session.Attach("")
	defer view.Close()

	refresher := syncpkg.NewRefresher(session, view, cfg.RefreshInterval, l)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		l.Info("Received shutdown signal...")
		cancel()
	}()

	// Keep the tracked wishlist fresh in the background
	go refresher.Run(ctx)

	// Start HTTP server for the Mini-App gateway
	apiServer := api.NewServer(backend, session, view, refresher, l)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: apiServer.Handler(),
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("HTTP server error: %v", err)
		}
	}()

	l.Info("giftwish started successfully")

	<-ctx.Done()

	l.Info("Shutting down HTTP server...")
	httpServer.Close()

	l.Info("giftwish stopped")
}
