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

	"github.com/S93RUM-06/ocr-pipeline/internal/container"
	"github.com/S93RUM-06/ocr-pipeline/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize dependencies
	deps, err := container.NewContainer()
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer deps.Close()

	// Create HTTP handler with dependencies
	router := transport.NewHandler(deps.ExtractionService, deps.Config)

	// Configure HTTP server with config-based timeouts
	server := &http.Server{
		Addr:         deps.Config.ServerAddress(),
		Handler:      router,
		ReadTimeout:  deps.Config.RequestTimeout,
		WriteTimeout: deps.Config.RequestTimeout + 5*time.Second, // Add buffer for response
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited properly")
}
