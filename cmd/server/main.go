/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the HubPay commission engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load environment config (.env + process env)
  2. Parse command-line flags (flags override env)
  3. Initialize SQLite store
  4. Wire engine, notifier and API handler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: env PORT or 8080)
  -db      SQLite database path (default: env DB_PATH or hubpay.db)
           Use ":memory:" for an in-memory database

ENVIRONMENT:
  PORT, DB_PATH            Server basics
  SMTP_HOST/PORT/USER/PASS Mail server for approval notices
  SMTP_FROM                Sender address
  NOTIFY_ENABLED           "true" to send real email; otherwise notices
                           are logged only

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/hubpay.db"

  # Run with in-memory database
  ./server -db=":memory:"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charlesifrah/HubPay-sub001/api"
	"github.com/charlesifrah/HubPay-sub001/commission"
	"github.com/charlesifrah/HubPay-sub001/config"
	"github.com/charlesifrah/HubPay-sub001/notify"
	"github.com/charlesifrah/HubPay-sub001/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags override environment
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	logger := log.New(os.Stdout, "", log.LstdFlags)

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Pick a notifier. Without SMTP config, approval notices go to the
	// log so the workflow stays observable in development.
	var notifier commission.Notifier
	if cfg.NotifyEnabled && cfg.SMTPHost != "" {
		notifier = notify.NewEmail(notify.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
			Recipient: func(aeID commission.AEID) (string, error) {
				// No user directory yet; route by AE ID convention.
				return fmt.Sprintf("%s@hubpay.local", aeID), nil
			},
		})
		logger.Printf("notifier: SMTP via %s:%d", cfg.SMTPHost, cfg.SMTPPort)
	} else {
		notifier = &notify.Log{Logger: logger}
		logger.Printf("notifier: log only")
	}

	// Wire the engine and API
	engine := commission.NewEngine(store, notifier, logger)
	handler := api.NewHandler(engine, store, logger)
	handler.Resetter = store

	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
