/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the capacity planning server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Initialize SQLite store and load the snapshot
  3. Load regulatory tables (AVR, BayKiBiG)
  4. Create API handler and router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port      HTTP server port (default: 8080, env PORT)
  -db        SQLite database path (default: capakita.db, env DB_PATH)
             Use ":memory:" for an in-memory database
  -avr       AVR config JSON file (built-in defaults when empty)
  -baykibig  BayKiBiG config JSON file (built-in defaults when empty)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

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
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/marten-lucas/capakita-sub001/api"
	"github.com/marten-lucas/capakita-sub001/factory"
	"github.com/marten-lucas/capakita-sub001/store/sqlite"
)

func main() {
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envString("DB_PATH", "capakita.db"), "SQLite database path")
	avrPath := flag.String("avr", envString("AVR_CONFIG", ""), "AVR config JSON file")
	bkbPath := flag.String("baykibig", envString("BAYKIBIG_CONFIG", ""), "BayKiBiG config JSON file")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer store.Close()

	snap, err := store.LoadSnapshot(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load snapshot")
	}

	avrTable, err := factory.LoadAVR(*avrPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load AVR configs")
	}
	bkbTable, err := factory.LoadBayKiBiG(*bkbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load BayKiBiG configs")
	}

	handler := api.NewHandler(store, snap, avrTable, bkbTable, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", *port).Int("scenarios", len(snap.Scenarios)).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
