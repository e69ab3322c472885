package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"shuttle-router/internal/config"
	"shuttle-router/internal/database"
	"shuttle-router/internal/server"
	"shuttle-router/internal/sqlite"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
	env := config.FromEnv()

	dbPath := env.DBPath
	if dbPath == "" {
		var err error
		dbPath, err = database.GetDefaultDBPath()
		if err != nil {
			return fmt.Errorf("failed to resolve database path: %w", err)
		}
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}

	srv, err := server.New(server.Config{
		Env: env,
		DB:  store,
	})
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to create server: %w", err)
	}

	actualAddr, err := srv.Start()
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to start server: %w", err)
	}
	log.Printf("Listening on http://%s (time_limit=%v solve_rps=%g)", actualAddr, env.TimeLimit, env.SolveRPS)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	sig := <-shutdown
	log.Printf("Received signal %v, starting graceful shutdown", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("could not gracefully shutdown the server: %w", err)
	}

	log.Println("Server stopped")
	return nil
}
