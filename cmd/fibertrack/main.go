package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fibertrack/infrastructure/audit"
	"fibertrack/infrastructure/cache"
	httpserver "fibertrack/infrastructure/http"
	"fibertrack/infrastructure/sqlite"
	"fibertrack/infrastructure/token"
)

func main() {
	addr := getenv("APP_ADDR", ":8080")
	dbPath := getenv("SQLITE_PATH", "fibertrack.db")
	migrationsDir := getenv("MIGRATIONS_DIR", "")
	tokenSecret := os.Getenv("TOKEN_SECRET")
	if tokenSecret == "" {
		log.Fatal("TOKEN_SECRET is required")
	}

	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	tokenSvc, err := token.NewService(tokenSecret, 30*time.Minute, 7*24*time.Hour)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}
	userCache := cache.NewUserCache()
	auditSvc := audit.NewService()

	server := httpserver.NewServer(addr, db, userCache, tokenSvc, auditSvc)
	if err := server.Start(); err != nil {
		log.Fatalf("start server: %v", err)
	}
	log.Printf("fibertrack listening on %s", addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	if err := server.Stop(); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
