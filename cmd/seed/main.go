// Seeds the principal/admin account so the dashboard has a login before any
// other data exists. Safe to re-run; the row is upserted by email.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"rajvedanta/attendance/internal/config"
	"rajvedanta/attendance/internal/crypto"
	"rajvedanta/attendance/internal/db"
	"rajvedanta/attendance/internal/model"
	"rajvedanta/attendance/internal/repository"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("dotenv load error: %v", err)
	}
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}
	defer pool.Close()

	password := getenv("ADMIN_PASSWORD", "admin123")
	hash, err := crypto.HashPassword(password)
	if err != nil {
		log.Fatalf("password hash failed: %v", err)
	}

	admin := model.Admin{
		ID:           uuid.NewString(),
		Fullname:     getenv("ADMIN_FULLNAME", "Renu Singh"),
		Email:        getenv("ADMIN_EMAIL", "principal@rajvedanta.org"),
		Phone:        getenv("ADMIN_PHONE", "8889996486"),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	store := repository.NewStore(pool)
	if err := store.UpsertAdmin(ctx, admin); err != nil {
		log.Fatalf("admin seed failed: %v", err)
	}
	log.Printf("admin user seeded: %s", admin.Email)
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
