package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/kunalverma25/users-api/config"
	"github.com/kunalverma25/users-api/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	hash, err := helpers.HashPassword("password123")
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	now := time.Now().UTC()
	for i := 1; i <= 3; i++ {
		id := uuid.NewString()
		username := fmt.Sprintf("demo%d", i)
		_, err = db.Exec(`
			INSERT INTO users (id, username, first_name, last_name, email, password, is_active, created, updated)
			VALUES ($1, $2, $3, $4, $5, $6, true, $7, $7)
			ON CONFLICT (username) DO NOTHING
		`, id, username, "Demo", fmt.Sprintf("User%d", i), fmt.Sprintf("%s@example.com", username), hash, now)
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", username, err)
		}
		fmt.Printf("seeded user %s\n", username)
	}
}
