// cmd/seeder/main.go
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/unclebandit/linkreach-backend/internal/config"
	"github.com/unclebandit/linkreach-backend/internal/db"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	if err := db.Migrate(cfg.Psql.DSN()); err != nil {
		log.Fatal("migration failed:", err)
	}

	pool, err := db.Open(cfg.Psql)
	if err != nil {
		log.Fatal("failed to connect to DB:", err)
	}
	defer pool.Close()

	seedFiles := []string{
		"seed/campaigns.sql",
		"seed/prospects.sql",
	}

	for _, file := range seedFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			log.Fatalf("failed to read %s: %v", file, err)
		}

		if _, err := pool.Exec(string(content)); err != nil {
			log.Fatalf("failed to execute %s: %v", file, err)
		}
		fmt.Printf("Seeded: %s\n", file)
	}

	fmt.Println("Database seeding completed successfully!")
}
