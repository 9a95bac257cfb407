package main

import (
	"database/sql"
	"log"
	"os"

	_ "github.com/lib/pq"
	"github.com/sokoplace/soko-backend/internal/config"
	"github.com/sokoplace/soko-backend/internal/database"
)

func main() {
	if len(os.Args) < 2 || (os.Args[1] != "up" && os.Args[1] != "down") {
		log.Fatal("usage: go run scripts/run_migrations.go up|down")
	}
	direction := database.Direction(os.Args[1])

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	applied, err := database.Migrate(db, "migrations", direction)
	if err != nil {
		log.Fatalf("migrate %s (applied %d): %v", direction, applied, err)
	}
	log.Printf("applied %d %s migration(s)", applied, direction)
}
