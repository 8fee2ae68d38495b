package main

import (
	"errors"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"

	"asdm/internal/app/dsn"
	"asdm/internal/app/repository"
)

// With MIGRATIONS=1 the versioned SQL files under ./migrations are applied;
// otherwise the schema is synchronised from the gorm models.
func main() {
	_ = godotenv.Load()

	if v := os.Getenv("MIGRATIONS"); v == "1" || v == "true" {
		url := dsn.URLFromEnv()
		if url == "" {
			log.Fatal("DB_HOST is not set. Check your .env file")
		}
		if err := runSQLMigrations(url); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
		log.Println("SQL migrations applied successfully")
		return
	}

	dsnStr := dsn.FromEnv()
	if dsnStr == "" {
		log.Fatal("DSN string is empty. Check your .env file")
	}

	// Open runs AutoMigrate over every model.
	repo, err := repository.New(dsnStr)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	defer repo.Close()

	log.Println("Database migration completed successfully")
}

func runSQLMigrations(url string) error {
	m, err := migrate.New("file://migrations", url)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
