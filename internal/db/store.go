package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/Kamar-Folarin/github-portfolio/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store defines the interface for persisting fetched portfolios
type Store interface {
	// SaveRun stores one fetch of username and returns the generated run ID
	SaveRun(ctx context.Context, username string, records []models.RepositoryRecord) (uuid.UUID, error)
	// LatestRecords returns the records of the newest run of username in collection order
	LatestRecords(ctx context.Context, username string) ([]models.RepositoryRecord, error)
	Close() error
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Migrate applies the embedded schema migrations
func (s *PostgresStore) Migrate() error {
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
