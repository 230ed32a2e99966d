package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	apperrors "github.com/Kamar-Folarin/github-portfolio/internal/errors"
	"github.com/Kamar-Folarin/github-portfolio/internal/models"
)

// SaveRun inserts a run and its records in a single transaction. Records keep
// their position so LatestRecords returns them in the order they were fetched.
func (s *PostgresStore) SaveRun(ctx context.Context, username string, records []models.RepositoryRecord) (uuid.UUID, error) {
	if username == "" {
		return uuid.Nil, apperrors.NewValidationError("username cannot be empty", nil)
	}

	runID := uuid.New()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO portfolio_runs (id, username, repository_count)
		VALUES ($1, $2, $3)`,
		runID, username, len(records)); err != nil {
		return uuid.Nil, fmt.Errorf("failed to save run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO repository_records (run_id, position, full_name, record)
		VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to prepare record statement: %w", err)
	}
	defer stmt.Close()

	for i, record := range records {
		recordJSON, err := json.Marshal(record)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to marshal record %s: %w", record.FullName, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, i, record.FullName, string(recordJSON)); err != nil {
			return uuid.Nil, fmt.Errorf("failed to save record %s: %w", record.FullName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return runID, nil
}

func (s *PostgresStore) LatestRecords(ctx context.Context, username string) ([]models.RepositoryRecord, error) {
	var runID uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM portfolio_runs
		WHERE username = $1
		ORDER BY created_at DESC
		LIMIT 1`, username).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no stored portfolio for %s", username), nil)
	} else if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT record FROM repository_records
		WHERE run_id = $1
		ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := []models.RepositoryRecord{}
	for rows.Next() {
		var recordJSON []byte
		if err := rows.Scan(&recordJSON); err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}

		var record models.RepositoryRecord
		if err := json.Unmarshal(recordJSON, &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating record rows: %w", err)
	}

	return records, nil
}
