// Package db persists consolidated networks to a sqlite database so
// successive experiments can be compared with plain SQL. Each
// invocation is recorded as one batch: the batch row carries the
// aggregation settings, and the location and edge tables hang off its
// uuid.
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Imperialdramon/irace-stn/internal/stn"
)

type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the network store at path.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening network store: %w", err)
	}

	_, err = sqlDB.Exec(`
		CREATE TABLE IF NOT EXISTS batches (
			batch_id      TEXT PRIMARY KEY,
			name          TEXT,
			criterion     TEXT,
			significance  BIGINT,
			type_order    TEXT,
			run_count     BIGINT,
			created_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS locations (
			batch_id      TEXT,
			code          TEXT,
			samples       BIGINT,
			quality       DOUBLE,
			elite         TEXT,
			type          TEXT,
			FOREIGN KEY(batch_id) REFERENCES batches(batch_id)
		);
		CREATE TABLE IF NOT EXISTS edges (
			batch_id      TEXT,
			run           TEXT,
			fitness1      DOUBLE,
			solution1     TEXT,
			elite1        TEXT,
			type1         TEXT,
			iteration1    BIGINT,
			fitness2      DOUBLE,
			solution2     TEXT,
			elite2        TEXT,
			type2         TEXT,
			iteration2    BIGINT,
			FOREIGN KEY(batch_id) REFERENCES batches(batch_id)
		);
	`)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("creating network store schema: %w", err)
	}

	return &DB{sqlDB}, nil
}

// Batch describes one stored invocation.
type Batch struct {
	ID           string
	Name         string
	Criterion    string
	Significance int
	TypeOrder    string
	RunCount     int
	CreatedAt    time.Time
}

// RecordNetwork stores a built network as a new batch and returns the
// batch id. The insert is transactional: a failure leaves no trace.
func (db *DB) RecordNetwork(name string, runCount int, res *stn.Result) (string, error) {
	batchID := uuid.NewString()

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("starting batch transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO batches (batch_id, name, criterion, significance, type_order, run_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		batchID, name, res.Options.Criterion.String(), res.Options.Significance,
		res.Options.TypeOrder.String(), runCount,
	)
	if err != nil {
		return "", fmt.Errorf("recording batch: %w", err)
	}

	locStmt, err := tx.Prepare(
		`INSERT INTO locations (batch_id, code, samples, quality, elite, type)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing location insert: %w", err)
	}
	defer locStmt.Close()
	for _, loc := range res.Locations {
		if _, err := locStmt.Exec(batchID, loc.Code, len(loc.Samples), loc.Quality(),
			loc.Elite.String(), loc.Type.String()); err != nil {
			return "", fmt.Errorf("recording location %q: %w", loc.Code, err)
		}
	}

	edgeStmt, err := tx.Prepare(
		`INSERT INTO edges (batch_id, run,
		   fitness1, solution1, elite1, type1, iteration1,
		   fitness2, solution2, elite2, type2, iteration2)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing edge insert: %w", err)
	}
	defer edgeStmt.Close()
	for _, edge := range res.Edges {
		if _, err := edgeStmt.Exec(batchID, edge.Run,
			edge.From.Fitness, edge.From.Code, edge.From.Elite.String(), edge.From.Type.String(), edge.From.Iteration,
			edge.To.Fitness, edge.To.Code, edge.To.Elite.String(), edge.To.Type.String(), edge.To.Iteration,
		); err != nil {
			return "", fmt.Errorf("recording edge %s->%s: %w", edge.From.Code, edge.To.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing batch: %w", err)
	}
	return batchID, nil
}

// DeleteBatch removes a batch and its locations and edges.
func (db *DB) DeleteBatch(batchID string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("starting delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM edges WHERE batch_id = ?`, batchID); err != nil {
		return fmt.Errorf("failed to delete edges: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM locations WHERE batch_id = ?`, batchID); err != nil {
		return fmt.Errorf("failed to delete locations: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM batches WHERE batch_id = ?`, batchID)
	if err != nil {
		return fmt.Errorf("failed to delete batch: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("batch not found")
	}

	return tx.Commit()
}

// GetBatch retrieves one batch's settings row.
func (db *DB) GetBatch(batchID string) (*Batch, error) {
	var b Batch
	err := db.QueryRow(
		`SELECT batch_id, name, criterion, significance, type_order, run_count, created_at
		 FROM batches WHERE batch_id = ?`, batchID).
		Scan(&b.ID, &b.Name, &b.Criterion, &b.Significance, &b.TypeOrder, &b.RunCount, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("batch not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	return &b, nil
}

// StoredLocation is one row of the locations table.
type StoredLocation struct {
	Code    string
	Samples int
	Quality float64
	Elite   string
	Type    string
}

// LocationsForBatch returns a batch's locations ordered by code.
func (db *DB) LocationsForBatch(batchID string) ([]StoredLocation, error) {
	rows, err := db.Query(
		`SELECT code, samples, quality, elite, type
		 FROM locations WHERE batch_id = ? ORDER BY code`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var locs []StoredLocation
	for rows.Next() {
		var loc StoredLocation
		if err := rows.Scan(&loc.Code, &loc.Samples, &loc.Quality, &loc.Elite, &loc.Type); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locs = append(locs, loc)
	}
	return locs, rows.Err()
}

// CountEdgesForBatch reports how many edges a batch recorded.
func (db *DB) CountEdgesForBatch(batchID string) (int, error) {
	var count int
	if err := db.QueryRow(
		`SELECT COUNT(*) FROM edges WHERE batch_id = ?`, batchID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count edges: %w", err)
	}
	return count, nil
}
