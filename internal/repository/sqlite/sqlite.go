package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"fleetpoll/internal/domain"
	"fleetpoll/internal/repository"
)

// Repository implements repository.FactStore using SQLite
type Repository struct {
	db *sql.DB
}

var _ repository.FactStore = (*Repository)(nil)

// New opens (creating if needed) the database at dbPath and migrates it.
// ":memory:" gives a private in-memory store.
func New(dbPath string) (*Repository, error) {
	dsn := ":memory:?_pragma=foreign_keys(1)"
	if dbPath != ":memory:" {
		dsn = "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serialises writers and keeps :memory: databases
	// from splitting across the pool.
	db.SetMaxOpenConns(1)

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		devices INTEGER NOT NULL DEFAULT 0,
		succeeded INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS cdp_facts (
		run_id TEXT NOT NULL,
		address TEXT NOT NULL,
		device TEXT NOT NULL,
		enabled INTEGER NOT NULL,
		neighbors INTEGER NOT NULL,
		status TEXT NOT NULL,
		PRIMARY KEY (run_id, address),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS identity_facts (
		run_id TEXT NOT NULL,
		address TEXT NOT NULL,
		device TEXT NOT NULL,
		software TEXT NOT NULL,
		version TEXT NOT NULL,
		hardware TEXT NOT NULL,
		encryption TEXT NOT NULL,
		PRIMARY KEY (run_id, address),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_identity_device ON identity_facts(device);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// SaveRun inserts or updates a run
func (r *Repository) SaveRun(ctx context.Context, run *domain.Run) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			devices = excluded.devices,
			succeeded = excluded.succeeded
	`, runInsertArgs(run)...)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun retrieves a run by ID
func (r *Repository) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	var row runRow
	err := r.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ?`, id,
	).Scan(row.scanArgs()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	run, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// RecentRuns lists runs newest first. limit <= 0 returns all runs.
func (r *Repository) RecentRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		var row runRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SaveNeighborFacts stores the neighbor facts of a run in one transaction.
// Facts are keyed by address, so a duplicate address fails the whole batch.
func (r *Repository) SaveNeighborFacts(ctx context.Context, runID string, facts []domain.CdpNeighborFact) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO cdp_facts (run_id, address, device, enabled, neighbors, status)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare neighbor insert: %w", err)
		}
		defer stmt.Close()

		for _, f := range facts {
			if _, err := stmt.ExecContext(ctx, runID, f.Address, f.Device, boolToInt(f.Enabled), f.Neighbors, string(f.Status)); err != nil {
				return fmt.Errorf("failed to save neighbor fact for %s (%s): %w", f.Device, f.Address, err)
			}
		}
		return nil
	})
}

// NeighborFacts returns the neighbor facts of a run ordered by device
func (r *Repository) NeighborFacts(ctx context.Context, runID string) ([]domain.CdpNeighborFact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT address, device, enabled, neighbors, status
		FROM cdp_facts WHERE run_id = ? ORDER BY device, address
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query neighbor facts: %w", err)
	}
	defer rows.Close()

	var facts []domain.CdpNeighborFact
	for rows.Next() {
		var (
			f       domain.CdpNeighborFact
			enabled int64
			status  string
		)
		if err := rows.Scan(&f.Address, &f.Device, &enabled, &f.Neighbors, &status); err != nil {
			return nil, fmt.Errorf("failed to scan neighbor fact: %w", err)
		}
		f.Enabled = enabled != 0
		f.Status = domain.CDPStatus(status)
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// SaveIdentityFacts stores the identity facts of a run in one transaction
func (r *Repository) SaveIdentityFacts(ctx context.Context, runID string, facts []domain.DeviceIdentityFact) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO identity_facts (run_id, address, device, software, version, hardware, encryption)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare identity insert: %w", err)
		}
		defer stmt.Close()

		for _, f := range facts {
			if _, err := stmt.ExecContext(ctx, runID, f.Address, f.Device, f.Software, f.Version, f.Hardware, string(f.Encryption)); err != nil {
				return fmt.Errorf("failed to save identity fact for %s (%s): %w", f.Device, f.Address, err)
			}
		}
		return nil
	})
}

// IdentityFacts returns the identity facts of a run ordered by device
func (r *Repository) IdentityFacts(ctx context.Context, runID string) ([]domain.DeviceIdentityFact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT address, device, software, version, hardware, encryption
		FROM identity_facts WHERE run_id = ? ORDER BY device, address
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query identity facts: %w", err)
	}
	defer rows.Close()

	var facts []domain.DeviceIdentityFact
	for rows.Next() {
		var (
			f          domain.DeviceIdentityFact
			encryption string
		)
		if err := rows.Scan(&f.Address, &f.Device, &f.Software, &f.Version, &f.Hardware, &encryption); err != nil {
			return nil, fmt.Errorf("failed to scan identity fact: %w", err)
		}
		f.Encryption = domain.EncryptionClass(encryption)
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

func (r *Repository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
