package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"baristalog/internal/database"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// List of migration files in order
// Note: Add new migrations to the end of this list
var migrations = []string{
	"migrations/001_initial.sql",
	"migrations/002_add_images_table.sql",
	"migrations/003_add_preferences_table.sql",
}

type SQLiteStore struct {
	database.Notifier

	db    *sql.DB
	rkeys *database.RKeyGenerator
	now   func() time.Time
}

var (
	_ database.Store           = (*SQLiteStore)(nil)
	_ database.PreferenceStore = (*SQLiteStore)(nil)
)

// querier is satisfied by both *sql.DB and *sql.Tx so readers can run
// inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewSQLiteStore creates a new SQLite store and runs migrations
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: writes are serialized and ":memory:" stays a single database.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{
		db:    db,
		rkeys: database.NewRKeyGenerator(0),
		now:   time.Now,
	}

	// Run migrations
	if err := store.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) runMigrations() error {
	// Create migrations table if it doesn't exist
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for i, migrationPath := range migrations {
		version := i + 1

		// Check if migration already applied
		var count int
		err := s.db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if count > 0 {
			continue
		}

		migration, err := migrationFS.ReadFile(migrationPath)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", migrationPath, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %s: %w", migrationPath, err)
		}
		if _, err := tx.Exec(string(migration)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %s: %w", migrationPath, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)", version, s.now().UnixNano()); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", migrationPath, err)
		}

		log.Debug().Int("version", version).Str("file", migrationPath).Msg("Applied migration")
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// withTx runs fn in a transaction and notifies subscribers after commit.
func (s *SQLiteStore) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return database.Persistence(op, fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return database.Persistence(op, err)
	}

	if err := tx.Commit(); err != nil {
		return database.Persistence(op, fmt.Errorf("failed to commit transaction: %w", err))
	}

	s.Notify()
	return nil
}

// ResetAll removes all extractions, equipment, images and preferences in
// one transaction.
func (s *SQLiteStore) ResetAll(ctx context.Context) error {
	return s.withTx(ctx, "reset all data", func(tx *sql.Tx) error {
		// Extractions first so no reference outlives its target.
		for _, table := range []string{"extractions", "images", "beans", "grinders", "brewers", "preferences"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// ========== Image Storage ==========

func loadImage(ctx context.Context, q querier, collection, rkey string) ([]byte, error) {
	var data []byte
	err := q.QueryRowContext(ctx, "SELECT data FROM images WHERE collection = ? AND rkey = ?", collection, rkey).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return data, nil
}

// saveImage stores data for the entity, or removes the row when data is empty.
func saveImage(ctx context.Context, tx *sql.Tx, collection, rkey string, data []byte) error {
	if len(data) == 0 {
		return deleteImage(ctx, tx, collection, rkey)
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO images (collection, rkey, data) VALUES (?, ?, ?)
		ON CONFLICT (collection, rkey) DO UPDATE SET data = excluded.data
	`, collection, rkey, data)
	if err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

func deleteImage(ctx context.Context, tx *sql.Tx, collection, rkey string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM images WHERE collection = ? AND rkey = ?", collection, rkey); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// hasImageExpr is a select expression reporting whether alias.rkey has an image.
func hasImageExpr(alias, collection string) string {
	return fmt.Sprintf("EXISTS (SELECT 1 FROM images i WHERE i.collection = '%s' AND i.rkey = %s.rkey)", collection, alias)
}

// ========== Column Helpers ==========

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullRKey(rkey string) sql.NullString {
	if rkey == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: rkey, Valid: true}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	i := int(ni.Int64)
	return &i
}

// Times are stored as unix nanoseconds and read back in the local zone.
func unixTime(t time.Time) int64 {
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n)
}

func nullTime(p *time.Time) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: p.UnixNano(), Valid: true}
}

func timePtr(ni sql.NullInt64) *time.Time {
	if !ni.Valid {
		return nil
	}
	t := fromUnix(ni.Int64)
	return &t
}

// notFound reports an unknown or malformed record key.
func notFound(kind, rkey string) error {
	return fmt.Errorf("%s %q: %w", kind, rkey, database.ErrNotFound)
}

// checkRKey rejects malformed keys before they reach a query.
func checkRKey(kind, rkey string) error {
	if err := database.ValidateRKey(rkey); err != nil {
		return notFound(kind, rkey)
	}
	return nil
}
