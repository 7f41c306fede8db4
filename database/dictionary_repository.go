package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"clinical-note-cleaner/models"
)

// DictionaryRepository stores shorthand dictionary entries in a PostgreSQL table
type DictionaryRepository struct {
	db    *PostgresService
	table string
}

// NewDictionaryRepository creates a repository over the given table
func NewDictionaryRepository(db *PostgresService, table string) *DictionaryRepository {
	return &DictionaryRepository{db: db, table: table}
}

// Table returns the table name
func (r *DictionaryRepository) Table() string {
	return r.table
}

func (r *DictionaryRepository) quoted() string {
	return pq.QuoteIdentifier(r.table)
}

// EnsureSchema creates the dictionary table if it does not exist
func (r *DictionaryRepository) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			shorthand  TEXT PRIMARY KEY,
			full_form  TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, r.quoted())

	if _, err := r.db.Pool().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", r.table, err)
	}
	return nil
}

// ListEntries returns every entry ordered by shorthand
func (r *DictionaryRepository) ListEntries(ctx context.Context) ([]models.DictionaryEntry, error) {
	query := fmt.Sprintf(`SELECT shorthand, full_form FROM %s ORDER BY shorthand`, r.quoted())

	rows, err := r.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.table, err)
	}
	defer rows.Close()

	var entries []models.DictionaryEntry
	for rows.Next() {
		var entry models.DictionaryEntry
		if err := rows.Scan(&entry.Shorthand, &entry.FullForm); err != nil {
			return nil, fmt.Errorf("failed to scan dictionary row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dictionary rows: %w", err)
	}
	return entries, nil
}

// ImportEntries upserts entries through a COPY into a staging table.
// Entries must already be free of duplicate shorthands. When replace is true,
// rows whose shorthand is not in entries are removed in the same transaction.
func (r *DictionaryRepository) ImportEntries(ctx context.Context, entries []models.DictionaryEntry, replace bool) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	staging := "dictionary_import_staging"
	_, err = tx.Exec(ctx, fmt.Sprintf(
		`CREATE TEMP TABLE %s (shorthand TEXT NOT NULL, full_form TEXT NOT NULL) ON COMMIT DROP`,
		pq.QuoteIdentifier(staging)))
	if err != nil {
		return 0, fmt.Errorf("failed to create staging table: %w", err)
	}

	rows := make([][]interface{}, len(entries))
	keys := make([]string, len(entries))
	for i, entry := range entries {
		rows[i] = []interface{}{entry.Shorthand, entry.FullForm}
		keys[i] = entry.Shorthand
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{staging},
		[]string{"shorthand", "full_form"}, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to copy entries: %w", err)
	}

	_, err = tx.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (shorthand, full_form, updated_at)
		SELECT shorthand, full_form, $1 FROM %s
		ON CONFLICT (shorthand) DO UPDATE
		SET full_form = EXCLUDED.full_form, updated_at = EXCLUDED.updated_at`,
		r.quoted(), pq.QuoteIdentifier(staging)), time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to upsert entries: %w", err)
	}

	if replace {
		_, err = tx.Exec(ctx, fmt.Sprintf(
			`DELETE FROM %s WHERE NOT (shorthand = ANY($1))`, r.quoted()), keys)
		if err != nil {
			return 0, fmt.Errorf("failed to prune entries: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return copied, nil
}

// DeleteEntries removes the given shorthands and returns how many rows went away
func (r *DictionaryRepository) DeleteEntries(ctx context.Context, shorthands []string) (int64, error) {
	if len(shorthands) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE shorthand = ANY($1)`, r.quoted())
	result, err := r.db.DB().ExecContext(ctx, query, pq.Array(shorthands))
	if err != nil {
		return 0, fmt.Errorf("failed to delete entries: %w", err)
	}
	return rowsAffected(result)
}

// Count returns the number of stored entries
func (r *DictionaryRepository) Count(ctx context.Context) (int, error) {
	var n int
	query := fmt.Sprintf(`SELECT count(*) FROM %s`, r.quoted())
	if err := r.db.DB().QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", r.table, err)
	}
	return n, nil
}

func rowsAffected(result sql.Result) (int64, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}
