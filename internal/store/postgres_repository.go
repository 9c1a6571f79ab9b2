package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/statuswatch/statuswatch/internal/incident"
)

// Schema creates the incident archive table.
const Schema = `
	CREATE TABLE IF NOT EXISTS incidents (
		provider          TEXT        NOT NULL,
		identifier        TEXT        NOT NULL,
		title             TEXT        NOT NULL,
		status            TEXT        NOT NULL,
		status_label      TEXT        NOT NULL DEFAULT '',
		message           TEXT,
		affected_products TEXT[]      NOT NULL DEFAULT '{}',
		occurred_at       TIMESTAMPTZ NOT NULL,
		first_seen_at     TIMESTAMPTZ NOT NULL,
		updated_at        TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (provider, identifier)
	);
	CREATE INDEX IF NOT EXISTS incidents_occurred_at_idx ON incidents (occurred_at DESC);
`

const upsertIncident = `
	INSERT INTO incidents (
		provider, identifier, title, status, status_label, message,
		affected_products, occurred_at, first_seen_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $9)
	ON CONFLICT (provider, identifier) DO UPDATE SET
		title = EXCLUDED.title,
		status = EXCLUDED.status,
		status_label = EXCLUDED.status_label,
		message = EXCLUDED.message,
		affected_products = EXCLUDED.affected_products,
		occurred_at = EXCLUDED.occurred_at,
		updated_at = EXCLUDED.updated_at
`

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresRepository creates a new PostgreSQL incident archive.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool, now: time.Now}
}

// EnsureSchema creates the archive table if it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("creating incidents schema: %w", err)
	}
	return nil
}

// UpsertIncidents implements Repository. All rows are written in a single
// batch inside one transaction.
func (r *PostgresRepository) UpsertIncidents(ctx context.Context, incidents []incident.Incident) error {
	rows := archivable(incidents)
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback error is not critical

	now := r.now().UTC()
	batch := &pgx.Batch{}
	for _, inc := range rows {
		products := inc.AffectedProducts
		if products == nil {
			products = []string{}
		}
		batch.Queue(upsertIncident,
			inc.Provider,
			inc.Identifier,
			inc.Title,
			inc.Status,
			inc.StatusLabel,
			inc.Message,
			products,
			inc.Timestamp,
			now,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range rows {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("upserting incident: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ListRecent implements Repository.
func (r *PostgresRepository) ListRecent(ctx context.Context, filter Filter) ([]incident.Incident, error) {
	query, args := listQuery(filter)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []incident.Incident{}
	for rows.Next() {
		var (
			inc     incident.Incident
			message *string
		)
		err := rows.Scan(
			&inc.Provider,
			&inc.Identifier,
			&inc.Title,
			&inc.Status,
			&inc.StatusLabel,
			&message,
			&inc.AffectedProducts,
			&inc.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		if message != nil {
			inc.Message = *message
		}
		inc.Timestamp = inc.Timestamp.UTC()
		result = append(result, inc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Count implements Repository.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM incidents`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func listQuery(filter Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if filter.Provider != "" {
		args = append(args, filter.Provider)
		where = append(where, fmt.Sprintf("provider = $%d", len(args)))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		where = append(where, fmt.Sprintf("occurred_at >= $%d", len(args)))
	}

	var b strings.Builder
	b.WriteString(`SELECT provider, identifier, title, status, status_label, message, affected_products, occurred_at FROM incidents`)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY occurred_at DESC, provider, identifier")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args
}
