package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/atinyakov/AnimalFacts/internal/models"
)

// PostgresAuditRepository records moderation actions in a PostgreSQL database.
type PostgresAuditRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAuditRepository creates a new PostgresAuditRepository with the given database connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresAuditRepository(db *sql.DB) *PostgresAuditRepository {
	return &PostgresAuditRepository{DB: db}
}

// Record inserts a single audit entry.
// Target ids use the full unsigned 64-bit range, so they are sent as decimal
// strings into the NUMERIC(20) target_id column.
func (r *PostgresAuditRepository) Record(ctx context.Context, e models.AuditEntry) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO audit_log (id, actor, action, resource, animal, target_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.Actor, e.Action, e.Resource, string(e.Animal), strconv.FormatUint(e.TargetID, 10), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest audit entries, most recent first.
func (r *PostgresAuditRepository) Recent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, actor, action, resource, animal, target_id, created_at
		FROM audit_log ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("Recent: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var (
			e        models.AuditEntry
			animal   string
			targetID string
			created  time.Time
		)
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.Resource, &animal, &targetID, &created); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		id, err := strconv.ParseUint(targetID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse target id %q: %w", targetID, err)
		}
		e.Animal = models.Animal(animal)
		e.TargetID = id
		e.CreatedAt = created
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
