package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// PostgresWriter persists event batches in the activity_logs table. The whole
// batch rides one transaction so a partial write never counts as durable.
type PostgresWriter struct {
	db *sql.DB
}

func NewPostgresWriter(db *sql.DB) *PostgresWriter {
	return &PostgresWriter{db: db}
}

func (w *PostgresWriter) Write(ctx context.Context, batch []Event) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range batch {
		data, err := json.Marshal(e.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal event data: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO activity_logs
			 (id, user_id, organization_id, activity_type, category, description, data, context_url, client_info, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			uuid.NewString(),
			nullable(e.UserID),
			nullable(e.OrganizationID),
			string(e.Type),
			e.Category,
			e.Description,
			data,
			e.ContextURL,
			e.ClientInfo,
			e.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to insert activity log: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit activity logs: %w", err)
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
