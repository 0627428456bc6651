package provision

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists profiles and organizations in Postgres.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) LookupProfile(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM profiles WHERE id = $1)`,
		userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to look up profile: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) CreateOrganization(ctx context.Context, org Organization) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO organizations (id, name, slug) VALUES ($1, $2, $3)`,
		org.ID, org.Name, org.Slug,
	)
	if err != nil {
		return fmt.Errorf("failed to insert organization: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateProfile(ctx context.Context, p Profile) error {
	orgID := sql.NullString{String: p.OrganizationID, Valid: p.OrganizationID != ""}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, email, full_name, organization_id, role)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`,
		p.UserID, p.Email, p.FullName, orgID, p.Role,
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}
