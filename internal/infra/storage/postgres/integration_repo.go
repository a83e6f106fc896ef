package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/meetsync/healthwatch/internal/core/domain"
	"github.com/meetsync/healthwatch/internal/infra/storage"
)

// IntegrationRepo implements storage.IntegrationRepository on PostgreSQL.
type IntegrationRepo struct {
	db *DB
}

// NewIntegrationRepo creates a PostgreSQL integration repository.
func NewIntegrationRepo(db *DB) *IntegrationRepo {
	return &IntegrationRepo{db: db}
}

const integrationColumns = `id, user_id, type, provider, is_active, base_url, username, credentials, created_at, updated_at`

// ListActive returns all active integrations of a type.
func (r *IntegrationRepo) ListActive(ctx context.Context, typ domain.IntegrationType) ([]*domain.Integration, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM integrations
		WHERE type = $1 AND is_active = TRUE
		ORDER BY id
	`, integrationColumns)

	var out []*domain.Integration
	if err := r.db.SelectContext(ctx, &out, query, typ); err != nil {
		return nil, fmt.Errorf("failed to list active integrations: %w", err)
	}
	return out, nil
}

// ListByUser returns all integrations owned by a user.
func (r *IntegrationRepo) ListByUser(ctx context.Context, userID int64) ([]*domain.Integration, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM integrations
		WHERE user_id = $1
		ORDER BY type, id
	`, integrationColumns)

	var out []*domain.Integration
	if err := r.db.SelectContext(ctx, &out, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list user integrations: %w", err)
	}
	return out, nil
}

// Get retrieves one integration by type and id.
func (r *IntegrationRepo) Get(ctx context.Context, typ domain.IntegrationType, id int64) (*domain.Integration, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM integrations
		WHERE type = $1 AND id = $2
	`, integrationColumns)

	var integ domain.Integration
	err := r.db.GetContext(ctx, &integ, query, typ, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrIntegrationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get integration: %w", err)
	}
	return &integ, nil
}

// SetActive flips the active flag.
func (r *IntegrationRepo) SetActive(ctx context.Context, typ domain.IntegrationType, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE integrations
		SET is_active = $3, updated_at = NOW()
		WHERE type = $1 AND id = $2
	`, typ, id, active)
	if err != nil {
		return fmt.Errorf("failed to update integration: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrIntegrationNotFound
	}
	return nil
}

var _ storage.IntegrationRepository = (*IntegrationRepo)(nil)
