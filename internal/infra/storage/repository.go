package storage

import (
	"context"
	"errors"

	"github.com/meetsync/healthwatch/internal/core/domain"
)

// ErrIntegrationNotFound is returned when an integration doesn't exist.
var ErrIntegrationNotFound = errors.New("integration not found")

// IntegrationRepository handles integration record storage.
type IntegrationRepository interface {
	// ListActive returns all active integrations of a type.
	ListActive(ctx context.Context, typ domain.IntegrationType) ([]*domain.Integration, error)

	// ListByUser returns all integrations owned by a user, active or not.
	ListByUser(ctx context.Context, userID int64) ([]*domain.Integration, error)

	// Get retrieves one integration by type and id.
	Get(ctx context.Context, typ domain.IntegrationType, id int64) (*domain.Integration, error)

	// SetActive flips the active flag (used to deactivate on sustained failure).
	SetActive(ctx context.Context, typ domain.IntegrationType, id int64, active bool) error
}
