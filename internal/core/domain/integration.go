package domain

import (
	"fmt"
	"time"
)

// IntegrationType distinguishes the two integration families we monitor.
type IntegrationType string

const (
	TypeCalendar IntegrationType = "calendar"
	TypeVideo    IntegrationType = "video"
)

// IntegrationTypes lists every monitored type, in sweep order.
var IntegrationTypes = []IntegrationType{TypeCalendar, TypeVideo}

// Integration is a third-party connection owned by a user.
// Credentials is an AES-GCM sealed JSON blob; its decrypted shape depends on
// the provider (see Credentials).
type Integration struct {
	ID          int64           `db:"id"           json:"id"`
	UserID      int64           `db:"user_id"      json:"user_id"`
	Type        IntegrationType `db:"type"         json:"type"`
	Provider    string          `db:"provider"     json:"provider"`
	IsActive    bool            `db:"is_active"    json:"is_active"`
	BaseURL     string          `db:"base_url"     json:"base_url,omitempty"`
	Username    string          `db:"username"     json:"username,omitempty"`
	Credentials []byte          `db:"credentials"  json:"-"`
	CreatedAt   time.Time       `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"   json:"updated_at"`
}

// CheckKey identifies one integration's health state and check job.
type CheckKey struct {
	Type          IntegrationType
	IntegrationID int64
}

// Key builds the CheckKey for an integration.
func (i *Integration) Key() CheckKey {
	return CheckKey{Type: i.Type, IntegrationID: i.ID}
}

// String renders the key in the form used for job dedup and map lookups.
func (k CheckKey) String() string {
	return fmt.Sprintf("%s:%d", k.Type, k.IntegrationID)
}
