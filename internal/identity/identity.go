package identity

import (
	"context"

	datamodel "github.com/replybase/replybase/internal/core/datamodel/identity"
)

// Repository is the durable store of principals.
type Repository interface {
	GetByID(ctx context.Context, id string) (*datamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*datamodel.User, error)
	Create(ctx context.Context, user *datamodel.User) error
	// SetExternalAuthID links the external provider subject id. The link is
	// write-once: a user whose external_auth_id is already set is left alone.
	SetExternalAuthID(ctx context.Context, userID, externalAuthID string) error
	Deactivate(ctx context.Context, userID string) error
}

// ServiceAPI is the identity surface other services consume.
type ServiceAPI interface {
	GetByID(ctx context.Context, id string) (*datamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*datamodel.User, error)
	// FindOrCreate resolves the user for an email, creating the record with
	// the supplied password hash when absent. Idempotent under retries and
	// under the crash window between account creation and grant linkage: an
	// existing record is reused, never duplicated, and its credential is
	// never overwritten.
	FindOrCreate(ctx context.Context, email, passwordHash string) (*datamodel.User, error)
	LinkExternalAuth(ctx context.Context, userID, externalAuthID string) error
	Deactivate(ctx context.Context, userID string) error
}
