package user

import (
	"context"
	"time"

	"github.com/replybase/replybase/internal/authz"
	datamodel "github.com/replybase/replybase/internal/core/datamodel/identity"
)

// Profile is the authenticated user's own view: account fields plus the
// resolved role and workspace scope.
type Profile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	IsActive    bool      `json:"is_active"`
	Role        string    `json:"role"`
	WorkspaceID string    `json:"workspace_id,omitempty"`
	HomePath    string    `json:"home_path"`
	CreatedAt   time.Time `json:"created_at"`
}

type IdentityAPI interface {
	GetByID(ctx context.Context, id string) (*datamodel.User, error)
}

type ServiceAPI interface {
	GetProfile(ctx context.Context, userID string) (*Profile, error)
}

type Service struct {
	identities IdentityAPI
	resolver   authz.ResolverAPI
}

func NewService(identities IdentityAPI, resolver authz.ResolverAPI) *Service {
	return &Service{
		identities: identities,
		resolver:   resolver,
	}
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.identities.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	res, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		ID:          u.ID,
		Email:       u.Email,
		IsActive:    u.IsActive,
		Role:        string(res.Role),
		WorkspaceID: res.WorkspaceID,
		HomePath:    authz.HomePath(res.Role),
		CreatedAt:   u.CreatedAt,
	}, nil
}
