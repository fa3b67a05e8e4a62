package identity

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/replybase/replybase/internal"
	datamodel "github.com/replybase/replybase/internal/core/datamodel/identity"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (*datamodel.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, internal.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*datamodel.User, error) {
	user, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, internal.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) FindOrCreate(ctx context.Context, email, passwordHash string) (*datamodel.User, error) {
	email = NormalizeEmail(email)

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	user := &datamodel.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		// A concurrent caller may have created the same email between the
		// read and the insert; the unique index makes this safe to re-read.
		retry, retryErr := s.repo.GetByEmail(ctx, email)
		if retryErr == nil && retry != nil {
			return retry, nil
		}
		s.logger.Error("failed to create user", "error", err, "email", email)
		return nil, err
	}

	s.logger.Info("user created", "user_id", user.ID, "email", email)
	return user, nil
}

func (s *Service) LinkExternalAuth(ctx context.Context, userID, externalAuthID string) error {
	if err := s.repo.SetExternalAuthID(ctx, userID, externalAuthID); err != nil {
		s.logger.Error("failed to link external auth id", "error", err, "user_id", userID)
		return err
	}
	return nil
}

func (s *Service) Deactivate(ctx context.Context, userID string) error {
	if err := s.repo.Deactivate(ctx, userID); err != nil {
		s.logger.Error("failed to deactivate user", "error", err, "user_id", userID)
		return err
	}
	s.logger.Info("user deactivated", "user_id", userID)
	return nil
}

// NormalizeEmail lowercases the address so invite email matching and user
// lookup are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
