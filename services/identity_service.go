package services

import (
	"context"
	"errors"
	"time"

	"github.com/hubauth/jwtauthenticator/models"
	"github.com/hubauth/jwtauthenticator/repositories"
	"github.com/hubauth/jwtauthenticator/utils"
	"go.uber.org/zap"
)

// IdentityService maps resolved usernames onto local hub accounts.
type IdentityService struct {
	users       repositories.UserRepository
	createUsers bool
	logger      *zap.Logger
	now         func() time.Time
}

// NewIdentityService creates an IdentityService. When createUsers is false
// only pre-provisioned accounts may log in.
func NewIdentityService(users repositories.UserRepository, createUsers bool, logger *zap.Logger) *IdentityService {
	return &IdentityService{
		users:       users,
		createUsers: createUsers,
		logger:      logger,
		now:         time.Now,
	}
}

// ResolveUser returns the account for username, creating it on first login
// when allowed, and stamps the login time.
func (s *IdentityService) ResolveUser(ctx context.Context, username string) (*models.User, error) {
	if err := utils.ValidateUsername(username); err != nil {
		domainErr := WrapError(ErrInvalidUsername, err)
		for field, msg := range utils.GetValidationFields(err) {
			domainErr.WithDetail(field, msg)
		}
		return nil, domainErr
	}

	user, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrNotFound):
		user, err = s.provision(ctx, username)
		if err != nil {
			return nil, err
		}
	default:
		return nil, WrapError(ErrDatabaseError, err)
	}

	if err := s.users.RecordLogin(ctx, user.ID, s.now().UTC()); err != nil {
		// The login itself is still valid.
		s.logger.Warn("failed to record login",
			zap.String("username", username),
			zap.Error(err))
	}

	return user, nil
}

func (s *IdentityService) provision(ctx context.Context, username string) (*models.User, error) {
	if !s.createUsers {
		s.logger.Info("rejected login for unprovisioned user", zap.String("username", username))
		return nil, ErrUserNotProvisioned
	}

	user := models.NewUser(username)
	err := s.users.Create(ctx, user)
	switch {
	case err == nil:
		s.logger.Info("provisioned user on first login",
			zap.String("username", username),
			zap.String("user_id", user.ID.String()))
		return user, nil

	case errors.Is(err, repositories.ErrDuplicate):
		// Lost a race with a concurrent first login.
		existing, getErr := s.users.GetByUsername(ctx, username)
		if getErr != nil {
			return nil, WrapError(ErrDatabaseError, getErr)
		}
		return existing, nil

	default:
		return nil, WrapError(ErrDatabaseError, err)
	}
}
