package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hubauth/jwtauthenticator/models"
)

var (
	// ErrNotFound is returned when a record does not exist (or has expired).
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository handles local hub account data operations
type UserRepository interface {
	// Create inserts a new user; ErrDuplicate when the username is taken
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByUsername retrieves a user by exact username
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// RecordLogin stamps the user's last successful login
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// SessionRepository stores login sessions until they expire
type SessionRepository interface {
	// Save stores the session until its ExpiresAt
	Save(ctx context.Context, session *models.Session) error

	// Get retrieves a live session; expired sessions yield ErrNotFound
	Get(ctx context.Context, id uuid.UUID) (*models.Session, error)

	// Delete removes a session; deleting a missing session is not an error
	Delete(ctx context.Context, id uuid.UUID) error
}

// LoginEventRepository persists the login audit trail
type LoginEventRepository interface {
	// Insert appends an event
	Insert(ctx context.Context, event *models.LoginEvent) error

	// ListByUsername returns the newest events for username first
	ListByUsername(ctx context.Context, username string, limit int) ([]*models.LoginEvent, error)
}
