package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hubauth/jwtauthenticator/models"
	"github.com/hubauth/jwtauthenticator/repositories"
)

// sweepInterval is the minimum time between expiry sweeps run by Save.
const sweepInterval = time.Minute

// SessionRepository keeps sessions in memory. Expired entries are dropped
// when read, and Save sweeps the whole map at most once per sweepInterval,
// so the map holds live sessions plus at most one interval of stale ones.
type SessionRepository struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]models.Session
	now       func() time.Time
	lastSweep time.Time
}

// NewSessionRepository creates an empty session repository
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[uuid.UUID]models.Session),
		now:      time.Now,
	}
}

func (r *SessionRepository) Save(_ context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.lastSweep) >= sweepInterval {
		r.sweep(now)
	}

	r.sessions[session.ID] = *session
	return nil
}

func (r *SessionRepository) sweep(now time.Time) {
	for id, session := range r.sessions {
		if session.IsExpired(now) {
			delete(r.sessions, id)
		}
	}
	r.lastSweep = now
}

func (r *SessionRepository) Get(_ context.Context, id uuid.UUID) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("get session: %w", repositories.ErrNotFound)
	}
	if session.IsExpired(r.now()) {
		delete(r.sessions, id)
		return nil, fmt.Errorf("get session: %w", repositories.ErrNotFound)
	}
	return &session, nil
}

func (r *SessionRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}
