package memory

import (
	"context"
	"sync"

	"github.com/hubauth/jwtauthenticator/models"
)

// DefaultLoginEventCapacity bounds the in-memory audit trail.
const DefaultLoginEventCapacity = 10000

// LoginEventRepository keeps the most recent login events in a ring.
type LoginEventRepository struct {
	mu       sync.Mutex
	events   []*models.LoginEvent
	next     int
	full     bool
	capacity int
}

// NewLoginEventRepository creates a ring holding up to capacity events
func NewLoginEventRepository(capacity int) *LoginEventRepository {
	if capacity <= 0 {
		capacity = DefaultLoginEventCapacity
	}
	return &LoginEventRepository{
		events:   make([]*models.LoginEvent, capacity),
		capacity: capacity,
	}
}

func (r *LoginEventRepository) Insert(_ context.Context, event *models.LoginEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *event
	r.events[r.next] = &stored
	r.next = (r.next + 1) % r.capacity
	if r.next == 0 {
		r.full = true
	}
	return nil
}

func (r *LoginEventRepository) ListByUsername(_ context.Context, username string, limit int) ([]*models.LoginEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := r.next
	if r.full {
		size = r.capacity
	}

	var out []*models.LoginEvent
	for i := 1; i <= size && (limit <= 0 || len(out) < limit); i++ {
		event := r.events[(r.next-i+r.capacity)%r.capacity]
		if event.Username == username {
			copied := *event
			out = append(out, &copied)
		}
	}
	return out, nil
}
