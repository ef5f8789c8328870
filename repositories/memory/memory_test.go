package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hubauth/jwtauthenticator/models"
	"github.com/hubauth/jwtauthenticator/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	alice := models.NewUser("alice")
	require.NoError(t, repo.Create(ctx, alice))

	t.Run("lookup by username", func(t *testing.T) {
		got, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)
	})

	t.Run("usernames are case sensitive", func(t *testing.T) {
		_, err := repo.GetByUsername(ctx, "Alice")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("duplicate username", func(t *testing.T) {
		err := repo.Create(ctx, models.NewUser("alice"))
		assert.ErrorIs(t, err, repositories.ErrDuplicate)
	})

	t.Run("returned users are copies", func(t *testing.T) {
		got, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		got.Username = "mallory"

		again, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", again.Username)
	})

	t.Run("record login", func(t *testing.T) {
		at := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
		require.NoError(t, repo.RecordLogin(ctx, alice.ID, at))

		got, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, at, got.LastLogin)

		assert.ErrorIs(t, repo.RecordLogin(ctx, uuid.New(), at), repositories.ErrNotFound)
	})
}

func TestUserRepositoryConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.Create(ctx, models.NewUser("bob"))
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, repositories.ErrDuplicate)
	}
	assert.Equal(t, 1, created)
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	repo := NewSessionRepository()
	repo.now = func() time.Time { return now }

	session := &models.Session{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Username:  "alice",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, repo.Save(ctx, session))

	t.Run("live session", func(t *testing.T) {
		got, err := repo.Get(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := repo.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("expired session is dropped", func(t *testing.T) {
		now = now.Add(2 * time.Hour)
		_, err := repo.Get(ctx, session.ID)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		assert.Empty(t, repo.sessions)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		assert.NoError(t, repo.Delete(ctx, session.ID))
		assert.NoError(t, repo.Delete(ctx, uuid.New()))
	})
}

func TestSessionRepository_SaveSweepsExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	repo := NewSessionRepository()
	repo.now = func() time.Time { return now }

	newSession := func(ttl time.Duration) *models.Session {
		return &models.Session{
			ID:        uuid.New(),
			UserID:    uuid.New(),
			Username:  "alice",
			CreatedAt: now,
			ExpiresAt: now.Add(ttl),
		}
	}

	abandoned := newSession(time.Hour)
	longLived := newSession(24 * time.Hour)
	require.NoError(t, repo.Save(ctx, abandoned))
	require.NoError(t, repo.Save(ctx, longLived))
	assert.Len(t, repo.sessions, 2)

	// Never read again; the next login after expiry removes it.
	now = now.Add(2 * time.Hour)
	fresh := newSession(time.Hour)
	require.NoError(t, repo.Save(ctx, fresh))

	assert.Len(t, repo.sessions, 2)
	assert.NotContains(t, repo.sessions, abandoned.ID)
	assert.Contains(t, repo.sessions, longLived.ID)
	assert.Contains(t, repo.sessions, fresh.ID)

	// Within the interval Save does not sweep again.
	now = now.Add(23 * time.Hour)
	expiredSoon := newSession(time.Second)
	require.NoError(t, repo.Save(ctx, expiredSoon))
	now = now.Add(30 * time.Second)
	require.NoError(t, repo.Save(ctx, newSession(time.Hour)))
	assert.Contains(t, repo.sessions, expiredSoon.ID)
}

func TestLoginEventRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewLoginEventRepository(3)

	for _, name := range []string{"alice", "bob", "alice", "alice"} {
		require.NoError(t, repo.Insert(ctx, models.NewLoginEvent(models.LoginOutcomeSuccess, 302).WithUser(name)))
	}

	// Capacity 3 evicted the first alice event.
	events, err := repo.ListByUsername(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = repo.ListByUsername(ctx, "alice", 1)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	events, err = repo.ListByUsername(ctx, "carol", 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestLoginEventRepositoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewLoginEventRepository(0)

	first := models.NewLoginEvent(models.LoginOutcomeRejected, 401).WithUser("alice")
	second := models.NewLoginEvent(models.LoginOutcomeSuccess, 302).WithUser("alice")
	require.NoError(t, repo.Insert(ctx, first))
	require.NoError(t, repo.Insert(ctx, second))

	events, err := repo.ListByUsername(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, second.ID, events[0].ID)
	assert.Equal(t, first.ID, events[1].ID)
}
