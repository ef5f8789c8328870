package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/hubauth/jwtauthenticator/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockLoginEvents(t *testing.T) (*LoginEventRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewLoginEventRepository(Wrap(sqlDB, zap.NewNop()), zap.NewNop())
	return repo.(*LoginEventRepository), mock
}

func TestLoginEventRepository_Insert(t *testing.T) {
	t.Run("rejected login without username", func(t *testing.T) {
		repo, mock := newMockLoginEvents(t)
		event := models.NewLoginEvent(models.LoginOutcomeRejected, 401).
			WithReason("expired").
			WithRequest("req-1", "10.0.0.1", "curl/8.0")

		mock.ExpectExec("INSERT INTO login_events").
			WithArgs(event.ID, event.Outcome, sql.NullString{}, sql.NullString{String: "expired", Valid: true},
				401, "10.0.0.1", "curl/8.0", "req-1", event.Timestamp).
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, repo.Insert(context.Background(), event))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure is wrapped", func(t *testing.T) {
		repo, mock := newMockLoginEvents(t)

		mock.ExpectExec("INSERT INTO login_events").WillReturnError(errors.New("relation does not exist"))

		err := repo.Insert(context.Background(), models.NewLoginEvent(models.LoginOutcomeSuccess, 302))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert login event")
	})
}

func TestLoginEventRepository_ListByUsername(t *testing.T) {
	repo, mock := newMockLoginEvents(t)
	at := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	columns := []string{"id", "outcome", "username", "reason", "status_code", "ip_address", "user_agent", "request_id", "timestamp"}

	mock.ExpectQuery("FROM login_events WHERE username").
		WithArgs("alice", 10).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(uuid.NewString(), "success", "alice", nil, 302, "10.0.0.1", "browser", "req-2", at).
			AddRow(uuid.NewString(), "rejected", "alice", "user_not_provisioned", 401, "10.0.0.1", "browser", "req-1", at.Add(-time.Minute)))

	events, err := repo.ListByUsername(context.Background(), "alice", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.LoginOutcomeSuccess, events[0].Outcome)
	assert.Empty(t, events[0].Reason)
	assert.Equal(t, "user_not_provisioned", events[1].Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}
