package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hubauth/jwtauthenticator/models"
	"github.com/hubauth/jwtauthenticator/repositories"
	"go.uber.org/zap"
)

// LoginEventRepository implements the repositories.LoginEventRepository interface
type LoginEventRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewLoginEventRepository creates a new login event repository
func NewLoginEventRepository(db *DB, logger *zap.Logger) repositories.LoginEventRepository {
	return &LoginEventRepository{
		db:     db,
		logger: logger,
	}
}

// Insert appends an event to the audit trail
func (r *LoginEventRepository) Insert(ctx context.Context, event *models.LoginEvent) error {
	query := `
		INSERT INTO login_events (
			id, outcome, username, reason, status_code,
			ip_address, user_agent, request_id, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.Outcome,
		nullString(event.Username),
		nullString(event.Reason),
		event.StatusCode,
		event.IPAddress,
		event.UserAgent,
		event.RequestID,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert login event: %w", err)
	}

	return nil
}

// ListByUsername returns the newest events for username first
func (r *LoginEventRepository) ListByUsername(ctx context.Context, username string, limit int) ([]*models.LoginEvent, error) {
	query := `
		SELECT id, outcome, username, reason, status_code,
		       ip_address, user_agent, request_id, timestamp
		FROM login_events
		WHERE username = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query login events: %w", err)
	}
	defer rows.Close()

	var events []*models.LoginEvent
	for rows.Next() {
		event := &models.LoginEvent{}
		var user, reason sql.NullString
		err := rows.Scan(
			&event.ID,
			&event.Outcome,
			&user,
			&reason,
			&event.StatusCode,
			&event.IPAddress,
			&event.UserAgent,
			&event.RequestID,
			&event.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan login event: %w", err)
		}
		event.Username = user.String
		event.Reason = reason.String
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating login event rows: %w", err)
	}

	return events, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
