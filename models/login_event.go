package models

import (
	"time"

	"github.com/google/uuid"
)

// LoginOutcome is the result recorded for a login attempt
type LoginOutcome string

const (
	LoginOutcomeSuccess  LoginOutcome = "success"
	LoginOutcomeRejected LoginOutcome = "rejected"
	LoginOutcomeRedirect LoginOutcome = "redirect"
	LoginOutcomeLogout   LoginOutcome = "logout"
)

// LoginEvent is one entry of the login audit trail. Tokens are never stored.
type LoginEvent struct {
	ID         uuid.UUID    `json:"id" db:"id"`
	Outcome    LoginOutcome `json:"outcome" db:"outcome"`
	Username   string       `json:"username,omitempty" db:"username"`
	Reason     string       `json:"reason,omitempty" db:"reason"` // failure kind, e.g. "expired"
	StatusCode int          `json:"status_code" db:"status_code"`
	IPAddress  string       `json:"ip_address" db:"ip_address"`
	UserAgent  string       `json:"user_agent" db:"user_agent"`
	RequestID  string       `json:"request_id" db:"request_id"`
	Timestamp  time.Time    `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the LoginEvent model
func (LoginEvent) TableName() string {
	return "login_events"
}

// NewLoginEvent creates a new LoginEvent instance
func NewLoginEvent(outcome LoginOutcome, statusCode int) *LoginEvent {
	return &LoginEvent{
		ID:         uuid.New(),
		Outcome:    outcome,
		StatusCode: statusCode,
		Timestamp:  time.Now().UTC(),
	}
}

// WithUser sets the resolved username
func (e *LoginEvent) WithUser(username string) *LoginEvent {
	e.Username = username
	return e
}

// WithReason sets the failure kind
func (e *LoginEvent) WithReason(reason string) *LoginEvent {
	e.Reason = reason
	return e
}

// WithRequest sets request metadata
func (e *LoginEvent) WithRequest(requestID, ipAddress, userAgent string) *LoginEvent {
	e.RequestID = requestID
	e.IPAddress = ipAddress
	e.UserAgent = userAgent
	return e
}
