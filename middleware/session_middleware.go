package middleware

import (
	"context"
	"net/http"

	"github.com/hubauth/jwtauthenticator/models"
	"github.com/hubauth/jwtauthenticator/services"
	"github.com/hubauth/jwtauthenticator/utils"
	"go.uber.org/zap"
)

// SessionLookup resolves the login session carried by a request
type SessionLookup interface {
	Lookup(ctx context.Context, r *http.Request) (*models.Session, error)
}

// SessionMiddleware guards routes that need a logged-in hub user
type SessionMiddleware struct {
	sessions SessionLookup
	logger   *zap.Logger
}

// NewSessionMiddleware creates a new SessionMiddleware
func NewSessionMiddleware(sessions SessionLookup, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{
		sessions: sessions,
		logger:   logger,
	}
}

// RequireSession rejects requests without a live session and otherwise
// places the session in the request context.
func (m *SessionMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		session, err := m.sessions.Lookup(ctx, r)
		if err != nil {
			if services.IsInternalError(err) {
				m.logger.Error("session lookup failed",
					zap.String("request_id", requestID),
					zap.Error(err))
				_ = utils.WriteInternalServerError(w, "")
				return
			}
			m.logger.Debug("no valid session",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Login required")
			return
		}

		m.logger.Debug("session accepted",
			zap.String("request_id", requestID),
			zap.String("username", session.Username))

		next.ServeHTTP(w, r.WithContext(WithSession(ctx, session)))
	})
}

// OptionalSession places the session in the request context when one is
// live and otherwise passes the request through untouched.
func (m *SessionMiddleware) OptionalSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		session, err := m.sessions.Lookup(ctx, r)
		if err != nil {
			if services.IsInternalError(err) {
				m.logger.Warn("session lookup failed",
					zap.String("request_id", GetRequestIDFromContext(ctx)),
					zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(ctx, session)))
	})
}
