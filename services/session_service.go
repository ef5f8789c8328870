package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hubauth/jwtauthenticator/models"
	"github.com/hubauth/jwtauthenticator/repositories"
	"go.uber.org/zap"
)

// SessionConfig controls the login cookie.
type SessionConfig struct {
	CookieName string
	CookiePath string
	TTL        time.Duration
	Secure     bool
}

// SessionService issues and resolves hub login sessions.
type SessionService struct {
	sessions repositories.SessionRepository
	cfg      SessionConfig
	logger   *zap.Logger
}

// NewSessionService creates a SessionService
func NewSessionService(sessions repositories.SessionRepository, cfg SessionConfig, logger *zap.Logger) *SessionService {
	if cfg.CookiePath == "" {
		cfg.CookiePath = "/"
	}
	return &SessionService{
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
	}
}

// Establish stores a new session for user and sets the login cookie on w.
func (s *SessionService) Establish(ctx context.Context, w http.ResponseWriter, user *models.User) (*models.Session, error) {
	session := models.NewSession(user, s.cfg.TTL)

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, WrapError(ErrSessionStore, err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    session.ID.String(),
		Path:     s.cfg.CookiePath,
		Expires:  session.ExpiresAt,
		MaxAge:   int(s.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	s.logger.Debug("session established",
		zap.String("session_id", session.ID.String()),
		zap.String("username", user.Username))
	return session, nil
}

// Lookup resolves the session referenced by the request's login cookie.
func (s *SessionService) Lookup(ctx context.Context, r *http.Request) (*models.Session, error) {
	id, ok := s.sessionID(r)
	if !ok {
		return nil, ErrSessionNotFound
	}

	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, WrapError(ErrSessionExpired, err)
		}
		return nil, WrapError(ErrSessionStore, err)
	}
	return session, nil
}

// Destroy removes the request's session, if any, and clears the cookie.
func (s *SessionService) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     s.cfg.CookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	id, ok := s.sessionID(r)
	if !ok {
		return nil
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return WrapError(ErrSessionStore, err)
	}

	s.logger.Debug("session destroyed", zap.String("session_id", id.String()))
	return nil
}

func (s *SessionService) sessionID(r *http.Request) (uuid.UUID, bool) {
	cookie, err := r.Cookie(s.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(cookie.Value)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
