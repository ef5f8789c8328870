package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"net"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hubauth/jwtauthenticator/config"
	"github.com/hubauth/jwtauthenticator/internal/observability"
	"github.com/hubauth/jwtauthenticator/jwtverify"
	"github.com/hubauth/jwtauthenticator/middleware"
	"github.com/hubauth/jwtauthenticator/models"
	"github.com/hubauth/jwtauthenticator/services"
	"github.com/hubauth/jwtauthenticator/utils"
	"go.uber.org/zap"
)

// NextParam is the query parameter naming the post-login destination.
const NextParam = "next"

// TokenVerifier validates a raw token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (jwt.MapClaims, error)
}

// IdentityProvisioner resolves or creates the local account for a username.
type IdentityProvisioner interface {
	ResolveUser(ctx context.Context, username string) (*models.User, error)
}

// SessionIssuer establishes and tears down hub login sessions.
type SessionIssuer interface {
	Establish(ctx context.Context, w http.ResponseWriter, user *models.User) (*models.Session, error)
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// Auditor receives one event per login attempt.
type Auditor interface {
	Record(event *models.LoginEvent) error
}

// Options is the request-independent configuration of a Handler.
type Options struct {
	Tokens            middleware.TokenSource
	UsernameClaim     string
	LoginURL          string // empty: answer 401 instead of redirecting
	PostLoginRedirect string
	HomePath          string
	LogoutRedirect    string // empty: HomePath
}

// OptionsFromConfig derives handler options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Tokens: middleware.TokenSource{
			HeaderName:            cfg.Auth.HeaderName,
			HeaderIsAuthorization: cfg.Auth.HeaderIsAuthorization,
			QueryParam:            cfg.Auth.ParamName,
			CookieName:            cfg.Auth.CookieName,
		},
		UsernameClaim:     cfg.Auth.UsernameClaimField,
		LoginURL:          cfg.Auth.LoginURL,
		PostLoginRedirect: cfg.Auth.PostLoginRedirect,
		HomePath:          cfg.Hub.HomePath(),
		LogoutRedirect:    cfg.Auth.LoginURL,
	}
}

// Handler turns a bearer token presented to the hub into a login session.
type Handler struct {
	opts       Options
	verifier   TokenVerifier
	identities IdentityProvisioner
	sessions   SessionIssuer
	auditor    Auditor
	logger     *observability.ContextLogger
}

// NewHandler creates a new auth handler.
func NewHandler(opts Options, verifier TokenVerifier, identities IdentityProvisioner, sessions SessionIssuer, logger *zap.Logger) *Handler {
	return &Handler{
		opts:       opts,
		verifier:   verifier,
		identities: identities,
		sessions:   sessions,
		logger:     observability.NewContextLogger(logger),
	}
}

// WithAuditor attaches a login audit trail.
func (h *Handler) WithAuditor(a Auditor) *Handler {
	h.auditor = a
	return h
}

// HandleLogin authenticates the request's token and redirects into the hub.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, err := h.opts.Tokens.Locate(r)
	switch {
	case err == nil:
	case errors.Is(err, middleware.ErrConflictingCredentials):
		h.reject(r, http.StatusBadRequest, "conflicting_credentials", "")
		_ = utils.WriteBadRequest(w, "Token supplied in both header and query parameter", nil)
		return
	case errors.Is(err, middleware.ErrUnsupportedScheme):
		h.reject(r, http.StatusForbidden, "unsupported_scheme", "")
		_ = utils.WriteForbidden(w, "Unsupported authorization scheme")
		return
	default:
		if h.opts.LoginURL == "" {
			h.reject(r, http.StatusUnauthorized, "no_credential", "")
			_ = utils.WriteUnauthorized(w, "")
			return
		}
		target := ExternalLoginURL(h.opts.LoginURL, h.opts.PostLoginRedirect)
		h.logger.Debug(ctx, "no credential, redirecting to external login", zap.String("target", target))
		h.audit(r, models.NewLoginEvent(models.LoginOutcomeRedirect, http.StatusFound))
		redirect(w, target)
		return
	}

	claims, err := h.verifier.Verify(ctx, raw)
	if err != nil {
		h.reject(r, http.StatusUnauthorized, jwtverify.Reason(err), "", zap.Error(err))
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	username, err := jwtverify.ResolveUsername(claims, h.opts.UsernameClaim)
	if err != nil {
		h.reject(r, http.StatusUnauthorized, jwtverify.Reason(err), "", zap.Error(err))
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	user, err := h.identities.ResolveUser(ctx, username)
	if err != nil {
		h.writeCollaboratorError(w, r, username, err)
		return
	}

	if _, err := h.sessions.Establish(ctx, w, user); err != nil {
		h.writeCollaboratorError(w, r, username, err)
		return
	}

	target := r.URL.Query().Get(NextParam)
	if target == "" {
		target = h.opts.HomePath
	}

	h.logger.Info(ctx, "user logged in",
		zap.String("username", user.Username),
		zap.String("redirect", target))
	h.audit(r, models.NewLoginEvent(models.LoginOutcomeSuccess, http.StatusFound).WithUser(user.Username))
	redirect(w, target)
}

// HandleLogout ends the current session and redirects away from the hub.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	username := ""
	if session := middleware.GetSessionFromContext(ctx); session != nil {
		username = session.Username
	}

	if err := h.sessions.Destroy(ctx, w, r); err != nil {
		h.logger.Error(ctx, "failed to destroy session", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to log out")
		return
	}

	target := h.opts.LogoutRedirect
	if target == "" {
		target = h.opts.HomePath
	}
	h.audit(r, models.NewLoginEvent(models.LoginOutcomeLogout, http.StatusFound).WithUser(username))
	redirect(w, target)
}

// ExternalLoginURL appends the base64 form of postLogin to loginURL. The
// encoded value is not URL-escaped.
func ExternalLoginURL(loginURL, postLogin string) string {
	return loginURL + base64.StdEncoding.EncodeToString([]byte(postLogin))
}

// writeCollaboratorError answers with the status carried by a provisioning
// or session failure. Errors without a recognised type are unauthorized.
func (h *Handler) writeCollaboratorError(w http.ResponseWriter, r *http.Request, username string, err error) {
	switch services.GetErrorType(err) {
	case services.ErrorTypeValidation:
		h.reject(r, http.StatusBadRequest, "invalid_username", username, zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid username", services.GetErrorDetails(err))
	case services.ErrorTypeForbidden:
		h.reject(r, http.StatusForbidden, "identity_forbidden", username, zap.Error(err))
		_ = utils.WriteForbidden(w, "")
	case services.ErrorTypeInternal:
		h.logger.Error(r.Context(), "login collaborator failed", zap.String("username", username), zap.Error(err))
		h.audit(r, models.NewLoginEvent(models.LoginOutcomeRejected, http.StatusInternalServerError).
			WithUser(username).WithReason("internal"))
		_ = utils.WriteInternalServerError(w, "")
	default:
		h.reject(r, http.StatusUnauthorized, "identity_rejected", username, zap.Error(err))
		_ = utils.WriteUnauthorized(w, "")
	}
}

// reject logs and audits a refused login. The response body is written by
// the caller.
func (h *Handler) reject(r *http.Request, status int, reason, username string, fields ...zap.Field) {
	fields = append(fields,
		zap.Int("status", status),
		zap.String("reason", reason))
	if username != "" {
		fields = append(fields, zap.String("username", username))
	}
	h.logger.Info(r.Context(), "login rejected", fields...)

	h.audit(r, models.NewLoginEvent(models.LoginOutcomeRejected, status).
		WithUser(username).
		WithReason(reason))
}

func (h *Handler) audit(r *http.Request, event *models.LoginEvent) {
	if h.auditor == nil {
		return
	}
	event.WithRequest(observability.RequestID(r.Context()), clientIP(r), r.UserAgent())
	if err := h.auditor.Record(event); err != nil {
		h.logger.Warn(r.Context(), "failed to queue login event", zap.Error(err))
	}
}

// redirect answers 302 with target as the Location header, unmodified.
func redirect(w http.ResponseWriter, target string) {
	w.Header().Set("Location", target)
	w.WriteHeader(http.StatusFound)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
