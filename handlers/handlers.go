package handlers

import (
	"net/http"
	"time"

	"github.com/hubauth/jwtauthenticator/app"
	"github.com/hubauth/jwtauthenticator/middleware"
	"github.com/hubauth/jwtauthenticator/services"
	"github.com/hubauth/jwtauthenticator/utils"
	"go.uber.org/zap"
)

// recentLoginLimit caps the login history returned with the current user.
const recentLoginLimit = 10

// CurrentUserResponse is the response body for GET {base}api/user
type CurrentUserResponse struct {
	ID               string         `json:"id"`
	Username         string         `json:"username"`
	CreatedAt        time.Time      `json:"created_at"`
	LastLogin        *time.Time     `json:"last_login,omitempty"`
	SessionExpiresAt time.Time      `json:"session_expires_at"`
	RecentLogins     []LoginSummary `json:"recent_logins"`
}

// LoginSummary is one entry of a user's login history
type LoginSummary struct {
	Outcome   string    `json:"outcome"`
	Reason    string    `json:"reason,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// GetCurrentUserHandler returns the account behind the request's session
func GetCurrentUserHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		session := middleware.GetSessionFromContext(ctx)
		if session == nil {
			_ = utils.WriteUnauthorized(w, "Login required")
			return
		}

		user, err := deps.Users.GetByID(ctx, session.UserID)
		if err != nil {
			HandleServiceError(w, toServiceError(err, services.ErrUserNotFound), deps.Logger)
			return
		}

		response := CurrentUserResponse{
			ID:               user.ID.String(),
			Username:         user.Username,
			CreatedAt:        user.CreatedAt,
			SessionExpiresAt: session.ExpiresAt,
			RecentLogins:     []LoginSummary{},
		}
		if !user.LastLogin.IsZero() {
			lastLogin := user.LastLogin
			response.LastLogin = &lastLogin
		}

		events, err := deps.LoginEvents.ListByUsername(ctx, user.Username, recentLoginLimit)
		if err != nil {
			// The account itself is still worth returning.
			deps.Logger.Warn("failed to load login history",
				zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
				zap.String("username", user.Username),
				zap.Error(err))
		}
		for _, event := range events {
			response.RecentLogins = append(response.RecentLogins, LoginSummary{
				Outcome:   string(event.Outcome),
				Reason:    event.Reason,
				IPAddress: event.IPAddress,
				Timestamp: event.Timestamp,
			})
		}

		_ = utils.WriteOK(w, response)
	}
}

// NotFoundHandler answers unknown routes with a JSON 404
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteNotFound(w, "endpoint not found")
}
