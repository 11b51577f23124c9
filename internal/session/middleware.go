package session

import (
	"context"
	"log/slog"
	"net/http"

	"labconnect/internal/apperr"
	"labconnect/internal/httputil"
)

type contextKey string

const profileKey contextKey = "session_profile"

// RequireSession rejects requests without a valid session and puts the profile into the context.
func RequireSession(manager *Manager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile, err := manager.Current(r)
			if err != nil {
				logger.WarnContext(r.Context(), "no valid session", "path", r.URL.Path)
				httputil.RespondWithServiceError(w, r, logger, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithProfile(r.Context(), profile)))
		})
	}
}

// RequireRole lets through only sessions of the given role. It must run after RequireSession.
func RequireRole(role string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile, ok := FromContext(r.Context())
			if !ok {
				httputil.RespondWithServiceError(w, r, logger, ErrNoSession)
				return
			}
			if profile.Role != role {
				logger.WarnContext(r.Context(), "role mismatch", "user_id", profile.ID, "role", profile.Role, "required", role)
				httputil.RespondWithServiceError(w, r, logger, apperr.Forbidden("only "+role+"s can do this"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithProfile(ctx context.Context, profile Profile) context.Context {
	return context.WithValue(ctx, profileKey, profile)
}

// FromContext extracts the session profile set by RequireSession.
func FromContext(ctx context.Context) (Profile, bool) {
	profile, ok := ctx.Value(profileKey).(Profile)
	return profile, ok
}
