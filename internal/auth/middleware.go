package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/courtsideapp/courtside/internal/membership"
	"github.com/courtsideapp/courtside/internal/store"
)

type ctxKey string

const userIDKey ctxKey = "auth_user_id"

// UserIDFromContext returns the authenticated user ID, if any.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// RequireSession authenticates the request via bearer token or session
// cookie and stores the user ID on the request context.
func RequireSession(sessions *SessionStore, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		userID, err := sessions.Lookup(token)
		if err != nil {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

// RequirePro gates a handler behind a paid membership. Must run inside
// RequireSession.
func RequirePro(st *store.Store, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := UserIDFromContext(r.Context())
		if userID == "" {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		profile, err := st.GetProfile(r.Context(), userID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if profile == nil {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		if profile.Membership != membership.TierPro {
			http.Error(w, "pro membership required", http.StatusPaymentRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func tokenFromRequest(r *http.Request) string {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		if strings.HasPrefix(h, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}
