package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/courtsideapp/courtside/internal/membership"
	"github.com/courtsideapp/courtside/internal/store"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	// SessionCookie is the cookie the browser flow uses; API clients may send
	// the token as a bearer credential instead.
	SessionCookie = "courtside_session"

	minPasswordLen = 8
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token   string         `json:"token"`
	Profile *store.Profile `json:"profile"`
}

// HandleSignup registers a new member with a free membership.
// Route: POST /api/auth/signup
func HandleSignup(st *store.Store, sessions *SessionStore, sessionTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return
		}
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if email == "" || !strings.Contains(email, "@") {
			http.Error(w, "invalid email", http.StatusBadRequest)
			return
		}
		if len(req.Password) < minPasswordLen {
			http.Error(w, "password too short", http.StatusBadRequest)
			return
		}

		existing, err := st.GetProfileByEmail(r.Context(), email)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if existing != nil {
			http.Error(w, "email already registered", http.StatusConflict)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		userID, err := store.GenerateUserID()
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		profile := &store.Profile{
			UserID:       userID,
			Email:        email,
			PasswordHash: string(hash),
			Membership:   membership.TierFree,
		}
		if err := st.CreateProfile(r.Context(), profile); err != nil {
			log.Error().Err(err).Str("email", email).Msg("Signup failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		token, err := sessions.Create(userID, sessionTTL)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		log.Info().Str("user_id", userID).Msg("Member signed up")
		setSessionCookie(w, token, sessionTTL)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		encodeJSON(w, sessionResponse{Token: token, Profile: profile})
	}
}

// HandleLogin authenticates a member and mints a session.
// Route: POST /api/auth/login
func HandleLogin(st *store.Store, sessions *SessionStore, sessionTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return
		}
		email := strings.ToLower(strings.TrimSpace(req.Email))

		profile, err := st.GetProfileByEmail(r.Context(), email)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if profile == nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}

		token, err := sessions.Create(profile.UserID, sessionTTL)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		setSessionCookie(w, token, sessionTTL)
		w.Header().Set("Content-Type", "application/json")
		encodeJSON(w, sessionResponse{Token: token, Profile: profile})
	}
}

// HandleLogout revokes the caller's session token.
// Route: POST /api/auth/logout
func HandleLogout(sessions *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token != "" {
			if err := sessions.Revoke(token); err != nil {
				log.Warn().Err(err).Msg("Failed to revoke session")
			}
		}
		clearSessionCookie(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

func setSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return err
	}
	return nil
}

func encodeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("auth: encode response")
	}
}
