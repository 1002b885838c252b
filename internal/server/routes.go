package server

import (
	"net/http"
	"time"

	"github.com/courtsideapp/courtside/internal/auth"
	"github.com/courtsideapp/courtside/internal/config"
	"github.com/courtsideapp/courtside/internal/picks"
	"github.com/courtsideapp/courtside/internal/store"
	"github.com/courtsideapp/courtside/internal/webhook"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps holds shared dependencies injected into HTTP handlers.
type Deps struct {
	Config     *config.Config
	Store      *store.Store
	Sessions   *auth.SessionStore
	Reconciler webhook.Reconciler
	Feed       *picks.Feed
	Version    string
}

// RegisterRoutes wires all HTTP handlers onto the given ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps *Deps) {
	sessionTTL := time.Duration(deps.Config.SessionTTLHours) * time.Hour

	adminAuth := func(next http.Handler) http.Handler {
		return AdminKeyMiddleware(deps.Config.AdminKey, next)
	}
	sessionAuth := func(next http.Handler) http.Handler {
		return auth.RequireSession(deps.Sessions, next)
	}
	proAuth := func(next http.Handler) http.Handler {
		return sessionAuth(auth.RequirePro(deps.Store, next))
	}

	// Health / readiness are unauthenticated liveness/readiness probes.
	mux.HandleFunc("/healthz", handleHealthz)
	mux.HandleFunc("/readyz", handleReadyz(deps.Store))

	// Metrics are private by default.
	metricsHandler := promhttp.Handler()
	if deps.Config.PublicMetrics {
		mux.Handle("/metrics", metricsHandler)
	} else {
		mux.Handle("/metrics", adminAuth(metricsHandler))
	}

	// Auth (rate limited: credential endpoints are brute-force targets).
	authLimiter := NewRateLimiter(30, time.Minute)
	mux.Handle("/api/auth/signup", authLimiter.Middleware(postOnly(auth.HandleSignup(deps.Store, deps.Sessions, sessionTTL))))
	mux.Handle("/api/auth/login", authLimiter.Middleware(postOnly(auth.HandleLogin(deps.Store, deps.Sessions, sessionTTL))))
	mux.Handle("/api/auth/logout", postOnly(auth.HandleLogout(deps.Sessions)))

	// Current member profile.
	mux.Handle("/api/me", sessionAuth(getOnly(handleMe(deps.Store))))

	// Model picks (pro members only).
	mux.Handle("/api/picks/model", proAuth(getOnly(handleModelPicks(deps.Feed))))

	// Member picks.
	picksCollection := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handleListPicks(deps.Store)(w, r)
		case http.MethodPost:
			handleCreatePick(deps.Store)(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.Handle("/api/picks", sessionAuth(picksCollection))
	mux.Handle("/api/picks/{pick_id}/settle", sessionAuth(postOnly(handleSettlePick(deps.Store))))

	// Leaderboard (public).
	mux.Handle("/api/leaderboard", getOnly(handleLeaderboard(deps.Store)))

	// Stripe webhook (signature-authenticated).
	webhookHandler := webhook.NewHandler(deps.Config.StripeWebhookSecret, deps.Reconciler)
	webhookLimiter := NewRateLimiter(120, time.Minute)
	mux.Handle("/api/stripe/webhook", webhookLimiter.Middleware(webhookHandler))
}

func postOnly(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	})
}

func getOnly(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	})
}
