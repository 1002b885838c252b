package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/courtsideapp/courtside/internal/auth"
	"github.com/courtsideapp/courtside/internal/config"
	"github.com/courtsideapp/courtside/internal/logging"
	"github.com/courtsideapp/courtside/internal/membership"
	"github.com/courtsideapp/courtside/internal/payments"
	"github.com/courtsideapp/courtside/internal/picks"
	"github.com/courtsideapp/courtside/internal/store"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

// Run loads configuration, wires dependencies, and serves HTTP until the
// context is canceled or a termination signal arrives.
func Run(ctx context.Context, version string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Format:    cfg.LogFormat,
		Level:     cfg.LogLevel,
		Component: "courtside",
	})
	log.Info().Str("version", version).Msg("Starting courtside server")

	st, err := store.Open(cfg.StoreDir())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	sessions, err := auth.NewSessionStore(cfg.SessionsDir())
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer sessions.Close()

	paymentsClient := payments.New(cfg.StripeAPIKey)
	reconciler := membership.NewReconciler(paymentsClient, st)

	feed := picks.NewFeed(cfg.ModelPicksFile)

	mux := http.NewServeMux()
	RegisterRoutes(mux, &Deps{
		Config:     cfg,
		Store:      st,
		Sessions:   sessions,
		Reconciler: reconciler,
		Feed:       feed,
		Version:    version,
	})

	addr := net.JoinHostPort(cfg.BindAddress, strconv.Itoa(cfg.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           SecurityHeaders(mux),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		// Watch only reloads the model picks seed file; a watch failure
		// should not take the server down.
		if err := feed.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("Model picks watcher stopped")
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("Server stopped")
	return nil
}
