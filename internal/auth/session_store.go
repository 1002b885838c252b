package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

var (
	ErrSessionInvalid = errors.New("session token is invalid")
	ErrSessionExpired = errors.New("session token is expired")
)

const (
	storeCleanupInterval = 5 * time.Minute
	privateDirPerm       = 0o700
	tokenBytes           = 32
)

// SessionStore persists opaque session tokens in SQLite. Tokens are
// identified by SHA-256(rawToken) stored as hex; the raw token is only ever
// held by the client.
type SessionStore struct {
	db          *sql.DB
	stopCleanup chan struct{}
}

// NewSessionStore opens (or creates) the session token database in dir.
func NewSessionStore(dir string) (*SessionStore, error) {
	dir = filepath.Clean(dir)
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("dir is required")
	}
	if err := os.MkdirAll(dir, privateDirPerm); err != nil {
		return nil, fmt.Errorf("create session store dir: %w", err)
	}
	if err := os.Chmod(dir, privateDirPerm); err != nil {
		return nil, fmt.Errorf("secure session store dir: %w", err)
	}

	dbPath := filepath.Join(dir, "sessions.db")
	dsn := dbPath + "?" + url.Values{
		"_pragma": []string{
			"busy_timeout(30000)",
			"journal_mode(WAL)",
			"synchronous(NORMAL)",
		},
	}.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SessionStore{
		db:          db,
		stopCleanup: make(chan struct{}),
	}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	go s.cleanupLoop()
	return s, nil
}

func (s *SessionStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		token_hash TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		expires_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
	CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("init session schema: %w", err)
	}
	return nil
}

func (s *SessionStore) cleanupLoop() {
	ticker := time.NewTicker(storeCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.DeleteExpired(time.Now().UTC()); err != nil {
				log.Warn().Err(err).Msg("Failed to delete expired sessions")
			}
		case <-s.stopCleanup:
			return
		}
	}
}

// Create mints a new session token for userID with the given lifetime and
// returns the raw token.
func (s *SessionStore) Create(userID string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("user id is required")
	}
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	token := hex.EncodeToString(raw)

	now := time.Now().UTC()
	_, err := s.db.Exec(`
		INSERT INTO sessions (token_hash, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)`,
		hashToken(token), userID, now.Add(ttl).Unix(), now.Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Lookup resolves a raw session token to its user ID. Expired tokens are
// deleted on sight.
func (s *SessionStore) Lookup(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", ErrSessionInvalid
	}
	tokenHash := hashToken(token)

	var userID string
	var expiresAt int64
	err := s.db.QueryRow(
		`SELECT user_id, expires_at FROM sessions WHERE token_hash = ?`, tokenHash,
	).Scan(&userID, &expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrSessionInvalid
		}
		return "", fmt.Errorf("lookup session: %w", err)
	}

	if time.Now().UTC().Unix() >= expiresAt {
		if _, delErr := s.db.Exec(`DELETE FROM sessions WHERE token_hash = ?`, tokenHash); delErr != nil {
			log.Warn().Err(delErr).Msg("Failed to delete expired session")
		}
		return "", ErrSessionExpired
	}
	return userID, nil
}

// Revoke deletes a session token.
func (s *SessionStore) Revoke(token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE token_hash = ?`, hashToken(token)); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// DeleteExpired removes all sessions that expired before now.
func (s *SessionStore) DeleteExpired(now time.Time) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, now.Unix()); err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	return nil
}

// Close stops the cleanup loop and closes the database.
func (s *SessionStore) Close() error {
	close(s.stopCleanup)
	return s.db.Close()
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
