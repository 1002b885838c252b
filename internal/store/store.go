package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/courtsideapp/courtside/internal/membership"
	_ "modernc.org/sqlite"
)

// Store provides CRUD operations for profiles and picks backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the courtside database in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	dbPath := filepath.Join(dir, "courtside.db")
	dsn := dbPath + "?" + url.Values{
		"_pragma": []string{
			"busy_timeout(30000)",
			"journal_mode(WAL)",
			"synchronous(NORMAL)",
		},
	}.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open courtside db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		user_id                 TEXT PRIMARY KEY,
		email                   TEXT NOT NULL UNIQUE,
		password_hash           TEXT NOT NULL DEFAULT '',
		membership              TEXT NOT NULL DEFAULT 'free',
		payment_customer_id     TEXT NOT NULL DEFAULT '',
		payment_subscription_id TEXT NOT NULL DEFAULT '',
		created_at              INTEGER NOT NULL,
		updated_at              INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_profiles_payment_customer_id ON profiles(payment_customer_id);

	CREATE TABLE IF NOT EXISTS picks (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES profiles(user_id),
		game       TEXT NOT NULL,
		team       TEXT NOT NULL,
		spread     REAL NOT NULL,
		result     TEXT NOT NULL DEFAULT 'pending',
		created_at INTEGER NOT NULL,
		settled_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_picks_user_id ON picks(user_id);
	CREATE INDEX IF NOT EXISTS idx_picks_result ON picks(result);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("init courtside schema: %w", err)
	}
	return nil
}

// Ping checks database connectivity (used for readiness probes).
func (s *Store) Ping() error {
	return s.db.Ping()
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const profileColumns = `user_id, email, password_hash, membership,
	payment_customer_id, payment_subscription_id, created_at, updated_at`

// CreateProfile inserts a new profile record.
func (s *Store) CreateProfile(ctx context.Context, p *Profile) error {
	if p == nil {
		return fmt.Errorf("profile is nil")
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Membership == "" {
		p.Membership = membership.TierFree
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (
			user_id, email, password_hash, membership,
			payment_customer_id, payment_subscription_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Email, p.PasswordHash, string(p.Membership),
		p.PaymentCustomerID, p.PaymentSubscriptionID,
		p.CreatedAt.Unix(), p.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// GetProfile retrieves a profile by user ID. Returns (nil, nil) if no profile
// matches.
func (s *Store) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, userID)
	return scanProfile(row)
}

// GetProfileByEmail retrieves a profile by email. Returns (nil, nil) if no
// profile matches.
func (s *Store) GetProfileByEmail(ctx context.Context, email string) (*Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE email = ?`, email)
	return scanProfile(row)
}

// GetProfileByCustomerID retrieves a profile by payment customer ID. Returns
// (nil, nil) if no profile matches.
func (s *Store) GetProfileByCustomerID(ctx context.Context, customerID string) (*Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE payment_customer_id = ?`, customerID)
	return scanProfile(row)
}

// UpdateProfileByUserID applies the given field updates to the profile with
// the given user ID. Returns (nil, nil) when no profile matches, so callers
// can tell "not found" apart from a failed write.
func (s *Store) UpdateProfileByUserID(ctx context.Context, userID string, fields membership.ProfileUpdate) (*membership.Profile, error) {
	return s.updateProfile(ctx, "user_id", userID, fields)
}

// UpdateProfileByCustomerID applies the given field updates to the profile
// with the given payment customer ID. Returns (nil, nil) when no profile
// matches.
func (s *Store) UpdateProfileByCustomerID(ctx context.Context, customerID string, fields membership.ProfileUpdate) (*membership.Profile, error) {
	return s.updateProfile(ctx, "payment_customer_id", customerID, fields)
}

// updateProfile builds a parameterized UPDATE from the non-nil fields. The
// column argument is always one of the fixed identifiers above, never caller
// input.
func (s *Store) updateProfile(ctx context.Context, column, key string, fields membership.ProfileUpdate) (*membership.Profile, error) {
	set := []string{"updated_at = ?"}
	args := []any{time.Now().UTC().Unix()}
	if fields.Membership != nil {
		set = append(set, "membership = ?")
		args = append(args, string(*fields.Membership))
	}
	if fields.PaymentCustomerID != nil {
		set = append(set, "payment_customer_id = ?")
		args = append(args, *fields.PaymentCustomerID)
	}
	if fields.PaymentSubscriptionID != nil {
		set = append(set, "payment_subscription_id = ?")
		args = append(args, *fields.PaymentSubscriptionID)
	}
	args = append(args, key)

	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET `+strings.Join(set, ", ")+` WHERE `+column+` = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update profile by %s: %w", column, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update profile by %s: rows affected: %w", column, err)
	}
	if affected == 0 {
		return nil, nil
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE `+column+` = ?`, key)
	p, err := scanProfile(row)
	if err != nil {
		return nil, err
	}
	return p.View(), nil
}

// scanner is an interface satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(s scanner) (*Profile, error) {
	var p Profile
	var tier string
	var createdAt, updatedAt int64

	err := s.Scan(
		&p.UserID, &p.Email, &p.PasswordHash, &tier,
		&p.PaymentCustomerID, &p.PaymentSubscriptionID,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}

	p.Membership = membership.Tier(tier)
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	p.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &p, nil
}
