package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

const pickColumns = `id, user_id, game, team, spread, result, created_at, settled_at`

// CreatePick inserts a new pick. An empty ID is filled with a fresh ULID.
func (s *Store) CreatePick(ctx context.Context, p *Pick) error {
	if p == nil {
		return fmt.Errorf("pick is nil")
	}
	if p.ID == "" {
		p.ID = ulid.Make().String()
	}
	if p.Result == "" {
		p.Result = PickPending
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO picks (id, user_id, game, team, spread, result, created_at, settled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Game, p.Team, p.Spread, string(p.Result),
		p.CreatedAt.Unix(), nullableTimeUnix(p.SettledAt),
	)
	if err != nil {
		return fmt.Errorf("create pick: %w", err)
	}
	return nil
}

// GetPick retrieves a pick by ID. Returns (nil, nil) if no pick matches.
func (s *Store) GetPick(ctx context.Context, id string) (*Pick, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+pickColumns+` FROM picks WHERE id = ?`, id)
	return scanPick(row)
}

// ListPicksByUser returns a user's picks, newest first.
func (s *Store) ListPicksByUser(ctx context.Context, userID string) ([]*Pick, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pickColumns+` FROM picks WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list picks: %w", err)
	}
	defer rows.Close()

	var picks []*Pick
	for rows.Next() {
		p, err := scanPick(rows)
		if err != nil {
			return nil, err
		}
		picks = append(picks, p)
	}
	return picks, rows.Err()
}

// SettlePick records the outcome of a pick owned by userID. Returns
// (nil, nil) when no matching unsettled pick exists.
func (s *Store) SettlePick(ctx context.Context, id, userID string, result PickResult) (*Pick, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE picks SET result = ?, settled_at = ?
		WHERE id = ? AND user_id = ? AND result = ?`,
		string(result), now.Unix(), id, userID, string(PickPending),
	)
	if err != nil {
		return nil, fmt.Errorf("settle pick: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("settle pick: rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}
	return s.GetPick(ctx, id)
}

func scanPick(s scanner) (*Pick, error) {
	var p Pick
	var result string
	var createdAt int64
	var settledAt sql.NullInt64

	err := s.Scan(&p.ID, &p.UserID, &p.Game, &p.Team, &p.Spread, &result, &createdAt, &settledAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan pick: %w", err)
	}

	p.Result = PickResult(result)
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	if settledAt.Valid {
		ts := time.Unix(settledAt.Int64, 0).UTC()
		p.SettledAt = &ts
	}
	return &p, nil
}

func nullableTimeUnix(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}
