package store

import (
	"context"
	"fmt"
)

// Bounds for the leaderboard minimum-picks filter. The filter is always
// validated before it reaches the query, and it is bound as a query
// parameter, never interpolated into the SQL text.
const (
	MinLeaderboardFilter = 1
	MaxLeaderboardFilter = 1000
)

// LeaderboardEntry aggregates a member's settled pick record.
type LeaderboardEntry struct {
	UserID  string  `json:"user_id"`
	Email   string  `json:"email"`
	Total   int     `json:"total"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Pushes  int     `json:"pushes"`
	WinRate float64 `json:"win_rate"`
}

// Leaderboard returns members ranked by win rate over their settled picks,
// restricted to members with at least minPicks settled picks.
func (s *Store) Leaderboard(ctx context.Context, minPicks int) ([]LeaderboardEntry, error) {
	if minPicks < MinLeaderboardFilter || minPicks > MaxLeaderboardFilter {
		return nil, fmt.Errorf("min picks filter out of range: %d", minPicks)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			p.user_id,
			pr.email,
			COUNT(*),
			SUM(CASE WHEN p.result = 'win'  THEN 1 ELSE 0 END),
			SUM(CASE WHEN p.result = 'loss' THEN 1 ELSE 0 END),
			SUM(CASE WHEN p.result = 'push' THEN 1 ELSE 0 END)
		FROM picks p
		JOIN profiles pr ON pr.user_id = p.user_id
		WHERE p.result != 'pending'
		GROUP BY p.user_id, pr.email
		HAVING COUNT(*) >= ?
		ORDER BY CAST(SUM(CASE WHEN p.result = 'win' THEN 1 ELSE 0 END) AS REAL) / COUNT(*) DESC,
			COUNT(*) DESC, p.user_id`,
		minPicks,
	)
	if err != nil {
		return nil, fmt.Errorf("leaderboard query: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Email, &e.Total, &e.Wins, &e.Losses, &e.Pushes); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		if e.Total > 0 {
			e.WinRate = float64(e.Wins) / float64(e.Total)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
