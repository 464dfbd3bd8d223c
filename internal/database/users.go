package database

import (
	"fmt"
	"time"

	"dexscreener-alert-bot/internal/types"
)

// EnsureUser records a user the first time they create anything. Re-inserts
// are no-ops so the original created_at survives.
func (s *Store) EnsureUser(userID int64) error {
	query := `INSERT OR IGNORE INTO users (user_id, created_at) VALUES (?, ?);`
	if _, err := s.db.Exec(query, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to ensure user %d: %w", userID, err)
	}
	return nil
}

// GetUserStats aggregates a user's alert and watchlist footprint.
func (s *Store) GetUserStats(userID int64) (*types.UserStats, error) {
	stats := &types.UserStats{MemberSince: time.Now().UTC()}

	err := s.db.QueryRow(`SELECT created_at FROM users WHERE user_id = ?;`, userID).
		Scan(&stats.MemberSince)
	if err != nil && !isNoRows(err) {
		return nil, fmt.Errorf("failed to read user %d: %w", userID, err)
	}

	query := `
	SELECT
		COUNT(*),
		COALESCE(SUM(active), 0),
		COALESCE(SUM(triggered), 0)
	FROM alerts WHERE owner_id = ?;`
	err = s.db.QueryRow(query, userID).
		Scan(&stats.TotalAlerts, &stats.ActiveAlerts, &stats.TriggeredAlerts)
	if err != nil {
		return nil, fmt.Errorf("failed to count alerts for user %d: %w", userID, err)
	}

	err = s.db.QueryRow(`SELECT COUNT(*) FROM watchlist WHERE owner_id = ?;`, userID).
		Scan(&stats.WatchlistCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count watchlist for user %d: %w", userID, err)
	}

	return stats, nil
}
