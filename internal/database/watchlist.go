package database

import (
	"fmt"
	"strings"
	"time"

	"dexscreener-alert-bot/internal/types"
)

// AddToWatchlist stores a token for a user, once. Returns false when the
// token is already on the list.
func (s *Store) AddToWatchlist(entry types.WatchlistEntry) (bool, error) {
	if err := s.EnsureUser(entry.OwnerID); err != nil {
		return false, err
	}

	query := `
	INSERT OR IGNORE INTO watchlist (owner_id, token_address, name, symbol, chain, initial_price, added_at)
	VALUES (?, ?, ?, ?, ?, ?, ?);`

	res, err := s.db.Exec(query,
		entry.OwnerID,
		strings.ToLower(entry.TokenAddress),
		entry.Name,
		entry.Symbol,
		entry.Chain,
		entry.InitialPrice,
		time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to add watchlist entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

func (s *Store) GetWatchlist(ownerID int64) ([]types.WatchlistEntry, error) {
	query := `
	SELECT owner_id, token_address, name, symbol, chain, initial_price, added_at
	FROM watchlist WHERE owner_id = ? ORDER BY added_at;`

	rows, err := s.db.Query(query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist for owner %d: %w", ownerID, err)
	}
	defer rows.Close()

	var entries []types.WatchlistEntry
	for rows.Next() {
		var entry types.WatchlistEntry
		err := rows.Scan(&entry.OwnerID, &entry.TokenAddress, &entry.Name,
			&entry.Symbol, &entry.Chain, &entry.InitialPrice, &entry.AddedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watchlist row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) RemoveFromWatchlist(ownerID int64, tokenAddress string) (bool, error) {
	query := `DELETE FROM watchlist WHERE owner_id = ? AND token_address = ?;`

	res, err := s.db.Exec(query, ownerID, strings.ToLower(tokenAddress))
	if err != nil {
		return false, fmt.Errorf("failed to remove watchlist entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}
