package database

import (
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"dexscreener-alert-bot/internal/types"
)

const alertColumns = `id, owner_id, token_address, token_name, token_symbol, chain,
	initial_price, target_price, direction, percent, created_at, active, triggered, triggered_at`

// CreateAlert persists a draft as a new active alert and returns its id.
// Ids come from sqlite's AUTOINCREMENT sequence and are never reused.
func (s *Store) CreateAlert(draft types.AlertDraft) (int64, error) {
	if err := s.EnsureUser(draft.OwnerID); err != nil {
		return 0, err
	}

	query := `
	INSERT INTO alerts (owner_id, token_address, token_name, token_symbol, chain,
		initial_price, target_price, direction, percent, created_at, active, triggered)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, 0);`

	res, err := s.db.Exec(query,
		draft.OwnerID,
		strings.ToLower(draft.TokenAddress),
		draft.TokenName,
		draft.TokenSymbol,
		draft.Chain,
		draft.InitialPrice,
		draft.TargetPrice,
		string(draft.Direction),
		draft.Percent,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert alert: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read alert id: %w", err)
	}

	log.Debugf("Alert %d created for user %d on %s", id, draft.OwnerID, draft.TokenAddress)
	return id, nil
}

// ListActiveAlerts returns every active alert across all owners. Triggered
// and deleted alerts never appear here, which is what makes repeated sweeps
// idempotent.
func (s *Store) ListActiveAlerts() ([]types.Alert, error) {
	query := fmt.Sprintf(`SELECT %s FROM alerts WHERE active = 1 ORDER BY id;`, alertColumns)

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active alerts: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// ListAlertsByOwner returns one user's alerts, optionally restricted to
// active ones.
func (s *Store) ListAlertsByOwner(ownerID int64, activeOnly bool) ([]types.Alert, error) {
	query := fmt.Sprintf(`SELECT %s FROM alerts WHERE owner_id = ?`, alertColumns)
	if activeOnly {
		query += ` AND active = 1`
	}
	query += ` ORDER BY id;`

	rows, err := s.db.Query(query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts for owner %d: %w", ownerID, err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// MarkTriggered flips an alert to triggered and permanently deactivates it.
// The active=1 predicate makes the write idempotent: a second trigger, or a
// trigger racing a delete, matches no rows and reports false.
func (s *Store) MarkTriggered(id int64) (bool, error) {
	query := `
	UPDATE alerts SET active = 0, triggered = 1, triggered_at = ?
	WHERE id = ? AND active = 1;`

	res, err := s.db.Exec(query, time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("failed to mark alert %d triggered: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

// DeleteAlert deactivates one of the caller's alerts. Unknown ids, alerts
// owned by someone else and already-inactive alerts all report false.
func (s *Store) DeleteAlert(ownerID, id int64) (bool, error) {
	query := `UPDATE alerts SET active = 0 WHERE id = ? AND owner_id = ? AND active = 1;`

	res, err := s.db.Exec(query, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete alert %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected > 0 {
		log.Debugf("Alert %d deleted for user %d", id, ownerID)
	}
	return affected > 0, nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanAlerts(rows rowScanner) ([]types.Alert, error) {
	var alerts []types.Alert
	for rows.Next() {
		var alert types.Alert
		var direction string
		var active, triggered int
		var triggeredAt *time.Time

		err := rows.Scan(&alert.ID, &alert.OwnerID, &alert.TokenAddress, &alert.TokenName,
			&alert.TokenSymbol, &alert.Chain, &alert.InitialPrice, &alert.TargetPrice,
			&direction, &alert.Percent, &alert.CreatedAt, &active, &triggered, &triggeredAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}

		alert.Direction = types.Direction(direction)
		alert.Active = active == 1
		alert.Triggered = triggered == 1
		alert.TriggeredAt = triggeredAt
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}
