package database

import (
	"database/sql"
	"errors"
	"fmt"
)

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// SaveMetric upserts a single counter value so process restarts do not reset
// the exported totals.
func (s *Store) SaveMetric(metricName, labelKey, labelValue string, value float64) error {
	query := `
	INSERT OR REPLACE INTO metrics (metric_name, label_key, label_value, metric_value)
	VALUES (?, ?, ?, ?);`
	if _, err := s.db.Exec(query, metricName, labelKey, labelValue, value); err != nil {
		return fmt.Errorf("failed to save metric: %w", err)
	}
	return nil
}

func (s *Store) GetMetric(metricName string) (float64, error) {
	var value float64
	query := `
	SELECT metric_value
	FROM metrics
	WHERE metric_name = ? AND label_key = '' AND label_value = '';`
	err := s.db.QueryRow(query, metricName).Scan(&value)
	if isNoRows(err) {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("failed to get metric %s: %w", metricName, err)
	}
	return value, nil
}
