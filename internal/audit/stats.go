package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/reqwatch/reqwatch/api"
)

// Stats recomputes the aggregate statistics from current database state.
// Windows trail back from now, so every call reflects a fresh snapshot.
func (s *SQLiteStore) Stats(ctx context.Context, now time.Time) (*api.RequestStats, error) {
	stats := &api.RequestStats{
		StatusCounts: make(map[string]int),
		TopPaths:     []api.PathCount{},
		UpdatedAt:    now,
	}

	lastHour := now.Add(-time.Hour).UnixNano()
	last24h := now.Add(-24 * time.Hour).UnixNano()
	last7d := now.Add(-7 * 24 * time.Hour).UnixNano()

	counts := []struct {
		dest  *int
		query string
		args  []any
	}{
		{&stats.TotalRequests, `SELECT COUNT(*) FROM request_logs`, nil},
		{&stats.RequestsLastHour, `SELECT COUNT(*) FROM request_logs WHERE timestamp >= ?`, []any{lastHour}},
		{&stats.RequestsLast24h, `SELECT COUNT(*) FROM request_logs WHERE timestamp >= ?`, []any{last24h}},
		{&stats.RequestsLast7d, `SELECT COUNT(*) FROM request_logs WHERE timestamp >= ?`, []any{last7d}},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("counting request logs: %w", err)
		}
	}

	if err := s.statusCounts(ctx, last24h, stats); err != nil {
		return nil, err
	}
	if err := s.topPaths(ctx, last24h, stats); err != nil {
		return nil, err
	}

	// Average over timed records only; no timed records means 0, not null.
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(AVG(response_time_ms), 0)
		FROM request_logs
		WHERE timestamp >= ? AND response_time_ms IS NOT NULL`, last24h).
		Scan(&stats.AvgResponseTime)
	if err != nil {
		return nil, fmt.Errorf("averaging response time: %w", err)
	}

	return stats, nil
}

// statusCounts buckets the last 24 hours of records into status classes.
func (s *SQLiteStore) statusCounts(ctx context.Context, since int64, stats *api.RequestStats) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT response_status, COUNT(*)
		FROM request_logs
		WHERE timestamp >= ?
		GROUP BY response_status`, since)
	if err != nil {
		return fmt.Errorf("counting status classes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status sql.NullInt64
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return fmt.Errorf("scanning status class: %w", err)
		}
		var sp *int
		if status.Valid {
			v := int(status.Int64)
			sp = &v
		}
		stats.StatusCounts[api.StatusClassOf(sp)] += count
	}
	return rows.Err()
}

// topPaths ranks (path, method) pairs over the last 24 hours. Ties break by
// path then method so the ranking is deterministic.
func (s *SQLiteStore) topPaths(ctx context.Context, since int64, stats *api.RequestStats) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, method, COUNT(*) AS hits
		FROM request_logs
		WHERE timestamp >= ?
		GROUP BY path, method
		ORDER BY hits DESC, path ASC, method ASC
		LIMIT 10`, since)
	if err != nil {
		return fmt.Errorf("ranking top paths: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pc api.PathCount
		if err := rows.Scan(&pc.Path, &pc.Method, &pc.Count); err != nil {
			return fmt.Errorf("scanning top path: %w", err)
		}
		stats.TopPaths = append(stats.TopPaths, pc)
	}
	return rows.Err()
}
