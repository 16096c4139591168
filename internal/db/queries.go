package db

import (
	"context"
	"time"

	"github.com/HanTheDev/personality-gateway/internal/models"
)

func (db *DB) LogAccess(ctx context.Context, log *models.AccessLog) error {
	query := `
        INSERT INTO access_logs (request_id, route, method, path, status_code, upstream_status, outcome,
                                 caller_id, response_time_ms, request_size, response_size)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `

	_, err := db.Pool.Exec(ctx, query,
		log.RequestID,
		log.Route,
		log.Method,
		log.Path,
		log.StatusCode,
		log.UpstreamStatus,
		log.Outcome,
		log.CallerID,
		log.ResponseTimeMs,
		log.RequestSize,
		log.ResponseSize,
	)

	return err
}

func (db *DB) RecentAccessLogs(ctx context.Context, limit int) ([]models.AccessLog, error) {
	query := `
        SELECT id, request_id, route, method, path, status_code, upstream_status, outcome,
               caller_id, response_time_ms, request_size, response_size, timestamp
        FROM access_logs
        ORDER BY timestamp DESC
        LIMIT $1
    `

	rows, err := db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.AccessLog{}
	for rows.Next() {
		var l models.AccessLog
		if err := rows.Scan(
			&l.ID,
			&l.RequestID,
			&l.Route,
			&l.Method,
			&l.Path,
			&l.StatusCode,
			&l.UpstreamStatus,
			&l.Outcome,
			&l.CallerID,
			&l.ResponseTimeMs,
			&l.RequestSize,
			&l.ResponseSize,
			&l.Timestamp,
		); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}

	return logs, rows.Err()
}

// RouteStats aggregates access logs per route inside [from, to).
func (db *DB) RouteStats(ctx context.Context, from, to time.Time) ([]models.RouteStats, error) {
	query := `
        SELECT route,
               COUNT(*),
               COUNT(*) FILTER (WHERE status_code >= 400),
               COALESCE(AVG(response_time_ms), 0)::float8,
               COALESCE(MAX(response_time_ms), 0)
        FROM access_logs
        WHERE timestamp >= $1 AND timestamp < $2
        GROUP BY route
        ORDER BY route
    `

	rows, err := db.Pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []models.RouteStats{}
	for rows.Next() {
		var s models.RouteStats
		if err := rows.Scan(&s.Route, &s.Requests, &s.Errors, &s.AvgResponseMs, &s.MaxResponseMs); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}
