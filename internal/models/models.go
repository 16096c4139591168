package models

import "time"

// Outcome classes recorded for each proxied call.
const (
	OutcomeOK            = "ok"
	OutcomeRejected      = "rejected"
	OutcomeConfiguration = "configuration_error"
	OutcomeUpstream      = "upstream_error"
	OutcomeContract      = "contract_violation"
	OutcomeTransport     = "transport_error"
)

type AccessLog struct {
	ID             int64     `json:"id"`
	RequestID      string    `json:"request_id"`
	Route          string    `json:"route"`
	Method         string    `json:"method"`
	Path           string    `json:"path"`
	StatusCode     int       `json:"status_code"`
	UpstreamStatus int       `json:"upstream_status"`
	Outcome        string    `json:"outcome"`
	CallerID       string    `json:"caller_id,omitempty"`
	ResponseTimeMs int       `json:"response_time_ms"`
	RequestSize    int64     `json:"request_size"`
	ResponseSize   int64     `json:"response_size"`
	Timestamp      time.Time `json:"timestamp"`
}

type RouteStats struct {
	Route         string  `json:"route"`
	Requests      int64   `json:"requests"`
	Errors        int64   `json:"errors"`
	AvgResponseMs float64 `json:"avg_response_ms"`
	MaxResponseMs int     `json:"max_response_ms"`
}
