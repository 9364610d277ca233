package entities

// SessionMetrics is a snapshot of the running totals for the current session.
type SessionMetrics struct {
	TokenCount        int     `json:"token_count"`
	RequestCount      int     `json:"request_count"`
	TotalCost         float64 `json:"total_cost"`
	ResponseTimes     []int64 `json:"response_times_ms"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
}
