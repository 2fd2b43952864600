package api

import "time"

// LogRecord is one persisted audit entry for an HTTP request/response pair.
// Records are immutable after creation; there is no update path.
type LogRecord struct {
	ID        int64     `json:"id"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Query     string    `json:"query_string,omitempty"`
	RemoteIP  string    `json:"remote_ip,omitempty"`

	// User is the authenticated principal at the time of the request, if
	// any. It degrades to nil when the principal is later deleted.
	User *Principal `json:"user,omitempty"`

	UserAgent string `json:"user_agent,omitempty"`

	// ResponseStatus and ResponseTimeMs are nil when the handler never
	// produced them (e.g. timing could not be captured).
	ResponseStatus *int   `json:"response_status,omitempty"`
	ResponseTimeMs *int64 `json:"response_time_ms,omitempty"`
}

// StatusClass buckets the response status by its hundreds digit ("2xx",
// "4xx", ...). A missing status or a status of 0 is "Unknown".
func (r *LogRecord) StatusClass() string {
	return StatusClassOf(r.ResponseStatus)
}

// StatusClassOf is StatusClass for a bare optional status value.
func StatusClassOf(status *int) string {
	if status == nil || *status <= 0 {
		return "Unknown"
	}
	c := *status / 100
	if c < 1 || c > 5 {
		return "Unknown"
	}
	return []string{"1xx", "2xx", "3xx", "4xx", "5xx"}[c-1]
}

// Principal is an authenticated identity associated with a request.
type Principal struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// DisplayName returns the name shown in the dashboard.
func (p *Principal) DisplayName() string {
	full := p.FirstName
	if p.LastName != "" {
		if full != "" {
			full += " "
		}
		full += p.LastName
	}
	if full != "" {
		return full
	}
	return p.Username
}
