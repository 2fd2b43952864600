package api

import "time"

// QueryFilter defines criteria for browsing log records. All fields are
// optional and combined with logical AND.
type QueryFilter struct {
	// Method matches exactly (GET, POST, ...).
	Method string `json:"method,omitempty"`

	// Path matches as a case-insensitive substring of the request path.
	Path string `json:"path,omitempty"`

	// User matches as a substring of the principal's username, first name
	// or last name. Records without a principal never match.
	User string `json:"user,omitempty"`

	// Status matches the response status exactly. Nil means no filter;
	// non-numeric user input is dropped before it gets here.
	Status *int `json:"status,omitempty"`

	// Page selects the result page, 1-based. Out-of-range values clamp to
	// the nearest valid page.
	Page int `json:"page,omitempty"`

	// PageSize overrides the default page size when positive.
	PageSize int `json:"page_size,omitempty"`
}

// LogPage is one page of query results plus enough metadata to render
// pagination controls.
type LogPage struct {
	Records    []*LogRecord `json:"records"`
	TotalCount int          `json:"total_count"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalPages int          `json:"total_pages"`
}

// HasPrev reports whether an earlier page exists.
func (p *LogPage) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a later page exists.
func (p *LogPage) HasNext() bool { return p.Page < p.TotalPages }

// PrevPage returns the previous page number (clamped at 1).
func (p *LogPage) PrevPage() int {
	if p.Page > 1 {
		return p.Page - 1
	}
	return 1
}

// NextPage returns the next page number (clamped at the last page).
func (p *LogPage) NextPage() int {
	if p.Page < p.TotalPages {
		return p.Page + 1
	}
	return p.TotalPages
}

// PathCount is one entry in the top-paths ranking.
type PathCount struct {
	Path   string `json:"path"`
	Method string `json:"method"`
	Count  int    `json:"count"`
}

// RequestStats is the aggregate statistics payload. Windowed values are
// measured backwards from UpdatedAt, recomputed on every call.
type RequestStats struct {
	TotalRequests    int            `json:"total_requests"`
	RequestsLastHour int            `json:"requests_last_hour"`
	RequestsLast24h  int            `json:"requests_last_24h"`
	RequestsLast7d   int            `json:"requests_last_7d"`
	StatusCounts     map[string]int `json:"status_counts"`
	TopPaths         []PathCount    `json:"top_paths"`
	AvgResponseTime  float64        `json:"avg_response_time"`
	UpdatedAt        time.Time      `json:"updated_at"`
}
