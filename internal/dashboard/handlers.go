package dashboard

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/reqwatch/reqwatch/api"
)

// filterMethods populates the method dropdown.
var filterMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/logs/", http.StatusFound)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	filter := parseFilter(params, s.pageSize)

	page, err := s.store.Query(r.Context(), filter)
	if err != nil {
		s.logger.Error("querying logs", "error", err)
		http.Error(w, "failed to query logs", http.StatusInternalServerError)
		return
	}

	stats, err := s.store.Stats(r.Context(), time.Now())
	if err != nil {
		s.logger.Error("computing stats", "error", err)
		http.Error(w, "failed to compute stats", http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"Page":      "logs",
		"Logs":      page,
		"Stats":     stats,
		"Methods":   filterMethods,
		"Filters":   filterValues(params),
		"BaseQuery": baseQuery(params),
	}

	// HTMX requests get just the table fragment for in-place swaps.
	if r.Header.Get("HX-Request") != "" {
		renderFragment(w, "logs", "logs_table", data)
		return
	}
	renderPage(w, "logs", data)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.Recent(r.Context(), s.recentLimit)
	if err != nil {
		s.logger.Error("querying recent logs", "error", err)
		http.Error(w, "failed to query logs", http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"Page":    "recent",
		"Records": records,
	}
	renderPage(w, "recent", data)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context(), time.Now())
	if err != nil {
		s.logger.Error("computing stats", "error", err)
		http.Error(w, "failed to compute stats", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	ch, cancel := s.store.Subscribe(r.Context())
	defer cancel()

	for {
		select {
		case record, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: log\ndata: %s\n\n", renderLogRow(record))
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// parseFilter builds a QueryFilter from request parameters. A non-numeric
// status value drops the status filter rather than erroring.
func parseFilter(params url.Values, pageSize int) api.QueryFilter {
	filter := api.QueryFilter{
		Method:   params.Get("method"),
		Path:     params.Get("path"),
		User:     params.Get("user"),
		PageSize: pageSize,
	}
	if raw := params.Get("status"); raw != "" {
		if status, err := strconv.Atoi(raw); err == nil {
			filter.Status = &status
		}
	}
	if page, err := strconv.Atoi(params.Get("page")); err == nil {
		filter.Page = page
	}
	return filter
}

func filterValues(params url.Values) map[string]string {
	return map[string]string{
		"method": params.Get("method"),
		"path":   params.Get("path"),
		"user":   params.Get("user"),
		"status": params.Get("status"),
	}
}

// baseQuery re-encodes the active filters without the page number, for
// building pagination links.
func baseQuery(params url.Values) string {
	kept := url.Values{}
	for _, key := range []string{"method", "path", "user", "status"} {
		if v := params.Get(key); v != "" {
			kept.Set(key, v)
		}
	}
	return kept.Encode()
}

func renderLogRow(record *api.LogRecord) string {
	user := "-"
	if record.User != nil {
		user = record.User.DisplayName()
	}

	return fmt.Sprintf(
		`<tr class="border-b border-gray-700 hover:bg-gray-800"><td class="px-4 py-2 text-gray-400 text-xs">%s</td><td class="px-4 py-2 font-mono text-xs">%s</td><td class="px-4 py-2 font-mono text-sm">%s</td><td class="px-4 py-2">%s</td><td class="px-4 py-2"><span class="px-2 py-1 rounded text-xs font-bold %s">%s</span></td><td class="px-4 py-2 text-gray-400 text-xs">%s</td>`+
			`<td class="px-4 py-2 text-gray-400 text-xs">%s</td></tr>`,
		record.Timestamp.Format("2006-01-02 15:04:05"),
		escapeHTML(record.Method),
		escapeHTML(record.Path),
		escapeHTML(user),
		statusColor(record.StatusClass()),
		escapeHTML(statusText(record.ResponseStatus)),
		escapeHTML(msecText(record.ResponseTimeMs)),
		escapeHTML(record.RemoteIP),
	)
}

func statusColor(class string) string {
	switch class {
	case "2xx":
		return "bg-green-900 text-green-300"
	case "3xx":
		return "bg-blue-900 text-blue-300"
	case "4xx":
		return "bg-yellow-900 text-yellow-300"
	case "5xx":
		return "bg-red-900 text-red-300"
	default:
		return "bg-gray-700 text-gray-300"
	}
}

func statusText(status *int) string {
	if status == nil {
		return "-"
	}
	return strconv.Itoa(*status)
}

func msecText(ms *int64) string {
	if ms == nil {
		return "-"
	}
	return fmt.Sprintf("%d ms", *ms)
}

func escapeHTML(s string) string {
	return template.HTMLEscapeString(s)
}
