package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reqwatch/reqwatch/api"
	"github.com/reqwatch/reqwatch/internal/audit"
)

func testServer(t *testing.T) (*Server, *audit.SQLiteStore) {
	t.Helper()
	store, err := audit.NewSQLiteStore(filepath.Join(t.TempDir(), "requests.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(":0", store, 20, 10, logger), store
}

func intPtr(v int) *int { return &v }

func seedRecords(t *testing.T, store *audit.SQLiteStore, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		r := &api.LogRecord{
			Method:         "GET",
			Path:           "/api/resumes/",
			ResponseStatus: intPtr(200),
		}
		if err := store.Write(context.Background(), r); err != nil {
			t.Fatal(err)
		}
	}
}

func get(t *testing.T, s *Server, target string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestRootRedirect(t *testing.T) {
	s, _ := testServer(t)
	w := get(t, s, "/", nil)
	if w.Code != http.StatusFound {
		t.Errorf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/logs/" {
		t.Errorf("expected redirect to /logs/, got %s", loc)
	}
}

func TestLogsPage(t *testing.T) {
	s, store := testServer(t)
	seedRecords(t, store, 15)

	w := get(t, s, "/logs/", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Request Log") {
		t.Error("expected page to contain 'Request Log'")
	}
	if !strings.Contains(body, "15 requests, page 1 of 1") {
		t.Error("expected all 15 records on a single page")
	}
	if got := strings.Count(body, "/api/resumes/"); got < 15 {
		t.Errorf("expected at least 15 rows, found %d path occurrences", got)
	}
}

func TestLogsPage_HTMXFragment(t *testing.T) {
	s, store := testServer(t)
	seedRecords(t, store, 1)

	w := get(t, s, "/logs/", map[string]string{"HX-Request": "true"})
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if strings.Contains(body, "<html") {
		t.Error("expected a fragment, got a full page")
	}
	if !strings.Contains(body, "logs-table") {
		t.Error("expected the table fragment")
	}
}

func TestLogsPage_NonNumericStatusIgnored(t *testing.T) {
	s, store := testServer(t)
	seedRecords(t, store, 3)

	plain := get(t, s, "/logs/", nil)
	filtered := get(t, s, "/logs/?status=xyz", nil)
	if filtered.Code != http.StatusOK {
		t.Fatalf("expected 200 for non-numeric status, got %d", filtered.Code)
	}
	if !strings.Contains(filtered.Body.String(), "3 requests") {
		t.Error("expected non-numeric status filter to be dropped")
	}
	if plain.Code != filtered.Code {
		t.Errorf("expected same result as unfiltered, got %d vs %d", plain.Code, filtered.Code)
	}
}

func TestLogsPage_StatusFilter(t *testing.T) {
	s, store := testServer(t)
	seedRecords(t, store, 2)
	r := &api.LogRecord{Method: "GET", Path: "/missing", ResponseStatus: intPtr(404)}
	if err := store.Write(context.Background(), r); err != nil {
		t.Fatal(err)
	}

	w := get(t, s, "/logs/?status=404", nil)
	if !strings.Contains(w.Body.String(), "1 requests, page 1 of 1") {
		t.Error("expected a single 404 record")
	}
}

func TestRecentPage(t *testing.T) {
	s, store := testServer(t)
	seedRecords(t, store, 12)

	w := get(t, s, "/logs/recent/", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Recent Requests") {
		t.Error("expected page to contain 'Recent Requests'")
	}
	if got := strings.Count(body, "/api/resumes/"); got != 10 {
		t.Errorf("expected exactly 10 rows, found %d", got)
	}
}

func TestStatsEndpoint(t *testing.T) {
	s, store := testServer(t)
	seedRecords(t, store, 2)

	w := get(t, s, "/logs/stats/", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %s", ct)
	}

	var stats api.RequestStats
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats.TotalRequests != 2 {
		t.Errorf("expected 2 total requests, got %d", stats.TotalRequests)
	}
	if stats.StatusCounts["2xx"] != 2 {
		t.Errorf("expected 2 in 2xx, got %d", stats.StatusCounts["2xx"])
	}
	if stats.UpdatedAt.IsZero() {
		t.Error("expected updated_at to be set")
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name  string
		query string
		check func(t *testing.T, f api.QueryFilter)
	}{
		{"empty", "", func(t *testing.T, f api.QueryFilter) {
			if f.Method != "" || f.Status != nil || f.Page != 0 {
				t.Errorf("unexpected filter: %+v", f)
			}
		}},
		{"all fields", "method=POST&path=api&user=jdoe&status=404&page=3", func(t *testing.T, f api.QueryFilter) {
			if f.Method != "POST" || f.Path != "api" || f.User != "jdoe" {
				t.Errorf("unexpected filter: %+v", f)
			}
			if f.Status == nil || *f.Status != 404 {
				t.Errorf("expected status 404, got %v", f.Status)
			}
			if f.Page != 3 {
				t.Errorf("expected page 3, got %d", f.Page)
			}
		}},
		{"non-numeric status dropped", "status=xyz", func(t *testing.T, f api.QueryFilter) {
			if f.Status != nil {
				t.Errorf("expected nil status, got %v", *f.Status)
			}
		}},
		{"non-numeric page defaults", "page=abc", func(t *testing.T, f api.QueryFilter) {
			if f.Page != 0 {
				t.Errorf("expected page 0, got %d", f.Page)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			tt.check(t, parseFilter(params, 20))
		})
	}
}

// streamStore serves a pre-loaded subscription channel so the stream
// handler can be tested without timing on real writes.
type streamStore struct {
	audit.Store
	ch chan *api.LogRecord
}

func (s *streamStore) Subscribe(_ context.Context) (<-chan *api.LogRecord, func()) {
	return s.ch, func() {}
}

func TestStreamDeliversRecord(t *testing.T) {
	ch := make(chan *api.LogRecord, 1)
	ch <- &api.LogRecord{Method: "GET", Path: "/api/resumes/"}
	close(ch)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewServer(":0", &streamStore{ch: ch}, 20, 10, logger)

	w := get(t, s, "/logs/stream/", nil)
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected event stream content type, got %s", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "event: log") {
		t.Error("expected a log event")
	}
	if !strings.Contains(body, "/api/resumes/") {
		t.Error("expected the record row in the event data")
	}
}

func TestRenderLogRow_EscapesHTML(t *testing.T) {
	record := &api.LogRecord{
		Path:   "/<script>alert(1)</script>",
		Method: "GET",
	}
	row := renderLogRow(record)
	if strings.Contains(row, "<script>") {
		t.Error("expected path to be escaped")
	}
}
