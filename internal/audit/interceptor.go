package audit

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reqwatch/reqwatch/api"
)

type contextKey int

const startTimeKey contextKey = 0

// WithStartTime stores the request start instant in the context.
func WithStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, startTimeKey, t)
}

// StartTime returns the request start instant, if one was recorded.
func StartTime(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(startTimeKey).(time.Time)
	return t, ok
}

// PrincipalResolver extracts the authenticated principal from a request.
// A nil result means the request is anonymous.
type PrincipalResolver interface {
	Resolve(r *http.Request) *api.Principal
}

// Interceptor observes every request/response pair exactly once and writes
// a log record, except for excluded path prefixes. Persistence is strictly
// best-effort: a failed write is logged and the response is unaffected.
type Interceptor struct {
	store    Store
	resolver PrincipalResolver
	excluded []string
	logger   *slog.Logger
}

// NewInterceptor creates an interceptor. The exclusion list is taken as
// already resolved; it is not consulted from any global state afterwards.
func NewInterceptor(store Store, resolver PrincipalResolver, excluded []string, logger *slog.Logger) *Interceptor {
	return &Interceptor{
		store:    store,
		resolver: resolver,
		excluded: excluded,
		logger:   logger,
	}
}

// Wrap returns a handler that audits every request served by next.
func (i *Interceptor) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if i.Excluded(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		ctx := WithStartTime(r.Context(), time.Now())
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))

		record := i.buildRecord(r.WithContext(ctx), rec.Status(), requestID)

		// The write must survive a client disconnect mid-response.
		if err := i.store.Write(context.WithoutCancel(ctx), record); err != nil {
			i.logger.Error("writing request log",
				"error", err,
				"method", r.Method,
				"path", r.URL.Path,
			)
		}
	})
}

// Excluded reports whether the path matches a configured exclusion prefix.
func (i *Interceptor) Excluded(path string) bool {
	for _, prefix := range i.excluded {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (i *Interceptor) buildRecord(r *http.Request, status int, requestID string) *api.LogRecord {
	record := &api.LogRecord{
		RequestID:      requestID,
		Method:         r.Method,
		Path:           r.URL.Path,
		Query:          r.URL.RawQuery,
		RemoteIP:       ClientIP(r),
		UserAgent:      r.UserAgent(),
		ResponseStatus: &status,
	}

	// A missing start time records a null response time, never zero.
	if start, ok := StartTime(r.Context()); ok {
		ms := time.Since(start).Milliseconds()
		record.ResponseTimeMs = &ms
	}

	if i.resolver != nil {
		record.User = i.resolver.Resolve(r)
	}

	return record
}

// ClientIP resolves the client address. The first X-Forwarded-For token
// wins so proxied deployments see the original client, but the header is
// client-supplied and therefore spoofable; it is recorded as-is.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx >= 0 {
			fwd = fwd[:idx]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// statusRecorder captures the response status code as it passes through.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Flush passes through so streaming upstream responses keep working.
func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Status returns the recorded status, defaulting to 200 as net/http does
// for handlers that never call WriteHeader.
func (w *statusRecorder) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}
