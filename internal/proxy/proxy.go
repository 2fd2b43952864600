package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// Proxy forwards every request to the upstream application. It carries no
// audit logic itself; the interceptor wraps its handler.
type Proxy struct {
	target       *url.URL
	reverseProxy *httputil.ReverseProxy
	logger       *slog.Logger
}

// New creates a reverse proxy targeting the given upstream URL.
func New(target string, logger *slog.Logger) (*Proxy, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("upstream URL %q must include scheme and host", target)
	}

	p := &Proxy{
		target: u,
		logger: logger,
	}

	rp := httputil.NewSingleHostReverseProxy(u)
	rp.ErrorHandler = p.errorHandler
	p.reverseProxy = rp

	return p, nil
}

// ServeHTTP forwards the request to the upstream.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.reverseProxy.ServeHTTP(w, r)
}

func (p *Proxy) errorHandler(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Error("proxy error", "error", err, "url", r.URL.String())
	http.Error(w, "upstream unavailable", http.StatusBadGateway)
}

// Target returns the upstream URL.
func (p *Proxy) Target() string {
	return p.target.String()
}

// ListenAndServe runs an HTTP server for the given handler, shutting it
// down when the context is cancelled.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	logger.Info("starting proxy", "listen", addr)
	return srv.ListenAndServe()
}
