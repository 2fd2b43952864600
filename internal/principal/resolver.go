package principal

import (
	"context"
	"net/http"

	"github.com/reqwatch/reqwatch/api"
)

// DefaultHeader is the conventional header an authenticating reverse proxy
// sets for the logged-in user.
const DefaultHeader = "Remote-User"

// Lookup finds a principal by exact username. (nil, nil) means unknown.
type Lookup interface {
	FindPrincipal(ctx context.Context, username string) (*api.Principal, error)
}

// HeaderResolver resolves the authenticated principal from a request header
// set by an upstream auth layer. Unknown or missing usernames resolve to
// anonymous.
type HeaderResolver struct {
	lookup Lookup
	header string
}

// NewHeaderResolver creates a resolver reading the given header. An empty
// header name falls back to DefaultHeader.
func NewHeaderResolver(lookup Lookup, header string) *HeaderResolver {
	if header == "" {
		header = DefaultHeader
	}
	return &HeaderResolver{lookup: lookup, header: header}
}

func (hr *HeaderResolver) Resolve(r *http.Request) *api.Principal {
	username := r.Header.Get(hr.header)
	if username == "" {
		return nil
	}
	p, err := hr.lookup.FindPrincipal(r.Context(), username)
	if err != nil {
		return nil
	}
	return p
}
