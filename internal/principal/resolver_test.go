package principal

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/reqwatch/reqwatch/api"
)

type stubLookup struct {
	users map[string]*api.Principal
	err   error
}

func (s *stubLookup) FindPrincipal(_ context.Context, username string) (*api.Principal, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.users[username], nil
}

func TestResolveKnownUser(t *testing.T) {
	lookup := &stubLookup{users: map[string]*api.Principal{
		"jdoe": {ID: 1, Username: "jdoe", FirstName: "Jane", LastName: "Doe"},
	}}
	hr := NewHeaderResolver(lookup, "")

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(DefaultHeader, "jdoe")

	p := hr.Resolve(req)
	if p == nil {
		t.Fatal("expected a principal")
	}
	if p.Username != "jdoe" {
		t.Errorf("expected jdoe, got %s", p.Username)
	}
}

func TestResolveMissingHeader(t *testing.T) {
	hr := NewHeaderResolver(&stubLookup{}, "")
	req := httptest.NewRequest("GET", "/", nil)
	if p := hr.Resolve(req); p != nil {
		t.Errorf("expected anonymous, got %+v", p)
	}
}

func TestResolveUnknownUser(t *testing.T) {
	hr := NewHeaderResolver(&stubLookup{users: map[string]*api.Principal{}}, "")
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(DefaultHeader, "ghost")
	if p := hr.Resolve(req); p != nil {
		t.Errorf("expected anonymous for unknown user, got %+v", p)
	}
}

func TestResolveLookupError(t *testing.T) {
	hr := NewHeaderResolver(&stubLookup{err: errors.New("db closed")}, "")
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(DefaultHeader, "jdoe")
	if p := hr.Resolve(req); p != nil {
		t.Errorf("expected anonymous on lookup failure, got %+v", p)
	}
}

func TestResolveCustomHeader(t *testing.T) {
	lookup := &stubLookup{users: map[string]*api.Principal{
		"jdoe": {ID: 1, Username: "jdoe"},
	}}
	hr := NewHeaderResolver(lookup, "X-Auth-User")

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Auth-User", "jdoe")
	if p := hr.Resolve(req); p == nil {
		t.Fatal("expected a principal via custom header")
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set(DefaultHeader, "jdoe")
	if p := hr.Resolve(req); p != nil {
		t.Error("expected default header to be ignored when a custom one is set")
	}
}
