package config

import (
	"strings"
	"testing"
)

func TestLoadBytes(t *testing.T) {
	yaml := `
version: 1
upstream: "http://localhost:3000"
proxy_addr: "127.0.0.1:9000"
page_size: 50
exclude_paths:
  - /healthz
`
	cfg, err := LoadBytes([]byte(yaml))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Upstream != "http://localhost:3000" {
		t.Errorf("expected upstream http://localhost:3000, got %s", cfg.Upstream)
	}
	if cfg.ProxyAddr != "127.0.0.1:9000" {
		t.Errorf("expected proxy addr 127.0.0.1:9000, got %s", cfg.ProxyAddr)
	}
	if cfg.PageSize != 50 {
		t.Errorf("expected page size 50, got %d", cfg.PageSize)
	}
}

func TestLoadBytes_Defaults(t *testing.T) {
	cfg, err := LoadBytes([]byte("version: 1\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DashboardAddr != DefaultDashboardAddr {
		t.Errorf("expected default dashboard addr %s, got %s", DefaultDashboardAddr, cfg.DashboardAddr)
	}
	if cfg.PageSize != DefaultPageSize {
		t.Errorf("expected default page size %d, got %d", DefaultPageSize, cfg.PageSize)
	}
	if cfg.Database == "" || strings.HasPrefix(cfg.Database, "~") {
		t.Errorf("expected expanded database path, got %q", cfg.Database)
	}
}

func TestLoadBytes_ExclusionsExtendDefaults(t *testing.T) {
	yaml := `
version: 1
exclude_paths:
  - /healthz
  - /metrics
`
	cfg, err := LoadBytes([]byte(yaml))
	if err != nil {
		t.Fatal(err)
	}

	want := append(DefaultExcludedPaths(), "/healthz", "/metrics")
	if len(cfg.ExcludedPaths) != len(want) {
		t.Fatalf("expected %d excluded paths, got %d", len(want), len(cfg.ExcludedPaths))
	}
	for i, p := range want {
		if cfg.ExcludedPaths[i] != p {
			t.Errorf("excluded path %d: expected %s, got %s", i, p, cfg.ExcludedPaths[i])
		}
	}
}

func TestLoadBytes_Invalid(t *testing.T) {
	if _, err := LoadBytes([]byte("version: [broken")); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ProxyAddr != DefaultProxyAddr {
		t.Errorf("expected default proxy addr %s, got %s", DefaultProxyAddr, cfg.ProxyAddr)
	}
	if len(cfg.ExcludedPaths) != len(DefaultExcludedPaths()) {
		t.Errorf("expected %d default exclusions, got %d", len(DefaultExcludedPaths()), len(cfg.ExcludedPaths))
	}
}
