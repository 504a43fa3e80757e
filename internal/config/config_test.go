package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.MaxTicks != 1000 || cfg.MaxAgents != 200 || cfg.IndexPath != ":memory:" || cfg.IndexBackend != "sqlite" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("POLYDROS_ADDR", "127.0.0.1:9999")
	t.Setenv("POLYDROS_MAX_TICKS", "50")
	t.Setenv("POLYDROS_INDEX_BACKEND", "none")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9999" || cfg.MaxTicks != 50 || cfg.IndexBackend != "none" {
		t.Fatalf("overrides ignored: %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv("POLYDROS_MAX_AGENTS", "many")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}
	t.Setenv("POLYDROS_MAX_AGENTS", "-1")
	if _, err := Load(); err == nil {
		t.Fatalf("negative bound accepted")
	}
}
