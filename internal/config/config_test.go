package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_EnvOnlyDefaults(t *testing.T) {
	cfg, err := Load("", true)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if cfg.Store.Driver != "fs" {
		t.Fatalf("store.driver=%q want=fs", cfg.Store.Driver)
	}
	if cfg.Pipeline.DryRunPolicy != "refuse_after_real" {
		t.Fatalf("dry_run_policy=%q want=refuse_after_real", cfg.Pipeline.DryRunPolicy)
	}
	if cfg.Pipeline.MaxOrdersAllowed != 20 {
		t.Fatalf("max_orders_allowed=%d want=20", cfg.Pipeline.MaxOrdersAllowed)
	}
	if cfg.Lock.Wait != 10*time.Second {
		t.Fatalf("lock.wait=%s want=10s", cfg.Lock.Wait)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MX_PIPELINE_DRY_RUN_POLICY", "allow")
	t.Setenv("MX_STORE_DRIVER", "memory")
	cfg, err := Load("", true)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if cfg.Pipeline.DryRunPolicy != "allow" {
		t.Fatalf("dry_run_policy=%q want=allow", cfg.Pipeline.DryRunPolicy)
	}
	if cfg.Store.Driver != "memory" {
		t.Fatalf("store.driver=%q want=memory", cfg.Store.Driver)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := []byte("server:\n  http_addr: \":9090\"\npipeline:\n  timezone: UTC\n  max_orders_allowed: 5\n")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if cfg.Server.HTTPAddr != ":9090" {
		t.Fatalf("http_addr=%q want=:9090", cfg.Server.HTTPAddr)
	}
	if cfg.Pipeline.Timezone != "UTC" || cfg.Pipeline.MaxOrdersAllowed != 5 {
		t.Fatalf("pipeline=%+v", cfg.Pipeline)
	}
}
