package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParseJSON(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.json", `{
		"log": {"level": "debug"},
		"store": {"backend": "memory"},
		"scheduler": {"enabled": false, "timezone": "Asia/Jakarta"}
	}`)

	cfg, err := NewManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Store.Backend != "memory" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Scheduler.Enabled || cfg.Scheduler.Timezone != "Asia/Jakarta" {
		t.Fatalf("scheduler config: %+v", cfg.Scheduler)
	}
	// Defaults survive for absent keys.
	if cfg.Exec.TimeoutMS != 60_000 || cfg.Store.BusyTimeoutMS != 5000 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestParseYAML(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.yaml", `
log:
  level: warn
  console: true
store:
  backend: sqlite
  path: /tmp/flows.db
exec:
  rate_per_sec: 5
`)

	cfg, err := NewManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Log.Level != "warn" || cfg.Store.Path != "/tmp/flows.db" || cfg.Exec.RatePerSec != 5 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.json", `{"log": {"level": "info"}, "bogus": true}`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.json", `{"log": {"level": "info"}} {"again": 1}`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("expected trailing data to be rejected")
	}
}

func TestLoadCommitsAndGet(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.json", `{"scheduler": {"tick_seconds": 5}}`)
	m := NewManager(path)
	if m.Get() != nil {
		t.Fatal("Get before Load must be nil")
	}
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Get() != cfg {
		t.Fatal("Get must return the committed config")
	}
	if got := cfg.Scheduler.TickInterval().Seconds(); got != 5 {
		t.Fatalf("TickInterval = %vs", got)
	}
}

func TestSubscribePublishUnsubscribe(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.json", `{}`)
	m := NewManager(path)

	ch := m.Subscribe(1)
	cfg := Default()
	m.publish(&cfg)
	select {
	case got := <-ch:
		if got == nil {
			t.Fatal("nil config published")
		}
	default:
		t.Fatal("expected a published config")
	}

	m.Unsubscribe(ch)
	if _, open := <-ch; open {
		t.Fatal("channel must be closed after Unsubscribe")
	}
}
