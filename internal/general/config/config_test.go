package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromFileAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
dispatch:
  ws_url: "wss://dispatch.example.com/ws/driver"
  api_base_url: https://api.example.com/v1
supervisor:
  data_dir: /var/lib/driver-link
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Session.ReconnectDelay != 5*time.Second {
		t.Errorf("reconnect delay = %v, want 5s", cfg.Session.ReconnectDelay)
	}
	if cfg.Session.PingInterval != 20*time.Second {
		t.Errorf("ping interval = %v, want 20s", cfg.Session.PingInterval)
	}
	if cfg.Telemetry.Interval != 30*time.Second {
		t.Errorf("telemetry interval = %v, want 30s", cfg.Telemetry.Interval)
	}
	if cfg.Dispatch.RequestTimeout != 30*time.Second {
		t.Errorf("request timeout = %v, want 30s", cfg.Dispatch.RequestTimeout)
	}
	if cfg.Supervisor.WakePeriod != 4*time.Minute {
		t.Errorf("wake period = %v, want 4m", cfg.Supervisor.WakePeriod)
	}
	if cfg.State.Backend != StateBackendFile {
		t.Errorf("state backend = %q, want file", cfg.State.Backend)
	}
	if want := filepath.Join("/var/lib/driver-link", "state.json"); cfg.State.Path != want {
		t.Errorf("state path = %q, want %q", cfg.State.Path, want)
	}
	if cfg.Control.Addr != "127.0.0.1:7070" {
		t.Errorf("control addr = %q", cfg.Control.Addr)
	}
}

func TestLoadFromFileParsesDurations(t *testing.T) {
	path := writeConfig(t, `
dispatch:
  ws_url: ws://localhost:8080/ws
  api_base_url: http://localhost:8080
session:
  reconnect_delay: 2s
  ping_interval: 15s
telemetry:
  interval: 10s
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Session.ReconnectDelay != 2*time.Second || cfg.Session.PingInterval != 15*time.Second {
		t.Errorf("session durations not parsed: %+v", cfg.Session)
	}
	if cfg.Telemetry.Interval != 10*time.Second {
		t.Errorf("telemetry interval = %v", cfg.Telemetry.Interval)
	}
}

func TestLoadFromFileEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
dispatch:
  ws_url: ws://file-value/ws
  api_base_url: http://file-value
`)
	t.Setenv("DRIVER_LINK_WS_URL", "wss://env-value/ws")
	t.Setenv("DRIVER_LINK_STATE_BACKEND", "REDIS")
	t.Setenv("DRIVER_LINK_TELEMETRY_INTERVAL", "45s")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Dispatch.WSURL != "wss://env-value/ws" {
		t.Errorf("ws url = %q", cfg.Dispatch.WSURL)
	}
	if cfg.State.Backend != StateBackendRedis {
		t.Errorf("state backend = %q", cfg.State.Backend)
	}
	if cfg.Telemetry.Interval != 45*time.Second {
		t.Errorf("telemetry interval = %v", cfg.Telemetry.Interval)
	}
}

func TestLoadFromFileMissingFileUsesEnv(t *testing.T) {
	t.Setenv("DRIVER_LINK_WS_URL", "ws://localhost/ws")
	t.Setenv("DRIVER_LINK_API_BASE_URL", "http://localhost")

	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Dispatch.WSURL != "ws://localhost/ws" {
		t.Errorf("ws url = %q", cfg.Dispatch.WSURL)
	}
}

func TestLoadFromFileAcceptsMemoryBackend(t *testing.T) {
	path := writeConfig(t, `
dispatch:
  ws_url: ws://localhost/ws
  api_base_url: http://localhost
state:
  backend: memory
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.State.Backend != StateBackendMemory {
		t.Errorf("state backend = %q", cfg.State.Backend)
	}
}

func TestLoadFromFileCollectsProblems(t *testing.T) {
	path := writeConfig(t, `
dispatch:
  ws_url: http://not-a-websocket
state:
  backend: sqlite
rabbitmq:
  enabled: true
`)

	_, err := LoadFromFile(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{
		"dispatch.ws_url must be a ws:// or wss:// URL",
		"dispatch.api_base_url is required",
		"state.backend must be one of",
		"rabbitmq.user is required",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestLoadFromFileRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "dispatch: [unterminated")
	if _, err := LoadFromFile(path); err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Fatalf("expected parse error, got %v", err)
	}
}
