package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromYAML_OverridesDefaults(t *testing.T) {
	cfg, err := FromYAML([]byte(`
server:
  port: 9000
logging:
  level: debug
`))
	if err != nil {
		t.Fatalf("FromYAML: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logging.Level)
	}
	// Unset fields keep their defaults.
	if cfg.Server.MetricsPort != 9090 {
		t.Errorf("MetricsPort = %d, want default 9090", cfg.Server.MetricsPort)
	}
	if cfg.Store.ExpirySweepInterval != time.Minute {
		t.Errorf("ExpirySweepInterval = %v, want default 1m", cfg.Store.ExpirySweepInterval)
	}
}

func TestFromYAML_RejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"bad port", "server:\n  port: -1\n"},
		{"port collision", "server:\n  port: 9090\n"},
		{"bad level", "logging:\n  level: loud\n"},
		{"bad format", "logging:\n  format: xml\n"},
		{"not yaml", ": ["},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := FromYAML([]byte(tc.yaml)); err == nil {
				t.Errorf("FromYAML(%q) succeeded, want error", tc.yaml)
			}
		})
	}
}

func TestLoadOptional(t *testing.T) {
	cfg, err := LoadOptional("")
	if err != nil {
		t.Fatalf("LoadOptional(\"\"): %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default Port = %d, want 8080", cfg.Server.Port)
	}

	cfg, err = LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadOptional(missing): %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("missing-file Port = %d, want default 8080", cfg.Server.Port)
	}

	path := filepath.Join(t.TempDir(), "server.yaml")
	if err := os.WriteFile(path, []byte("server:\n  host: 127.0.0.1\n  port: 8888\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err = LoadOptional(path)
	if err != nil {
		t.Fatalf("LoadOptional(file): %v", err)
	}
	if got := cfg.Addr(); got != "127.0.0.1:8888" {
		t.Errorf("Addr = %q, want 127.0.0.1:8888", got)
	}
}

func TestMetricsAddr_DisabledWhenZero(t *testing.T) {
	cfg := Default()
	cfg.Server.MetricsPort = 0
	if got := cfg.MetricsAddr(); got != "" {
		t.Errorf("MetricsAddr = %q, want empty for disabled metrics", got)
	}
}
