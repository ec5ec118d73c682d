package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"redis-check/internal/store"
	"redis-check/internal/workload"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Target.Backend != "redis" {
		t.Errorf("expected backend 'redis', got '%s'", cfg.Target.Backend)
	}
	if cfg.Target.Addr != "localhost:22121" {
		t.Errorf("expected addr 'localhost:22121', got '%s'", cfg.Target.Addr)
	}
	if cfg.Target.DB != 0 {
		t.Errorf("expected db 0, got %d", cfg.Target.DB)
	}
	if cfg.Workload.Preset != "basic" {
		t.Errorf("expected preset 'basic', got '%s'", cfg.Workload.Preset)
	}
	if cfg.Workload.Verify {
		t.Error("expected verify to be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFileYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
target:
  addr: proxy.local:22121
  db: 2
  read_timeout: 1s
  ping: true
workload:
  preset: extended
  print: none
  verify: true
  workers: 4
log:
  level: debug
  format: json
metrics:
  addr: ":9121"
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Target.Addr != "proxy.local:22121" {
		t.Errorf("expected addr 'proxy.local:22121', got '%s'", cfg.Target.Addr)
	}
	if cfg.Target.Backend != "redis" {
		t.Errorf("expected default backend to be kept, got '%s'", cfg.Target.Backend)
	}
	if cfg.Target.DialTimeout != "5s" {
		t.Errorf("expected default dial_timeout to be kept, got '%s'", cfg.Target.DialTimeout)
	}
	if !cfg.Target.Ping {
		t.Error("expected ping to be enabled")
	}
	if cfg.Workload.Preset != "extended" || !cfg.Workload.Verify || cfg.Workload.Workers != 4 {
		t.Errorf("unexpected workload config: %+v", cfg.Workload)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("expected log format 'json', got '%s'", cfg.Log.Format)
	}
	if cfg.Metrics.Addr != ":9121" {
		t.Errorf("expected metrics addr ':9121', got '%s'", cfg.Metrics.Addr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("config should be valid: %v", err)
	}
}

func TestLoadFileJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
  "target": {"backend": "memory"},
  "workload": {
    "phases": [
      {"command": "lpush", "key": "lfoo", "from": 1, "to": 4, "value_repeat": 2},
      {"command": "lrange", "key": "lfoo"}
    ]
  }
}`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Target.Backend != "memory" {
		t.Errorf("expected backend 'memory', got '%s'", cfg.Target.Backend)
	}
	if len(cfg.Workload.Phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(cfg.Workload.Phases))
	}
}

func TestLoadFileUnsupported(t *testing.T) {
	path := writeFile(t, "config.toml", "")

	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestLoadFileNotFound(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFileInvalidYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "target: [")

	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvAddr, "10.0.0.1:22121")
	t.Setenv(EnvDB, "3")
	t.Setenv(EnvPassword, "secret")
	t.Setenv(EnvURL, "redis://10.0.0.2:6379/1")
	t.Setenv(EnvBackend, "memory")
	t.Setenv(EnvPreset, "quick")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvMetricsAddr, ":9000")

	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("failed to apply env: %v", err)
	}

	if cfg.Target.Addr != "10.0.0.1:22121" || cfg.Target.DB != 3 || cfg.Target.Password != "secret" {
		t.Errorf("unexpected target config: %+v", cfg.Target)
	}
	if cfg.Target.URL != "redis://10.0.0.2:6379/1" {
		t.Errorf("unexpected url: %s", cfg.Target.URL)
	}
	if cfg.Target.Backend != "memory" {
		t.Errorf("expected backend 'memory', got '%s'", cfg.Target.Backend)
	}
	if cfg.Workload.Preset != "quick" {
		t.Errorf("expected preset 'quick', got '%s'", cfg.Workload.Preset)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected log level 'warn', got '%s'", cfg.Log.Level)
	}
	if cfg.Metrics.Addr != ":9000" {
		t.Errorf("expected metrics addr ':9000', got '%s'", cfg.Metrics.Addr)
	}
}

func TestApplyEnvInvalidDB(t *testing.T) {
	t.Setenv(EnvDB, "zero")

	if err := Default().ApplyEnv(); err == nil {
		t.Error("expected error for invalid db")
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := writeFile(t, "test.env", "REDIS_CHECK_PRESET=extended\nREDIS_CHECK_ADDR=127.0.0.1:6379\n")

	// 既に設定されている値は上書きされない
	t.Setenv(EnvAddr, "keep:22121")
	t.Setenv(EnvPreset, "")
	os.Unsetenv(EnvPreset)

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("failed to load env file: %v", err)
	}

	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("failed to apply env: %v", err)
	}
	if cfg.Workload.Preset != "extended" {
		t.Errorf("expected preset 'extended', got '%s'", cfg.Workload.Preset)
	}
	if cfg.Target.Addr != "keep:22121" {
		t.Errorf("expected addr 'keep:22121', got '%s'", cfg.Target.Addr)
	}
}

func TestLoadEnvFileMissing(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("expected error for missing explicit env file")
	}

	t.Chdir(t.TempDir())
	if err := LoadEnvFile(""); err != nil {
		t.Errorf("missing default env file should be ignored: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*FileConfig)
		want   string
	}{
		{"unknown backend", func(c *FileConfig) { c.Target.Backend = "etcd" }, "target.backend"},
		{"negative db", func(c *FileConfig) { c.Target.DB = -1 }, "target.db"},
		{"bad timeout", func(c *FileConfig) { c.Target.ReadTimeout = "soon" }, "target.read_timeout"},
		{"negative timeout", func(c *FileConfig) { c.Target.DialTimeout = "-1s" }, "target.dial_timeout"},
		{"bad print", func(c *FileConfig) { c.Workload.Print = "some" }, "workload.print"},
		{"negative workers", func(c *FileConfig) { c.Workload.Workers = -2 }, "workload.workers"},
		{"unknown preset", func(c *FileConfig) { c.Workload.Preset = "stress" }, "workload.preset"},
		{"bad log level", func(c *FileConfig) { c.Log.Level = "trace" }, "log.level"},
		{"bad log format", func(c *FileConfig) { c.Log.Format = "xml" }, "log.format"},
		{"unknown command", func(c *FileConfig) {
			c.Workload.Phases = []PhaseConfig{{Command: "hget", Key: "k"}}
		}, "workload.phases[0]"},
		{"negative count", func(c *FileConfig) {
			c.Workload.Phases = []PhaseConfig{{Command: "mget", Key: "foo", From: 1, To: 3, Repeat: -1}}
		}, "workload.phases[0]"},
		{"empty key", func(c *FileConfig) {
			c.Workload.Phases = []PhaseConfig{{Command: "set", From: 1, To: 3, ValueRepeat: 1}}
		}, "workload.phases[0]"},
		{"workers on lpush", func(c *FileConfig) {
			c.Workload.Phases = []PhaseConfig{{Command: "lpush", Key: "l", From: 1, To: 3, ValueRepeat: 1, Workers: 2}}
		}, "workload.phases[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error to mention %q, got %v", tt.want, err)
			}
		})
	}
}

func TestToStoreOptions(t *testing.T) {
	cfg := Default()
	cfg.Target.Addr = "proxy:22121"
	cfg.Target.DB = 1
	cfg.Target.ReadTimeout = "250ms"
	cfg.Target.WriteTimeout = ""
	cfg.Target.Ping = true

	opts, err := cfg.ToStoreOptions()
	if err != nil {
		t.Fatalf("failed to convert: %v", err)
	}

	if opts.Backend != store.BackendRedis {
		t.Errorf("expected backend redis, got %s", opts.Backend)
	}
	if opts.Addr != "proxy:22121" || opts.DB != 1 || !opts.Ping {
		t.Errorf("unexpected options: %+v", opts)
	}
	if opts.ReadTimeout != 250*time.Millisecond {
		t.Errorf("expected read timeout 250ms, got %v", opts.ReadTimeout)
	}
	if opts.WriteTimeout != store.DefaultOptions().WriteTimeout {
		t.Errorf("expected default write timeout, got %v", opts.WriteTimeout)
	}
}

func TestToWorkloadConfigPreset(t *testing.T) {
	cfg := Default()
	cfg.Workload.Preset = "extended"
	cfg.Workload.Print = "none"
	cfg.Workload.Verify = true
	cfg.Workload.Workers = 3

	wc, err := cfg.ToWorkloadConfig()
	if err != nil {
		t.Fatalf("failed to convert: %v", err)
	}

	if wc.Name != "extended" {
		t.Errorf("expected name 'extended', got '%s'", wc.Name)
	}
	if wc.Print != workload.PrintNone {
		t.Errorf("expected print none, got %s", wc.Print)
	}
	if !wc.Verify {
		t.Error("expected verify to be enabled")
	}
	if wc.MaxWorkers() != 3 {
		t.Errorf("expected 3 workers, got %d", wc.MaxWorkers())
	}
}

func TestToWorkloadConfigPhases(t *testing.T) {
	stop := int64(5)
	cfg := Default()
	cfg.Workload.Name = "mine"
	cfg.Workload.Phases = []PhaseConfig{
		{Command: "LPUSH", Key: "lfoo", From: 1, To: 10, ValueRepeat: 3},
		{Name: "all", Command: "lrange", Key: "lfoo"},
		{Name: "head", Command: "lrange", Key: "lfoo", Stop: &stop},
		{Command: "del", Key: "foo", From: 1, To: 10, Repeat: 2},
	}

	wc, err := cfg.ToWorkloadConfig()
	if err != nil {
		t.Fatalf("failed to convert: %v", err)
	}

	if wc.Name != "mine" {
		t.Errorf("expected name 'mine', got '%s'", wc.Name)
	}
	if len(wc.Phases) != 4 {
		t.Fatalf("expected 4 phases, got %d", len(wc.Phases))
	}
	if wc.Phases[0].Name != "lpush" || wc.Phases[0].Command != workload.CommandLPush {
		t.Errorf("unexpected first phase: %+v", wc.Phases[0])
	}
	if wc.Phases[1].Stop != -1 {
		t.Errorf("expected default stop -1, got %d", wc.Phases[1].Stop)
	}
	if wc.Phases[2].Stop != 5 {
		t.Errorf("expected stop 5, got %d", wc.Phases[2].Stop)
	}
	if wc.Calls() != 9+1+1+2 {
		t.Errorf("unexpected call count %d", wc.Calls())
	}
}
