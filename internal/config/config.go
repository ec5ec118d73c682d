package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"redis-check/internal/logger"
	"redis-check/internal/store"
	"redis-check/internal/workload"
)

// 環境変数名
const (
	EnvAddr        = "REDIS_CHECK_ADDR"
	EnvDB          = "REDIS_CHECK_DB"
	EnvPassword    = "REDIS_CHECK_PASSWORD"
	EnvURL         = "REDIS_URL"
	EnvBackend     = "REDIS_CHECK_BACKEND"
	EnvPreset      = "REDIS_CHECK_PRESET"
	EnvLogLevel    = "REDIS_CHECK_LOG_LEVEL"
	EnvMetricsAddr = "REDIS_CHECK_METRICS_ADDR"
)

// DefaultEnvFile は --env-file を指定しない場合に読み込む .env ファイル
const DefaultEnvFile = ".env"

// FileConfig は設定ファイルの構造
type FileConfig struct {
	Target   TargetConfig   `yaml:"target" json:"target"`
	Workload WorkloadConfig `yaml:"workload" json:"workload"`
	Log      LogConfig      `yaml:"log" json:"log"`
	Metrics  MetricsConfig  `yaml:"metrics" json:"metrics"`
}

// TargetConfig は接続先の設定
type TargetConfig struct {
	Backend      string `yaml:"backend" json:"backend"`
	Addr         string `yaml:"addr" json:"addr"`
	URL          string `yaml:"url" json:"url"`
	DB           int    `yaml:"db" json:"db"`
	Password     string `yaml:"password" json:"password"`
	DialTimeout  string `yaml:"dial_timeout" json:"dial_timeout"`
	ReadTimeout  string `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout" json:"write_timeout"`
	Ping         bool   `yaml:"ping" json:"ping"`
}

// WorkloadConfig は実行するシナリオの設定
type WorkloadConfig struct {
	Preset      string        `yaml:"preset" json:"preset"`
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description" json:"description"`
	Print       string        `yaml:"print" json:"print"`
	Verify      bool          `yaml:"verify" json:"verify"`
	Workers     int           `yaml:"workers" json:"workers"`
	Phases      []PhaseConfig `yaml:"phases" json:"phases"`
}

// PhaseConfig はフェーズ設定
// phases を指定した場合は preset より優先される
type PhaseConfig struct {
	Name        string `yaml:"name" json:"name"`
	Command     string `yaml:"command" json:"command"`
	Key         string `yaml:"key" json:"key"`
	From        int    `yaml:"from" json:"from"`
	To          int    `yaml:"to" json:"to"`
	ValueRepeat int    `yaml:"value_repeat" json:"value_repeat"`
	Start       int64  `yaml:"start" json:"start"`
	Stop        *int64 `yaml:"stop" json:"stop"` // 省略時は -1
	Growing     bool   `yaml:"growing" json:"growing"`
	Repeat      int    `yaml:"repeat" json:"repeat"`
	Workers     int    `yaml:"workers" json:"workers"`
}

// LogConfig はログ設定
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// MetricsConfig はメトリクスサーバーの設定
// Addr が空の場合はサーバーを起動しない
type MetricsConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// Default はデフォルト設定を返す
func Default() *FileConfig {
	opts := store.DefaultOptions()
	return &FileConfig{
		Target: TargetConfig{
			Backend:      string(opts.Backend),
			Addr:         opts.Addr,
			DB:           opts.DB,
			DialTimeout:  opts.DialTimeout.String(),
			ReadTimeout:  opts.ReadTimeout.String(),
			WriteTimeout: opts.WriteTimeout.String(),
		},
		Workload: WorkloadConfig{
			Preset: "basic",
			Print:  string(workload.PrintFull),
		},
		Log: LogConfig{
			Level:  "info",
			Format: string(logger.FormatConsole),
		},
	}
}

// LoadFile は設定ファイルを読み込む
// ファイルにない項目はデフォルト値のまま
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	return config, nil
}

// LoadEnvFile は .env ファイルを環境変数に読み込む
// 既に設定されている環境変数は上書きしない
// path が空の場合は DefaultEnvFile を試し、存在しなければ何もしない
func LoadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(DefaultEnvFile); err != nil {
			return nil
		}
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	logger.Debug("config", "loaded env file %s", path)
	return nil
}

// ApplyEnv は環境変数の値で設定を上書きする
func (f *FileConfig) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvBackend); ok {
		f.Target.Backend = v
	}
	if v, ok := os.LookupEnv(EnvAddr); ok {
		f.Target.Addr = v
	}
	if v, ok := os.LookupEnv(EnvURL); ok {
		f.Target.URL = v
	}
	if v, ok := os.LookupEnv(EnvDB); ok {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvDB, err)
		}
		f.Target.DB = db
	}
	if v, ok := os.LookupEnv(EnvPassword); ok {
		f.Target.Password = v
	}
	if v, ok := os.LookupEnv(EnvPreset); ok {
		f.Workload.Preset = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		f.Log.Level = v
	}
	if v, ok := os.LookupEnv(EnvMetricsAddr); ok {
		f.Metrics.Addr = v
	}
	return nil
}

// Validate は設定を検証する
func (f *FileConfig) Validate() error {
	t := f.Target

	switch store.Backend(t.Backend) {
	case store.BackendRedis, store.BackendMemory:
	default:
		return fmt.Errorf("unknown target.backend: %s", t.Backend)
	}
	if t.DB < 0 {
		return errors.New("target.db must be non-negative")
	}
	for name, v := range map[string]string{
		"target.dial_timeout":  t.DialTimeout,
		"target.read_timeout":  t.ReadTimeout,
		"target.write_timeout": t.WriteTimeout,
	} {
		if _, err := parseDuration(v); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	w := f.Workload
	if _, err := workload.ParsePrintMode(w.Print); err != nil {
		return fmt.Errorf("invalid workload.print: %w", err)
	}
	if w.Workers < 0 {
		return errors.New("workload.workers must be non-negative")
	}
	if len(w.Phases) == 0 {
		if _, ok := workload.GetPreset(w.Preset); !ok {
			return fmt.Errorf("unknown workload.preset: %s (available: %s)",
				w.Preset, strings.Join(workload.ListPresets(), ", "))
		}
	}
	for i, p := range w.Phases {
		if _, err := p.toPhase(); err != nil {
			return fmt.Errorf("workload.phases[%d]: %w", i, err)
		}
	}

	if _, err := logger.ParseLevel(f.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}
	if _, err := logger.ParseFormat(f.Log.Format); err != nil {
		return fmt.Errorf("invalid log.format: %w", err)
	}

	return nil
}

// ToStoreOptions は接続先設定を store.Options に変換する
func (f *FileConfig) ToStoreOptions() (store.Options, error) {
	t := f.Target
	opts := store.DefaultOptions()
	opts.Backend = store.Backend(t.Backend)
	opts.Addr = t.Addr
	opts.URL = t.URL
	opts.DB = t.DB
	opts.Password = t.Password
	opts.Ping = t.Ping

	var err error
	if opts.DialTimeout, err = parseDurationOr(t.DialTimeout, opts.DialTimeout); err != nil {
		return opts, fmt.Errorf("invalid target.dial_timeout: %w", err)
	}
	if opts.ReadTimeout, err = parseDurationOr(t.ReadTimeout, opts.ReadTimeout); err != nil {
		return opts, fmt.Errorf("invalid target.read_timeout: %w", err)
	}
	if opts.WriteTimeout, err = parseDurationOr(t.WriteTimeout, opts.WriteTimeout); err != nil {
		return opts, fmt.Errorf("invalid target.write_timeout: %w", err)
	}

	return opts, nil
}

// ToWorkloadConfig は workload.Config に変換する
func (f *FileConfig) ToWorkloadConfig() (workload.Config, error) {
	w := f.Workload

	var config workload.Config
	if len(w.Phases) > 0 {
		config = workload.Config{Name: "custom"}
		for i, p := range w.Phases {
			phase, err := p.toPhase()
			if err != nil {
				return config, fmt.Errorf("workload.phases[%d]: %w", i, err)
			}
			config.Phases = append(config.Phases, phase)
		}
	} else {
		preset, ok := workload.GetPreset(w.Preset)
		if !ok {
			return config, fmt.Errorf("unknown preset: %s", w.Preset)
		}
		config = preset
	}

	if w.Name != "" {
		config.Name = w.Name
	}
	if w.Description != "" {
		config.Description = w.Description
	}

	mode, err := workload.ParsePrintMode(w.Print)
	if err != nil {
		return config, err
	}
	config.Print = mode
	config.Verify = w.Verify
	if w.Workers > 0 {
		config.SetWorkers(w.Workers)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// toPhase は PhaseConfig を workload.Phase に変換する
func (p PhaseConfig) toPhase() (workload.Phase, error) {
	cmd, err := workload.ParseCommand(p.Command)
	if err != nil {
		return workload.Phase{}, err
	}

	phase := workload.Phase{
		Name:        p.Name,
		Command:     cmd,
		Key:         p.Key,
		From:        p.From,
		To:          p.To,
		ValueRepeat: p.ValueRepeat,
		Start:       p.Start,
		Stop:        -1,
		Growing:     p.Growing,
		Repeat:      p.Repeat,
		Workers:     p.Workers,
	}
	if phase.Name == "" {
		phase.Name = string(cmd)
	}
	if p.Stop != nil {
		phase.Stop = *p.Stop
	}

	return phase, phase.Validate()
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration: %s", s)
	}
	return d, nil
}

func parseDurationOr(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return parseDuration(s)
}
