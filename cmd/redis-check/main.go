// Package main is the entry point for redis-check.
package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"redis-check/internal/api"
	"redis-check/internal/config"
	"redis-check/internal/events"
	"redis-check/internal/logger"
	"redis-check/internal/metrics"
	"redis-check/internal/store"
	"redis-check/internal/workload"
)

var (
	version = "dev"
)

// options はコマンドラインフラグの値
type options struct {
	configFile  string
	envFile     string
	preset      string
	backend     string
	addr        string
	url         string
	db          int
	password    string
	ping        bool
	print       string
	verify      bool
	workers     int
	logLevel    string
	logFormat   string
	metricsAddr string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Error("", "%v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return newRootCmdWithOptions(&options{})
}

func newRootCmdWithOptions(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "redis-check",
		Short: "Replay list and string command workloads against a Redis-protocol proxy",
		Long: `redis-check drives a fixed sequence of LPUSH, LRANGE, SET, MGET and DEL
commands against a Redis-protocol endpoint (a twemproxy pool on
localhost:22121 by default) and prints every reply.

The first failing command aborts the run with exit status 1.`,
		Example: `  # basic プリセットを実行
  redis-check

  # extended プリセットを検証付きで実行
  redis-check --preset extended --verify

  # 接続先を指定
  redis-check --addr 10.0.0.5:22121 --db 0

  # サーバーなしで動作確認
  redis-check --backend memory --preset quick`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, opts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runWorkload(ctx, cfg, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configFile, "config", "c", "", "設定ファイルパス (YAML/JSON)")
	f.StringVar(&opts.envFile, "env-file", "", "読み込む .env ファイル (省略時は ./.env があれば読み込む)")
	f.StringVarP(&opts.preset, "preset", "p", "", "プリセットシナリオ名 (basic, extended, quick)")
	f.StringVar(&opts.backend, "backend", "", "ストアの種類 (redis, memory)")
	f.StringVarP(&opts.addr, "addr", "a", "", "接続先アドレス (デフォルト localhost:22121)")
	f.StringVar(&opts.url, "url", "", "接続先 URL (redis://...)。指定時は --addr より優先")
	f.IntVar(&opts.db, "db", 0, "データベース番号")
	f.StringVar(&opts.password, "password", "", "パスワード")
	f.BoolVar(&opts.ping, "ping", false, "開始前に PING で疎通確認する (twemproxy は非対応)")
	f.StringVar(&opts.print, "print", "", "コマンド結果の出力 (full, none)")
	f.BoolVar(&opts.verify, "verify", false, "書き込んだ内容と応答を照合する")
	f.IntVarP(&opts.workers, "workers", "w", 0, "mget/del フェーズの並列数")
	f.StringVar(&opts.logLevel, "log-level", "", "ログレベル (debug, info, warn, error)")
	f.StringVar(&opts.logFormat, "log-format", "", "ログ形式 (console, json)")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "メトリクスサーバーのアドレス (例: :9121)")

	cmd.AddCommand(newPresetsCmd(), newVersionCmd())
	return cmd
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "利用可能なプリセットを表示",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printPresets(cmd.OutOrStdout())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "バージョンを表示",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "redis-check version %s\n", version)
		},
	}
}

// buildConfig は設定を構築する
// 優先順位: デフォルト < 設定ファイル < 環境変数 < フラグ
func buildConfig(cmd *cobra.Command, opts *options) (*config.FileConfig, error) {
	if err := config.LoadEnvFile(opts.envFile); err != nil {
		return nil, err
	}

	cfg := config.Default()
	if opts.configFile != "" {
		var err error
		cfg, err = config.LoadFile(opts.configFile)
		if err != nil {
			return nil, fmt.Errorf("設定ファイル読み込みエラー: %w", err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("環境変数エラー: %w", err)
	}

	// フラグが明示的に指定された場合のみオーバーライド
	f := cmd.Flags()
	if f.Changed("preset") {
		cfg.Workload.Preset = opts.preset
		cfg.Workload.Phases = nil
	}
	if f.Changed("backend") {
		cfg.Target.Backend = opts.backend
	}
	if f.Changed("addr") {
		cfg.Target.Addr = opts.addr
		cfg.Target.URL = ""
	}
	if f.Changed("url") {
		cfg.Target.URL = opts.url
	}
	if f.Changed("db") {
		cfg.Target.DB = opts.db
	}
	if f.Changed("password") {
		cfg.Target.Password = opts.password
	}
	if f.Changed("ping") {
		cfg.Target.Ping = opts.ping
	}
	if f.Changed("print") {
		cfg.Workload.Print = opts.print
	}
	if f.Changed("verify") {
		cfg.Workload.Verify = opts.verify
	}
	if f.Changed("workers") {
		cfg.Workload.Workers = opts.workers
	}
	if f.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if f.Changed("log-format") {
		cfg.Log.Format = opts.logFormat
	}
	if f.Changed("metrics-addr") {
		cfg.Metrics.Addr = opts.metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定検証エラー: %w", err)
	}
	return cfg, nil
}

// setupLogger はログ設定を反映する
func setupLogger(cfg config.LogConfig) error {
	level, err := logger.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	format, err := logger.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	logger.SetDefault(logger.NewWithFormat(os.Stderr, level, format))
	return nil
}

// runWorkload はシナリオを実行し、コマンド結果とレポートを out に書く
func runWorkload(ctx context.Context, cfg *config.FileConfig, out io.Writer) error {
	if err := setupLogger(cfg.Log); err != nil {
		return err
	}

	storeOpts, err := cfg.ToStoreOptions()
	if err != nil {
		return err
	}
	wl, err := cfg.ToWorkloadConfig()
	if err != nil {
		return err
	}
	storeOpts.PoolSize = wl.MaxWorkers()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metricsConfig := metrics.DefaultConfig()
	metricsConfig.Registerer = reg
	m := metrics.NewWithConfig(metricsConfig)

	bus := events.NewBus()
	defer bus.Close()

	target := targetName(storeOpts)
	logger.Info("", "redis-check %s: scenario=%s target=%s", version, wl.Name, target)

	st, err := store.Open(ctx, storeOpts)
	if err != nil {
		return fmt.Errorf("接続エラー: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("store", "close: %v", err)
		}
	}()

	engine := workload.New(wl, st)
	engine.SetOutput(out)
	engine.SetMetrics(m)
	engine.SetEventBus(bus)
	engine.SetTarget(target)

	if cfg.Metrics.Addr != "" {
		serverCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		server := api.NewServer(cfg.Metrics.Addr)
		server.SetStatusProvider(engine)
		server.SetMetrics(m)
		server.SetGatherer(reg)
		server.SetEventBus(bus)

		go func() {
			if err := server.Start(serverCtx); err != nil {
				logger.Error("api", "サーバーエラー: %v", err)
			}
		}()
	}

	result, runErr := engine.Run(ctx)
	if result != nil {
		fmt.Fprintln(out, result.Report())
	}
	return runErr
}

// targetName はレポートに表示する接続先を返す
func targetName(opts store.Options) string {
	switch {
	case opts.Backend == store.BackendMemory:
		return "memory"
	case opts.URL != "":
		if u, err := url.Parse(opts.URL); err == nil {
			return u.Redacted()
		}
		return "(invalid url)"
	default:
		return fmt.Sprintf("%s/%d", opts.Addr, opts.DB)
	}
}

// printPresets は利用可能なプリセットを表示する
func printPresets(w io.Writer) {
	fmt.Fprintln(w, "利用可能なプリセットシナリオ:")
	fmt.Fprintln(w)

	for _, p := range workload.PresetDescriptions() {
		fmt.Fprintf(w, "  %-10s %2d phases %7d calls  %s\n", p.Name, p.Phases, p.Calls, p.Description)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "使用例: redis-check --preset extended")
}
