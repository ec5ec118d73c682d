package workload

import (
	"fmt"
	"strings"
)

// PrintMode はコマンド結果の出力方法
type PrintMode string

const (
	PrintFull PrintMode = "full" // 結果をそのまま出力する
	PrintNone PrintMode = "none" // 結果を出力しない
)

// ParsePrintMode は文字列から出力方法を解析する
func ParsePrintMode(s string) (PrintMode, error) {
	switch m := PrintMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return PrintFull, nil
	case PrintFull, PrintNone:
		return m, nil
	default:
		return "", fmt.Errorf("unknown print mode: %s", s)
	}
}

// Config はシナリオの設定
type Config struct {
	Name        string    // シナリオ名
	Description string    // 説明
	Phases      []Phase   // 順に実行するフェーズ
	Print       PrintMode // 結果の出力方法
	Verify      bool      // 書き込んだ内容と応答を照合する
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return BasicScenario()
}

// Calls はシナリオ全体のコマンド数を返す
func (c Config) Calls() int {
	total := 0
	for _, p := range c.Phases {
		total += p.Calls()
	}
	return total
}

// SetWorkers は mget/del フェーズの並列数を一括で設定する
func (c *Config) SetWorkers(n int) {
	for i := range c.Phases {
		switch c.Phases[i].Command {
		case CommandMGet, CommandDel:
			c.Phases[i].Workers = n
		}
	}
}

// MaxWorkers はフェーズの最大並列数を返す（最低1）
func (c Config) MaxWorkers() int {
	n := 1
	for _, p := range c.Phases {
		if p.Concurrent() && p.Workers > n {
			n = p.Workers
		}
	}
	return n
}

// Validate は設定を検証する
func (c Config) Validate() error {
	if len(c.Phases) == 0 {
		return fmt.Errorf("scenario %q has no phases", c.Name)
	}
	if _, err := ParsePrintMode(string(c.Print)); err != nil {
		return err
	}
	for i, p := range c.Phases {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("phase %d: %w", i+1, err)
		}
	}
	return nil
}
