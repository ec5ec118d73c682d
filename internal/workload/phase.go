package workload

import (
	"fmt"
	"strconv"
	"strings"
)

// Command はフェーズが発行するストアコマンド
type Command string

const (
	CommandLPush  Command = "lpush"
	CommandLRange Command = "lrange"
	CommandSet    Command = "set"
	CommandMGet   Command = "mget"
	CommandDel    Command = "del"
)

// ParseCommand は文字列からコマンドを解析する
func ParseCommand(s string) (Command, error) {
	switch c := Command(strings.ToLower(strings.TrimSpace(s))); c {
	case CommandLPush, CommandLRange, CommandSet, CommandMGet, CommandDel:
		return c, nil
	default:
		return "", fmt.Errorf("unknown command: %s", s)
	}
}

// Phase は同じコマンドを繰り返す一区間
//
// x は [From, To) を1ずつ進む。値は strconv.Itoa(x) を ValueRepeat 回繰り返したもの、
// キーは Key + strconv.Itoa(x)。
//
//   - lpush:  x ごとに LPUSH Key value(x)
//   - lrange: Growing なら x ごとに LRANGE Key 0 x、そうでなければ LRANGE Key Start Stop を1回
//   - set:    x ごとに SET key(x) value(x)
//   - mget:   key(From..To-1) に対する同一の MGET を Repeat 回
//   - del:    key(From..To-1) に対する同一の DEL を Repeat 回
type Phase struct {
	Name        string
	Command     Command
	Key         string // リストのキー、または文字列キーの接頭辞
	From        int
	To          int
	ValueRepeat int
	Start       int64
	Stop        int64
	Growing     bool
	Repeat      int
	Workers     int // mget/del で 1 より大きい場合に並列実行する
}

// Calls はフェーズが発行するコマンド数を返す
func (p Phase) Calls() int {
	switch p.Command {
	case CommandLPush, CommandSet:
		return max(p.To-p.From, 0)
	case CommandLRange:
		if p.Growing {
			return max(p.To-p.From, 0)
		}
		return 1
	case CommandMGet, CommandDel:
		return p.Repeat
	default:
		return 0
	}
}

// Concurrent は並列実行するフェーズかどうかを返す
func (p Phase) Concurrent() bool {
	return p.Workers > 1 && (p.Command == CommandMGet || p.Command == CommandDel)
}

// KeyFor は x に対応する文字列キーを返す
func (p Phase) KeyFor(x int) string {
	return p.Key + strconv.Itoa(x)
}

// ValueFor は x に対応する値を返す
func (p Phase) ValueFor(x int) string {
	return strings.Repeat(strconv.Itoa(x), p.ValueRepeat)
}

// Keys は [From, To) の文字列キーを返す
func (p Phase) Keys() []string {
	keys := make([]string, 0, max(p.To-p.From, 0))
	for x := p.From; x < p.To; x++ {
		keys = append(keys, p.KeyFor(x))
	}
	return keys
}

// Validate はフェーズを検証する
func (p Phase) Validate() error {
	if _, err := ParseCommand(string(p.Command)); err != nil {
		return err
	}
	if p.Key == "" {
		return fmt.Errorf("phase %q: key must not be empty", p.Name)
	}
	if p.Workers < 0 {
		return fmt.Errorf("phase %q: workers must be non-negative", p.Name)
	}
	if p.Workers > 1 && p.Command != CommandMGet && p.Command != CommandDel {
		return fmt.Errorf("phase %q: workers is only supported for mget and del", p.Name)
	}

	needsRange := p.Command != CommandLRange || p.Growing
	if needsRange {
		if p.From < 0 {
			return fmt.Errorf("phase %q: from must be non-negative", p.Name)
		}
		if p.To <= p.From {
			return fmt.Errorf("phase %q: to (%d) must be greater than from (%d)", p.Name, p.To, p.From)
		}
	}

	switch p.Command {
	case CommandLPush, CommandSet:
		if p.ValueRepeat < 1 {
			return fmt.Errorf("phase %q: value_repeat must be at least 1", p.Name)
		}
	case CommandMGet, CommandDel:
		if p.Repeat < 1 {
			return fmt.Errorf("phase %q: repeat must be at least 1", p.Name)
		}
	}

	return nil
}
