package workload

import (
	"errors"
	"fmt"
)

// ErrAlreadyRunning は実行中のエンジンで Run を呼んだ場合に返る
var ErrAlreadyRunning = errors.New("scenario is already running")

// CommandError はストアコマンドの失敗で実行が中断したことを表す
type CommandError struct {
	Phase     string
	Command   Command
	Iteration int // フェーズ内で何回目のコマンドか（1始まり）
	Err       error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("phase %s: %s #%d failed: %v", e.Phase, e.Command, e.Iteration, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
