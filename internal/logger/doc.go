// Package logger provides a small leveled logging facade over zerolog.
//
// Each entry carries a timestamp, level, optional component tag, and message.
// Console output is the default; JSON output puts the tag in a "component"
// field.
//
// # Basic Usage
//
// Using the default logger (writes to stderr):
//
//	logger.Info("", "run started")
//	logger.Info("store", "connected to %s", addr)
//	logger.Error("workload", "phase failed: %v", err)
//
// Creating a custom logger:
//
//	l := logger.NewWithFormat(os.Stderr, logger.LevelDebug, logger.FormatJSON)
//	logger.SetDefault(l)
//
// # Log Levels
//
// Messages below the configured level are filtered:
//   - LevelDebug: all messages
//   - LevelInfo: Info, Warn, Error
//   - LevelWarn: Warn, Error
//   - LevelError: Error only
//
// # Thread Safety
//
// All logging operations are protected by a mutex and safe for concurrent use.
package logger
