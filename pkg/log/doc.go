// Package log provides batchq's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. Internally it is backed by Go's
// standard library slog via a bridge handler that preserves the
// formatter/output pipeline, so output stays consistent across the codebase
// while slog-based libraries can interoperate.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("queue"), log.Str("queue", "events"))
//	l.Info("flush complete", log.Int("records", 42))
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config supporting
// text or JSON formatting. RedirectStdLog routes standard library log output
// (Pebble uses it) through the facade.
package log
