// Package logging provides structured logging for ladder.
//
// The package wraps log/slog with configurable level and format
// (json, text, console) and context-aware helpers:
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	engineLog := logger.WithComponent("engine")
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	logger.InfoContext(ctx, "evaluated", "ladder", "seasons")
//
// Components that only need a *slog.Logger receive logger.Slog().
package logging
