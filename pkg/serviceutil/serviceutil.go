package serviceutil

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext is cancelled by the first SIGINT or SIGTERM.
func SignalContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx
}

// Fatal logs err and exits with status 1, deferred calls do not run.
func Fatal(message string, err error) {
	slog.Error(message, "err", err)
	os.Exit(1)
}
