package telemetry

import (
	"context"
	"log/slog"
	"os"
	"strconv"
)

// InitSlog installs a text handler on stderr as the default logger, debug
// records are only kept when verbose is set.
func InitSlog(verbose bool) {
	var level slog.LevelVar
	if verbose {
		level.Set(slog.LevelDebug)
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level})
	slog.SetDefault(slog.New(handler))
}

// SlogAPI implements API on the default slog logger. The params of a report
// are logged as p0, p1 and onwards.
type SlogAPI struct{}

func (SlogAPI) log(level slog.Level, message, id string, params []any) {
	attrs := make([]slog.Attr, 0, len(params)+1)
	if id != "" {
		attrs = append(attrs, slog.String("id", id))
	}
	for i, p := range params {
		attrs = append(attrs, slog.Any("p"+strconv.Itoa(i), p))
	}
	slog.LogAttrs(context.Background(), level, message, attrs...)
}

func (s SlogAPI) ReportBroken(id string, params ...any) {
	s.log(slog.LevelError, "broken component", id, params)
}

func (s SlogAPI) ReportWarning(id string, params ...any) {
	s.log(slog.LevelWarn, "warning", id, params)
}

func (s SlogAPI) ReportInfo(message string, params ...any) {
	s.log(slog.LevelInfo, message, "", params)
}

func (s SlogAPI) ReportDebug(message string, params ...any) {
	s.log(slog.LevelDebug, message, "", params)
}

func (s SlogAPI) ReportCount(id string, count int64) {
	slog.Info("count", "id", id, "n", count)
}
