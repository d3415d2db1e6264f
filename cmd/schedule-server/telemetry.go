package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"madischedule-backend/internal/components/telemetry"
	"madischedule-backend/pkg/serviceutil"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	tel, err := telemetry.SetupFromEnv(ctx, "schedule-server")
	if os.IsNotExist(err) {
		slog.DebugContext(ctx, "no telemetry.json5 found, otel exporters disabled")
		err = nil
	}
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		err := tel.Shutdown(context.Background())
		if err != nil {
			slog.Warn("shutdown telemetry", "err", err)
		}
	}()
	telemetry.InstrumentPerfStats(ctx, 30*time.Second)
}
