package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var processMeter = otel.Meter("madischedule.process")

type processGauges struct {
	cpu        metric.Float64Gauge
	heapMb     metric.Int64Gauge
	liveObject metric.Int64Gauge
	goroutines metric.Int64Gauge
}

func newProcessGauges() processGauges {
	var g processGauges
	g.cpu, _ = processMeter.Float64Gauge("process.cpu_percent")
	g.heapMb, _ = processMeter.Int64Gauge("process.heap_mb")
	g.liveObject, _ = processMeter.Int64Gauge("process.live_objects")
	g.goroutines, _ = processMeter.Int64Gauge("process.goroutines")
	return g
}

// sample records one reading, cpu usage is measured over window.
func (g processGauges) sample(ctx context.Context, window time.Duration) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	g.heapMb.Record(ctx, int64(mem.HeapAlloc>>20))
	g.liveObject.Record(ctx, int64(mem.Mallocs-mem.Frees))
	g.goroutines.Record(ctx, int64(runtime.NumGoroutine()))

	usage, err := cpu.PercentWithContext(ctx, window, false)
	if err != nil {
		slog.DebugContext(ctx, "read cpu usage", "err", err)
		return
	}
	if len(usage) > 0 {
		g.cpu.Record(ctx, usage[0])
	}
}

// InstrumentPerfStats records process gauges every interval in the
// background until ctx is done.
func InstrumentPerfStats(ctx context.Context, interval time.Duration) {
	gauges := newProcessGauges()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				gauges.sample(ctx, interval/6)
			}
		}
	}()
}
