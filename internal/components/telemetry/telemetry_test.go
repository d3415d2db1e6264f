package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	recorder := NewRecorderAPI()
	scoped := NewScopedAPI("madi_scraper", recorder)

	scoped.ReportBroken("scraper.render-group", "1бАЭн1")
	scoped.ReportWarning("table.extract")
	scoped.ReportInfo("run finished")
	scoped.ReportDebug("row skipped")
	scoped.ReportCount("scraper.groups-ok", 3)

	reports := recorder.Reports()
	require.Len(t, reports, 5)
	require.Equal(t, "madi_scraper: scraper.render-group", reports[0].Id)
	require.Equal(t, []any{"1бАЭн1"}, reports[0].Params)
	require.Equal(t, REPORT_WARNING, reports[1].Kind)
	require.Equal(t, "madi_scraper: run finished", reports[2].Id)
	require.Equal(t, int64(3), reports[4].Count)

	require.Len(t, recorder.Find(REPORT_BROKEN, "render-group"), 1)
	require.Len(t, recorder.Find(REPORT_BROKEN, "table"), 0)
}

func TestNestedScopedAPI(t *testing.T) {
	recorder := NewRecorderAPI()
	scoped := NewScopedAPI("outer", NewScopedAPI("inner", recorder))
	scoped.ReportBroken("x.y")
	require.Equal(t, "inner: outer: x.y", recorder.Reports()[0].Id)
}

func TestSetupWithoutExporters(t *testing.T) {
	tel, err := Setup(context.Background(), "test:telemetry", Config{})
	require.NoError(t, err)
	require.Nil(t, tel.TracerProvider)
	require.Nil(t, tel.MeterProvider)
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestSetupRejectsUnknownProtocol(t *testing.T) {
	_, err := Setup(context.Background(), "test:telemetry", Config{
		Traces: ExporterConfig{Endpoint: "http://localhost:4318", Protocol: "udp"},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Protocol")
}

func TestSetupRejectsBadPushInterval(t *testing.T) {
	_, err := Setup(context.Background(), "test:telemetry", Config{PushInterval: "soon"})
	require.Error(t, err)
}

func TestProcessGaugesSample(t *testing.T) {
	// the global meter is a no-op here, sampling must still complete
	newProcessGauges().sample(context.Background(), 10*time.Millisecond)
}
