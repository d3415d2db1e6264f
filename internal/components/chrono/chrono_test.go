package chrono

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"madischedule-backend/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestStandardTime(t *testing.T) {
	clock, err := NewStandardTime()
	require.NoError(t, err)
	require.Equal(t, Timezone, clock.Location().String())
	require.Equal(t, Timezone, clock.Now().Location().String())
	require.WithinDuration(t, time.Now(), clock.Now(), time.Second)
}

func TestCronInvalidSpec(t *testing.T) {
	clock, err := NewStandardTime()
	require.NoError(t, err)

	cron := NewStandardCron(clock, telemetry.NewRecorderAPI())
	err = cron.Cron("not a cron spec", func() {})
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "not a cron spec"))
}

func TestCronRuns(t *testing.T) {
	clock, err := NewStandardTime()
	require.NoError(t, err)

	var calls atomic.Int64
	done := make(chan struct{}, 1)

	cron := NewStandardCron(clock, telemetry.NewRecorderAPI())
	err = cron.Cron("@every 1s", func() {
		if calls.Add(1) == 1 {
			done <- struct{}{}
		}
	})
	require.NoError(t, err)

	cron.Start()
	defer cron.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("cron job never ran")
	}
}

func TestCronLoggerError(t *testing.T) {
	recorder := telemetry.NewRecorderAPI()
	logger := cronLogger{tel: recorder}
	logger.Error(errors.New("boom"), "panic", "job", "weekly")

	reports := recorder.Find(telemetry.REPORT_BROKEN, report_cron)
	require.Len(t, reports, 1)
	require.Len(t, reports[0].Params, 2)
	require.EqualError(t, reports[0].Params[0].(error), "panic: boom")
	require.Equal(t, "job: weekly", reports[0].Params[1])
}
