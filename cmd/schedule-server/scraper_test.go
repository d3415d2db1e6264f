package main

import (
	"context"
	"testing"
	"time"

	"madischedule-backend/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestScrapeJobWaitsForDetachedRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	release := make(chan struct{})
	finished := false
	job := &scrapeJob{
		ctx:    ctx,
		scrape: func(ctx context.Context) bool {
			close(started)
			<-release
			finished = true
			return true
		},
		tel: telemetry.NewRecorderAPI(),
	}

	job.runDetached()
	<-started

	waited := make(chan struct{})
	go func() {
		job.wait()
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatal("wait returned while the run was still going")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("wait did not return after the run finished")
	}
	require.True(t, finished)
}

func TestScrapeJobDropsOverlappingTrigger(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	runs := 0
	tel := telemetry.NewRecorderAPI()
	job := &scrapeJob{
		ctx:    context.Background(),
		scrape: func(ctx context.Context) bool {
			runs++
			close(started)
			<-release
			return true
		},
		tel: tel,
	}

	job.runDetached()
	<-started
	job.run()
	close(release)
	job.wait()

	require.Equal(t, 1, runs)
	require.Len(t, tel.Find(telemetry.REPORT_INFO, ""), 2)
}

func TestScrapeJobSkipsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runs := 0
	job := &scrapeJob{
		ctx:    ctx,
		scrape: func(ctx context.Context) bool {
			runs++
			return true
		},
		tel: telemetry.NewRecorderAPI(),
	}
	job.runDetached()
	job.wait()
	require.Zero(t, runs)
}
