package madi

import (
	"context"
	"errors"
	"time"

	"madischedule-backend/pkg/htmlutil"
)

var (
	// ErrGroupNotFound is returned by Browser.Select when no option carries
	// the requested label.
	ErrGroupNotFound = errors.New("group not found in selector")
	// ErrTableNotRendered is returned by Browser.WaitTable when no timetable
	// showed up in time.
	ErrTableNotRendered = errors.New("timetable was not rendered")
	// ErrNoSelector is returned when the loaded page has no group selector.
	ErrNoSelector = errors.New("page has no group selector")
)

// Browser is a handle on one browsing session against the timetable site.
// It is owned by a single run and must be closed by it.
//
// note: fault injection point
type Browser interface {
	// Open loads the page carrying the group selector.
	Open(ctx context.Context, url string) error
	// Options lists the options of the group selector in page order.
	Options(ctx context.Context) ([]htmlutil.Option, error)
	// Select picks the option whose visible label equals group, causing the
	// timetable to be rendered for it.
	Select(ctx context.Context, group string) error
	// WaitTable blocks until the timetable for the last selection is
	// present and returns its html.
	WaitTable(ctx context.Context, timeout time.Duration) (string, error)
	Close() error
}

// Launcher acquires a fresh Browser, it is called once per run.
type Launcher func(ctx context.Context) (Browser, error)

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
