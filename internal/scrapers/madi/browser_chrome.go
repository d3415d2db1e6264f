package madi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"madischedule-backend/internal/components/assert"
	"madischedule-backend/internal/components/telemetry"
	"madischedule-backend/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

const (
	selectorGroup      = "select"
	selectorFreshTable = "table:not([data-stale])"
)

// ChromeOptions configure the headless chrome launcher.
type ChromeOptions struct {
	// ExecPath overrides the chrome binary, empty means search the PATH.
	ExecPath string
	// Headful shows the browser window, it is only useful when debugging.
	Headful bool
}

type chromeBrowser struct {
	ctx    context.Context
	cancel func()
	tel    telemetry.API
}

// NewChromeLauncher returns a Launcher that starts a new headless chrome
// process for every run.
func NewChromeLauncher(opts ChromeOptions, tel telemetry.API) Launcher {
	assert.NotNil(tel, "telemetry api")
	tel = telemetry.NewScopedAPI("chrome", tel)

	return func(ctx context.Context) (Browser, error) {
		allocOpts := append(
			chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", !opts.Headful),
			chromedp.NoSandbox,
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.DisableGPU,
			chromedp.WindowSize(1920, 1080),
		)
		if opts.ExecPath != "" {
			allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
		}

		allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
		browserCtx, cancelBrowser := chromedp.NewContext(
			allocCtx,
			chromedp.WithLogf(func(format string, args ...any) {
				tel.ReportDebug(fmt.Sprintf(format, args...))
			}),
		)
		cancel := func() {
			cancelBrowser()
			cancelAlloc()
		}

		err := chromedp.Run(browserCtx)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("start chrome: %w", err)
		}
		return &chromeBrowser{
			ctx:    browserCtx,
			cancel: cancel,
			tel:    tel,
		}, nil
	}
}

// run executes actions on the browser tab, aborting them when either the
// caller's ctx or the browser itself is done.
func (b *chromeBrowser) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(b.ctx)
	defer cancel()
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
		defer cancel()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (b *chromeBrowser) Open(ctx context.Context, url string) error {
	return b.run(
		ctx, 0,
		chromedp.Navigate(url),
		chromedp.WaitReady(selectorGroup, chromedp.ByQuery),
	)
}

func (b *chromeBrowser) Options(ctx context.Context) ([]htmlutil.Option, error) {
	var html string
	err := b.run(ctx, 0, chromedp.OuterHTML(selectorGroup, &html, chromedp.ByQuery))
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	selects := doc.Find("select")
	if selects.Length() == 0 {
		return nil, ErrNoSelector
	}
	return htmlutil.GetOptions(ctx, selects), nil
}

// selectScript picks an option by its visible label and fires the change
// event the page listens to. Existing tables are marked stale first so that
// WaitTable only accepts a table rendered after the selection.
const selectScript = `(function(label) {
	const select = document.querySelector("select");
	if (!select) {
		return false;
	}
	for (const option of select.options) {
		if (option.text.trim() !== label) {
			continue;
		}
		document.querySelectorAll("table").forEach(t => t.setAttribute("data-stale", "1"));
		select.value = option.value;
		option.selected = true;
		select.dispatchEvent(new Event("change", {bubbles: true}));
		return true;
	}
	return false;
})(%s)`

func (b *chromeBrowser) Select(ctx context.Context, group string) error {
	label, err := json.Marshal(group)
	if err != nil {
		return err
	}
	var found bool
	err = b.run(ctx, 0, chromedp.Evaluate(fmt.Sprintf(selectScript, label), &found))
	if err != nil {
		b.tel.ReportBroken(report_browser_select, err, group)
		return err
	}
	if !found {
		return ErrGroupNotFound
	}
	return nil
}

func (b *chromeBrowser) WaitTable(ctx context.Context, timeout time.Duration) (string, error) {
	var html string
	err := b.run(
		ctx, timeout,
		chromedp.WaitVisible(selectorFreshTable, chromedp.ByQuery),
		chromedp.OuterHTML(selectorFreshTable, &html, chromedp.ByQuery),
	)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return "", fmt.Errorf("%w: after %s", ErrTableNotRendered, timeout)
	}
	if err != nil {
		return "", err
	}
	return html, nil
}

func (b *chromeBrowser) Close() error {
	b.cancel()
	return nil
}
