package madi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"madischedule-backend/internal/components/assert"
	"madischedule-backend/internal/components/telemetry"
	"madischedule-backend/pkg/htmlutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// HttpOptions configure the plain http launcher.
type HttpOptions struct {
	// RequestsPerSecond limits how fast the site is hit, 0 means 2.
	RequestsPerSecond float64
	Timeout           time.Duration
	// DumpDir, when set, receives a transcript of every exchange in a
	// launch-NNN subdirectory per launch.
	DumpDir string
}

// httpBrowser fetches the page with plain http requests and submits the
// selector's form instead of running the page's scripts. It only works
// when the site renders the timetable on the server.
type httpBrowser struct {
	http *resty.Client
	tel  telemetry.API
	// page is the document from Open, it carries the selector and its form.
	page    *goquery.Document
	pageUrl *url.URL
	// rendered is the response to the last selection.
	rendered *goquery.Document
}

// NewHttpLauncher returns a Launcher backed by resty, every run gets its own
// cookie jar.
func NewHttpLauncher(opts HttpOptions, tel telemetry.API) Launcher {
	assert.NotNil(tel, "telemetry api")
	tel = telemetry.NewScopedAPI("http_browser", tel)

	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	var launches uint64
	return func(ctx context.Context) (Browser, error) {
		client := resty.New()
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		client.SetCookieJar(jar)
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
		client.SetHeader("user-agent", userAgent)
		client.SetTimeout(opts.Timeout)

		// max burst >= 2 just means that no requests will be dropped
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 2)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})

		telemetry.InstrumentResty(client, tel)
		if opts.DumpDir != "" {
			n := atomic.AddUint64(&launches, 1)
			dump, err := telemetry.NewDirDump(filepath.Join(opts.DumpDir, fmt.Sprintf("launch-%03d", n)))
			if err != nil {
				return nil, err
			}
			telemetry.DumpResty(client, dump, tel)
		}

		return &httpBrowser{
			http: client,
			tel:  tel,
		}, nil
	}
}

func parseResponse(res *resty.Response) (*goquery.Document, *url.URL, error) {
	if res.IsError() {
		return nil, nil, fmt.Errorf("%s %s: %s", res.Request.Method, res.Request.URL, res.Status())
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, nil, err
	}
	pageUrl, err := url.Parse(res.Request.URL)
	if err != nil {
		return nil, nil, err
	}
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		// follow redirects so relative form actions resolve correctly
		pageUrl = res.RawResponse.Request.URL
	}
	return doc, pageUrl, nil
}

func (b *httpBrowser) Open(ctx context.Context, url string) error {
	res, err := b.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return err
	}
	doc, pageUrl, err := parseResponse(res)
	if err != nil {
		return err
	}
	b.page = doc
	b.pageUrl = pageUrl
	b.rendered = nil
	return nil
}

func (b *httpBrowser) groupSelect() (*goquery.Selection, error) {
	if b.page == nil {
		return nil, fmt.Errorf("no page loaded")
	}
	sel := b.page.Find("select").First()
	if sel.Length() == 0 {
		return nil, ErrNoSelector
	}
	return sel, nil
}

func (b *httpBrowser) Options(ctx context.Context) ([]htmlutil.Option, error) {
	sel, err := b.groupSelect()
	if err != nil {
		return nil, err
	}
	return htmlutil.GetOptions(ctx, sel), nil
}

// formValues collects what a browser would submit for the form, minus the
// group selector itself.
func formValues(form *goquery.Selection, skip string) url.Values {
	values := url.Values{}
	form.Find("input[name]").Each(func(_ int, input *goquery.Selection) {
		name, _ := input.Attr("name")
		kind := strings.ToLower(input.AttrOr("type", "text"))
		switch kind {
		case "submit", "button", "image", "reset", "file":
			return
		case "checkbox", "radio":
			_, checked := input.Attr("checked")
			if !checked {
				return
			}
			values.Add(name, input.AttrOr("value", "on"))
		default:
			values.Add(name, input.AttrOr("value", ""))
		}
	})
	form.Find("select[name]").Each(func(_ int, other *goquery.Selection) {
		name, _ := other.Attr("name")
		if name == skip {
			return
		}
		selected := other.Find("option[selected]").First()
		if selected.Length() == 0 {
			selected = other.Find("option").First()
		}
		if selected.Length() > 0 {
			values.Add(name, selected.AttrOr("value", htmlutil.CellText(selected)))
		}
	})
	return values
}

func (b *httpBrowser) Select(ctx context.Context, group string) error {
	b.rendered = nil
	sel, err := b.groupSelect()
	if err != nil {
		return err
	}

	var chosen *htmlutil.Option
	for _, o := range htmlutil.GetOptions(ctx, sel) {
		if o.Label == group {
			chosen = &o
			break
		}
	}
	if chosen == nil {
		return ErrGroupNotFound
	}

	name := sel.AttrOr("name", sel.AttrOr("id", ""))
	if name == "" {
		return fmt.Errorf("select: selector has neither a name nor an id")
	}

	target := *b.pageUrl
	method := http.MethodGet
	values := url.Values{}
	form := sel.Closest("form")
	if form.Length() > 0 {
		values = formValues(form, name)
		if action := form.AttrOr("action", ""); action != "" {
			resolved, err := b.pageUrl.Parse(action)
			if err != nil {
				return fmt.Errorf("select: form action: %w", err)
			}
			target = *resolved
		}
		method = strings.ToUpper(form.AttrOr("method", http.MethodGet))
	} else {
		values = target.Query()
	}
	values.Set(name, chosen.Value)

	req := b.http.R().SetContext(ctx)
	var res *resty.Response
	if method == http.MethodPost {
		res, err = req.SetFormDataFromValues(values).Post(target.String())
	} else {
		target.RawQuery = values.Encode()
		res, err = req.Get(target.String())
	}
	if err != nil {
		b.tel.ReportBroken(report_browser_select, err, group)
		return err
	}
	doc, _, err := parseResponse(res)
	if err != nil {
		return err
	}
	b.rendered = doc
	return nil
}

func (b *httpBrowser) WaitTable(ctx context.Context, timeout time.Duration) (string, error) {
	if b.rendered == nil {
		return "", ErrTableNotRendered
	}
	table := b.rendered.Find("table").First()
	if table.Length() == 0 {
		return "", ErrTableNotRendered
	}
	return goquery.OuterHtml(table)
}

func (b *httpBrowser) Close() error {
	b.http.GetClient().CloseIdleConnections()
	return nil
}
