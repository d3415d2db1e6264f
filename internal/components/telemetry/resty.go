package telemetry

import (
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	report_resty_request  = "resty.request"
	report_resty_response = "resty.response"
)

// InstrumentResty reports the traffic of client through tel. Requests and
// responses are debug reports, a request that never got a response is
// reported as broken.
func InstrumentResty(client *resty.Client, tel API) {
	var sent atomic.Uint64

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		tel.ReportDebug(report_resty_request, sent.Add(1), req.Method, req.URL)
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		tel.ReportDebug(
			report_resty_response,
			res.Request.Method,
			res.Request.URL,
			res.Status(),
			res.Time().String(),
		)
		return nil
	})
	client.OnError(func(req *resty.Request, err error) {
		// Time stays zero when the request failed before it was sent
		var elapsed time.Duration
		if !req.Time.IsZero() {
			elapsed = time.Since(req.Time)
		}
		tel.ReportBroken(report_resty_response, err, req.Method, req.URL, elapsed.String())
	})
}
