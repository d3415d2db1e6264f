package telemetry

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

const report_resty_dump = "resty.dump"

// RestyDump receives the formatted transcript of every completed exchange.
type RestyDump interface {
	Write(name string, contents string) error
}

// DirDump writes each transcript to its own file in a directory.
type DirDump struct {
	dir string
}

// NewDirDump clears dir and recreates it.
func NewDirDump(dir string) (DirDump, error) {
	err := os.RemoveAll(dir)
	if err != nil {
		return DirDump{}, err
	}
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return DirDump{}, err
	}
	return DirDump{dir: dir}, nil
}

func (d DirDump) Write(name string, contents string) error {
	return os.WriteFile(filepath.Join(d.dir, name), []byte(contents), 0600)
}

func formatHeaders(headers http.Header) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out strings.Builder
	for _, k := range keys {
		for _, v := range headers[k] {
			fmt.Fprintf(&out, "%s: %s\n", k, v)
		}
	}
	return strings.TrimSuffix(out.String(), "\n")
}

func formatRequestBody(req *http.Request) string {
	if req.GetBody == nil {
		return ""
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("<unreadable body: %s>", err)
	}
	defer body.Close()
	contents, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("<unreadable body: %s>", err)
	}
	return string(contents)
}

func formatExchange(res *resty.Response) string {
	var out strings.Builder
	out.WriteString("---- REQUEST ----\n\n")
	fmt.Fprintf(&out, "%s %s\n\n", res.Request.Method, res.Request.URL)
	if raw := res.Request.RawRequest; raw != nil {
		fmt.Fprintf(&out, "%s\n\n%s\n\n", formatHeaders(raw.Header), formatRequestBody(raw))
	}
	out.WriteString("---- RESPONSE ----\n\n")
	fmt.Fprintf(&out, "%d %s\n\n", res.StatusCode(), res.Request.URL)
	fmt.Fprintf(&out, "%s\n\n", formatHeaders(res.Header()))
	out.WriteString(res.String())
	return out.String()
}

// DumpResty writes a transcript of every response the client receives to
// dump, files are named by a per client sequence number.
func DumpResty(client *resty.Client, dump RestyDump, tel API) {
	var seq uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		name := fmt.Sprintf("%04d.txt", atomic.AddUint64(&seq, 1))
		err := dump.Write(name, formatExchange(res))
		if err != nil {
			tel.ReportWarning(report_resty_dump, err, name)
		}
		return nil
	})
}
