package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"

	"jobsite/internal/common"
)

type Collector struct {
	requests uint64
	errors   uint64

	mu    sync.Mutex
	codes map[common.Code]uint64
}

func NewCollector() *Collector {
	return &Collector{codes: make(map[common.Code]uint64)}
}

func (c *Collector) IncRequests() {
	atomic.AddUint64(&c.requests, 1)
}

func (c *Collector) IncErrors() {
	atomic.AddUint64(&c.errors, 1)
}

func (c *Collector) IncErrorCode(code common.Code) {
	c.mu.Lock()
	c.codes[code]++
	c.mu.Unlock()
}

type Snapshot struct {
	Requests uint64
	Errors   uint64
	Codes    map[common.Code]uint64
}

func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	codes := make(map[common.Code]uint64, len(c.codes))
	for code, count := range c.codes {
		codes[code] = count
	}
	c.mu.Unlock()
	return Snapshot{
		Requests: atomic.LoadUint64(&c.requests),
		Errors:   atomic.LoadUint64(&c.errors),
		Codes:    codes,
	}
}

// Handler renders the collector in the Prometheus text format.
type Handler struct {
	collector *Collector
}

func NewHandler(collector *Collector) *Handler {
	return &Handler{collector: collector}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	var snap Snapshot
	if h.collector != nil {
		snap = h.collector.Snapshot()
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_, _ = fmt.Fprintf(w, "# HELP jobsite_requests_total Total number of HTTP requests.\n")
	_, _ = fmt.Fprintf(w, "# TYPE jobsite_requests_total counter\n")
	_, _ = fmt.Fprintf(w, "jobsite_requests_total %d\n", snap.Requests)
	_, _ = fmt.Fprintf(w, "# HELP jobsite_errors_total Total number of 5xx HTTP responses.\n")
	_, _ = fmt.Fprintf(w, "# TYPE jobsite_errors_total counter\n")
	_, _ = fmt.Fprintf(w, "jobsite_errors_total %d\n", snap.Errors)
	_, _ = fmt.Fprintf(w, "# HELP jobsite_error_responses_total Error responses by error code.\n")
	_, _ = fmt.Fprintf(w, "# TYPE jobsite_error_responses_total counter\n")
	codes := make([]string, 0, len(snap.Codes))
	for code := range snap.Codes {
		codes = append(codes, string(code))
	}
	sort.Strings(codes)
	for _, code := range codes {
		_, _ = fmt.Fprintf(w, "jobsite_error_responses_total{code=%q} %d\n", code, snap.Codes[common.Code(code)])
	}
}
