// Package metrics is a small Prometheus-compatible registry. Series are
// named `base{k="v",...}` and rendered in the text exposition format.
package metrics

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultBuckets fit upstream registry latencies, in seconds.
var DefaultBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Counter is a monotonically increasing counter.
type Counter struct{ val atomic.Int64 }

func (c *Counter) Inc()         { c.val.Add(1) }
func (c *Counter) Add(n int64)  { c.val.Add(n) }
func (c *Counter) Value() int64 { return c.val.Load() }

// Gauge can go up and down.
type Gauge struct{ val atomic.Int64 }

func (g *Gauge) Set(n int64)   { g.val.Store(n) }
func (g *Gauge) Inc()          { g.val.Add(1) }
func (g *Gauge) Dec()          { g.val.Add(-1) }
func (g *Gauge) Value() int64  { return g.val.Load() }

// Histogram counts observations into fixed upper bounds.
type Histogram struct {
	mu     sync.Mutex
	bounds []float64
	counts []uint64 // per bound, not cumulative
	sum    float64
	count  uint64
}

func newHistogram(bounds []float64) *Histogram {
	b := slices.Clone(bounds)
	slices.Sort(b)
	return &Histogram{bounds: b, counts: make([]uint64, len(b))}
}

// Observe records v.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sum += v
	h.count++
	if i, _ := slices.BinarySearch(h.bounds, v); i < len(h.bounds) {
		h.counts[i]++
	}
}

// Since observes the seconds elapsed since t.
func (h *Histogram) Since(t time.Time) {
	h.Observe(time.Since(t).Seconds())
}

type kind string

const (
	kindCounter   kind = "counter"
	kindGauge     kind = "gauge"
	kindHistogram kind = "histogram"
)

// family groups every labelled series of one metric name.
type family struct {
	kind   kind
	help   string
	series map[string]any // label string -> *Counter, *Gauge or *Histogram
}

// Registry holds metric families in registration order.
type Registry struct {
	mu       sync.Mutex
	families map[string]*family
	order    []string
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{families: make(map[string]*family)}
}

// Counter returns the counter for name, creating it on first use.
func (r *Registry) Counter(name, help string) *Counter {
	return lookup(r, name, help, kindCounter, func() *Counter { return &Counter{} })
}

// Gauge returns the gauge for name, creating it on first use.
func (r *Registry) Gauge(name, help string) *Gauge {
	return lookup(r, name, help, kindGauge, func() *Gauge { return &Gauge{} })
}

// Histogram returns the histogram for name, creating it on first use with
// buckets, or DefaultBuckets when nil.
func (r *Registry) Histogram(name, help string, buckets []float64) *Histogram {
	if buckets == nil {
		buckets = DefaultBuckets
	}
	return lookup(r, name, help, kindHistogram, func() *Histogram { return newHistogram(buckets) })
}

// lookup panics when name was registered with a different kind.
func lookup[M any](r *Registry, name, help string, k kind, create func() *M) *M {
	base, labels := splitName(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	fam, ok := r.families[base]
	if !ok {
		fam = &family{kind: k, series: make(map[string]any)}
		r.families[base] = fam
		r.order = append(r.order, base)
	}
	if fam.kind != k {
		panic(fmt.Sprintf("metrics: %s registered as %s, requested as %s", base, fam.kind, k))
	}
	if fam.help == "" {
		fam.help = help
	}
	if m, ok := fam.series[labels]; ok {
		return m.(*M)
	}
	m := create()
	fam.series[labels] = m
	return m
}

// WithLabels returns name with label pairs appended, e.g.
// WithLabels("foo", "k", "v") => `foo{k="v"}`. An odd number of kvs
// returns name unchanged.
func WithLabels(name string, kvs ...string) string {
	if len(kvs) == 0 || len(kvs)%2 != 0 {
		return name
	}
	pairs := make([]string, 0, len(kvs)/2)
	for i := 0; i < len(kvs); i += 2 {
		pairs = append(pairs, fmt.Sprintf("%s=%q", kvs[i], kvs[i+1]))
	}
	return name + "{" + strings.Join(pairs, ",") + "}"
}

// splitName separates `base{k="v"}` into base and `k="v"`.
func splitName(name string) (base, labels string) {
	i := strings.IndexByte(name, '{')
	if i < 0 {
		return name, ""
	}
	return name[:i], strings.TrimSuffix(name[i+1:], "}")
}

func braced(labels ...string) string {
	var parts []string
	for _, l := range labels {
		if l != "" {
			parts = append(parts, l)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Render returns every family in the Prometheus text format. Series within
// a family are sorted by label string.
func (r *Registry) Render() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	for _, base := range r.order {
		fam := r.families[base]
		if fam.help != "" {
			fmt.Fprintf(&b, "# HELP %s %s\n", base, fam.help)
		}
		fmt.Fprintf(&b, "# TYPE %s %s\n", base, fam.kind)

		labelSets := make([]string, 0, len(fam.series))
		for l := range fam.series {
			labelSets = append(labelSets, l)
		}
		slices.Sort(labelSets)

		for _, l := range labelSets {
			switch m := fam.series[l].(type) {
			case *Counter:
				fmt.Fprintf(&b, "%s%s %d\n", base, braced(l), m.Value())
			case *Gauge:
				fmt.Fprintf(&b, "%s%s %d\n", base, braced(l), m.Value())
			case *Histogram:
				writeHistogram(&b, base, l, m)
			}
		}
	}
	return b.String()
}

func writeHistogram(b *strings.Builder, base, labels string, h *Histogram) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var cumulative uint64
	for i, bound := range h.bounds {
		cumulative += h.counts[i]
		fmt.Fprintf(b, "%s_bucket%s %d\n", base, braced(labels, fmt.Sprintf("le=%q", fmt.Sprint(bound))), cumulative)
	}
	fmt.Fprintf(b, "%s_bucket%s %d\n", base, braced(labels, `le="+Inf"`), h.count)
	fmt.Fprintf(b, "%s_sum%s %g\n", base, braced(labels), h.sum)
	fmt.Fprintf(b, "%s_count%s %d\n", base, braced(labels), h.count)
}

// Handler serves Render output.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		w.Write([]byte(r.Render()))
	})
}
