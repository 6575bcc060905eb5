// Prometheus-text metrics for the brick layers engine.
//
// Counters and gauges only; the hot path touches a single atomic per
// update. Rendered on demand in Prometheus exposition format.

package metrics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// Counter is a monotonically increasing metric.
type Counter struct {
	name string
	help string
	v    atomic.Int64
}

// Inc adds one.
func (c *Counter) Inc() { c.v.Add(1) }

// Add adds n.
func (c *Counter) Add(n int64) { c.v.Add(n) }

// Value returns the current count.
func (c *Counter) Value() int64 { return c.v.Load() }

func (c *Counter) write(sb *strings.Builder) {
	fmt.Fprintf(sb, "# HELP %s %s\n", c.name, c.help)
	fmt.Fprintf(sb, "# TYPE %s counter\n", c.name)
	fmt.Fprintf(sb, "%s %d\n", c.name, c.v.Load())
}

// Gauge is a metric that can go up and down.
type Gauge struct {
	name string
	help string
	bits atomic.Uint64
}

// Set stores the value.
func (g *Gauge) Set(v float64) { g.bits.Store(math.Float64bits(v)) }

// Value returns the current value.
func (g *Gauge) Value() float64 { return math.Float64frombits(g.bits.Load()) }

func (g *Gauge) write(sb *strings.Builder) {
	fmt.Fprintf(sb, "# HELP %s %s\n", g.name, g.help)
	fmt.Fprintf(sb, "# TYPE %s gauge\n", g.name)
	fmt.Fprintf(sb, "%s %g\n", g.name, g.Value())
}

type renderable interface {
	metricName() string
	render(sb *strings.Builder)
}

func (c *Counter) metricName() string { return c.name }

func (c *Counter) render(sb *strings.Builder) { c.write(sb) }

func (g *Gauge) metricName() string { return g.name }

func (g *Gauge) render(sb *strings.Builder) { g.write(sb) }

// Registry holds a set of named metrics.
type Registry struct {
	mu      sync.Mutex
	metrics map[string]renderable
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{metrics: make(map[string]renderable)}
}

// Counter returns the counter with the given name, creating it if needed.
func (r *Registry) Counter(name, help string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.metrics[name]; ok {
		if c, ok := m.(*Counter); ok {
			return c
		}
	}
	c := &Counter{name: name, help: help}
	r.metrics[name] = c
	return c
}

// Gauge returns the gauge with the given name, creating it if needed.
func (r *Registry) Gauge(name, help string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.metrics[name]; ok {
		if g, ok := m.(*Gauge); ok {
			return g
		}
	}
	g := &Gauge{name: name, help: help}
	r.metrics[name] = g
	return g
}

// Render returns all metrics in Prometheus text exposition format.
func (r *Registry) Render() string {
	r.mu.Lock()
	names := make([]string, 0, len(r.metrics))
	for n := range r.metrics {
		names = append(names, n)
	}
	sort.Strings(names)
	ordered := make([]renderable, len(names))
	for i, n := range names {
		ordered[i] = r.metrics[n]
	}
	r.mu.Unlock()

	var sb strings.Builder
	for _, m := range ordered {
		m.render(&sb)
	}
	return sb.String()
}
