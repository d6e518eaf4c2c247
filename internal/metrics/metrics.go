// Package metrics is a small in-process registry for operational counters
// and timings, exposed as JSON on the /metrics endpoint.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Counter is a monotonically increasing metric.
type Counter struct {
	Name       string            `json:"name"`
	Value      int64             `json:"value"`
	Labels     map[string]string `json:"labels,omitempty"`
	LastUpdate time.Time         `json:"last_update"`
}

// Timer aggregates duration samples for one operation.
type Timer struct {
	Name    string    `json:"name"`
	Count   int64     `json:"count"`
	SumMs   float64   `json:"sum_ms"`
	MinMs   float64   `json:"min_ms"`
	MaxMs   float64   `json:"max_ms"`
	AvgMs   float64   `json:"avg_ms"`
	LastRun time.Time `json:"last_run"`
}

// Registry manages all metrics in memory.
type Registry struct {
	mu        sync.RWMutex
	counters  map[string]*Counter
	timers    map[string]*Timer
	startTime time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		counters:  make(map[string]*Counter),
		timers:    make(map[string]*Timer),
		startTime: time.Now(),
	}
}

// IncrementCounter increments a counter by one.
func (r *Registry) IncrementCounter(name string, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := metricKey(name, labels)
	if c, ok := r.counters[key]; ok {
		c.Value++
		c.LastUpdate = time.Now()
		return
	}
	r.counters[key] = &Counter{
		Name:       name,
		Value:      1,
		Labels:     copyLabels(labels),
		LastUpdate: time.Now(),
	}
}

// RecordTimer records one duration sample.
func (r *Registry) RecordTimer(name string, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ms := float64(duration.Microseconds()) / 1000.0
	t, ok := r.timers[name]
	if !ok {
		t = &Timer{Name: name, MinMs: ms, MaxMs: ms}
		r.timers[name] = t
	}
	t.Count++
	t.SumMs += ms
	if ms < t.MinMs || t.Count == 1 {
		t.MinMs = ms
	}
	if ms > t.MaxMs {
		t.MaxMs = ms
	}
	t.AvgMs = t.SumMs / float64(t.Count)
	t.LastRun = time.Now()
}

// Snapshot is the JSON shape served on /metrics.
type Snapshot struct {
	UptimeSec float64   `json:"uptime_sec"`
	Counters  []Counter `json:"counters"`
	Timers    []Timer   `json:"timers"`
}

// Snapshot returns a copy of all current metric values.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := Snapshot{UptimeSec: time.Since(r.startTime).Seconds()}
	for _, c := range r.counters {
		copied := *c
		copied.Labels = copyLabels(c.Labels)
		snap.Counters = append(snap.Counters, copied)
	}
	for _, t := range r.timers {
		snap.Timers = append(snap.Timers, *t)
	}

	sort.Slice(snap.Counters, func(i, j int) bool {
		if snap.Counters[i].Name != snap.Counters[j].Name {
			return snap.Counters[i].Name < snap.Counters[j].Name
		}
		return metricKey(snap.Counters[i].Name, snap.Counters[i].Labels) <
			metricKey(snap.Counters[j].Name, snap.Counters[j].Labels)
	})
	sort.Slice(snap.Timers, func(i, j int) bool {
		return snap.Timers[i].Name < snap.Timers[j].Name
	})

	return snap
}

func metricKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		fmt.Fprintf(&b, ",%s=%s", k, labels[k])
	}
	return b.String()
}

func copyLabels(labels map[string]string) map[string]string {
	if labels == nil {
		return nil
	}
	copied := make(map[string]string, len(labels))
	for k, v := range labels {
		copied[k] = v
	}
	return copied
}
