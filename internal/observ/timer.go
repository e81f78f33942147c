// Package observ records phase timings of an analysis run.
package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Timer accumulates wall time per named phase. Phases keep the order they
// were first seen in. A Timer is safe for concurrent use.
type Timer struct {
	mu     sync.Mutex
	order  []string
	phases map[string]*phase
}

type phase struct {
	dur   time.Duration
	count int
	note  string
}

// NewTimer returns an empty Timer.
func NewTimer() *Timer { return &Timer{phases: make(map[string]*phase)} }

// Track starts timing one run of name. The returned function stops it and
// records note; a later note for the same phase replaces an earlier one.
func (t *Timer) Track(name string) func(note string) {
	started := time.Now()
	var once sync.Once
	return func(note string) {
		once.Do(func() { t.record(name, time.Since(started), note) })
	}
}

// Add records d as one run of name.
func (t *Timer) Add(name string, d time.Duration) { t.record(name, d, "") }

func (t *Timer) record(name string, d time.Duration, note string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.phases[name]
	if !ok {
		p = &phase{}
		t.phases[name] = p
		t.order = append(t.order, name)
	}
	p.dur += d
	p.count++
	if note != "" {
		p.note = note
	}
}

// PhaseReport is the serializable form of one phase.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Count      int     `json:"count"`
	Note       string  `json:"note,omitempty"`
}

// Report is a snapshot of a Timer.
type Report struct {
	Phases []PhaseReport `json:"phases"`
}

// Report snapshots the phases in first-seen order.
func (t *Timer) Report() Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	var r Report
	for _, name := range t.order {
		p := t.phases[name]
		r.Phases = append(r.Phases, PhaseReport{
			Name:       name,
			DurationMS: millis(p.dur),
			Count:      p.count,
			Note:       p.note,
		})
	}
	return r
}

// Summary renders the report as an aligned table. Phases run more than once
// also show their count and mean.
func (t *Timer) Summary() string {
	var b strings.Builder
	b.WriteString("timings:\n")
	for _, p := range t.Report().Phases {
		fmt.Fprintf(&b, "  %-10s %9.2f ms", p.Name, p.DurationMS)
		if p.Count > 1 {
			fmt.Fprintf(&b, "  (%d runs, %.3f ms each)", p.Count, p.DurationMS/float64(p.Count))
		}
		if p.Note != "" {
			b.WriteString("  " + p.Note)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
