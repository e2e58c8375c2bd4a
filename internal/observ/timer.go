// Package observ measures how long each pipeline stage takes.
package observ

import (
	"fmt"
	"strings"
	"time"
)

// Stage records the duration and metadata of one pipeline stage.
type Stage struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
	Count int // runs folded into this entry by Merge
}

// Timer tracks the execution time of pipeline stages. A Timer belongs to one
// goroutine; batch runs merge per-document timers afterwards.
type Timer struct {
	stages []Stage
}

// NewTimer creates a new empty Timer.
func NewTimer() *Timer { return &Timer{stages: make([]Stage, 0, 8)} }

// Begin starts a new stage and returns its index.
func (t *Timer) Begin(name string) int {
	if t == nil {
		return -1
	}
	t.stages = append(t.stages, Stage{Name: name, Start: time.Now(), Count: 1})
	return len(t.stages) - 1
}

// End finishes a stage by its index.
func (t *Timer) End(idx int, note string) {
	if t == nil || idx < 0 || idx >= len(t.stages) {
		return
	}
	s := &t.stages[idx]
	s.Dur = time.Since(s.Start)
	s.Note = note
}

// Merge adds the stages of other, summing durations of stages with the same
// name.
func (t *Timer) Merge(other *Timer) {
	if t == nil || other == nil {
		return
	}
	for _, s := range other.stages {
		found := false
		for i := range t.stages {
			if t.stages[i].Name == s.Name {
				t.stages[i].Dur += s.Dur
				t.stages[i].Count += s.Count
				found = true
				break
			}
		}
		if !found {
			s.Note = ""
			t.stages = append(t.stages, s)
		}
	}
}

// Summary returns a human-readable string summarizing all tracked stages.
func (t *Timer) Summary() string {
	report := t.Report()
	var b strings.Builder
	b.WriteString("timings:\n")
	for _, s := range report.Stages {
		fmt.Fprintf(&b, "  %-20s %9.2f ms", s.Name, s.DurationMS)
		if s.Count > 1 {
			fmt.Fprintf(&b, "  x%d", s.Count)
		}
		if s.Note != "" {
			b.WriteString("  // " + s.Note)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "  %-20s %9.2f ms\n", "total", report.TotalMS)
	return b.String()
}

// StageReport is the serializable form of a stage.
type StageReport struct {
	Name       string  `json:"name" msgpack:"name"`
	DurationMS float64 `json:"duration_ms" msgpack:"duration_ms"`
	Count      int     `json:"count,omitempty" msgpack:"count"`
	Note       string  `json:"note,omitempty" msgpack:"note"`
}

// Report aggregates the timer data.
type Report struct {
	TotalMS float64       `json:"total_ms" msgpack:"total_ms"`
	Stages  []StageReport `json:"stages" msgpack:"stages"`
}

// Report returns the stages and the total duration in milliseconds.
func (t *Timer) Report() Report {
	if t == nil || len(t.stages) == 0 {
		return Report{}
	}
	report := Report{
		Stages: make([]StageReport, len(t.stages)),
	}
	var total time.Duration
	for i, s := range t.stages {
		total += s.Dur
		report.Stages[i] = StageReport{
			Name:       s.Name,
			DurationMS: durationToMillis(s.Dur),
			Count:      s.Count,
			Note:       s.Note,
		}
	}
	report.TotalMS = durationToMillis(total)
	return report
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
