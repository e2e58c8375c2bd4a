package observ

import (
	"strings"
	"testing"
)

func TestTimerMerge(t *testing.T) {
	a := NewTimer()
	a.End(a.Begin("parse"), "first")
	b := NewTimer()
	b.End(b.Begin("parse"), "")
	b.End(b.Begin("formal"), "")

	a.Merge(b)
	rep := a.Report()
	if len(rep.Stages) != 2 {
		t.Fatalf("expected 2 stages, got %+v", rep.Stages)
	}
	if rep.Stages[0].Count != 2 || rep.Stages[1].Count != 1 {
		t.Fatalf("unexpected counts: %+v", rep.Stages)
	}
	if !strings.Contains(a.Summary(), "x2") {
		t.Fatalf("summary misses merged count:\n%s", a.Summary())
	}
}

func TestTimerNilSafe(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	if len(tm.Report().Stages) != 0 {
		t.Fatalf("nil timer reported stages")
	}
	NewTimer().End(7, "out of range")
}
