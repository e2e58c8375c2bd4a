package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotHidesInternalWhenAsked(t *testing.T) {
	c := NewCollector()
	c.Internal(EngNilElement, "nil parent")
	c.Record(New(SevError, PrfElementMissing, "missing A", Fragment{Element: "X", Line: 1}))

	full := c.Snapshot(DefaultReportOptions())
	assert.Len(t, full.Items(SevError), 2)
	assert.Equal(t, 1, full.Counts.Of(SevError, ProcessErrorKey))

	public := c.Snapshot(ReportOptions{})
	require.Len(t, public.Items(SevError), 1)
	assert.Equal(t, PrfElementMissing, public.Items(SevError)[0].Code)
	assert.Zero(t, public.Counts.Of(SevError, ProcessErrorKey))
	assert.Equal(t, 1, public.Counts.Tier(SevError).Total)
}

func TestSnapshotExcludesDebugByDefault(t *testing.T) {
	c := NewCollector()
	c.Record(New(SevDebug, DbgStage, "parsed"))

	r := c.Snapshot(DefaultReportOptions())
	assert.Nil(t, r.Items(SevDebug))
	assert.Zero(t, r.Counts.Total)

	r = c.Snapshot(ReportOptions{IncludeDebug: true})
	assert.Len(t, r.Items(SevDebug), 1)
}

func TestSnapshotCarriesAnnotatedLines(t *testing.T) {
	c := NewCollector()
	c.BindSourceText([]byte(sampleText))
	c.Record(New(SevInfo, PrfElementProfiledOut, "C is profiled out", Fragment{Element: "C", Line: 5}))

	r := c.Snapshot(DefaultReportOptions())
	assert.Equal(t, 6, r.LineCount)
	require.Len(t, r.Lines, 1)
	assert.Equal(t, 5, r.Lines[0].Line)
	assert.Equal(t, "  <C/>", r.Lines[0].Text)
	assert.False(t, r.Failed())
}

func TestSnapshotSortsByLine(t *testing.T) {
	c := NewCollector()
	c.Record(New(SevError, PrfCardinality, "late", Fragment{Line: 9}))
	c.Record(New(SevError, PrfCardinality, "early", Fragment{Line: 2}))

	items := c.Snapshot(DefaultReportOptions()).Items(SevError)
	require.Len(t, items, 2)
	assert.Equal(t, "early", items[0].Message)
	assert.True(t, c.Snapshot(DefaultReportOptions()).Failed())
}
