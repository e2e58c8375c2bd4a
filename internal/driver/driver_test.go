package driver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docprofile/internal/diag"
	"docprofile/internal/format"
	"docprofile/internal/formal"
	"docprofile/internal/observ"
	"docprofile/internal/profile"
	"docprofile/internal/progress"
	"docprofile/internal/schemareg"
	"docprofile/internal/source"
	"docprofile/internal/testkit"
	"docprofile/internal/trace"
	"docprofile/internal/xmltree"
)

const ns = "urn:example:x:2"

const xProfile = `
name: x
rules:
  - element: X
    children:
      - name: A
      - name: B
        min: 0
        max: unbounded
    base_children: [A, B, C]
`

func registry(t *testing.T, v formal.Validator, status schemareg.Lifecycle) *schemareg.Registry {
	t.Helper()
	b := schemareg.NewBuilder()
	require.NoError(t, b.Register(schemareg.Entry{Namespace: ns, Version: 2, Schema: v, Status: status, CodePrefix: "X"}))
	return b.Build()
}

func xChecker(t *testing.T) Checker {
	t.Helper()
	p, err := profile.Parse([]byte(xProfile))
	require.NoError(t, err)
	return p
}

type checkerFunc struct {
	name string
	fn   func(doc *xmltree.Document, r diag.Reporter) bool
}

func (c checkerFunc) Name() string { return c.name }
func (c checkerFunc) Check(doc *xmltree.Document, r diag.Reporter) bool {
	return c.fn(doc, r)
}

func TestLoadBindsCanonicalText(t *testing.T) {
	c := diag.NewCollector()
	loaded := Load(context.Background(), []byte(`<X xmlns="urn:x"><A>1</A>   <B/></X>`), c, format.Options{})

	require.True(t, loaded.OK())
	assert.Equal(t, StateBound, loaded.State)
	assert.Equal(t, 5, c.Lines().Len())
	assert.Equal(t, "  <A>1</A>", c.Lines().Line(3))
	assert.Equal(t, 3, loaded.Doc.Root.Children[0].Line)
	assert.False(t, c.HasErrors())
	require.NoError(t, testkit.CheckLineInvariants(loaded.Doc))
}

func TestLoadNotWellFormed(t *testing.T) {
	c := diag.NewCollector()
	loaded := Load(context.Background(), []byte("<X>\n<A>\n</X>\n"), c, format.Options{})

	assert.False(t, loaded.OK())
	assert.Equal(t, StateRaw, loaded.State)
	assert.Nil(t, loaded.Canonical)
	assert.Zero(t, c.Lines().Len(), "nothing bound on parse failure")
	fatals := c.Diagnostics(diag.SevFatal)
	require.Len(t, fatals, 1)
	assert.Equal(t, diag.LoadNotWellFormed, fatals[0].Code)
}

func TestLoadUnsupportedEncoding(t *testing.T) {
	c := diag.NewCollector()
	Load(context.Background(), []byte(`<?xml version="1.0" encoding="x-nope"?><X/>`), c, format.Options{})
	fatals := c.Diagnostics(diag.SevFatal)
	require.Len(t, fatals, 1)
	assert.Equal(t, diag.LoadUnsupportedEncoding, fatals[0].Code)
}

func TestLoadReparseFailureBindsCanonical(t *testing.T) {
	broken := []byte("<X>\n  <A>\n</X>\n")
	reformat = func([]byte, format.Options) ([]byte, error) { return broken, nil }
	t.Cleanup(func() { reformat = format.Canonical })

	c := diag.NewCollector()
	loaded := Load(context.Background(), []byte("<X/>"), c, format.Options{})

	assert.False(t, loaded.OK())
	assert.Equal(t, StateCanonical, loaded.State)
	assert.Equal(t, broken, loaded.Canonical)
	require.NotNil(t, c.Lines())
	assert.Equal(t, 3, c.Lines().Len())

	fatals := c.Diagnostics(diag.SevFatal)
	require.Len(t, fatals, 1)
	assert.Equal(t, diag.LoadCanonicalMalformed, fatals[0].Code)
	line := fatals[0].Line()
	require.Positive(t, line)
	assert.NotEmpty(t, c.Lines().Annotations(line))
}

func TestLoadRejectsOversizedText(t *testing.T) {
	limit := func(max int) func(int) error {
		return func(n int) error {
			if n > max {
				return source.ErrTooLarge
			}
			return nil
		}
	}
	t.Cleanup(func() { checkSize = source.CheckSize })

	checkSize = limit(4)
	c := diag.NewCollector()
	loaded := Load(context.Background(), []byte("<X><A/></X>"), c, format.Options{})
	assert.Equal(t, StateRaw, loaded.State)
	fatals := c.Diagnostics(diag.SevFatal)
	require.Len(t, fatals, 1)
	assert.Equal(t, diag.LoadTooLarge, fatals[0].Code)

	// the canonical form adds a declaration, so only it exceeds the limit
	checkSize = limit(len("<X><A/></X>"))
	c = diag.NewCollector()
	loaded = Load(context.Background(), []byte("<X><A/></X>"), c, format.Options{})
	assert.Equal(t, StateParsed, loaded.State)
	assert.Nil(t, loaded.Canonical)
	fatals = c.Diagnostics(diag.SevFatal)
	require.Len(t, fatals, 1)
	assert.Equal(t, diag.LoadTooLarge, fatals[0].Code)
}

func TestLinesIndependentOfLayout(t *testing.T) {
	opts := Options{Registry: registry(t, nil, schemareg.Current), Checkers: []Checker{xChecker(t)}}
	a := Validate(context.Background(), []byte(`<X xmlns="`+ns+`"><B/><C/></X>`), opts)
	b := Validate(context.Background(), []byte("<X xmlns=\""+ns+"\">\n\n\n    <B>\n</B>\n\t<C/>\n</X>"), opts)
	assert.Equal(t, diag.FormatGolden(a.Report), diag.FormatGolden(b.Report))
	assert.Equal(t, a.Canonical, b.Canonical)
}

func TestValidateEndToEnd(t *testing.T) {
	opts := Options{
		Registry: registry(t, nil, schemareg.Current),
		Checkers: []Checker{xChecker(t)},
		Report:   diag.DefaultReportOptions(),
		File:     "x.xml",
	}
	raw := []byte(`<X xmlns="` + ns + `"><B/><B/><B/><C/></X>`)
	res := Validate(context.Background(), raw, opts)

	require.NoError(t, res.Err)
	require.NotNil(t, res.Entry)
	assert.Equal(t, "x.xml", res.Report.Document)
	assert.True(t, res.Failed())
	assert.Equal(t, "error PRF2001 2 mandatory element <A> missing from <X>\n"+
		"info PRF2004 6 element <C> in <X> is profiled out", diag.FormatGolden(res.Report))
	assert.Empty(t, res.Report.Items(diag.SevDebug), "debug hidden by default")
}

func TestValidateUnsupportedNamespace(t *testing.T) {
	var called atomic.Bool
	chk := checkerFunc{name: "spy", fn: func(*xmltree.Document, diag.Reporter) bool {
		called.Store(true)
		return true
	}}
	res := Validate(context.Background(), []byte(`<X xmlns="urn:other"/>`), Options{
		Registry: registry(t, nil, schemareg.Current),
		Checkers: []Checker{chk},
	})

	assert.True(t, errors.Is(res.Err, ErrUnsupportedNamespace))
	assert.Nil(t, res.Entry)
	assert.False(t, called.Load(), "no checking after unsupported namespace")
	fatals := res.Report.Items(diag.SevFatal)
	require.Len(t, fatals, 1)
	assert.Equal(t, diag.SchUnsupportedNamespace, fatals[0].Code)
}

func TestValidateFormalAndLifecycle(t *testing.T) {
	v := formal.Func(func(_ context.Context, doc *xmltree.Document) ([]formal.Finding, error) {
		return []formal.Finding{{Rule: "cvc-type.3.1.3", Message: "bad value", Line: doc.Root.Children[0].Line}}, nil
	})
	res := Validate(context.Background(), []byte(`<X xmlns="`+ns+`"><A>x</A></X>`), Options{
		Registry: registry(t, v, schemareg.Old|schemareg.Draft),
	})

	errs := res.Report.Items(diag.SevError)
	require.Len(t, errs, 2)
	codes := []diag.Code{errs[0].Code, errs[1].Code}
	assert.Contains(t, codes, diag.Code("X-cvc-type.3.1.3"))
	assert.Contains(t, codes, diag.SchOutOfDate.WithPrefix("X"))
	warns := res.Report.Items(diag.SevWarning)
	require.Len(t, warns, 1)
	assert.Equal(t, diag.SchDraft.WithPrefix("X"), warns[0].Code)

	var annotated bool
	for _, l := range res.Report.Lines {
		if l.Line == 3 && len(l.Notes) == 1 {
			annotated = true
		}
	}
	assert.True(t, annotated, "formal finding annotated at its line: %+v", res.Report.Lines)
}

func TestValidateInternalErrorsFlag(t *testing.T) {
	failing := formal.Func(func(context.Context, *xmltree.Document) ([]formal.Finding, error) {
		return nil, errors.New("engine down")
	})
	panicky := checkerFunc{name: "boom", fn: func(*xmltree.Document, diag.Reporter) bool { panic("bad checker") }}
	raw := []byte(`<X xmlns="` + ns + `"><A/></X>`)
	base := Options{Registry: registry(t, failing, schemareg.Current), Checkers: []Checker{panicky, xChecker(t)}}

	shown := base
	shown.Report = diag.ReportOptions{IncludeInternal: true}
	res := Validate(context.Background(), raw, shown)
	assert.Len(t, res.Report.Items(diag.SevError), 2)
	assert.Equal(t, 2, res.Report.Counts.Of(diag.SevError, diag.ProcessErrorKey))

	hidden := base
	hidden.Report = diag.ReportOptions{}
	res = Validate(context.Background(), raw, hidden)
	assert.Empty(t, res.Report.Items(diag.SevError))
	assert.False(t, res.Failed())
}

func TestValidateDebugAndTimings(t *testing.T) {
	timer := observ.NewTimer()
	var events []progress.Event
	res := Validate(context.Background(), []byte(`<X xmlns="`+ns+`"><A/></X>`), Options{
		Registry: registry(t, nil, schemareg.Current),
		Report:   diag.ReportOptions{IncludeDebug: true},
		Timer:    timer,
		Progress: progress.FuncSink(func(e progress.Event) { events = append(events, e) }),
		File:     "a.xml",
	})

	debug := res.Report.Items(diag.SevDebug)
	require.Len(t, debug, 3, "load, resolve, check")
	assert.Equal(t, diag.DbgStage, debug[0].Code)
	assert.Len(t, timer.Report().Stages, 3)

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, progress.StatusDone, last.Status)
	assert.Equal(t, "a.xml", last.File)
}

func TestReportCacheRoundTrip(t *testing.T) {
	cache, err := OpenReportCache(t.TempDir())
	require.NoError(t, err)

	res := Validate(context.Background(), []byte(`<X xmlns="urn:none"/>`), Options{File: "a.xml"})
	key := CacheKey([]byte("raw"), ConfigDigest("cfg"))
	require.NoError(t, cache.Put(key, newCachedReport(res)))

	got, ok, err := cache.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	back := got.Result("b.xml")
	assert.Equal(t, "b.xml", back.Report.Document)
	assert.True(t, errors.Is(back.Err, ErrUnsupportedNamespace))
	assert.Equal(t, diag.FormatGolden(res.Report), diag.FormatGolden(back.Report))

	_, ok, err = cache.Get(CacheKey([]byte("other"), ConfigDigest("cfg")))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.DropAll())
	_, ok, _ = cache.Get(key)
	assert.False(t, ok)
}

func TestConfigDigestSeparatesParts(t *testing.T) {
	assert.NotEqual(t, ConfigDigest("ab", "c"), ConfigDigest("a", "bc"))
	assert.NotEqual(t, CacheKey([]byte("x"), ConfigDigest("1")), CacheKey([]byte("x"), ConfigDigest("2")))
}

func TestValidateFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	write("ok.xml", `<X xmlns="`+ns+`"><A/></X>`)
	write("sub/bad.xml", `<X xmlns="`+ns+`"><B/></X>`)
	write("broken.XML", `<X>`)
	write("notes.txt", "ignored")

	files, err := ListDocuments(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)

	cache, err := OpenReportCache(t.TempDir())
	require.NoError(t, err)
	opts := BatchOptions{
		Options:      Options{Registry: registry(t, nil, schemareg.Current), Checkers: []Checker{xChecker(t)}, Timer: observ.NewTimer()},
		Jobs:         2,
		Cache:        cache,
		ConfigDigest: ConfigDigest("test"),
		BaseDir:      dir,
	}

	results, err := ValidateFiles(context.Background(), files, opts)
	require.NoError(t, err)
	failed := map[string]bool{}
	for _, r := range results {
		assert.False(t, r.Cached)
		failed[filepath.Base(r.Path)] = r.Failed()
	}
	assert.Equal(t, map[string]bool{"ok.xml": false, "bad.xml": true, "broken.XML": true}, failed)
	assert.NotEmpty(t, opts.Timer.Report().Stages)

	var events bytes.Buffer
	tracer := trace.NewStreamTracer(&events, trace.LevelDocument, trace.FormatNDJSON)
	again, err := ValidateFiles(trace.WithTracer(context.Background(), tracer), files, opts)
	require.NoError(t, err)
	require.NoError(t, tracer.Flush())
	assert.Equal(t, len(files), strings.Count(events.String(), `"cache-hit"`))
	for i, r := range again {
		assert.True(t, r.Cached, r.Path)
		assert.Equal(t, results[i].Failed(), r.Failed(), r.Path)
		if filepath.Base(r.Path) == "ok.xml" {
			require.NotNil(t, r.Result.Entry)
			assert.Equal(t, ns, r.Result.Entry.Namespace)
			assert.Equal(t, 2, r.Result.Entry.Version)
		}
	}

	missing, err := ValidateFiles(context.Background(), []string{filepath.Join(dir, "gone.xml")}, BatchOptions{})
	require.NoError(t, err)
	require.Error(t, missing[0].ReadErr)
	assert.True(t, missing[0].Failed())
}
