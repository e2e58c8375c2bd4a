// Package ui renders batch validation progress in the terminal.
package ui

import (
	"fmt"
	"strings"
	"time"

	bprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"docprofile/internal/progress"
)

// recentLimit is how many finished documents stay listed below the running
// ones.
const recentLimit = 8

// stageOrder is the order a document moves through; it weights the bar.
var stageOrder = []progress.Stage{
	progress.StageLoad,
	progress.StageResolve,
	progress.StageFormal,
	progress.StageCheck,
	progress.StageReport,
}

var (
	styleTitle   = lipgloss.NewStyle().Bold(true)
	styleRunning = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	stylePassed  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleFailed  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

type document struct {
	path     string
	stage    progress.Stage
	status   progress.Status
	errors   int
	warnings int
	elapsed  time.Duration
	err      error
}

func (d document) finished() bool { return d.status.Terminal() }

func (d document) failed() bool {
	switch d.status {
	case progress.StatusFailed, progress.StatusError:
		return true
	case progress.StatusCached:
		return d.errors > 0
	}
	return false
}

type batchModel struct {
	title   string
	events  <-chan progress.Event
	spinner spinner.Model
	bar     bprogress.Model
	docs    []document
	index   map[string]int
	recent  []int // finished documents, oldest first
	width   int
	done    bool
}

type eventMsg progress.Event
type doneMsg struct{}

// NewBatchModel returns a Bubble Tea model showing the documents of a
// validation batch until events is closed. files are the display names the
// events carry.
func NewBatchModel(title string, files []string, events <-chan progress.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styleRunning

	bar := bprogress.New(bprogress.WithDefaultGradient())
	bar.Width = 76

	m := &batchModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     bar,
		docs:    make([]document, len(files)),
		index:   make(map[string]int, len(files)),
		width:   80,
	}
	for i, file := range files {
		m.docs[i] = document{path: file, status: progress.StatusQueued}
		m.index[file] = i
	}
	return m
}

func (m *batchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *batchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.apply(progress.Event(msg)), m.next())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = max(msg.Width-4, 10)
		}
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case bprogress.FrameMsg:
		model, cmd := m.bar.Update(msg)
		m.bar = model.(bprogress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *batchModel) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

// apply folds ev into the document it names. Events for unknown documents
// and batch-level events are ignored.
func (m *batchModel) apply(ev progress.Event) tea.Cmd {
	idx, ok := m.index[ev.File]
	if !ok || ev.File == "" {
		return nil
	}
	d := &m.docs[idx]
	if d.finished() {
		return nil
	}
	if ev.Stage != "" {
		d.stage = ev.Stage
	}
	d.status = ev.Status
	if d.finished() {
		d.errors, d.warnings = ev.Errors, ev.Warnings
		d.elapsed, d.err = ev.Elapsed, ev.Err
		m.recent = append(m.recent, idx)
	}
	return m.bar.SetPercent(m.percent())
}

func (m *batchModel) percent() float64 {
	if len(m.docs) == 0 {
		return 0
	}
	total := 0.0
	for _, d := range m.docs {
		total += stageFraction(d)
	}
	return total / float64(len(m.docs))
}

func stageFraction(d document) float64 {
	if d.finished() {
		return 1
	}
	if d.status != progress.StatusWorking {
		return 0
	}
	for i, s := range stageOrder {
		if s == d.stage {
			return float64(i+1) / float64(len(stageOrder)+1)
		}
	}
	return 0
}

// tally counts finished documents; cached ones count as passed or failed
// by their stored report and also as cached.
func (m *batchModel) tally() (passed, failed, cached int) {
	for _, d := range m.docs {
		if !d.finished() {
			continue
		}
		if d.status == progress.StatusCached {
			cached++
		}
		if d.failed() {
			failed++
		} else {
			passed++
		}
	}
	return passed, failed, cached
}

func (m *batchModel) View() string {
	if len(m.docs) == 0 {
		return ""
	}
	passed, failed, cached := m.tally()
	checked := passed + failed

	var b strings.Builder
	header := fmt.Sprintf("%s [%d/%d]", m.title, checked, len(m.docs))
	if m.done {
		b.WriteString(styleTitle.Render("done: " + header))
	} else {
		b.WriteString(m.spinner.View() + " " + styleTitle.Render(header))
	}
	b.WriteString("\n\n")

	nameWidth := max(m.width-28, 20)
	queued := 0
	for _, d := range m.docs {
		switch d.status {
		case progress.StatusQueued:
			queued++
		case progress.StatusWorking:
			fmt.Fprintf(&b, "  %s %s %s\n", styleRunning.Render(">"), pad(d.path, nameWidth), styleRunning.Render(string(d.stage)))
		}
	}
	start := max(len(m.recent)-recentLimit, 0)
	for _, idx := range m.recent[start:] {
		d := m.docs[idx]
		mark, style := "ok", stylePassed
		if d.failed() {
			mark, style = "!!", styleFailed
		}
		fmt.Fprintf(&b, "  %s %s %s\n", style.Render(mark), pad(d.path, nameWidth), outcome(d))
	}
	if queued > 0 {
		b.WriteString(styleDim.Render(fmt.Sprintf("  ... %d queued", queued)))
		b.WriteString("\n")
	}

	b.WriteString("\n  ")
	b.WriteString(stylePassed.Render(fmt.Sprintf("%d passed", passed)))
	b.WriteString("  ")
	b.WriteString(styleFailed.Render(fmt.Sprintf("%d failed", failed)))
	if cached > 0 {
		fmt.Fprintf(&b, "  %d cached", cached)
	}
	b.WriteString("\n")
	if m.done {
		b.WriteString(m.bar.ViewAs(1.0))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")
	return b.String()
}

// outcome summarizes a finished document in the list.
func outcome(d document) string {
	if d.err != nil {
		return styleFailed.Render(d.err.Error())
	}
	var parts []string
	if d.errors > 0 {
		parts = append(parts, plural(d.errors, "error"))
	}
	if d.warnings > 0 {
		parts = append(parts, plural(d.warnings, "warning"))
	}
	if d.status == progress.StatusCached {
		parts = append(parts, "cached")
	} else if d.elapsed > 0 {
		parts = append(parts, d.elapsed.Round(time.Millisecond).String())
	}
	return styleDim.Render(strings.Join(parts, ", "))
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// pad truncates value to width columns and fills the rest with spaces.
func pad(value string, width int) string {
	if runewidth.StringWidth(value) > width {
		value = runewidth.Truncate(value, width, "...")
	}
	return runewidth.FillRight(value, width)
}
