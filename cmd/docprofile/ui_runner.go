package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"docprofile/internal/driver"
	"docprofile/internal/progress"
	"docprofile/internal/ui"
)

type batchOutcome struct {
	results []driver.FileResult
	err     error
}

// runBatchWithUI validates files while the progress view consumes the
// pipeline events. display must hold the names the events carry.
func runBatchWithUI(ctx context.Context, title string, files, display []string, opts driver.BatchOptions) ([]driver.FileResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := make(chan progress.Event, 256)
	outcomeCh := make(chan batchOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = progress.ChannelSink{Ch: events}
		res, err := driver.ValidateFiles(ctx, files, optsCopy)
		outcomeCh <- batchOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewBatchModel(title, display, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// quitting the view stops documents that have not started yet
	cancel()
	// the view may quit early; keep the pipeline from blocking on a full channel
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
