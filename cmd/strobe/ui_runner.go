package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"strobe/internal/driver"
	"strobe/internal/ui"
)

type batchOutcome struct {
	results []driver.DirOutcome
	err     error
}

// runBatchWithUI builds the given design files behind a Bubble Tea progress
// view, forwarding driver events into the model.
func runBatchWithUI(ctx context.Context, title string, files []string, opts driver.Options, jobs int) ([]driver.DirOutcome, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan batchOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = driver.ChannelSink{Ch: events}
		results, err := driver.BuildFiles(ctx, files, optsCopy, jobs)
		outcomeCh <- batchOutcome{results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
