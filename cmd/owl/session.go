package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"

	"owl/internal/config"
	"owl/internal/jobs"
	"owl/internal/ui"
)

var errInterrupted = errors.New("interrupted")

// lineSink prints job events as plain lines.
type lineSink struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *lineSink) OnEvent(evt jobs.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch evt.Kind {
	case jobs.EventProgress:
		fmt.Fprintf(s.w, "%s %s [%s] %3d%%\n", color.CyanString("checking"), evt.Target, evt.Unit, evt.Percent)
	case jobs.EventFinished:
		fmt.Fprintf(s.w, "%s %s\n", color.GreenString("finished"), evt.Target)
	case jobs.EventFailed:
		fmt.Fprintf(s.w, "%s %s\n", color.RedString("failed"), evt.Target)
	case jobs.EventCancelled:
		fmt.Fprintf(s.w, "%s %s\n", color.YellowString("cancelled"), evt.Target)
	}
}

func newFrontend(cfg config.Config, stderr io.Writer) *jobs.ProcessFrontend {
	return &jobs.ProcessFrontend{
		Command:     cfg.Frontend.Command,
		Args:        cfg.FrontendArgs(),
		Env:         cfg.Env(),
		ChannelSize: cfg.Frontend.ChannelSize,
		Stderr:      stderr,
	}
}

// analyzeTargets registers targets, runs one batch and waits for it. With
// useUI the progress is rendered by the terminal UI, otherwise progress
// lines go to progress (nil keeps quiet).
func analyzeTargets(ctx context.Context, cfg config.Config, targets []string, useUI bool, progress io.Writer) (*jobs.Manager, error) {
	if !useUI {
		opts := jobs.Options{Frontend: newFrontend(cfg, os.Stderr)}
		if progress != nil {
			opts.Progress = &lineSink{w: progress}
		}
		m := jobs.NewManager(opts)
		for _, t := range targets {
			m.AddTarget(t)
		}
		m.Analyze(ctx)
		if err := m.Wait(ctx); err != nil {
			m.Shutdown()
			return m, err
		}
		return m, nil
	}

	events := make(chan jobs.Event, 256)
	// the worker's stderr would tear the UI apart
	m := jobs.NewManager(jobs.Options{
		Frontend: newFrontend(cfg, nil),
		Progress: jobs.ChannelSink{Ch: events},
	})
	var paths []string
	for _, t := range targets {
		m.AddTarget(t)
	}
	for _, t := range m.Targets() {
		paths = append(paths, t.Path)
	}

	waitErr := make(chan error, 1)
	go func() {
		m.Analyze(ctx)
		waitErr <- m.Wait(ctx)
		close(events)
	}()

	program := tea.NewProgram(ui.NewProgressModel("owl check", paths, events), tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// keep jobs unblocked if the UI quit early
	go func() {
		for range events {
		}
	}()

	var err error
	select {
	case err = <-waitErr:
	default:
		// the UI was closed before the batch ended
		m.Shutdown()
		<-waitErr
		err = errInterrupted
	}
	if uiErr != nil {
		return m, uiErr
	}
	if err != nil {
		m.Shutdown()
	}
	return m, err
}
