package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"owl/internal/frontend"
)

// Stream is a running front end.
type Stream interface {
	Next(ctx context.Context) (frontend.Message, bool)
	Wait() frontend.ExitStatus
	Close() error
}

// Frontend starts the worker that analyzes one target.
type Frontend interface {
	Start(ctx context.Context, t Target) (Stream, error)
}

// ErrNoCommand is returned for project targets when no build command is
// configured.
var ErrNoCommand = errors.New("jobs: no front-end command configured")

// TargetPlaceholder is replaced by the target path in Command arguments.
const TargetPlaceholder = "{target}"

// ProcessFrontend spawns worker processes. Fact files are analyzed by
// running "owl analyze --facts <file>"; project directories run Command
// inside the directory.
type ProcessFrontend struct {
	// Self is the owl executable. Empty means os.Executable.
	Self string
	// Command is the build-orchestration command line.
	Command []string
	// Args are appended to Command, e.g. --all-targets.
	Args []string
	// Env is passed to every worker on top of the current environment.
	Env         []string
	ChannelSize int
	Stderr      io.Writer
}

// Start implements Frontend.
func (f *ProcessFrontend) Start(ctx context.Context, t Target) (Stream, error) {
	cmd, err := f.command(t)
	if err != nil {
		return nil, err
	}
	s, err := frontend.Start(ctx, cmd, frontend.StreamOptions{ChannelSize: f.ChannelSize, Stderr: f.Stderr})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (f *ProcessFrontend) command(t Target) (frontend.Command, error) {
	cmd := frontend.Command{Env: f.Env}
	switch t.Kind {
	case TargetFacts:
		self := f.Self
		if self == "" {
			exe, err := os.Executable()
			if err != nil {
				return frontend.Command{}, fmt.Errorf("jobs: locate owl executable: %w", err)
			}
			self = exe
		}
		cmd.Path = self
		cmd.Args = []string{"analyze", "--facts", t.Path}
	default:
		if len(f.Command) == 0 {
			return frontend.Command{}, ErrNoCommand
		}
		cmd.Path = f.Command[0]
		for _, arg := range f.Command[1:] {
			cmd.Args = append(cmd.Args, strings.ReplaceAll(arg, TargetPlaceholder, t.Path))
		}
		cmd.Args = append(cmd.Args, f.Args...)
		cmd.Dir = t.Path
	}
	return cmd, nil
}
