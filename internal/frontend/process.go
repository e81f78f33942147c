package frontend

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"owl/internal/trace"
)

// DefaultChannelSize bounds the number of decoded messages waiting for the
// consumer.
const DefaultChannelSize = 1024

const maxLineSize = 256 << 20

// Command describes a worker process to spawn.
type Command struct {
	Path string
	Args []string
	Dir  string
	Env  []string // appended to the current environment
}

func (c Command) String() string {
	return fmt.Sprintf("%s %v", c.Path, c.Args)
}

// StreamOptions configures Start.
type StreamOptions struct {
	ChannelSize int
	Stderr      io.Writer // nil discards the worker's stderr
}

// ExitStatus is how a worker process ended. Abnormal is set when it was
// killed by a signal or could not be waited for; a clean non-zero exit only
// sets Code.
type ExitStatus struct {
	Code     int
	Abnormal bool
	Err      error
}

// Success reports a clean zero exit.
func (s ExitStatus) Success() bool {
	return s.Err == nil && !s.Abnormal && s.Code == 0
}

func (s ExitStatus) String() string {
	switch {
	case s.Success():
		return "exit 0"
	case s.Abnormal:
		return fmt.Sprintf("abnormal termination: %v", s.Err)
	default:
		return fmt.Sprintf("exit %d", s.Code)
	}
}

// Stream is a running worker. A background reader decodes its stdout into a
// bounded channel; Next receives from it.
type Stream struct {
	cmd    *exec.Cmd
	stdout io.Closer
	events chan Message
	stop   chan struct{}
	done   chan struct{}

	closeOnce sync.Once
	status    ExitStatus
	skipped   atomic.Int64
}

// Start spawns the worker and begins reading its output. The context only
// supplies trace values: the process lives until it exits or Close is called.
func Start(ctx context.Context, c Command, opts StreamOptions) (*Stream, error) {
	if opts.ChannelSize <= 0 {
		opts.ChannelSize = DefaultChannelSize
	}
	// #nosec G204 -- the command comes from configuration
	cmd := exec.Command(c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Stderr = opts.Stderr
	setProcessGroup(cmd)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("frontend: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("frontend: start %s: %w", c.Path, err)
	}

	s := &Stream{
		cmd:    cmd,
		stdout: stdout,
		events: make(chan Message, opts.ChannelSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.read(context.WithoutCancel(ctx), stdout)
	return s, nil
}

func (s *Stream) read(ctx context.Context, r io.Reader) {
	defer close(s.done)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
loop:
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		msg, err := DecodeMessage(line)
		if err != nil {
			s.skipped.Add(1)
			if !errors.Is(err, ErrUnknownReason) {
				trace.Point(ctx, trace.ScopeJob, "frontend.skip", err.Error())
			}
			continue
		}
		select {
		case s.events <- msg:
		case <-s.stop:
			break loop
		}
	}
	scanErr := sc.Err()
	close(s.events)

	// keep the pipe drained so the worker never blocks on a full buffer
	_, _ = io.Copy(io.Discard, r)

	s.status = exitStatus(s.cmd.Wait())
	if scanErr != nil && !errors.Is(scanErr, os.ErrClosed) && s.status.Success() {
		s.status = ExitStatus{Code: 0, Abnormal: true, Err: fmt.Errorf("frontend: read output: %w", scanErr)}
	}
}

func exitStatus(err error) ExitStatus {
	if err == nil {
		return ExitStatus{}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		// -1 means the process was terminated by a signal
		return ExitStatus{Code: code, Abnormal: code < 0, Err: err}
	}
	return ExitStatus{Code: -1, Abnormal: true, Err: err}
}

// Next returns the next message, racing the receive against ctx. ok is false
// once the stream is exhausted or ctx is done.
func (s *Stream) Next(ctx context.Context) (Message, bool) {
	select {
	case <-ctx.Done():
		return Message{}, false
	case msg, ok := <-s.events:
		return msg, ok
	}
}

// Wait blocks until the worker has exited and its output was consumed or
// discarded.
func (s *Stream) Wait() ExitStatus {
	<-s.done
	return s.status
}

// Skipped returns how many output lines were not owl messages.
func (s *Stream) Skipped() int64 {
	return s.skipped.Load()
}

// Close stops reading, kills the worker and everything it spawned if still
// running, and reaps it. A descendant that left the process group cannot
// hold Close up: the read side of the pipe is closed as well. It is safe to
// call more than once and after Wait.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		select {
		case <-s.done:
			return
		default:
		}
		killProcessGroup(s.cmd)
		_ = s.stdout.Close()
	})
	<-s.done
	return nil
}
