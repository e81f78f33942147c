package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"owl/internal/trace"
)

type traceFlags struct {
	output    string
	level     string
	mode      string
	format    string
	ringSize  int
	heartbeat string
}

func readTraceFlags(cmd *cobra.Command) (traceFlags, error) {
	flags := cmd.Root().PersistentFlags()
	var tf traceFlags
	var err error
	for name, dst := range map[string]*string{
		"trace":        &tf.output,
		"trace-level":  &tf.level,
		"trace-mode":   &tf.mode,
		"trace-format": &tf.format,
	} {
		if *dst, err = flags.GetString(name); err != nil {
			return tf, fmt.Errorf("failed to get %s flag: %w", name, err)
		}
	}
	if tf.ringSize, err = flags.GetInt("trace-ring-size"); err != nil {
		return tf, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	return tf, nil
}

// setupTracing attaches a tracer and a session span to the command context.
// The returned cleanup ends the span and closes the tracer; when the command
// failed in --trace-mode=both it also dumps the kept events to stderr.
func setupTracing(cmd *cobra.Command) (func(error), error) {
	tf, err := readTraceFlags(cmd)
	if err != nil {
		return nil, err
	}
	heartbeat, err := cmd.Root().PersistentFlags().GetDuration("trace-heartbeat")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(tf.level)
	if err != nil {
		return nil, err
	}
	// --trace alone means phase-level events
	if level == trace.LevelOff && tf.output != "" {
		level = trace.LevelPhase
	}
	if level == trace.LevelOff {
		return func(error) {}, nil
	}
	mode, err := trace.ParseMode(tf.mode)
	if err != nil {
		return nil, err
	}
	format, err := trace.ParseFormat(tf.format)
	if err != nil {
		return nil, err
	}
	tracer, err := trace.New(trace.Config{
		Level:    level,
		Mode:     mode,
		Format:   format,
		Path:     tf.output,
		RingSize: tf.ringSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	ctx, span := trace.Begin(trace.WithTracer(cmd.Context(), tracer), trace.ScopeSession, cmd.CommandPath())
	cmd.SetContext(ctx)
	stopHeartbeat := trace.Heartbeat(tracer, heartbeat)

	return func(runErr error) {
		stopHeartbeat()
		detail := "ok"
		if runErr != nil {
			detail = runErr.Error()
		}
		span.End(detail)
		if ring := trace.RingOf(tracer); runErr != nil && mode == trace.ModeBoth && ring != nil {
			fmt.Fprintln(os.Stderr, "trace: last events before failure:")
			_ = ring.Dump(os.Stderr)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "trace: close error: %v\n", err)
		}
	}, nil
}
