package main

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"owl/internal/cache"
	"owl/internal/driver"
	"owl/internal/frontend"
	"owl/internal/mir"
	"owl/internal/observ"
	"owl/internal/trace"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze --facts <file>",
	Short: "Analyze one crate's borrow facts",
	Long: `Analyze reads a fact file and writes one "analyzed" message per function to
stdout, followed by a "unit-checked" message. This is the worker protocol the
check and cursor commands consume.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("facts", "", "fact file of one crate")
	analyzeCmd.Flags().Bool("dump", false, "print the analyzed functions instead of worker messages")
	analyzeCmd.Flags().Bool("timings", false, "print phase timings to stderr")
	analyzeCmd.Flags().Int("jobs", 0, "bodies analyzed at once (0 uses the configured value)")
	_ = analyzeCmd.MarkFlagRequired("facts")
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	factsPath, err := cmd.Flags().GetString("facts")
	if err != nil {
		return err
	}
	dump, err := cmd.Flags().GetBool("dump")
	if err != nil {
		return err
	}
	timings, err := cmd.Flags().GetBool("timings")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	cf, err := frontend.LoadCrateFacts(factsPath)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(filepath.Dir(factsPath))
	if err != nil {
		return err
	}
	if jobs <= 0 {
		jobs = cfg.Analysis.Jobs
	}

	var backend cache.Backend
	cacheOpts, err := cfg.CacheOptions()
	if err == nil {
		backend, err = cache.Open(cacheOpts)
	}
	if err != nil {
		// analysis still works, only slower
		trace.Warn(ctx, trace.ScopeSession, "cache.open", err.Error())
		backend = nil
	}
	if backend != nil {
		defer backend.Close()
	}

	out := bufio.NewWriter(cmd.OutOrStdout())
	defer out.Flush()

	timer := observ.NewTimer()
	opts := driver.Options{
		Jobs:  jobs,
		Cache: backend,
		Root:  filepath.Dir(factsPath),
		Timer: timer,
	}
	if !dump {
		opts.Sink = messageSink(out)
	}

	report, err := driver.Run(ctx, cf, opts)
	if err != nil {
		return err
	}

	if dump {
		if err := mir.DumpWorkspace(out, report.Workspace); err != nil {
			return err
		}
	} else if err := writeMessage(out, frontend.Message{Reason: frontend.ReasonUnitChecked, Unit: cf.Crate, Total: 1}); err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	if !quiet(cmd) {
		warn := color.New(color.FgYellow)
		for _, skipped := range report.Skipped {
			fmt.Fprintf(errOut, "%s %v\n", warn.Sprint("skipped:"), skipped)
		}
	}
	if timings {
		fmt.Fprintf(errOut, "%s: %d analyzed, %d cached\n", report.Crate, report.Analyzed, report.Cached)
		fmt.Fprint(errOut, timer.Summary())
	}
	return nil
}

// messageSink streams every function as an analyzed message.
func messageSink(w io.Writer) driver.Sink {
	return func(crate, path string, fn mir.Function) error {
		return writeMessage(w, frontend.Message{
			Reason:    frontend.ReasonAnalyzed,
			Workspace: frontend.Fragment(crate, path, fn),
		})
	}
}

func writeMessage(w io.Writer, msg frontend.Message) error {
	line, err := frontend.EncodeMessage(msg)
	if err != nil {
		return err
	}
	_, err = w.Write(line)
	return err
}
