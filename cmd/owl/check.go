package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"owl/internal/jobs"
)

var checkCmd = &cobra.Command{
	Use:   "check [path...]",
	Short: "Analyze projects or fact files and report the result",
	Long: `Check registers every path as a target, runs one analysis batch and waits
for it. It fails when no file was analyzed.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"."}
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	mode, err := parseSwitch("ui", uiFlag)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(configDir(args[0]))
	if err != nil {
		return err
	}

	useUI := mode.enabled(os.Stdout) && !quiet(cmd)
	progress := cmd.ErrOrStderr()
	if quiet(cmd) {
		progress = nil
	}
	m, err := analyzeTargets(cmd.Context(), cfg, args, useUI, progress)
	if err != nil {
		return err
	}

	ws := m.Workspace()
	out := cmd.OutOrStdout()
	for _, t := range m.Targets() {
		st, err := m.TargetStatus(t.Path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s\n", statusColor(st).Sprintf("%-10s", st), t.Path)
	}
	if !m.HasResult() {
		return errors.New("no file was analyzed")
	}
	if !quiet(cmd) {
		fmt.Fprintf(out, "%s %d files, %d functions\n", color.New(color.Bold).Sprint("analyzed"), ws.FileCount(), ws.FunctionCount())
	}
	return nil
}

func statusColor(st jobs.Status) *color.Color {
	switch st {
	case jobs.StatusFinished:
		return color.New(color.FgGreen)
	case jobs.StatusError:
		return color.New(color.FgRed, color.Bold)
	case jobs.StatusAnalyzing:
		return color.New(color.FgCyan)
	default:
		return color.New(color.Faint)
	}
}
