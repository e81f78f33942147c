package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var cursorCmd = &cobra.Command{
	Use:   "cursor <file> <line> <character>",
	Short: "Show the decorations of the variable at a position",
	Long: `Cursor analyzes the target, then selects the variable at the zero-based
line and character of file and prints its decorations. The target defaults to
the project root of file.`,
	Args: cobra.ExactArgs(3),
	RunE: runCursor,
}

func init() {
	cursorCmd.Flags().String("target", "", "project directory or fact file to analyze")
	cursorCmd.Flags().Bool("json", false, "print the raw result")
}

func runCursor(cmd *cobra.Command, args []string) error {
	file := args[0]
	line, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid line %q: %w", args[1], err)
	}
	char, err := strconv.ParseUint(args[2], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid character %q: %w", args[2], err)
	}
	target, err := cmd.Flags().GetString("target")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	start := configDir(file)
	if target != "" {
		start = configDir(target)
	}
	cfg, err := loadConfig(start)
	if err != nil {
		return err
	}
	if target == "" {
		target = cfg.Root
	}

	m, err := analyzeTargets(cmd.Context(), cfg, []string{target}, false, nil)
	if err != nil {
		return err
	}
	res, err := m.Cursor(file, uint32(line), uint32(char))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	if len(res.Decorations) == 0 {
		fmt.Fprintf(out, "no variable selected (%s)\n", res.Status)
		return nil
	}
	text, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	renderDecorations(out, string(text), res.Decorations)
	return nil
}
