package main

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"owl/internal/cache"
	"owl/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the analysis cache",
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Remove every cached analysis result",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheClean,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats [path]",
	Short: "Print the number of cached functions per crate",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheStats,
}

func init() {
	cacheCmd.AddCommand(cacheCleanCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
}

func openCache(args []string) (cache.Backend, config.Config, error) {
	start := "."
	if len(args) > 0 && args[0] != "" {
		start = args[0]
	}
	cfg, err := loadConfig(configDir(start))
	if err != nil {
		return nil, config.Config{}, err
	}
	// the commands work on the store even when analysis runs uncached
	store := cfg
	store.Cache.Enabled = true
	opts, err := store.CacheOptions()
	if err != nil {
		return nil, config.Config{}, err
	}
	b, err := cache.Open(opts)
	if err != nil {
		return nil, config.Config{}, err
	}
	return b, cfg, nil
}

func runCacheClean(cmd *cobra.Command, args []string) error {
	b, _, err := openCache(args)
	if err != nil {
		return err
	}
	defer b.Close()
	if err := b.Drop(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	if !quiet(cmd) {
		fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
	}
	return nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	b, cfg, err := openCache(args)
	if err != nil {
		return err
	}
	defer b.Close()
	lister, ok := b.(cache.Lister)
	if !ok {
		return errors.New("cache backend cannot list its contents")
	}
	crates, err := lister.Crates()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "backend %s, enabled %t\n", cfg.Cache.Backend, cfg.Cache.Enabled)
	total := 0
	for _, name := range slices.Sorted(maps.Keys(crates)) {
		fmt.Fprintf(out, "  %-30s %6d\n", name, crates[name])
		total += crates[name]
	}
	fmt.Fprintf(out, "  %-30s %6d\n", "total", total)
	return nil
}
