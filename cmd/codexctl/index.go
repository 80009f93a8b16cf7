package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the semantic index and print its statistics",
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().Bool("json", false, "output statistics as JSON")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	c, err := newCore(cmd.Context())
	if err != nil {
		return err
	}
	defer c.Close()

	start := time.Now()
	if err := c.index.EnsureIndexed(cmd.Context()); err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	stats := c.index.Stats()

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Printf("Indexed %d pages from %s in %s\n", stats.Pages, stats.CorpusDir, time.Since(start).Round(time.Millisecond))
	systems := make([]string, 0, len(stats.PerSystem))
	for system := range stats.PerSystem {
		systems = append(systems, system)
	}
	sort.Strings(systems)
	for _, system := range systems {
		fmt.Printf("  %-14s %d\n", system, stats.PerSystem[system])
	}
	return nil
}
