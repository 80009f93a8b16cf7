package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"volos-codex/models"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find the rulebook pages closest to a query",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().String("system", "DnD5", "rule system to search (DnD2024, DnD5, Daggerheart, IronKingdoms)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	systemName, _ := cmd.Flags().GetString("system")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	system, err := models.ParseRuleSystem(systemName)
	if err != nil {
		return err
	}

	c, err := newCore(cmd.Context())
	if err != nil {
		return err
	}
	defer c.Close()

	passages, err := c.search.Search(cmd.Context(), args[0], system)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(models.SearchResponse{System: system, Passages: passages})
	}

	if len(passages) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	for i, passage := range passages {
		fmt.Printf("--- %d ---\n%s\n\n", i+1, passage)
	}
	return nil
}
