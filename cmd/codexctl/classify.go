package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"volos-codex/services"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [book.pdf...]",
	Short: "Show the rule system each book is filed under",
	RunE:  runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	paths, err := bookPaths(cfg, args)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BOOK\tSYSTEM")
	for _, path := range paths {
		fmt.Fprintf(w, "%s\t%s\n", filepath.Base(path), services.ClassifySystem(path))
	}
	return w.Flush()
}
