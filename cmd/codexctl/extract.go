package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"volos-codex/internal/config"
	"volos-codex/internal/queue"
	"volos-codex/services"
)

var extractCmd = &cobra.Command{
	Use:   "extract [book.pdf...]",
	Short: "Extract books into the page cache",
	Long: `Extracts the given books, or every book in the corpus directory, into
the page cache. With --async the work is queued for the worker instead.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().Bool("async", false, "enqueue extraction tasks instead of running them")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	async, _ := cmd.Flags().GetBool("async")

	if async {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		paths, err := bookPaths(cfg, args)
		if err != nil {
			return err
		}
		return enqueueExtract(ctx, cfg, paths)
	}

	c, err := newCore(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	paths, err := bookPaths(c.cfg, args)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("Extracting books"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
	)

	failed := 0
	for _, path := range paths {
		bar.Describe(filepath.Base(path))
		pages, err := c.extractor.ExtractPages(ctx, path)
		_ = bar.Add(1)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "\n%s: %v\n", filepath.Base(path), err)
			continue
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "\n%s: %d pages\n", filepath.Base(path), len(pages))
		}
	}
	_ = bar.Finish()

	fmt.Printf("\nExtracted %d of %d books\n", len(paths)-failed, len(paths))
	if failed > 0 {
		return fmt.Errorf("%d books failed to extract", failed)
	}
	return nil
}

func enqueueExtract(ctx context.Context, cfg *config.Config, paths []string) error {
	opt, err := queue.RedisConnOpt(cfg)
	if err != nil {
		return err
	}
	enqueuer := queue.NewEnqueuer(opt)
	defer enqueuer.Close()

	for _, path := range paths {
		info, err := enqueuer.EnqueueExtract(ctx, path)
		if err != nil {
			return fmt.Errorf("enqueue %s: %w", path, err)
		}
		fmt.Printf("queued %s (task %s)\n", filepath.Base(path), info.ID)
	}
	return nil
}

// bookPaths returns args, or every PDF in the resolved corpus directory.
func bookPaths(cfg *config.Config, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	dir := services.ResolveCorpusDir(cfg.CorpusCandidates())
	files, err := services.ListBooks(dir)
	if err != nil {
		return nil, fmt.Errorf("listing books in %s: %w", dir, err)
	}

	paths := make([]string, 0, len(files))
	for _, name := range files {
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths, nil
}
