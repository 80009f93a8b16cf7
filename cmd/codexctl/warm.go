package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"volos-codex/internal/queue"
	"volos-codex/services"
)

var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Re-extract corpus books whose cache entries expired",
	RunE:  runWarm,
}

func init() {
	warmCmd.Flags().Bool("async", false, "enqueue a warm task for the worker")
	rootCmd.AddCommand(warmCmd)
}

func runWarm(cmd *cobra.Command, args []string) error {
	async, _ := cmd.Flags().GetBool("async")

	if async {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		opt, err := queue.RedisConnOpt(cfg)
		if err != nil {
			return err
		}
		enqueuer := queue.NewEnqueuer(opt)
		defer enqueuer.Close()

		info, err := enqueuer.EnqueueWarm(cmd.Context())
		if err != nil {
			return fmt.Errorf("enqueue warm: %w", err)
		}
		fmt.Printf("queued warm pass (task %s)\n", info.ID)
		return nil
	}

	c, err := newCore(cmd.Context())
	if err != nil {
		return err
	}
	defer c.Close()

	warmer := services.NewCacheWarmer(c.extractor, c.cfg.CorpusCandidates(), 0, c.cfg.IndexTimeout, nil)
	report, err := warmer.WarmOnce(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Warmed %d books (%d pages), %d failed, %d skipped\n", report.Books, report.Pages, report.Failed, report.Skipped)
	return nil
}
