package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"volos-codex/internal/ai"
	"volos-codex/internal/config"
	"volos-codex/internal/logger"
	"volos-codex/services"
)

var (
	booksDir string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "codexctl",
	Short: "Inspect and prepare the rulebook corpus",
	Long: `codexctl extracts rulebook PDFs into the page cache, shows how books
are classified, builds the semantic index and runs searches against it
without going through the HTTP API.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&booksDir, "books", "", "rulebook directory (overrides BOOKS_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// core is the retrieval stack shared by the commands.
type core struct {
	cfg       *config.Config
	rdb       *redis.Client
	extractor *services.PDFExtractor
	index     *services.BookIndex
	search    *services.BookSearch
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if booksDir != "" {
		cfg.BooksDir = booksDir
	}
	logger.Logger = logger.New(os.Stderr, verbose)
	return cfg, nil
}

func newCore(ctx context.Context) (*core, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	embedder, err := ai.NewEmbedder(ctx, cfg, nil)
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	cache := services.NewPageCache(services.NewRedisStore(rdb), cfg.PageCacheTTL)
	extractor := services.NewPDFExtractor(services.NewLedongthucSource(), cache, logger.Logger, nil)
	index := services.NewBookIndex(extractor, embedder, services.BookIndexOptions{
		CorpusCandidates: cfg.CorpusCandidates(),
		Concurrency:      cfg.IndexConcurrency,
		Logger:           logger.Logger,
	})

	return &core{
		cfg:       cfg,
		rdb:       rdb,
		extractor: extractor,
		index:     index,
		search:    services.NewBookSearch(index, cfg.SearchTopK, logger.Logger, nil),
	}, nil
}

func (c *core) Close() error {
	return c.rdb.Close()
}
