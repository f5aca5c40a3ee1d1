package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cfgPkg "github.com/xhad/bookrag/pkg/config"
	"github.com/xhad/bookrag/pkg/ingest"
	"github.com/xhad/bookrag/pkg/logging"
	"github.com/xhad/bookrag/pkg/scraper"
)

func newIngestCmd(a *app) *cobra.Command {
	var (
		sitemapURL string
		collection string
		strict     bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Crawl the book sitemap and rebuild the vector collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config := a.config
			if sitemapURL != "" {
				config.Ingest.SitemapURL = sitemapURL
			}
			if collection != "" {
				config.VectorStore.Collection = collection
			}
			if err := validate(config.ValidateIngest()); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := runIngest(ctx, config)
			if err != nil {
				return err
			}
			printSummary(summary)
			return checkSummary(summary, strict)
		},
	}

	cmd.Flags().StringVar(&sitemapURL, "sitemap", "", "Sitemap URL to crawl (overrides SITEMAP_URL)")
	cmd.Flags().StringVar(&collection, "collection", "", "Collection to rebuild (overrides COLLECTION_NAME)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any chunk failed to store")
	return cmd
}

func runIngest(ctx context.Context, config *cfgPkg.Config) (ingest.Summary, error) {
	log := logging.New("ingest")

	fetcher := scraper.NewWithConfig(scraper.ScraperConfig{
		RateLimit:      config.Ingest.RateLimit,
		IgnorePatterns: config.Ingest.IgnorePatterns,
		Timeout:        config.Ingest.Timeout,
	})

	embedder, err := newEmbedder(config)
	if err != nil {
		return ingest.Summary{}, err
	}

	vectorStore, err := openStore(ctx, config)
	if err != nil {
		return ingest.Summary{}, err
	}
	defer vectorStore.Close()

	color.Blue("\nStarting ingestion pipeline for %s\n", config.Ingest.SitemapURL)
	bar := getProgressBar(-1, "📄 Ingesting pages...")

	pipeline := ingest.NewPipeline(ingest.PipelineConfig{
		ChunkSize: config.Ingest.ChunkSize,
		Progress: func(event ingest.Event) {
			if event.Index == 1 {
				bar.ChangeMax(event.Total)
			}
			if event.Skipped {
				log.WithError(event.Err).WithField("url", event.URL).Warn("page skipped")
			}
			_ = bar.Add(1)
		},
	}, fetcher, embedder, vectorStore)

	summary, err := pipeline.Run(ctx, config.Ingest.SitemapURL)
	_ = bar.Finish()
	fmt.Println()
	if err != nil {
		return summary, fmt.Errorf("ingestion failed: %w", err)
	}
	return summary, nil
}

func printSummary(summary ingest.Summary) {
	color.Green("✓ Found %d URLs in sitemap", summary.URLsFound)
	color.Green("✓ Stored %d chunks (last id %d)", summary.ChunksStored, summary.LastID)
	if summary.PagesSkipped > 0 {
		color.Yellow("! Skipped %d pages", summary.PagesSkipped)
	}
	if summary.ChunksFailed > 0 {
		color.Yellow("! Failed to store %d chunks", summary.ChunksFailed)
	}
}

// checkSummary turns a run with failed chunks into an error when strict.
func checkSummary(summary ingest.Summary, strict bool) error {
	if strict && summary.ChunksFailed > 0 {
		return fmt.Errorf("%d of %d chunks failed to store", summary.ChunksFailed, summary.ChunksFailed+summary.ChunksStored)
	}
	return nil
}
