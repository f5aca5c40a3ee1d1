package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/xhad/bookrag/internal/models"
	"github.com/xhad/bookrag/internal/types"
	"github.com/xhad/bookrag/pkg/processor"
)

// Summary reports the outcome of one ingestion run.
type Summary struct {
	URLsFound    int
	PagesSkipped int
	ChunksStored int
	ChunksFailed int
	LastID       int64
}

// Event is passed to a Progress callback after each page.
type Event struct {
	Index   int // 1-based position of the page in the sitemap
	Total   int
	URL     string
	Chunks  int
	Skipped bool
	Err     error
}

// Progress observes a run page by page.
type Progress func(Event)

type PipelineConfig struct {
	ChunkSize int
	Progress  Progress
}

// Pipeline crawls a sitemap and fills the vector store. Runs are sequential;
// a Pipeline must not run twice at the same time.
type Pipeline struct {
	config    PipelineConfig
	fetcher   types.Fetcher
	embedder  types.Embedder
	store     types.VectorStore
	processor processor.Processor
	log       *logrus.Entry
}

func NewPipeline(config PipelineConfig, fetcher types.Fetcher, embedder types.Embedder, store types.VectorStore) *Pipeline {
	p := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: config.ChunkSize})
	config.ChunkSize = p.ChunkSize()

	return &Pipeline{
		config:    config,
		fetcher:   fetcher,
		embedder:  embedder,
		store:     store,
		processor: p,
		log:       logrus.WithField("component", "ingest"),
	}
}

// Run ingests every page listed in the sitemap. Sitemap and collection
// failures abort the run; page and chunk failures are logged and counted.
func (p *Pipeline) Run(ctx context.Context, sitemapURL string) (Summary, error) {
	var summary Summary

	urls, err := p.fetcher.FetchSitemap(ctx, sitemapURL)
	if err != nil {
		return summary, fmt.Errorf("sitemap: %w", err)
	}
	summary.URLsFound = len(urls)
	p.log.WithFields(logrus.Fields{"sitemap": sitemapURL, "urls": len(urls)}).Info("sitemap loaded")

	if err := p.store.Recreate(ctx); err != nil {
		return summary, fmt.Errorf("recreate collection: %w", err)
	}

	var seq Sequence
	for i, pageURL := range urls {
		if err := ctx.Err(); err != nil {
			summary.LastID = seq.Last()
			return summary, err
		}

		event := Event{Index: i + 1, Total: len(urls), URL: pageURL}
		log := p.log.WithField("url", pageURL)

		doc, err := p.fetcher.FetchPage(ctx, pageURL)
		if err != nil {
			log.WithError(err).Warn("skipping page")
			summary.PagesSkipped++
			event.Skipped, event.Err = true, err
			p.report(event)
			continue
		}

		chunks := p.processor.Process(doc)
		for _, chunk := range chunks {
			chunk.ID = seq.Next()
			if err := p.storeChunk(ctx, chunk); err != nil {
				log.WithError(err).WithField("chunk_id", chunk.ID).Error("failed to store chunk")
				summary.ChunksFailed++
				event.Err = err
				continue
			}
			summary.ChunksStored++
		}
		event.Chunks = len(chunks)
		log.WithField("chunks", len(chunks)).Debug("page ingested")
		p.report(event)
	}

	summary.LastID = seq.Last()
	p.log.WithFields(logrus.Fields{
		"stored":  summary.ChunksStored,
		"failed":  summary.ChunksFailed,
		"skipped": summary.PagesSkipped,
		"last_id": summary.LastID,
	}).Info("ingestion complete")

	return summary, nil
}

func (p *Pipeline) storeChunk(ctx context.Context, chunk models.Chunk) error {
	vectors, err := p.embedder.EmbedDocuments(ctx, []string{chunk.Text})
	if err != nil {
		return err
	}
	if len(vectors) != 1 {
		return errors.New("embedder returned no vector")
	}
	return p.store.Upsert(ctx, []models.Point{models.NewPoint(chunk, vectors[0])})
}

func (p *Pipeline) report(event Event) {
	if p.config.Progress != nil {
		p.config.Progress(event)
	}
}
