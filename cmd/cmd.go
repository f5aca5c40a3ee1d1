package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/xhad/bookrag/internal/types"
	"github.com/xhad/bookrag/pkg/classifier"
	cfgPkg "github.com/xhad/bookrag/pkg/config"
	"github.com/xhad/bookrag/pkg/llm"
	"github.com/xhad/bookrag/pkg/retrieval"
	"github.com/xhad/bookrag/pkg/store"
)

// validate folds validation errors into one error listing every field.
func validate(errs []cfgPkg.ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	joined := make([]error, 0, len(errs)+1)
	joined = append(joined, errors.New("invalid configuration:"))
	for _, e := range errs {
		joined = append(joined, fmt.Errorf("  %w", e))
	}
	return errors.Join(joined...)
}

func newEmbedder(config *cfgPkg.Config) (*llm.Embedder, error) {
	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		APIKey:  config.Embedding.APIKey,
		Model:   config.Embedding.Model,
		BaseURL: config.Embedding.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	return embedder, nil
}

func openStore(ctx context.Context, config *cfgPkg.Config) (types.VectorStore, error) {
	vectorStore, err := store.New(ctx, store.VectorStoreConfig{
		Backend:     config.VectorStore.Backend,
		URL:         config.VectorStore.URL,
		APIKey:      config.VectorStore.APIKey,
		ConnString:  config.VectorStore.DatabaseURL,
		Collection:  config.VectorStore.Collection,
		VectorDim:   config.Embedding.Dimensions,
		SearchLimit: config.Retrieval.TopK,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	return vectorStore, nil
}

// newAgent wires embedder, store, retrieval tool and classifier into an
// answering agent. The caller closes the returned store.
func newAgent(ctx context.Context, config *cfgPkg.Config) (*llm.Agent, *classifier.Classifier, types.VectorStore, error) {
	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, nil, nil, err
	}

	vectorStore, err := openStore(ctx, config)
	if err != nil {
		return nil, nil, nil, err
	}

	retriever := retrieval.NewWithConfig(retrieval.RetrieverConfig{TopK: config.Retrieval.TopK}, embedder, vectorStore)
	guard := classifier.Default()

	agent, err := llm.NewWithConfig(llm.ChatConfig{
		Provider:    config.LLM.Provider,
		Model:       config.LLM.Model,
		APIKey:      config.LLM.APIKey,
		BaseURL:     config.LLM.BaseURL,
		Temperature: *config.LLM.Temperature,
		MaxTokens:   config.LLM.MaxTokens,
		MaxTurns:    config.LLM.MaxTurns,
	}, retriever, guard)
	if err != nil {
		vectorStore.Close()
		return nil, nil, nil, fmt.Errorf("failed to initialize chat engine: %w", err)
	}

	return agent, guard, vectorStore, nil
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("pages"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}
