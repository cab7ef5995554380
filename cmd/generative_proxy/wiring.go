package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jonathan/generative-proxy/internal/config"
	"github.com/jonathan/generative-proxy/internal/llm"
	"github.com/jonathan/generative-proxy/internal/logging"
	"github.com/jonathan/generative-proxy/internal/markup"
	"github.com/jonathan/generative-proxy/internal/rewriting"
	"github.com/jonathan/generative-proxy/internal/store"
)

// loadConfig reads the environment and the optional --config file.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, logging.New(logging.ParseLevel(cfg.LogLevel)), nil
}

// newLocator returns the container locator selected by cfg.Locator.
func newLocator(cfg *config.Config) markup.Locator {
	if cfg.Locator == config.LocatorTokenizer {
		return markup.NewTokenizerLocator(cfg.MarkerClass)
	}
	return markup.NewRegexLocator(cfg.MarkerClass)
}

// buildPipeline wires the provider chain into a document pipeline. The caller closes the
// returned chain.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger, observer rewriting.Observer) (*rewriting.Pipeline, *llm.Chain, error) {
	chain, err := llm.BuildChain(ctx, cfg, &http.Client{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build provider chain: %w", err)
	}
	if chain.Len() == 0 {
		logger.Warn("no AI provider configured, pages will be served unchanged")
	}

	opts := []rewriting.Option{
		rewriting.WithAttemptTimeout(cfg.ProviderTimeout()),
		rewriting.WithLogger(logger),
	}
	if observer != nil {
		opts = append(opts, rewriting.WithObserver(observer))
	}
	rewriter := rewriting.NewRewriter(chain, opts...)
	return rewriting.NewPipeline(newLocator(cfg), markup.NewExtractor(nil), rewriter, logger), chain, nil
}

// openSettings opens the configured store backend.
func openSettings(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store.Settings, error) {
	kv, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreBackend, err)
	}
	return store.NewSettings(kv, store.WithLogger(logger)), nil
}
