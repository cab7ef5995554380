package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonathan/generative-proxy/internal/config"
	"github.com/jonathan/generative-proxy/internal/fetch"
)

// readDocument loads HTML from a local file or, when urlStr is set, from the network.
func readDocument(ctx context.Context, cfg *config.Config, path, urlStr string) (string, error) {
	switch {
	case path != "" && urlStr != "":
		return "", fmt.Errorf("--in and --url cannot be used together")
	case path != "":
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(content), nil
	case urlStr != "":
		opts := fetch.DefaultOptions()
		opts.Timeout = cfg.UpstreamTimeout()
		result, err := fetch.URL(ctx, urlStr, opts)
		if err != nil {
			return "", fmt.Errorf("failed to fetch %s: %w", urlStr, err)
		}
		return result.HTML, nil
	default:
		return "", fmt.Errorf("either --in or --url must be provided")
	}
}
