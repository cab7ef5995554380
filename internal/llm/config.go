package llm

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/jonathan/generative-proxy/internal/config"
)

// Chain is the ordered list of configured backends.
type Chain struct {
	backends []Backend
	closers  []io.Closer
}

// NewChain creates a chain that tries backends in the given order.
func NewChain(backends ...Backend) *Chain {
	return &Chain{backends: backends}
}

// Backends returns the backends in try order.
func (c *Chain) Backends() []Backend {
	if c == nil {
		return nil
	}
	return c.backends
}

// Len is the number of configured backends.
func (c *Chain) Len() int {
	return len(c.Backends())
}

// Close releases backends that hold resources.
func (c *Chain) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BuildChain creates the chain from configuration. Only backends with credentials are
// included, in the order Cerebras, Cloudflare Workers AI, Gemini. An empty chain is valid.
func BuildChain(ctx context.Context, cfg *config.Config, client *http.Client) (*Chain, error) {
	chain := &Chain{}

	if cfg.CerebrasAPIKey != "" {
		p, err := NewCerebrasProvider(cfg.CerebrasAPIKey, cfg.CerebrasBaseURL, cfg.CerebrasModel, client)
		if err != nil {
			return nil, err
		}
		chain.backends = append(chain.backends, Backend{Name: NameCerebras, Model: cfg.CerebrasModel, Provider: p})
	}

	if cfg.CloudflareAccountID != "" && cfg.CloudflareAPIToken != "" {
		p, err := NewCloudflareProvider(cfg.CloudflareAccountID, cfg.CloudflareAPIToken, cfg.CloudflareBaseURL, cfg.CloudflareModel, client)
		if err != nil {
			return nil, err
		}
		chain.backends = append(chain.backends, Backend{Name: NameCloudflare, Model: cfg.CloudflareModel, Provider: p})
	}

	if cfg.GeminiAPIKey != "" {
		p, err := NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			_ = chain.Close()
			return nil, err
		}
		chain.backends = append(chain.backends, Backend{Name: NameGemini, Model: cfg.GeminiModel, Provider: p})
		chain.closers = append(chain.closers, p)
	}

	return chain, nil
}
