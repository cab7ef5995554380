package rewriting

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonathan/generative-proxy/internal/logging"
	"github.com/jonathan/generative-proxy/internal/markup"
	"github.com/jonathan/generative-proxy/internal/types"
)

// DocumentResult is the outcome of rewriting one document.
type DocumentResult struct {
	HTML       string
	Changed    bool // HTML differs from the input
	Containers int
	Fragments  int
	Errors     []string
	Winner     *Outcome
}

// Pipeline runs locate, extract, rewrite and splice over a document.
type Pipeline struct {
	locator   markup.Locator
	extractor *markup.Extractor
	rewriter  *Rewriter
	logger    *slog.Logger
}

// NewPipeline creates a pipeline. A nil locator uses markup.NewRegexLocator with the default
// marker; a nil extractor uses the default leaf tags.
func NewPipeline(locator markup.Locator, extractor *markup.Extractor, rewriter *Rewriter, logger *slog.Logger) *Pipeline {
	if locator == nil {
		locator = markup.NewRegexLocator(markup.DefaultMarkerClass)
	}
	if extractor == nil {
		extractor = markup.NewExtractor(nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{locator: locator, extractor: extractor, rewriter: rewriter, logger: logger}
}

// Plan locates containers and extracts their leaves without calling a provider.
func (p *Pipeline) Plan(doc string) ([]markup.Container, []markup.Leaf) {
	containers := p.locator.Locate(doc)
	var leaves []markup.Leaf
	for _, c := range containers {
		leaves = append(leaves, p.extractor.Extract(doc, c)...)
	}
	return containers, leaves
}

// RewriteDocument rewrites every leaf fragment of every container in one batch. Documents
// without containers or without non-empty fragments are returned unchanged and no provider
// is called.
func (p *Pipeline) RewriteDocument(ctx context.Context, doc, mainPrompt string, personality types.Personality) (DocumentResult, error) {
	result := DocumentResult{HTML: doc}

	containers, leaves := p.Plan(doc)
	result.Containers = len(containers)
	result.Fragments = len(leaves)
	if len(leaves) == 0 {
		return result, nil
	}

	items := make([]string, len(leaves))
	for i, leaf := range leaves {
		items[i] = leaf.Inner
	}

	batch := p.rewriter.RewriteBatch(ctx, GenerationRequest{
		MainPrompt:  mainPrompt,
		Personality: personality,
		Items:       items,
	})
	result.Errors = batch.Errors
	result.Winner = batch.Winner
	if !batch.Rewritten {
		return result, nil
	}

	edits := make([]markup.Edit, len(leaves))
	for i, leaf := range leaves {
		edits[i] = markup.EditFromLeaf(leaf, batch.Texts[i])
	}

	out, err := markup.Splice(doc, edits)
	if err != nil {
		return result, fmt.Errorf("failed to splice rewritten fragments: %w", err)
	}

	result.HTML = out
	result.Changed = out != doc
	p.logger.Debug("document rewritten",
		"containers", result.Containers,
		"fragments", result.Fragments,
		"provider", batch.Winner.Provider)
	return result, nil
}
