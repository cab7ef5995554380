package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonathan/generative-proxy/internal/observability"
	"github.com/spf13/cobra"
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite",
	Short: "Rewrite the opted-in regions of one HTML document",
	Long: "Runs the rewriting pipeline offline on a local file or a fetched page, using the main prompt " +
		"and personalities from the configured store and the configured provider chain.",
	RunE: runRewrite,
}

var (
	rewriteInputFile   string
	rewriteURL         string
	rewriteOutputFile  string
	rewritePersonality string
	rewriteVerbose     bool
)

func init() {
	rewriteCmd.Flags().StringVarP(&rewriteInputFile, "in", "i", "", "Path to the HTML file to rewrite")
	rewriteCmd.Flags().StringVarP(&rewriteURL, "url", "u", "", "URL of a page to fetch and rewrite")
	rewriteCmd.Flags().StringVarP(&rewriteOutputFile, "out", "o", "", "Path to the output HTML file (required)")
	rewriteCmd.Flags().StringVarP(&rewritePersonality, "personality", "p", "", "Personality id (defaults to the first personality)")
	rewriteCmd.Flags().BoolVarP(&rewriteVerbose, "verbose", "v", false, "Print the rewrite plan and provider outcome")

	if err := rewriteCmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}

	rootCmd.AddCommand(rewriteCmd)
}

func runRewrite(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	doc, err := readDocument(ctx, cfg, rewriteInputFile, rewriteURL)
	if err != nil {
		return err
	}

	settings, err := openSettings(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = settings.Close() }()

	snap, err := settings.Snapshot(ctx)
	if err != nil {
		logger.Warn("failed to read settings, using defaults", "error", err)
	}
	personality, found := snap.Select(rewritePersonality)
	if rewritePersonality != "" && !found {
		return fmt.Errorf("unknown personality %q", rewritePersonality)
	}

	pipeline, chain, err := buildPipeline(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() { _ = chain.Close() }()

	var printer *observability.Printer
	if rewriteVerbose {
		printer = observability.NewPrinter(cmd.OutOrStdout())
		printer.PrintPersonality(personality)
		printer.PrintPlan(pipeline.Plan(doc))
	}

	result, err := pipeline.RewriteDocument(ctx, doc, snap.MainPrompt, personality)
	if err != nil {
		return fmt.Errorf("failed to rewrite document: %w", err)
	}

	if err := os.WriteFile(rewriteOutputFile, []byte(result.HTML), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	if printer != nil {
		printer.PrintResult(result)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Personality: %s\n", personality.ID)
	_, _ = fmt.Fprintf(out, "Containers: %d, fragments: %d\n", result.Containers, result.Fragments)
	if result.Winner != nil {
		_, _ = fmt.Fprintf(out, "Provider: %s (%s)\n", result.Winner.Provider, result.Winner.Model)
	}
	for _, e := range result.Errors {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "  error: %s\n", e)
	}
	_, _ = fmt.Fprintf(out, "Customized: %t\n", result.Changed)
	_, _ = fmt.Fprintf(out, "Wrote %s\n", rewriteOutputFile)
	return nil
}
