package main

import (
	"context"
	"fmt"

	"github.com/jonathan/generative-proxy/internal/fetch"
	"github.com/jonathan/generative-proxy/internal/markup"
	"github.com/jonathan/generative-proxy/internal/rewriting"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List the containers and leaf fragments the proxy would rewrite",
	Long: "Locates opted-in containers and their leaf fragments without calling a provider, and " +
		"cross-checks the container count against a full DOM parse.",
	RunE: runInspect,
}

var (
	inspectInputFile string
	inspectURL       string
)

func init() {
	inspectCmd.Flags().StringVarP(&inspectInputFile, "in", "i", "", "Path to the HTML file to inspect")
	inspectCmd.Flags().StringVarP(&inspectURL, "url", "u", "", "URL of a page to fetch and inspect")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	doc, err := readDocument(context.Background(), cfg, inspectInputFile, inspectURL)
	if err != nil {
		return err
	}

	pipeline := rewriting.NewPipeline(newLocator(cfg), markup.NewExtractor(nil), nil, logger)
	containers, leaves := pipeline.Plan(doc)

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Marker: %s (%s locator)\n", cfg.MarkerClass, cfg.Locator)
	_, _ = fmt.Fprintf(out, "Containers: %d\n", len(containers))
	for i, c := range containers {
		_, _ = fmt.Fprintf(out, "  [%d] bytes %d-%d\n", i, c.InnerStart, c.InnerEnd)
	}
	_, _ = fmt.Fprintf(out, "Fragments: %d\n", len(leaves))
	for i, leaf := range leaves {
		_, _ = fmt.Fprintf(out, "  [%d] <%s> %q\n", i, leaf.TagName, leaf.Text)
	}

	marked, err := fetch.FindMarked(doc, cfg.MarkerClass)
	if err != nil {
		return err
	}
	if len(marked) != len(containers) {
		_, _ = fmt.Fprintf(out, "Warning: DOM parse found %d marked elements but %d containers were located\n",
			len(marked), len(containers))
		for _, el := range marked {
			_, _ = fmt.Fprintf(out, "  <%s> %q\n", el.Tag, el.Text)
		}
	}
	return nil
}
