package main

import (
	"context"
	"fmt"

	"github.com/jonathan/generative-proxy/internal/metrics"
	"github.com/jonathan/generative-proxy/internal/server"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the proxy server",
	Long:  `Start an HTTP server that proxies the origin site, rewrites opted-in regions and exposes the admin API under /api/.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	ctx := context.Background()
	m := metrics.New()

	pipeline, chain, err := buildPipeline(ctx, cfg, logger, m)
	if err != nil {
		return err
	}
	defer func() { _ = chain.Close() }()

	settings, err := openSettings(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = settings.Close() }()

	srv, err := server.New(cfg, server.Deps{
		Settings: settings,
		Pipeline: pipeline,
		Metrics:  m,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("proxy configured",
		"origin", cfg.OriginBaseURL,
		"store", cfg.StoreBackend,
		"providers", chain.Len(),
		"locator", cfg.Locator)
	return srv.Start()
}
