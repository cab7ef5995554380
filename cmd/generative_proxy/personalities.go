package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jonathan/generative-proxy/internal/schemas"
	"github.com/jonathan/generative-proxy/internal/types"
	"github.com/spf13/cobra"
)

var personalitiesCmd = &cobra.Command{
	Use:   "personalities",
	Short: "Manage the personalities in the configured store",
}

var personalitiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List personalities",
	Args:  cobra.NoArgs,
	RunE:  runPersonalitiesList,
}

var personalitiesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a personality",
	Args:  cobra.ExactArgs(1),
	RunE:  runPersonalitiesDelete,
}

var personalitiesImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace all personalities from a JSON file",
	Long:  `Validates a {"personalities": [...]} file against the admin schema and replaces the stored list.`,
	Args:  cobra.NoArgs,
	RunE:  runPersonalitiesImport,
}

var personalitiesImportFile string

func init() {
	personalitiesImportCmd.Flags().StringVarP(&personalitiesImportFile, "file", "f", "", "Path to the personalities JSON file (required)")
	if err := personalitiesImportCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}

	personalitiesCmd.AddCommand(personalitiesListCmd, personalitiesDeleteCmd, personalitiesImportCmd)
	rootCmd.AddCommand(personalitiesCmd)
}

func runPersonalitiesList(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	settings, err := openSettings(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = settings.Close() }()

	list, err := settings.Personalities(ctx)
	if err != nil {
		return fmt.Errorf("failed to read personalities: %w", err)
	}
	printPersonalities(cmd, list)
	return nil
}

func runPersonalitiesDelete(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	settings, err := openSettings(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = settings.Close() }()

	list, err := settings.DeletePersonality(ctx, args[0])
	if err != nil {
		return err
	}
	printPersonalities(cmd, list)
	return nil
}

func runPersonalitiesImport(cmd *cobra.Command, _ []string) error {
	if err := schemas.ValidateFile(schemas.Personalities, personalitiesImportFile); err != nil {
		return err
	}
	content, err := os.ReadFile(personalitiesImportFile)
	if err != nil {
		return fmt.Errorf("failed to read personalities file: %w", err)
	}
	var req types.ReplacePersonalitiesRequest
	if err := json.Unmarshal(content, &req); err != nil {
		return fmt.Errorf("failed to unmarshal personalities JSON: %w", err)
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	settings, err := openSettings(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = settings.Close() }()

	list, err := settings.ReplacePersonalities(ctx, req.Personalities)
	if err != nil {
		return fmt.Errorf("failed to store personalities: %w", err)
	}
	printPersonalities(cmd, list)
	return nil
}

func printPersonalities(cmd *cobra.Command, list []types.Personality) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME")
	for _, p := range list {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", p.ID, p.Name)
	}
	_ = tw.Flush()
}
