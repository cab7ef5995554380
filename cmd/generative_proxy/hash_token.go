package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/generative-proxy/internal/config"
	"github.com/spf13/cobra"
)

var hashCost int

var hashTokenCmd = &cobra.Command{
	Use:   "hash-token <token>",
	Short: "Hash an admin shared secret",
	Long:  "Prints a bcrypt hash of the given shared secret for use as ADMIN_TOKEN_HASH, so the plain secret need not be stored in the environment.",
	Args:  cobra.ExactArgs(1),
	RunE:  runHashToken,
}

func init() {
	hashTokenCmd.Flags().IntVar(&hashCost, "cost", config.DefaultBcryptCost, "bcrypt cost")
	rootCmd.AddCommand(hashTokenCmd)
}

func runHashToken(cmd *cobra.Command, args []string) error {
	token := strings.TrimSpace(args[0])
	if token == "" {
		return errors.New("token cannot be empty")
	}

	hash, err := config.HashAdminToken(token, hashCost)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}
