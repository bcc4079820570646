// Package cli implements contractctl, a command line front end for the contract API.
package cli

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/akolanti/ContractIntelAPI/internal/client"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	timeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "contractctl",
	Short:         "Ingest, query and audit contracts through the contract API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	defaultServer := os.Getenv("CONTRACT_API_URL")
	if defaultServer == "" {
		defaultServer = "http://localhost:3000"
	}
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", defaultServer, "API base URL (env CONTRACT_API_URL)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "request timeout, 0 for none")
}

// ExecuteContext runs the root command; ctx reaches every subcommand via cmd.Context().
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func newClient() *client.Client {
	return client.New(serverURL, timeout)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
