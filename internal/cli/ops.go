package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the API and its dependencies",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newClient().Health(cmd.Context())
		if err != nil {
			return err
		}
		if err := printJSON(cmd, res); err != nil {
			return err
		}
		if res.Status != "ok" {
			return errors.New("service is " + res.Status)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show document and extraction statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newClient().Stats(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

func init() {
	rootCmd.AddCommand(healthCmd, statsCmd)
}
