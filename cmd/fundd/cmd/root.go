package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/openalpha/pawfund/pkg/config"
	"github.com/openalpha/pawfund/sdk"
)

const (
	flagConfig = "config"
	flagHome   = "home"
	flagNode   = "node"
	flagFrom   = "from"

	defaultNode = "http://localhost:8080"
)

// NewRootCmd creates a new root command for fundd
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fundd",
		Short: "pawfund - pooled-fund accounting and rebalancing daemon",
		Long: `fundd runs the pooled-fund state machine behind an HTTP API and talks
to a running daemon through its tx and query subcommands.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cmd.SetOut(cmd.OutOrStdout())
			cmd.SetErr(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().String(flagConfig, "", "Path to a YAML config file (default <home>/config.yaml)")
	rootCmd.PersistentFlags().String(flagHome, "", "Daemon home directory")

	rootCmd.AddCommand(
		StartCmd(),
		ConfigCmd(),
		TxCmd(),
		QueryCmd(),
	)
	return rootCmd
}

// loadConfig loads the configuration honoring --config and --home
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString(flagConfig)
	home, _ := cmd.Flags().GetString(flagHome)
	return config.Load(path, home)
}

// addClientFlags adds the flags shared by tx and query commands
func addClientFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String(flagNode, defaultNode, "fundd API endpoint")
}

func clientFromCmd(cmd *cobra.Command) *sdk.Client {
	node, _ := cmd.Flags().GetString(flagNode)
	from, _ := cmd.Flags().GetString(flagFrom)
	return sdk.NewClient(node, from)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
