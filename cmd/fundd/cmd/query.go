package cmd

import (
	"github.com/spf13/cobra"
)

const (
	flagOffset = "offset"
	flagLimit  = "limit"
)

// QueryCmd returns the query commands
func QueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "query",
		Aliases:                    []string{"q"},
		Short:                      "Fund query subcommands",
		SuggestionsMinimumDistance: 2,
	}
	addClientFlags(cmd)

	cmd.AddCommand(
		CmdQueryFund(),
		CmdQueryFunds(),
		CmdQueryDeposits(),
		CmdQueryRebalances(),
		CmdQueryBalance(),
	)
	return cmd
}

func addPageFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64(flagOffset, 0, "Number of entries to skip")
	cmd.Flags().Uint64(flagLimit, 100, "Maximum number of entries")
}

func pageFlags(cmd *cobra.Command) (uint64, uint64) {
	offset, _ := cmd.Flags().GetUint64(flagOffset)
	limit, _ := cmd.Flags().GetUint64(flagLimit)
	return offset, limit
}

// CmdQueryFund returns the command to query a fund
func CmdQueryFund() *cobra.Command {
	return &cobra.Command{
		Use:   "fund [fund-id]",
		Short: "Query a fund",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := clientFromCmd(cmd).Fund(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
}

// CmdQueryFunds returns the command to list funds
func CmdQueryFunds() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "funds",
		Short: "List funds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			offset, limit := pageFlags(cmd)
			resp, err := clientFromCmd(cmd).Funds(cmd.Context(), offset, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	addPageFlags(cmd)
	return cmd
}

// CmdQueryDeposits returns the command to list a fund's deposits
func CmdQueryDeposits() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposits [fund-id]",
		Short: "List a fund's deposit ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, limit := pageFlags(cmd)
			resp, err := clientFromCmd(cmd).Deposits(cmd.Context(), args[0], offset, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	addPageFlags(cmd)
	return cmd
}

// CmdQueryRebalances returns the command to list a fund's rebalance history
func CmdQueryRebalances() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebalances [fund-id]",
		Short: "List a fund's rebalance records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, limit := pageFlags(cmd)
			resp, err := clientFromCmd(cmd).Rebalances(cmd.Context(), args[0], offset, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	addPageFlags(cmd)
	return cmd
}

// CmdQueryBalance returns the command to query an account balance
func CmdQueryBalance() *cobra.Command {
	return &cobra.Command{
		Use:   "balance [address] [denom]",
		Short: "Query an account balance",
		Long: `Query an account balance. Claim token balances use the fund's claim
denom, e.g. fund/alpha.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := clientFromCmd(cmd).Balance(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
}
