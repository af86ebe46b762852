package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/openalpha/pawfund/api/types"
	"github.com/openalpha/pawfund/sdk"
	"github.com/openalpha/pawfund/x/fund/venue"
)

const (
	flagFundID      = "fund-id"
	flagDescription = "description"
	flagSeed        = "seed"
	flagThreshold   = "threshold"
	flagTVL         = "tvl"
	flagMinOut      = "min-out"
)

// TxCmd returns the transaction commands
func TxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "tx",
		Short:                      "Fund transaction subcommands",
		SuggestionsMinimumDistance: 2,
	}
	addClientFlags(cmd)
	cmd.PersistentFlags().String(flagFrom, "", "Signer address sent in the "+types.SignerHeader+" header")
	_ = cmd.MarkPersistentFlagRequired(flagFrom)

	cmd.AddCommand(
		CmdCreateFund(),
		CmdDeposit(),
		CmdRedeem(),
		CmdRebalance(),
		CmdDrain(),
	)
	return cmd
}

// CmdCreateFund returns the command to create a fund
func CmdCreateFund() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-fund [manager] [name]",
		Short: "Create a new fund",
		Long: `Create a new fund managed by [manager]. The signer pays the account
floors and, with --seed, the seed capital.

Examples:
  fundd tx create-fund manager1 "Alpha Fund" --threshold 1000000 --from alice
  fundd tx create-fund manager1 "Beta" --fund-id beta --seed 5000 --from alice`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fundID, _ := cmd.Flags().GetString(flagFundID)
			description, _ := cmd.Flags().GetString(flagDescription)
			seed, _ := cmd.Flags().GetUint64(flagSeed)
			threshold, _ := cmd.Flags().GetUint64(flagThreshold)

			resp, err := clientFromCmd(cmd).CreateFund(cmd.Context(), types.CreateFundRequest{
				FundID:          fundID,
				Manager:         args[0],
				Name:            args[1],
				Description:     description,
				SeedAmount:      strconv.FormatUint(seed, 10),
				InvestThreshold: strconv.FormatUint(threshold, 10),
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	cmd.Flags().String(flagFundID, "", "Fund ID (generated when empty)")
	cmd.Flags().String(flagDescription, "", "Fund description")
	cmd.Flags().Uint64(flagSeed, 0, "Seed capital paid by the signer")
	cmd.Flags().Uint64(flagThreshold, 0, "Cumulative deposits that move the fund to trading")
	return cmd
}

// CmdDeposit returns the command to deposit into a fund
func CmdDeposit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit [fund-id] [amount]",
		Short: "Deposit base asset into a fund",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := strconv.ParseUint(args[1], 10, 64); err != nil {
				return fmt.Errorf("invalid amount: %v", err)
			}
			tvl, _ := cmd.Flags().GetString(flagTVL)

			resp, err := clientFromCmd(cmd).Deposit(cmd.Context(), args[0], types.DepositRequest{
				Amount:      args[1],
				TVLSnapshot: tvl,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	cmd.Flags().String(flagTVL, "", "Externally computed fund value used for minting")
	return cmd
}

// CmdRedeem returns the command to redeem claim tokens
func CmdRedeem() *cobra.Command {
	return &cobra.Command{
		Use:   "redeem [fund-id] [claim-amount]",
		Short: "Burn claim tokens for base asset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := strconv.ParseUint(args[1], 10, 64); err != nil {
				return fmt.Errorf("invalid claim amount: %v", err)
			}
			resp, err := clientFromCmd(cmd).Redeem(cmd.Context(), args[0], types.RedeemRequest{ClaimAmount: args[1]})
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
}

// CmdRebalance returns the command to run one rebalancing leg
func CmdRebalance() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebalance [fund-id] [direction] [amount]",
		Short: "Swap between the base and target asset through the venue",
		Long: `Run one rebalancing leg. [direction] is base_to_target or target_to_base.
The venue instruction spends [amount] and requires at least --min-out back.

Examples:
  fundd tx rebalance alpha base_to_target 1000 --min-out 990 --from manager1`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseUint(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount: %v", err)
			}
			minOut, _ := cmd.Flags().GetUint64(flagMinOut)
			payload := venue.Instruction{Version: venue.LayoutVersion, AmountIn: amount, MinAmountOut: minOut}.Encode()

			resp, err := clientFromCmd(cmd).Rebalance(cmd.Context(), args[0], types.RebalanceRequest{
				Direction:    args[1],
				Amount:       args[2],
				VenuePayload: payload,
			})
			var apiErr *sdk.APIError
			if errors.As(err, &apiErr) && apiErr.Record != nil {
				_ = printJSON(cmd, apiErr.Record)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	cmd.Flags().Uint64(flagMinOut, 0, "Minimum output accepted from the venue")
	return cmd
}

// CmdDrain returns the command to drain a fund
func CmdDrain() *cobra.Command {
	return &cobra.Command{
		Use:   "drain [fund-id] [destination]",
		Short: "Sweep a fund's holdings to destination (authority only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := clientFromCmd(cmd).Drain(cmd.Context(), args[0], types.DrainRequest{Destination: args[1]})
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
}
