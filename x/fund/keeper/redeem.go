package keeper

import (
	"context"
	"errors"
	"strconv"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/pawfund/pkg/checked"
	custodytypes "github.com/openalpha/pawfund/x/custody/types"
	"github.com/openalpha/pawfund/x/fund/types"
)

// Redeem burns claim tokens and pays the redeemer out of the vault. The burn
// happens first; any later failure rolls the whole redemption back. Fee
// shares are reported but stay in the vault.
func (k *Keeper) Redeem(ctx context.Context, redeemer, fundID string, claim uint64) (*types.RedeemReceipt, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	fund, err := k.loadFund(sdkCtx, fundID)
	if err != nil {
		return nil, err
	}
	if err := k.admit(sdkCtx, fund); err != nil {
		return nil, err
	}

	var receipt *types.RedeemReceipt
	err = k.atomically(sdkCtx, func(cacheCtx sdk.Context) error {
		redeemerCap := custodytypes.NewCapability(redeemer, redeemer)
		if err := k.custody.BurnClaim(cacheCtx, redeemerCap, fund.ClaimDenom, redeemer, claim); err != nil {
			if errors.Is(err, custodytypes.ErrInsufficientBalance) {
				return errorsmod.Wrap(types.ErrInsufficientTokens, err.Error())
			}
			return types.FromCustody(err)
		}
		if claim == 0 {
			return errorsmod.Wrap(types.ErrInsufficientTokens, "claim amount must be positive")
		}

		baseOwed := types.BurnOnRedeem(claim)
		split := k.params.Fees.SplitSaturating(baseOwed)

		vault := types.VaultAddress(fund.ID)
		rec := k.reconciler()
		vaultBalance, err := rec.BaseBalance(cacheCtx, vault)
		if err != nil {
			return err
		}
		if vaultBalance < baseOwed {
			return errorsmod.Wrapf(types.ErrInsufficientFunds, "vault holds %d, owes %d", vaultBalance, baseOwed)
		}
		floor, err := rec.RequiredFloor(cacheCtx, vault)
		if err != nil {
			return err
		}
		if vaultBalance-split.Net < floor {
			return errorsmod.Wrapf(types.ErrInsufficientFunds, "payout %d would leave vault below floor %d", split.Net, floor)
		}

		if err := k.custody.TransferBase(cacheCtx, k.fundCapability(fund.ID), vault, redeemer, split.Net); err != nil {
			return types.FromCustody(err)
		}

		fund.ClaimSupply = checked.SaturatingSub(fund.ClaimSupply, claim)
		fund.AvailableCapital = checked.SaturatingSub(fund.AvailableCapital, split.Net)
		fund.UpdatedAt = k.now().Unix()
		k.SetFund(cacheCtx, fund)

		receipt = &types.RedeemReceipt{
			FundID:     fund.ID,
			Redeemer:   redeemer,
			Burned:     claim,
			BaseOwed:   baseOwed,
			Payout:     split.Net,
			ManagerFee: split.StakeholderA,
			OwnerFee:   split.StakeholderB,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			"fund_redeem",
			sdk.NewAttribute("fund_id", fund.ID),
			sdk.NewAttribute("redeemer", redeemer),
			sdk.NewAttribute("burned", strconv.FormatUint(claim, 10)),
			sdk.NewAttribute("payout", strconv.FormatUint(receipt.Payout, 10)),
		),
	)

	k.logger.Info("Redemption processed",
		"fund_id", fund.ID,
		"redeemer", redeemer,
		"burned", claim,
		"payout", receipt.Payout,
	)

	return receipt, nil
}
