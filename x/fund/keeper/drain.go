package keeper

import (
	"context"
	"strconv"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/pawfund/pkg/checked"
	custodytypes "github.com/openalpha/pawfund/x/custody/types"
	"github.com/openalpha/pawfund/x/fund/types"
)

// DrainFund sweeps the vault and router base above their floors and the
// whole target holdings to destination. Only the module authority may drain,
// and lifecycle checks do not apply.
func (k *Keeper) DrainFund(ctx context.Context, authority, fundID, destination string) (*types.DrainReceipt, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if authority != k.authority {
		return nil, errorsmod.Wrapf(types.ErrUnauthorized, "%s is not the fund authority", authority)
	}
	if err := custodytypes.ValidateAddress(destination); err != nil {
		return nil, errorsmod.Wrap(types.ErrInvalidRequest, err.Error())
	}
	fund, err := k.loadFund(sdkCtx, fundID)
	if err != nil {
		return nil, err
	}

	receipt := &types.DrainReceipt{FundID: fund.ID, Destination: destination}
	err = k.atomically(sdkCtx, func(cacheCtx sdk.Context) error {
		fundCap := k.fundCapability(fund.ID)
		rec := k.reconciler()

		sweepBase := func(addr string) (uint64, error) {
			bal, err := rec.BaseBalance(cacheCtx, addr)
			if err != nil {
				return 0, err
			}
			floor, err := rec.RequiredFloor(cacheCtx, addr)
			if err != nil {
				return 0, err
			}
			amount := checked.SaturatingSub(bal, floor)
			if err := k.custody.TransferBase(cacheCtx, fundCap, addr, destination, amount); err != nil {
				return 0, types.FromCustody(err)
			}
			return amount, nil
		}

		var err error
		if receipt.Base, err = sweepBase(types.VaultAddress(fund.ID)); err != nil {
			return err
		}
		if receipt.Router, err = sweepBase(types.RouterAddress(fund.ID)); err != nil {
			return err
		}

		holdings := types.HoldingsAddress(fund.ID)
		if receipt.Target, err = k.custody.Balance(cacheCtx, holdings, k.params.TargetDenom); err != nil {
			return err
		}
		if err := k.custody.TransferToken(cacheCtx, fundCap, holdings, destination, k.params.TargetDenom, receipt.Target); err != nil {
			return types.FromCustody(err)
		}

		fund.AvailableCapital = 0
		fund.DrainedAt = k.now().Unix()
		fund.UpdatedAt = fund.DrainedAt
		k.SetFund(cacheCtx, fund)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			"fund_drained",
			sdk.NewAttribute("fund_id", fund.ID),
			sdk.NewAttribute("destination", destination),
			sdk.NewAttribute("base", strconv.FormatUint(receipt.Base, 10)),
			sdk.NewAttribute("target", strconv.FormatUint(receipt.Target, 10)),
			sdk.NewAttribute("router", strconv.FormatUint(receipt.Router, 10)),
		),
	)

	k.logger.Warn("Fund drained",
		"fund_id", fund.ID,
		"destination", destination,
		"base", receipt.Base,
		"target", receipt.Target,
		"router", receipt.Router,
	)

	return receipt, nil
}
