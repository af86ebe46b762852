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

// Deposit moves gross base units from depositor into the fund and mints
// claim tokens priced against the caller-supplied pool value.
func (k *Keeper) Deposit(ctx context.Context, depositor, fundID string, gross, tvlSnapshot uint64) (*types.MintReceipt, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	fund, err := k.loadFund(sdkCtx, fundID)
	if err != nil {
		return nil, err
	}
	if err := k.admit(sdkCtx, fund); err != nil {
		return nil, err
	}
	split, minted, err := k.priceDeposit(fund, gross, tvlSnapshot)
	if err != nil {
		return nil, err
	}

	var receipt *types.MintReceipt
	err = k.atomically(sdkCtx, func(cacheCtx sdk.Context) error {
		depositorCap := custodytypes.NewCapability(depositor, depositor)
		transfers := []struct {
			to     string
			amount uint64
		}{
			{types.VaultAddress(fund.ID), split.Net},
			{fund.Manager, split.StakeholderA},
			{k.params.FeeCollector, split.StakeholderB},
		}
		for _, tr := range transfers {
			if err := k.custody.TransferBase(cacheCtx, depositorCap, depositor, tr.to, tr.amount); err != nil {
				return types.FromCustody(err)
			}
		}

		if err := k.custody.MintClaim(cacheCtx, k.fundCapability(fund.ID), fund.ClaimDenom, depositor, minted); err != nil {
			return types.FromCustody(err)
		}

		var ok bool
		if fund.TotalDeposited, ok = checked.Add(fund.TotalDeposited, gross); !ok {
			return errorsmod.Wrap(types.ErrArithmeticOverflow, "total deposited")
		}
		if fund.ClaimSupply, ok = checked.Add(fund.ClaimSupply, minted); !ok {
			return errorsmod.Wrap(types.ErrArithmeticOverflow, "claim supply")
		}
		if fund.AvailableCapital, ok = checked.Add(fund.AvailableCapital, split.Net); !ok {
			return errorsmod.Wrap(types.ErrArithmeticOverflow, "available capital")
		}
		fund.DepositCount++
		fund.UpdatedAt = k.now().Unix()

		k.SetDeposit(cacheCtx, &types.DepositRecord{
			FundID:      fund.ID,
			Sequence:    fund.DepositCount,
			Depositor:   depositor,
			GrossAmount: gross,
			Timestamp:   fund.UpdatedAt,
		})

		if k.lifecycle.AfterDeposit(fund) {
			k.logger.Info("Fund reached invest threshold", "fund_id", fund.ID, "total_deposited", fund.TotalDeposited)
		}
		k.SetFund(cacheCtx, fund)

		receipt = &types.MintReceipt{
			FundID:     fund.ID,
			Depositor:  depositor,
			Gross:      gross,
			Net:        split.Net,
			ManagerFee: split.StakeholderA,
			OwnerFee:   split.StakeholderB,
			Minted:     minted,
			Status:     fund.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			"fund_deposit",
			sdk.NewAttribute("fund_id", fund.ID),
			sdk.NewAttribute("depositor", depositor),
			sdk.NewAttribute("gross", strconv.FormatUint(gross, 10)),
			sdk.NewAttribute("net", strconv.FormatUint(receipt.Net, 10)),
			sdk.NewAttribute("minted", strconv.FormatUint(receipt.Minted, 10)),
			sdk.NewAttribute("status", receipt.Status.String()),
		),
	)

	k.logger.Info("Deposit processed",
		"fund_id", fund.ID,
		"depositor", depositor,
		"amount", gross,
		"net", receipt.Net,
		"minted", receipt.Minted,
		"status", receipt.Status.String(),
	)

	return receipt, nil
}

// priceDeposit splits gross into net and fees and prices the net against
// the fund's claim supply. A deposit that would mint nothing is rejected.
func (k *Keeper) priceDeposit(fund *types.Fund, gross, tvlSnapshot uint64) (types.FeeSplit, uint64, error) {
	if gross == 0 {
		return types.FeeSplit{}, 0, errorsmod.Wrap(types.ErrInvalidRequest, "deposit amount must be positive")
	}
	split, err := k.params.Fees.Split(gross)
	if err != nil {
		return types.FeeSplit{}, 0, err
	}
	minted, err := types.MintOnDeposit(split.Net, fund.ClaimSupply, tvlSnapshot)
	if err != nil {
		return types.FeeSplit{}, 0, err
	}
	if minted == 0 {
		return types.FeeSplit{}, 0, errorsmod.Wrapf(types.ErrDepositTooSmall, "net %d at pool value %d mints nothing", split.Net, tvlSnapshot)
	}
	return split, minted, nil
}

// EstimateDeposit quotes a deposit without touching state. It applies the
// same lifecycle gate and pricing as Deposit, and reports the status the
// fund would have afterwards. An aged fund is rejected with ErrFundExpired
// but is not flagged; Deposit or the sweep does that.
func (k *Keeper) EstimateDeposit(ctx sdk.Context, fundID string, gross, tvlSnapshot uint64) (*types.MintReceipt, error) {
	fund, err := k.loadFund(ctx, fundID)
	if err != nil {
		return nil, err
	}
	if _, err := k.lifecycle.Admit(fund, k.now()); err != nil {
		return nil, err
	}
	split, minted, err := k.priceDeposit(fund, gross, tvlSnapshot)
	if err != nil {
		return nil, err
	}

	var ok bool
	if fund.TotalDeposited, ok = checked.Add(fund.TotalDeposited, gross); !ok {
		return nil, errorsmod.Wrap(types.ErrArithmeticOverflow, "total deposited")
	}
	k.lifecycle.AfterDeposit(fund)

	return &types.MintReceipt{
		FundID:     fund.ID,
		Gross:      gross,
		Net:        split.Net,
		ManagerFee: split.StakeholderA,
		OwnerFee:   split.StakeholderB,
		Minted:     minted,
		Status:     fund.Status,
	}, nil
}
