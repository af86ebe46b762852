package keeper

import (
	"context"
	"strconv"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	custodytypes "github.com/openalpha/pawfund/x/custody/types"
	"github.com/openalpha/pawfund/x/fund/types"
)

// CreateFundRequest carries the inputs of CreateFund
type CreateFundRequest struct {
	FundID          string
	Creator         string
	Manager         string
	Name            string
	Description     string
	SeedAmount      uint64
	InvestThreshold uint64
}

// CreateFund registers a new fund. The creator pays the base floor of the
// vault and the router, and SeedAmount claim tokens are minted to the fund
// treasury.
func (k *Keeper) CreateFund(ctx context.Context, req CreateFundRequest) (*types.Fund, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := types.ValidateFundID(req.FundID); err != nil {
		return nil, err
	}
	if err := custodytypes.ValidateAddress(req.Creator); err != nil {
		return nil, errorsmod.Wrap(types.ErrInvalidRequest, err.Error())
	}
	if err := custodytypes.ValidateAddress(req.Manager); err != nil {
		return nil, errorsmod.Wrap(types.ErrInvalidRequest, err.Error())
	}
	if k.GetFund(sdkCtx, req.FundID) != nil {
		return nil, errorsmod.Wrap(types.ErrFundExists, req.FundID)
	}

	now := k.now().Unix()
	fund := &types.Fund{
		ID:              req.FundID,
		Creator:         req.Creator,
		Manager:         req.Manager,
		Name:            req.Name,
		Description:     req.Description,
		ClaimDenom:      types.ClaimDenom(req.FundID),
		Status:          types.FundStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
		InvestThreshold: req.InvestThreshold,
		ClaimSupply:     req.SeedAmount,
	}

	err := k.atomically(sdkCtx, func(cacheCtx sdk.Context) error {
		if err := k.custody.RegisterDenom(cacheCtx, fund.ClaimDenom, types.TreasuryAddress(fund.ID)); err != nil {
			return types.FromCustody(err)
		}

		creatorCap := custodytypes.NewCapability(req.Creator, req.Creator)
		for _, addr := range []string{types.VaultAddress(fund.ID), types.RouterAddress(fund.ID)} {
			if err := k.custody.TransferBase(cacheCtx, creatorCap, req.Creator, addr, k.params.BaseReserve); err != nil {
				return types.FromCustody(err)
			}
		}

		if req.SeedAmount > 0 {
			if err := k.custody.MintClaim(cacheCtx, k.fundCapability(fund.ID), fund.ClaimDenom, types.TreasuryAddress(fund.ID), req.SeedAmount); err != nil {
				return types.FromCustody(err)
			}
		}

		k.SetFund(cacheCtx, fund)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			"fund_created",
			sdk.NewAttribute("fund_id", fund.ID),
			sdk.NewAttribute("creator", fund.Creator),
			sdk.NewAttribute("manager", fund.Manager),
			sdk.NewAttribute("claim_denom", fund.ClaimDenom),
			sdk.NewAttribute("seed_amount", strconv.FormatUint(req.SeedAmount, 10)),
			sdk.NewAttribute("invest_threshold", strconv.FormatUint(fund.InvestThreshold, 10)),
		),
	)

	k.logger.Info("Fund created",
		"fund_id", fund.ID,
		"creator", fund.Creator,
		"manager", fund.Manager,
		"seed_amount", req.SeedAmount,
		"invest_threshold", fund.InvestThreshold,
	)

	return fund, nil
}
