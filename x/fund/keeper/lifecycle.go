package keeper

import (
	"strconv"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/pawfund/x/fund/types"
)

// loadFund reads a fund the caller will own for the rest of the operation
func (k *Keeper) loadFund(ctx sdk.Context, fundID string) (*types.Fund, error) {
	fund := k.GetFund(ctx, fundID)
	if fund == nil {
		return nil, errorsmod.Wrap(types.ErrFundNotFound, fundID)
	}
	return fund, nil
}

// admit runs the lifecycle gate. A forced expiry is written to ctx directly,
// so it survives even though the operation is rejected.
func (k *Keeper) admit(ctx sdk.Context, fund *types.Fund) error {
	transitioned, err := k.lifecycle.Admit(fund, k.now())
	if transitioned {
		k.SetFund(ctx, fund)
		k.emitExpired(ctx, fund)
	}
	return err
}

// atomically runs fn against a cached context and writes it back only if fn
// succeeds.
func (k *Keeper) atomically(ctx sdk.Context, fn func(cacheCtx sdk.Context) error) error {
	cacheCtx, write := ctx.CacheContext()
	if err := fn(cacheCtx); err != nil {
		return err
	}
	write()
	return nil
}

func (k *Keeper) emitExpired(ctx sdk.Context, fund *types.Fund) {
	k.logger.Warn("Fund expired",
		"fund_id", fund.ID,
		"created_at", fund.CreatedAt,
		"max_age", k.lifecycle.MaxAge.String(),
	)
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"fund_expired",
			sdk.NewAttribute("fund_id", fund.ID),
			sdk.NewAttribute("created_at", strconv.FormatInt(fund.CreatedAt, 10)),
		),
	)
}

// SweepExpired flags every aged fund as Expired and returns how many changed
func (k *Keeper) SweepExpired(ctx sdk.Context) int {
	now := k.now()
	expired := 0
	for _, fund := range k.GetAllFunds(ctx) {
		if k.lifecycle.Expire(fund, now) {
			k.SetFund(ctx, fund)
			k.emitExpired(ctx, fund)
			expired++
		}
	}
	return expired
}
