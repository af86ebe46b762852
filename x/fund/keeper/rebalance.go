package keeper

import (
	"context"
	"strconv"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/pawfund/pkg/checked"
	"github.com/openalpha/pawfund/x/fund/swap"
	"github.com/openalpha/pawfund/x/fund/types"
)

// Rebalance trades amount of the fund's assets through the venue in the given
// direction.
//
// The vault prefunds the router with the staging reserve and routing buffer,
// plus the swap amount when buying the target asset. Once the venue has been
// invoked, cleanup and reconciliation are committed whatever the venue
// returned; a venue failure is then reported as ErrExternalVenueFailure
// alongside the persisted record. Any failure before that point rolls back.
//
// The manager check runs before the lifecycle gate, so a non-manager calling
// on an aged fund gets ErrUnauthorized and the fund stays unflagged until
// SweepExpired or the next admitted call marks it Expired.
func (k *Keeper) Rebalance(ctx context.Context, manager, fundID string, dir types.Direction, amount uint64, payload []byte) (*types.RebalanceRecord, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	fund, err := k.loadFund(sdkCtx, fundID)
	if err != nil {
		return nil, err
	}
	if manager != fund.Manager {
		return nil, errorsmod.Wrapf(types.ErrUnauthorized, "%s is not the manager of fund %s", manager, fund.ID)
	}
	if err := k.admit(sdkCtx, fund); err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, errorsmod.Wrap(types.ErrInvalidRequest, "rebalance amount must be positive")
	}
	if k.venue == nil {
		return nil, errorsmod.Wrap(types.ErrExternalVenueFailure, "no venue configured")
	}

	cacheCtx, write := sdkCtx.CacheContext()
	record, res, err := k.rebalance(cacheCtx, fund, dir, amount, payload)
	if err != nil {
		return nil, err
	}
	write()

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			"fund_rebalance",
			sdk.NewAttribute("fund_id", fund.ID),
			sdk.NewAttribute("direction", dir.String()),
			sdk.NewAttribute("amount", strconv.FormatUint(amount, 10)),
			sdk.NewAttribute("routed", strconv.FormatUint(record.Routed, 10)),
			sdk.NewAttribute("settled", strconv.FormatBool(record.Settled)),
			sdk.NewAttribute("staging_state", res.State.String()),
		),
	)

	if res.VenueErr != nil {
		if swap.SandboxVenue {
			k.logger.Error("SANDBOX VENUE: venue failure suppressed, rebalance reported as success",
				"fund_id", fund.ID,
				"direction", dir.String(),
				"error", res.VenueErr,
			)
			return record, nil
		}
		return record, errorsmod.Wrap(types.ErrExternalVenueFailure, res.VenueErr.Error())
	}

	k.logger.Info("Rebalance settled",
		"fund_id", fund.ID,
		"direction", dir.String(),
		"amount", amount,
		"routed", record.Routed,
		"returned", record.Returned,
	)
	return record, nil
}

func (k *Keeper) rebalance(ctx sdk.Context, fund *types.Fund, dir types.Direction, amount uint64, payload []byte) (*types.RebalanceRecord, swap.Result, error) {
	var res swap.Result

	vault := types.VaultAddress(fund.ID)
	router := types.RouterAddress(fund.ID)
	holdings := types.HoldingsAddress(fund.ID)
	fundCap := k.fundCapability(fund.ID)
	rec := k.reconciler()
	overhead, ok := checked.Add(rec.StagingReserve(), k.params.RoutingBuffer)
	if !ok {
		return nil, res, errorsmod.Wrap(types.ErrArithmeticOverflow, "routing overhead")
	}

	plan := swap.Plan{
		FundID:     fund.ID,
		Direction:  dir,
		Amount:     amount,
		Payload:    payload,
		Authority:  router,
		Staging:    types.StagingAddress(fund.ID, dir),
		Capability: fundCap,
	}
	var spent uint64
	switch dir {
	case types.DirectionBaseToTarget:
		spent = amount
		plan.StagingDenom = k.custody.Params().BaseDenom
		plan.Native = true
		plan.Source = router
		plan.Destination = holdings
	case types.DirectionTargetToBase:
		plan.StagingDenom = k.params.TargetDenom
		plan.Source = holdings
		plan.Destination = router
	default:
		return nil, res, errorsmod.Wrapf(types.ErrInvalidRequest, "unknown direction %d", dir)
	}

	committed, ok := checked.Add(spent, overhead)
	if !ok {
		return nil, res, errorsmod.Wrap(types.ErrArithmeticOverflow, "committed amount")
	}
	if fund.AvailableCapital, ok = checked.Sub(fund.AvailableCapital, committed); !ok {
		return nil, res, errorsmod.Wrapf(types.ErrInsufficientFunds, "available capital %d below %d", fund.AvailableCapital, committed)
	}

	vaultBalance, err := rec.BaseBalance(ctx, vault)
	if err != nil {
		return nil, res, err
	}
	vaultFloor, err := rec.RequiredFloor(ctx, vault)
	if err != nil {
		return nil, res, err
	}
	if _, err := rec.AvailableForRouting(vaultBalance, spent, vaultFloor, overhead); err != nil {
		return nil, res, err
	}

	routerBefore, err := rec.BaseBalance(ctx, router)
	if err != nil {
		return nil, res, err
	}
	if err := k.custody.TransferBase(ctx, fundCap, vault, router, committed); err != nil {
		return nil, res, types.FromCustody(err)
	}

	res, err = swap.NewSession(k.custody, k.venue, k.logger).Run(ctx, plan)
	if err != nil {
		return nil, res, err
	}

	// The venue has been invoked. Everything below reconciles observed
	// balances and is committed regardless of the venue outcome.
	record := &types.RebalanceRecord{
		FundID:    fund.ID,
		Direction: dir,
		Requested: amount,
		Committed: committed,
		Settled:   res.Settled,
	}
	if res.VenueErr != nil {
		record.VenueError = res.VenueErr.Error()
	}

	leftover, err := k.custody.Balance(ctx, router, k.params.TargetDenom)
	if err != nil {
		return nil, res, err
	}
	if leftover > 0 {
		if err := k.custody.TransferToken(ctx, fundCap, router, holdings, k.params.TargetDenom, leftover); err != nil {
			return nil, res, types.FromCustody(err)
		}
		record.Returned = leftover
	}

	routerAfter, err := rec.BaseBalance(ctx, router)
	if err != nil {
		return nil, res, err
	}
	routerFloor, err := rec.RequiredFloor(ctx, router)
	if err != nil {
		return nil, res, err
	}
	record.Routed = rec.SettlementDelta(routerBefore, routerAfter, routerFloor)
	if err := k.custody.TransferBase(ctx, fundCap, router, vault, record.Routed); err != nil {
		return nil, res, types.FromCustody(err)
	}
	if fund.AvailableCapital, ok = checked.Add(fund.AvailableCapital, record.Routed); !ok {
		return nil, res, errorsmod.Wrap(types.ErrArithmeticOverflow, "available capital")
	}

	fund.RebalanceCount++
	fund.UpdatedAt = k.now().Unix()
	record.Sequence = fund.RebalanceCount
	record.Timestamp = fund.UpdatedAt
	k.SetRebalance(ctx, record)
	k.SetFund(ctx, fund)

	return record, res, nil
}
