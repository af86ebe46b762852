package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/pawfund/x/fund/types"
)

// QueryServer defines the fund QueryServer
type QueryServer struct {
	keeper *Keeper
}

// NewQueryServerImpl creates a new QueryServer instance
func NewQueryServerImpl(keeper *Keeper) *QueryServer {
	return &QueryServer{keeper: keeper}
}

// Fund returns a fund by ID
func (q *QueryServer) Fund(ctx context.Context, fundID string) (*types.Fund, error) {
	return q.keeper.loadFund(sdk.UnwrapSDKContext(ctx), fundID)
}

// Funds returns a page of funds and the total count
func (q *QueryServer) Funds(ctx context.Context, offset, limit uint64) ([]*types.Fund, uint64, error) {
	funds := q.keeper.GetAllFunds(sdk.UnwrapSDKContext(ctx))
	page, total := paginate(funds, offset, limit)
	return page, total, nil
}

// Deposits returns a page of a fund's deposit ledger
func (q *QueryServer) Deposits(ctx context.Context, fundID string, offset, limit uint64) ([]*types.DepositRecord, uint64, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if _, err := q.keeper.loadFund(sdkCtx, fundID); err != nil {
		return nil, 0, err
	}
	page, total := paginate(q.keeper.GetFundDeposits(sdkCtx, fundID), offset, limit)
	return page, total, nil
}

// DepositsByDepositor returns every deposit made by depositor
func (q *QueryServer) DepositsByDepositor(ctx context.Context, depositor string) ([]*types.DepositRecord, error) {
	return q.keeper.GetDepositorDeposits(sdk.UnwrapSDKContext(ctx), depositor), nil
}

// Rebalances returns a page of a fund's rebalance history
func (q *QueryServer) Rebalances(ctx context.Context, fundID string, offset, limit uint64) ([]*types.RebalanceRecord, uint64, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if _, err := q.keeper.loadFund(sdkCtx, fundID); err != nil {
		return nil, 0, err
	}
	page, total := paginate(q.keeper.GetFundRebalances(sdkCtx, fundID), offset, limit)
	return page, total, nil
}

// ClaimBalance returns the claim tokens holder owns in a fund
func (q *QueryServer) ClaimBalance(ctx context.Context, fundID, holder string) (uint64, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	fund, err := q.keeper.loadFund(sdkCtx, fundID)
	if err != nil {
		return 0, err
	}
	return q.keeper.custody.Balance(ctx, holder, fund.ClaimDenom)
}

// Params returns the module parameters
func (q *QueryServer) Params(ctx context.Context) (types.Params, error) {
	return q.keeper.GetParams(), nil
}

// EstimateDeposit quotes the claim tokens a deposit would mint
func (q *QueryServer) EstimateDeposit(ctx context.Context, fundID string, gross, tvlSnapshot uint64) (*types.MintReceipt, error) {
	return q.keeper.EstimateDeposit(sdk.UnwrapSDKContext(ctx), fundID, gross, tvlSnapshot)
}

func paginate[T any](items []T, offset, limit uint64) ([]T, uint64) {
	total := uint64(len(items))
	if offset >= total {
		return []T{}, total
	}
	end := total
	if limit > 0 && limit < total-offset {
		end = offset + limit
	}
	return items[offset:end], total
}
