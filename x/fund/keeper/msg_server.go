package keeper

import (
	"context"

	"github.com/google/uuid"

	"github.com/openalpha/pawfund/x/fund/types"
)

// MsgServer defines the fund MsgServer
type MsgServer struct {
	keeper *Keeper
}

// NewMsgServerImpl creates a new MsgServer instance
func NewMsgServerImpl(keeper *Keeper) *MsgServer {
	return &MsgServer{keeper: keeper}
}

// CreateFund handles MsgCreateFund. A fund ID is generated when none is given.
func (m *MsgServer) CreateFund(ctx context.Context, msg *types.MsgCreateFund) (*types.MsgCreateFundResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	seed, _ := types.ParseAmount(msg.SeedAmount)
	threshold, _ := types.ParseAmount(msg.InvestThreshold)

	fundID := msg.FundID
	if fundID == "" {
		fundID = uuid.NewString()
	}

	fund, err := m.keeper.CreateFund(ctx, CreateFundRequest{
		FundID:          fundID,
		Creator:         msg.Creator,
		Manager:         msg.Manager,
		Name:            msg.Name,
		Description:     msg.Description,
		SeedAmount:      seed,
		InvestThreshold: threshold,
	})
	if err != nil {
		return nil, err
	}

	return &types.MsgCreateFundResponse{
		FundID:     fund.ID,
		ClaimDenom: fund.ClaimDenom,
		Vault:      types.VaultAddress(fund.ID),
	}, nil
}

// Deposit handles MsgDeposit
func (m *MsgServer) Deposit(ctx context.Context, msg *types.MsgDeposit) (*types.MintReceipt, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	amount, _ := types.ParseAmount(msg.Amount)
	tvl, _ := types.ParseAmount(msg.TVLSnapshot)
	return m.keeper.Deposit(ctx, msg.Depositor, msg.FundID, amount, tvl)
}

// Redeem handles MsgRedeem
func (m *MsgServer) Redeem(ctx context.Context, msg *types.MsgRedeem) (*types.RedeemReceipt, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	claim, _ := types.ParseAmount(msg.ClaimAmount)
	return m.keeper.Redeem(ctx, msg.Redeemer, msg.FundID, claim)
}

// Rebalance handles MsgRebalance. On a venue failure the persisted record is
// returned together with the error.
func (m *MsgServer) Rebalance(ctx context.Context, msg *types.MsgRebalance) (*types.RebalanceRecord, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	dir, _ := types.ParseDirection(msg.Direction)
	amount, _ := types.ParseAmount(msg.Amount)
	return m.keeper.Rebalance(ctx, msg.Manager, msg.FundID, dir, amount, msg.VenuePayload)
}

// DrainFund handles MsgDrainFund
func (m *MsgServer) DrainFund(ctx context.Context, msg *types.MsgDrainFund) (*types.DrainReceipt, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	return m.keeper.DrainFund(ctx, msg.Authority, msg.FundID, msg.Destination)
}
