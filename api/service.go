package api

import (
	"context"

	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/pawfund/api/types"
	"github.com/openalpha/pawfund/api/websocket"
	"github.com/openalpha/pawfund/app"
	"github.com/openalpha/pawfund/metrics"
	fundtypes "github.com/openalpha/pawfund/x/fund/types"
)

// StateService implements FundService on top of an app.State. Every
// transaction is executed as one committed block; its events are published
// to the websocket hub and its outcome recorded in metrics.
type StateService struct {
	state   *app.State
	hub     *websocket.Hub
	metrics *metrics.Collector
	logger  log.Logger
}

var _ types.FundService = (*StateService)(nil)

// NewStateService creates a new StateService. hub may be nil.
func NewStateService(state *app.State, hub *websocket.Hub, logger log.Logger) *StateService {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &StateService{
		state:   state,
		hub:     hub,
		metrics: metrics.GetCollector(),
		logger:  logger.With("module", "api-service"),
	}
}

// exec runs fn as a block on fundID and handles its side effects
func (s *StateService) exec(op, fundID string, fn func(ctx sdk.Context) error) error {
	timer := metrics.NewTimer()
	events, err := s.state.Exec(fundID, fn)
	s.metrics.RecordOperation(op, err, timer.ElapsedMs())
	s.afterBlock(events)
	if err != nil {
		s.logger.Debug("Operation failed", "op", op, "fund_id", fundID, "error", err)
	}
	return err
}

func (s *StateService) afterBlock(events sdk.Events) {
	height := s.state.Height()
	s.metrics.UpdateBlockHeight(height)
	if s.hub != nil && len(events) > 0 {
		s.hub.PublishEvents(height, events)
	}
}

// recordFund refreshes the fund gauges from committed state
func (s *StateService) recordFund(ctx context.Context, fundID string) {
	fund, err := s.GetFund(ctx, fundID)
	if err != nil {
		return
	}
	s.metrics.RecordFundState(fund.ID, fund.AvailableCapital, fund.ClaimSupply)
}

// CreateFund creates a fund
func (s *StateService) CreateFund(ctx context.Context, msg *fundtypes.MsgCreateFund) (*fundtypes.MsgCreateFundResponse, error) {
	var resp *fundtypes.MsgCreateFundResponse
	err := s.exec("create_fund", msg.FundID, func(sdkCtx sdk.Context) error {
		var err error
		resp, err = s.state.MsgServer.CreateFund(sdkCtx, msg)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.recordFund(ctx, resp.FundID)
	return resp, nil
}

// Deposit deposits into a fund
func (s *StateService) Deposit(ctx context.Context, msg *fundtypes.MsgDeposit) (*fundtypes.MintReceipt, error) {
	var receipt *fundtypes.MintReceipt
	err := s.exec("deposit", msg.FundID, func(sdkCtx sdk.Context) error {
		var err error
		receipt, err = s.state.MsgServer.Deposit(sdkCtx, msg)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordDeposit(receipt.FundID, receipt.Gross, receipt.ManagerFee, receipt.OwnerFee, receipt.Minted)
	s.recordFund(ctx, receipt.FundID)
	return receipt, nil
}

// Redeem redeems claim tokens
func (s *StateService) Redeem(ctx context.Context, msg *fundtypes.MsgRedeem) (*fundtypes.RedeemReceipt, error) {
	var receipt *fundtypes.RedeemReceipt
	err := s.exec("redeem", msg.FundID, func(sdkCtx sdk.Context) error {
		var err error
		receipt, err = s.state.MsgServer.Redeem(sdkCtx, msg)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRedeem(receipt.FundID, receipt.Payout)
	s.recordFund(ctx, receipt.FundID)
	return receipt, nil
}

// Rebalance runs one rebalancing leg. A venue failure returns the persisted
// record together with the error.
func (s *StateService) Rebalance(ctx context.Context, msg *fundtypes.MsgRebalance) (*fundtypes.RebalanceRecord, error) {
	var record *fundtypes.RebalanceRecord
	err := s.exec("rebalance", msg.FundID, func(sdkCtx sdk.Context) error {
		var err error
		record, err = s.state.MsgServer.Rebalance(sdkCtx, msg)
		return err
	})

	switch {
	case record == nil:
		s.metrics.RecordRebalance(msg.FundID, msg.Direction, "rejected", 0)
	case err != nil:
		s.metrics.RecordRebalance(record.FundID, record.Direction.String(), "venue_failed", 0)
	default:
		s.metrics.RecordRebalance(record.FundID, record.Direction.String(), "settled", record.Routed)
	}
	if record != nil {
		s.recordFund(ctx, record.FundID)
	}
	return record, err
}

// DrainFund drains a fund's holding accounts
func (s *StateService) DrainFund(ctx context.Context, msg *fundtypes.MsgDrainFund) (*fundtypes.DrainReceipt, error) {
	var receipt *fundtypes.DrainReceipt
	err := s.exec("drain_fund", msg.FundID, func(sdkCtx sdk.Context) error {
		var err error
		receipt, err = s.state.MsgServer.DrainFund(sdkCtx, msg)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Fund drained", "fund_id", receipt.FundID, "destination", receipt.Destination)
	s.recordFund(ctx, receipt.FundID)
	return receipt, nil
}

// Faucet credits addr with amount of denom
func (s *StateService) Faucet(ctx context.Context, addr, denom string, amount uint64) error {
	timer := metrics.NewTimer()
	events, err := s.state.Faucet(addr, denom, amount)
	s.metrics.RecordOperation("faucet", err, timer.ElapsedMs())
	s.afterBlock(events)
	return err
}

// Sweep runs the lifecycle sweep as one block and returns the number of
// funds it expired
func (s *StateService) Sweep() (int, error) {
	timer := metrics.NewTimer()
	events, err := s.state.EndBlock()
	s.metrics.RecordOperation("sweep", err, timer.ElapsedMs())
	s.afterBlock(events)

	expired := 0
	for _, e := range events {
		if e.Type == "fund_expired" {
			expired++
		}
	}
	s.metrics.RecordExpired(expired)
	return expired, err
}

// GetFund returns a fund
func (s *StateService) GetFund(ctx context.Context, fundID string) (*fundtypes.Fund, error) {
	var fund *fundtypes.Fund
	err := s.state.Query(func(sdkCtx sdk.Context) error {
		var err error
		fund, err = s.state.QueryServer.Fund(sdkCtx, fundID)
		return err
	})
	return fund, err
}

// GetFunds returns a page of funds
func (s *StateService) GetFunds(ctx context.Context, offset, limit uint64) ([]*fundtypes.Fund, uint64, error) {
	var (
		funds []*fundtypes.Fund
		total uint64
	)
	err := s.state.Query(func(sdkCtx sdk.Context) error {
		var err error
		funds, total, err = s.state.QueryServer.Funds(sdkCtx, offset, limit)
		return err
	})
	return funds, total, err
}

// GetDeposits returns a page of a fund's deposits
func (s *StateService) GetDeposits(ctx context.Context, fundID string, offset, limit uint64) ([]*fundtypes.DepositRecord, uint64, error) {
	var (
		deposits []*fundtypes.DepositRecord
		total    uint64
	)
	err := s.state.Query(func(sdkCtx sdk.Context) error {
		var err error
		deposits, total, err = s.state.QueryServer.Deposits(sdkCtx, fundID, offset, limit)
		return err
	})
	return deposits, total, err
}

// GetRebalances returns a page of a fund's rebalance records
func (s *StateService) GetRebalances(ctx context.Context, fundID string, offset, limit uint64) ([]*fundtypes.RebalanceRecord, uint64, error) {
	var (
		records []*fundtypes.RebalanceRecord
		total   uint64
	)
	err := s.state.Query(func(sdkCtx sdk.Context) error {
		var err error
		records, total, err = s.state.QueryServer.Rebalances(sdkCtx, fundID, offset, limit)
		return err
	})
	return records, total, err
}

// GetClaimBalance returns holder's claim tokens in a fund
func (s *StateService) GetClaimBalance(ctx context.Context, fundID, holder string) (uint64, error) {
	var bal uint64
	err := s.state.Query(func(sdkCtx sdk.Context) error {
		var err error
		bal, err = s.state.QueryServer.ClaimBalance(sdkCtx, fundID, holder)
		return err
	})
	return bal, err
}

// GetBalance returns addr's balance of denom
func (s *StateService) GetBalance(ctx context.Context, addr, denom string) (uint64, error) {
	var bal uint64
	err := s.state.Query(func(sdkCtx sdk.Context) error {
		var err error
		bal, err = s.state.CustodyKeeper.Balance(sdkCtx, addr, denom)
		return err
	})
	return bal, err
}

// EstimateDeposit quotes a deposit without executing it
func (s *StateService) EstimateDeposit(ctx context.Context, fundID string, gross, tvlSnapshot uint64) (*fundtypes.MintReceipt, error) {
	var receipt *fundtypes.MintReceipt
	err := s.state.Query(func(sdkCtx sdk.Context) error {
		var err error
		receipt, err = s.state.QueryServer.EstimateDeposit(sdkCtx, fundID, gross, tvlSnapshot)
		return err
	})
	return receipt, err
}

// Height returns the last committed height
func (s *StateService) Height() int64 {
	return s.state.Height()
}
