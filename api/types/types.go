package types

import (
	"context"

	fundtypes "github.com/openalpha/pawfund/x/fund/types"
)

// SignerHeader carries the acting address of state-changing requests
const SignerHeader = "X-Fund-Signer"

// FundService defines the operations the HTTP layer exposes
type FundService interface {
	// Transactions
	CreateFund(ctx context.Context, msg *fundtypes.MsgCreateFund) (*fundtypes.MsgCreateFundResponse, error)
	Deposit(ctx context.Context, msg *fundtypes.MsgDeposit) (*fundtypes.MintReceipt, error)
	Redeem(ctx context.Context, msg *fundtypes.MsgRedeem) (*fundtypes.RedeemReceipt, error)
	Rebalance(ctx context.Context, msg *fundtypes.MsgRebalance) (*fundtypes.RebalanceRecord, error)
	DrainFund(ctx context.Context, msg *fundtypes.MsgDrainFund) (*fundtypes.DrainReceipt, error)
	Faucet(ctx context.Context, addr, denom string, amount uint64) error

	// Queries
	GetFund(ctx context.Context, fundID string) (*fundtypes.Fund, error)
	GetFunds(ctx context.Context, offset, limit uint64) ([]*fundtypes.Fund, uint64, error)
	GetDeposits(ctx context.Context, fundID string, offset, limit uint64) ([]*fundtypes.DepositRecord, uint64, error)
	GetRebalances(ctx context.Context, fundID string, offset, limit uint64) ([]*fundtypes.RebalanceRecord, uint64, error)
	GetClaimBalance(ctx context.Context, fundID, holder string) (uint64, error)
	GetBalance(ctx context.Context, addr, denom string) (uint64, error)
	EstimateDeposit(ctx context.Context, fundID string, gross, tvlSnapshot uint64) (*fundtypes.MintReceipt, error)

	Height() int64
}

// CreateFundRequest is the body of POST /v1/funds. The creator is the signer.
type CreateFundRequest struct {
	FundID          string `json:"fund_id,omitempty"`
	Manager         string `json:"manager"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	SeedAmount      string `json:"seed_amount,omitempty"`
	InvestThreshold string `json:"invest_threshold,omitempty"`
}

// DepositRequest is the body of POST /v1/funds/{id}/deposit
type DepositRequest struct {
	Amount      string `json:"amount"`
	TVLSnapshot string `json:"tvl_snapshot,omitempty"`
}

// RedeemRequest is the body of POST /v1/funds/{id}/redeem
type RedeemRequest struct {
	ClaimAmount string `json:"claim_amount"`
}

// RebalanceRequest is the body of POST /v1/funds/{id}/rebalance
type RebalanceRequest struct {
	Direction    string `json:"direction"`
	Amount       string `json:"amount"`
	VenuePayload []byte `json:"venue_payload"`
}

// DrainRequest is the body of POST /v1/funds/{id}/drain
type DrainRequest struct {
	Destination string `json:"destination"`
}

// FaucetRequest is the body of POST /v1/faucet
type FaucetRequest struct {
	Address string `json:"address"`
	Denom   string `json:"denom"`
	Amount  string `json:"amount"`
}

// FundResponse represents a fund in API responses
type FundResponse struct {
	ID               string `json:"id"`
	Creator          string `json:"creator"`
	Manager          string `json:"manager"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	ClaimDenom       string `json:"claim_denom"`
	Status           string `json:"status"`
	Vault            string `json:"vault"`
	InvestThreshold  string `json:"invest_threshold"`
	TotalDeposited   string `json:"total_deposited"`
	AvailableCapital string `json:"available_capital"`
	ClaimSupply      string `json:"claim_supply"`
	DepositCount     uint64 `json:"deposit_count"`
	RebalanceCount   uint64 `json:"rebalance_count"`
	CreatedAt        int64  `json:"created_at"`
	UpdatedAt        int64  `json:"updated_at"`
	DrainedAt        int64  `json:"drained_at,omitempty"`
}

// RebalanceResponse represents a rebalance leg in API responses
type RebalanceResponse struct {
	FundID     string `json:"fund_id"`
	Sequence   uint64 `json:"sequence"`
	Direction  string `json:"direction"`
	Requested  string `json:"requested"`
	Committed  string `json:"committed"`
	Routed     string `json:"routed"`
	Returned   string `json:"returned"`
	Settled    bool   `json:"settled"`
	VenueError string `json:"venue_error,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

// MintResponse describes a deposit or deposit estimate
type MintResponse struct {
	FundID     string `json:"fund_id"`
	Depositor  string `json:"depositor,omitempty"`
	Gross      string `json:"gross"`
	Net        string `json:"net"`
	ManagerFee string `json:"manager_fee"`
	OwnerFee   string `json:"owner_fee"`
	Minted     string `json:"minted"`
	Status     string `json:"status"`
}

// BalanceResponse is a single balance lookup
type BalanceResponse struct {
	Address string `json:"address"`
	Denom   string `json:"denom"`
	Amount  string `json:"amount"`
}

// PageResponse wraps a list with its total size
type PageResponse[T any] struct {
	Items  []T    `json:"items"`
	Total  uint64 `json:"total"`
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	Codespace string `json:"codespace,omitempty"`
	Code      uint32 `json:"code,omitempty"`
	// Record is set when a rebalance reached the venue and failed there.
	Record *RebalanceResponse `json:"record,omitempty"`
}
