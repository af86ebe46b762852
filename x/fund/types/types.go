package types

// Fund is the accounting record of one pooled fund
type Fund struct {
	ID          string `json:"id"`
	Creator     string `json:"creator"`
	Manager     string `json:"manager"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ClaimDenom  string `json:"claim_denom"`

	Status    FundStatus `json:"status"`
	CreatedAt int64      `json:"created_at"`
	UpdatedAt int64      `json:"updated_at"`
	DrainedAt int64      `json:"drained_at,omitempty"`

	InvestThreshold  uint64 `json:"invest_threshold"`
	TotalDeposited   uint64 `json:"total_deposited"`
	AvailableCapital uint64 `json:"available_capital"`
	ClaimSupply      uint64 `json:"claim_supply"`

	DepositCount   uint64 `json:"deposit_count"`
	RebalanceCount uint64 `json:"rebalance_count"`
}

// DepositRecord is an immutable entry of a fund's deposit ledger
type DepositRecord struct {
	FundID      string `json:"fund_id"`
	Sequence    uint64 `json:"sequence"`
	Depositor   string `json:"depositor"`
	GrossAmount uint64 `json:"gross_amount"`
	Timestamp   int64  `json:"timestamp"`
}

// RebalanceRecord is the outcome of one rebalancing leg
type RebalanceRecord struct {
	FundID    string    `json:"fund_id"`
	Sequence  uint64    `json:"sequence"`
	Direction Direction `json:"direction"`
	Requested uint64    `json:"requested"`
	// Committed is the base asset moved from the vault to the router.
	Committed uint64 `json:"committed"`
	// Routed is the base asset returned to the vault after settlement.
	Routed uint64 `json:"routed"`
	// Returned is unspent target asset returned to the fund holdings.
	Returned   uint64 `json:"returned"`
	Settled    bool   `json:"settled"`
	VenueError string `json:"venue_error,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

// MintReceipt describes a completed deposit
type MintReceipt struct {
	FundID     string     `json:"fund_id"`
	Depositor  string     `json:"depositor"`
	Gross      uint64     `json:"gross"`
	Net        uint64     `json:"net"`
	ManagerFee uint64     `json:"manager_fee"`
	OwnerFee   uint64     `json:"owner_fee"`
	Minted     uint64     `json:"minted"`
	Status     FundStatus `json:"status"`
}

// RedeemReceipt describes a completed redemption. The fee shares are
// computed but not disbursed.
type RedeemReceipt struct {
	FundID     string `json:"fund_id"`
	Redeemer   string `json:"redeemer"`
	Burned     uint64 `json:"burned"`
	BaseOwed   uint64 `json:"base_owed"`
	Payout     uint64 `json:"payout"`
	ManagerFee uint64 `json:"manager_fee"`
	OwnerFee   uint64 `json:"owner_fee"`
}

// DrainReceipt describes an administrative drain
type DrainReceipt struct {
	FundID      string `json:"fund_id"`
	Destination string `json:"destination"`
	Base        uint64 `json:"base"`
	Target      uint64 `json:"target"`
	Router      uint64 `json:"router"`
}
