package types

import (
	"context"
	"time"

	custodytypes "github.com/openalpha/pawfund/x/custody/types"
)

// CustodyKeeper defines the custody operations the fund module relies on
type CustodyKeeper interface {
	Params() custodytypes.Params
	Balance(ctx context.Context, addr, denom string) (uint64, error)
	HoldingAccount(ctx context.Context, addr string) (custodytypes.HoldingAccount, bool, error)

	RegisterDenom(ctx context.Context, denom, mintAuthority string) error
	TransferBase(ctx context.Context, auth custodytypes.Capability, from, to string, amount uint64) error
	TransferToken(ctx context.Context, auth custodytypes.Capability, from, to, denom string, amount uint64) error
	MintClaim(ctx context.Context, auth custodytypes.Capability, denom, to string, amount uint64) error
	BurnClaim(ctx context.Context, auth custodytypes.Capability, denom, from string, amount uint64) error

	CreateHoldingAccount(ctx context.Context, auth custodytypes.Capability, req custodytypes.CreateAccountRequest) (custodytypes.HoldingAccount, bool, error)
	CloseHoldingAccount(ctx context.Context, auth custodytypes.Capability, address, refundTo string) error
	SyncNative(ctx context.Context, address string) (uint64, error)
	ApproveDelegate(ctx context.Context, auth custodytypes.Capability, address, delegate string, amount uint64) error
}

// SwapVenue is an external exchange. Execute may apply part of its effects
// before returning an error.
type SwapVenue interface {
	Layout() VenueLayout
	// Delegate is the identity the venue spends staging balances under.
	Delegate() string
	Execute(ctx context.Context, payload []byte, accounts []AccountRef) error
}

// Clock is the time source for lifecycle decisions
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

// Now returns the current UTC time
func (SystemClock) Now() time.Time { return time.Now().UTC() }
