package swap

import (
	"context"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"

	custodytypes "github.com/openalpha/pawfund/x/custody/types"
	"github.com/openalpha/pawfund/x/fund/types"
)

// StagingState is the state of the staging account across one session
type StagingState int

const (
	StagingUninitialized StagingState = iota
	StagingInitialized
	StagingFunded
	StagingSubmitted
	StagingSettled
	StagingFailed
	StagingClosed
)

// String returns the string representation of StagingState
func (s StagingState) String() string {
	switch s {
	case StagingUninitialized:
		return "uninitialized"
	case StagingInitialized:
		return "initialized"
	case StagingFunded:
		return "funded"
	case StagingSubmitted:
		return "submitted"
	case StagingSettled:
		return "settled"
	case StagingFailed:
		return "failed"
	case StagingClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Plan describes one venue call routed through a staging account
type Plan struct {
	FundID    string
	Direction types.Direction
	Amount    uint64
	Payload   []byte

	// Authority owns the staging account, pays its reserve and receives
	// everything left in it on close.
	Authority string
	Staging   string
	// StagingDenom is the asset the venue spends. Native staging accounts
	// wrap the base asset.
	StagingDenom string
	Native       bool

	// Source funds the staging account with Amount of StagingDenom.
	Source string
	// Destination receives the venue's output.
	Destination string

	// Capability must cover Authority and Source.
	Capability custodytypes.Capability
}

// Validate checks the plan fields
func (p Plan) Validate() error {
	if p.Amount == 0 {
		return errorsmod.Wrap(types.ErrInvalidRequest, "swap amount must be positive")
	}
	for _, addr := range []string{p.Authority, p.Staging, p.Source, p.Destination} {
		if err := custodytypes.ValidateAddress(addr); err != nil {
			return errorsmod.Wrap(types.ErrInvalidRequest, err.Error())
		}
	}
	if p.StagingDenom == "" {
		return errorsmod.Wrap(types.ErrInvalidRequest, "staging denom must not be empty")
	}
	return nil
}

// Result is the outcome of a session. VenueErr is set when the venue was
// invoked and failed; Run then returns a nil error so the caller can decide
// how to surface it.
type Result struct {
	State     StagingState
	Submitted bool
	Settled   bool
	VenueErr  error
}

// Session drives a staging account through one venue call
type Session struct {
	custody types.CustodyKeeper
	venue   types.SwapVenue
	logger  log.Logger
}

// NewSession creates a Session
func NewSession(custody types.CustodyKeeper, venue types.SwapVenue, logger log.Logger) *Session {
	return &Session{
		custody: custody,
		venue:   venue,
		logger:  logger,
	}
}

// Run executes the plan. A returned error means the session failed before
// the venue was invoked and nothing it did should be kept. Once the venue is
// invoked the staging account is always closed into the authority, and a
// venue failure is reported through Result.VenueErr.
func (s *Session) Run(ctx context.Context, plan Plan) (res Result, err error) {
	if err := plan.Validate(); err != nil {
		return res, err
	}

	if err := s.initialize(ctx, plan); err != nil {
		return res, err
	}
	res.State = StagingInitialized

	defer func() {
		if cerr := s.custody.CloseHoldingAccount(ctx, plan.Capability, plan.Staging, plan.Authority); cerr != nil {
			s.logger.Error("Failed to close staging account", "fund_id", plan.FundID, "staging", plan.Staging, "state", res.State.String(), "error", cerr)
			if err == nil {
				err = types.FromCustody(cerr)
			}
			return
		}
		res.State = StagingClosed
	}()

	if err := s.fund(ctx, plan); err != nil {
		return res, err
	}
	res.State = StagingFunded

	if err := s.custody.ApproveDelegate(ctx, plan.Capability, plan.Staging, s.venue.Delegate(), plan.Amount); err != nil {
		return res, types.FromCustody(err)
	}

	accounts, err := s.venue.Layout().Bind(map[types.AccountRole]string{
		types.RoleAuthority:   plan.Authority,
		types.RoleStaging:     plan.Staging,
		types.RoleDestination: plan.Destination,
	})
	if err != nil {
		return res, err
	}

	res.State = StagingSubmitted
	res.Submitted = true
	if verr := s.venue.Execute(ctx, plan.Payload, accounts); verr != nil {
		res.State = StagingFailed
		res.VenueErr = verr
		s.logger.Warn("Venue execution failed", "fund_id", plan.FundID, "direction", plan.Direction.String(), "amount", plan.Amount, "error", verr)
		return res, nil
	}
	res.State = StagingSettled
	res.Settled = true
	return res, nil
}

// initialize creates the staging account, reusing one this authority
// already owns.
func (s *Session) initialize(ctx context.Context, plan Plan) error {
	acct, created, err := s.custody.CreateHoldingAccount(ctx, plan.Capability, custodytypes.CreateAccountRequest{
		Address: plan.Staging,
		Owner:   plan.Authority,
		Denom:   plan.StagingDenom,
		Native:  plan.Native,
		Payer:   plan.Authority,
	})
	if err != nil {
		return types.FromCustody(err)
	}
	if !created {
		s.logger.Debug("Reusing staging account", "fund_id", plan.FundID, "staging", acct.Address)
	}
	return nil
}

// fund moves the swap amount into staging, brings the tracked balance in
// line with the actual one and checks it covers the amount.
func (s *Session) fund(ctx context.Context, plan Plan) error {
	if err := s.custody.TransferToken(ctx, plan.Capability, plan.Source, plan.Staging, plan.StagingDenom, plan.Amount); err != nil {
		return types.FromCustody(err)
	}
	tracked, err := s.custody.SyncNative(ctx, plan.Staging)
	if err != nil {
		return types.FromCustody(err)
	}
	if tracked < plan.Amount {
		return errorsmod.Wrap(types.ErrInsufficientFunds, fmt.Sprintf("staging %s tracks %d, need %d", plan.Staging, tracked, plan.Amount))
	}
	return nil
}
