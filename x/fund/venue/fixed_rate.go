// Package venue provides a simulated swap venue that trades the base and
// target assets at a fixed rate out of its own liquidity account.
package venue

import (
	"context"
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"

	"github.com/openalpha/pawfund/pkg/checked"
	custodytypes "github.com/openalpha/pawfund/x/custody/types"
	"github.com/openalpha/pawfund/x/fund/types"
)

// LayoutVersion identifies the account layout the venue accepts
const LayoutVersion = "fixed-rate/v1"

// Custody is the subset of the custody keeper the venue uses
type Custody interface {
	Params() custodytypes.Params
	Balance(ctx context.Context, addr, denom string) (uint64, error)
	HoldingAccount(ctx context.Context, addr string) (custodytypes.HoldingAccount, bool, error)
	TransferToken(ctx context.Context, auth custodytypes.Capability, from, to, denom string, amount uint64) error
	SpendDelegated(ctx context.Context, auth custodytypes.Capability, address, to string, amount uint64) error
}

// Instruction is the payload a caller hands to the venue
type Instruction struct {
	Version      string `json:"version"`
	AmountIn     uint64 `json:"amount_in"`
	MinAmountOut uint64 `json:"min_amount_out"`
}

// Encode returns the JSON payload for the instruction
func (i Instruction) Encode() []byte {
	bz, _ := json.Marshal(i)
	return bz
}

// Config configures a FixedRate venue
type Config struct {
	// ID is the delegate identity the venue spends staging balances under.
	ID string `mapstructure:"id" yaml:"id"`
	// Liquidity holds both assets and pays out trades.
	Liquidity string `mapstructure:"liquidity" yaml:"liquidity"`
	// One target unit costs RateNumerator/RateDenominator base units.
	RateNumerator   uint64 `mapstructure:"rate_numerator" yaml:"rate_numerator"`
	RateDenominator uint64 `mapstructure:"rate_denominator" yaml:"rate_denominator"`
	TargetDenom     string `mapstructure:"target_denom" yaml:"target_denom"`
	// FailAfterSpend takes the input and then reports failure, leaving the
	// call partially applied.
	FailAfterSpend bool `mapstructure:"fail_after_spend" yaml:"fail_after_spend"`
}

// DefaultConfig returns a 1:1 venue
func DefaultConfig() Config {
	return Config{
		ID:              "venue/fixed-rate",
		Liquidity:       "venue/fixed-rate/liquidity",
		RateNumerator:   1,
		RateDenominator: 1,
		TargetDenom:     "utarget",
	}
}

// FixedRate is a SwapVenue that quotes a constant price
type FixedRate struct {
	custody Custody
	config  Config
	auth    custodytypes.Capability
	logger  log.Logger
}

var _ types.SwapVenue = (*FixedRate)(nil)

// NewFixedRate creates a FixedRate venue
func NewFixedRate(custody Custody, config Config, logger log.Logger) (*FixedRate, error) {
	if config.RateNumerator == 0 || config.RateDenominator == 0 {
		return nil, errorsmod.Wrap(types.ErrInvalidRequest, "venue rate must be positive")
	}
	if err := custodytypes.ValidateAddress(config.ID); err != nil {
		return nil, err
	}
	if err := custodytypes.ValidateAddress(config.Liquidity); err != nil {
		return nil, err
	}
	return &FixedRate{
		custody: custody,
		config:  config,
		auth:    custodytypes.NewCapability(config.ID, config.ID, config.Liquidity),
		logger:  logger.With("module", "venue/fixed-rate"),
	}, nil
}

// Layout implements SwapVenue
func (v *FixedRate) Layout() types.VenueLayout {
	return types.VenueLayout{
		Version: LayoutVersion,
		Slots: []types.LayoutSlot{
			{Role: types.RoleAuthority, Writable: true, Signer: true},
			{Role: types.RoleStaging, Writable: true},
			{Role: types.RoleDestination, Writable: true},
		},
	}
}

// Delegate implements SwapVenue
func (v *FixedRate) Delegate() string {
	return v.config.ID
}

// Liquidity returns the venue's liquidity account
func (v *FixedRate) Liquidity() string {
	return v.config.Liquidity
}

// SetFailAfterSpend toggles partial-failure simulation
func (v *FixedRate) SetFailAfterSpend(fail bool) {
	v.config.FailAfterSpend = fail
}

// Quote returns the output for amountIn of inDenom
func (v *FixedRate) Quote(inDenom string, amountIn uint64) (outDenom string, amountOut uint64, err error) {
	base := v.custody.Params().BaseDenom
	var ok bool
	switch inDenom {
	case base:
		outDenom = v.config.TargetDenom
		amountOut, ok = checked.MulDiv(amountIn, v.config.RateDenominator, v.config.RateNumerator)
	case v.config.TargetDenom:
		outDenom = base
		amountOut, ok = checked.MulDiv(amountIn, v.config.RateNumerator, v.config.RateDenominator)
	default:
		return "", 0, errorsmod.Wrapf(types.ErrExternalVenueFailure, "unsupported input denom %s", inDenom)
	}
	if !ok {
		return "", 0, errorsmod.Wrapf(types.ErrExternalVenueFailure, "quote overflow for %d%s", amountIn, inDenom)
	}
	return outDenom, amountOut, nil
}

// Execute implements SwapVenue. It pulls AmountIn from the staging account
// under its delegate allowance and pays the quoted output to the
// destination.
func (v *FixedRate) Execute(ctx context.Context, payload []byte, accounts []types.AccountRef) error {
	var ins Instruction
	if err := json.Unmarshal(payload, &ins); err != nil {
		return errorsmod.Wrapf(types.ErrExternalVenueFailure, "decode instruction: %v", err)
	}
	if ins.Version != LayoutVersion {
		return errorsmod.Wrapf(types.ErrExternalVenueFailure, "instruction version %q, expected %q", ins.Version, LayoutVersion)
	}
	if ins.AmountIn == 0 {
		return errorsmod.Wrap(types.ErrExternalVenueFailure, "zero input")
	}

	byRole, err := v.Layout().Resolve(accounts)
	if err != nil {
		return errorsmod.Wrap(types.ErrExternalVenueFailure, err.Error())
	}
	staging := byRole[types.RoleStaging].Address
	destination := byRole[types.RoleDestination].Address

	acct, found, err := v.custody.HoldingAccount(ctx, staging)
	if err != nil {
		return err
	}
	if !found {
		return errorsmod.Wrapf(types.ErrExternalVenueFailure, "staging account %s does not exist", staging)
	}
	if acct.Owner != byRole[types.RoleAuthority].Address {
		return errorsmod.Wrapf(types.ErrExternalVenueFailure, "staging account %s is not owned by the signer", staging)
	}

	outDenom, amountOut, err := v.Quote(acct.Denom, ins.AmountIn)
	if err != nil {
		return err
	}
	if amountOut < ins.MinAmountOut {
		return errorsmod.Wrapf(types.ErrExternalVenueFailure, "slippage: quote %d below minimum %d", amountOut, ins.MinAmountOut)
	}
	liquidity, err := v.custody.Balance(ctx, v.config.Liquidity, outDenom)
	if err != nil {
		return err
	}
	if liquidity < amountOut {
		return errorsmod.Wrapf(types.ErrExternalVenueFailure, "liquidity %d%s below %d", liquidity, outDenom, amountOut)
	}

	if err := v.custody.SpendDelegated(ctx, v.auth, staging, v.config.Liquidity, ins.AmountIn); err != nil {
		return errorsmod.Wrap(types.ErrExternalVenueFailure, err.Error())
	}
	if v.config.FailAfterSpend {
		return errorsmod.Wrapf(types.ErrExternalVenueFailure, "route failed after taking %d%s", ins.AmountIn, acct.Denom)
	}
	if err := v.custody.TransferToken(ctx, v.auth, v.config.Liquidity, destination, outDenom, amountOut); err != nil {
		return errorsmod.Wrap(types.ErrExternalVenueFailure, err.Error())
	}

	v.logger.Debug("Swap executed",
		"staging", staging,
		"in", ins.AmountIn,
		"in_denom", acct.Denom,
		"out", amountOut,
		"out_denom", outDenom,
	)
	return nil
}
