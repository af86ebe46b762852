package types

import (
	"time"

	errorsmod "cosmossdk.io/errors"
)

// Params defines fund module parameters
type Params struct {
	Fees FeePolicy `mapstructure:"fees" yaml:"fees" json:"fees"`

	MaxFundAgeSeconds int64 `mapstructure:"max_fund_age_seconds" yaml:"max_fund_age_seconds" json:"max_fund_age_seconds"`

	// RoutingBuffer is prefunded to the router on every rebalance to absorb
	// venue-side fees; whatever is left is routed back to the vault.
	RoutingBuffer uint64 `mapstructure:"routing_buffer" yaml:"routing_buffer" json:"routing_buffer"`

	// BaseReserve is the floor plain accounts (vault, router) must keep.
	BaseReserve uint64 `mapstructure:"base_reserve" yaml:"base_reserve" json:"base_reserve"`

	TargetDenom  string `mapstructure:"target_denom" yaml:"target_denom" json:"target_denom"`
	FeeCollector string `mapstructure:"fee_collector" yaml:"fee_collector" json:"fee_collector"`
}

// DefaultParams returns default fund parameters
func DefaultParams() Params {
	return Params{
		Fees:              DefaultFeePolicy(),
		MaxFundAgeSeconds: int64(DefaultMaxFundAge / time.Second),
		RoutingBuffer:     200_000,
		BaseReserve:       890_880,
		TargetDenom:       "utarget",
		FeeCollector:      ModuleName + "/fee_collector",
	}
}

// MaxFundAge returns the maximum fund age as a duration
func (p Params) MaxFundAge() time.Duration {
	return time.Duration(p.MaxFundAgeSeconds) * time.Second
}

// Validate validates the parameters
func (p Params) Validate() error {
	if err := p.Fees.Validate(); err != nil {
		return err
	}
	if p.MaxFundAgeSeconds <= 0 {
		return errorsmod.Wrap(ErrInvalidRequest, "max fund age must be positive")
	}
	if p.TargetDenom == "" {
		return errorsmod.Wrap(ErrInvalidRequest, "target denom must not be empty")
	}
	if p.FeeCollector == "" {
		return errorsmod.Wrap(ErrInvalidRequest, "fee collector must not be empty")
	}
	return nil
}
