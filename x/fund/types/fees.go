package types

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/openalpha/pawfund/pkg/checked"
)

// FeePolicy defines the protocol fee rate and how the fee is split between
// the manager (stakeholder A) and the owner (stakeholder B).
type FeePolicy struct {
	FeeNumerator     uint64 `mapstructure:"fee_numerator" yaml:"fee_numerator" json:"fee_numerator"`
	FeeDenominator   uint64 `mapstructure:"fee_denominator" yaml:"fee_denominator" json:"fee_denominator"`
	SplitNumerator   uint64 `mapstructure:"split_numerator" yaml:"split_numerator" json:"split_numerator"`
	SplitDenominator uint64 `mapstructure:"split_denominator" yaml:"split_denominator" json:"split_denominator"`
}

// DefaultFeePolicy returns the 1% fee, 20/80 manager/owner policy
func DefaultFeePolicy() FeePolicy {
	return FeePolicy{
		FeeNumerator:     1,
		FeeDenominator:   100,
		SplitNumerator:   20,
		SplitDenominator: 100,
	}
}

// Validate checks that both ratios are proper fractions
func (p FeePolicy) Validate() error {
	if p.FeeDenominator == 0 || p.SplitDenominator == 0 {
		return errorsmod.Wrap(ErrInvalidRequest, "fee denominators must be positive")
	}
	if p.FeeNumerator > p.FeeDenominator {
		return errorsmod.Wrap(ErrInvalidRequest, "fee rate above 100%")
	}
	if p.SplitNumerator > p.SplitDenominator {
		return errorsmod.Wrap(ErrInvalidRequest, "fee split above 100%")
	}
	return nil
}

// FeeSplit partitions a gross amount. Net + StakeholderA + StakeholderB always
// equals the gross amount it was computed from.
type FeeSplit struct {
	Net          uint64 `json:"net"`
	StakeholderA uint64 `json:"stakeholder_a"`
	StakeholderB uint64 `json:"stakeholder_b"`
}

// Fee returns the total fee
func (s FeeSplit) Fee() uint64 {
	return s.StakeholderA + s.StakeholderB
}

// Split computes the fee with checked arithmetic and fails with
// ErrArithmeticOverflow instead of wrapping. Used on deposit.
func (p FeePolicy) Split(gross uint64) (FeeSplit, error) {
	fee, ok := checked.MulDiv(gross, p.FeeNumerator, p.FeeDenominator)
	if !ok {
		return FeeSplit{}, errorsmod.Wrapf(ErrArithmeticOverflow, "fee on %d", gross)
	}
	net, ok := checked.Sub(gross, fee)
	if !ok {
		return FeeSplit{}, errorsmod.Wrapf(ErrArithmeticOverflow, "fee %d exceeds gross %d", fee, gross)
	}
	a, ok := checked.MulDiv(fee, p.SplitNumerator, p.SplitDenominator)
	if !ok {
		return FeeSplit{}, errorsmod.Wrapf(ErrArithmeticOverflow, "fee split on %d", fee)
	}
	b, ok := checked.Sub(fee, a)
	if !ok {
		return FeeSplit{}, errorsmod.Wrapf(ErrArithmeticOverflow, "fee share %d exceeds fee %d", a, fee)
	}
	return FeeSplit{Net: net, StakeholderA: a, StakeholderB: b}, nil
}

// SplitSaturating computes the same partition with saturating arithmetic and
// never fails. Used on redeem.
func (p FeePolicy) SplitSaturating(gross uint64) FeeSplit {
	fee := checked.SaturatingMulDiv(gross, p.FeeNumerator, p.FeeDenominator)
	if fee > gross {
		fee = gross
	}
	a := checked.SaturatingMulDiv(fee, p.SplitNumerator, p.SplitDenominator)
	if a > fee {
		a = fee
	}
	return FeeSplit{
		Net:          gross - fee,
		StakeholderA: a,
		StakeholderB: fee - a,
	}
}
