package types

import (
	errorsmod "cosmossdk.io/errors"
)

// MintOnDeposit returns the claim tokens minted for a net deposit.
//
// An empty fund mints 1:1. Otherwise the claim price is
// floor(poolValue/claimSupply) and the mint is floor(net/price). A price of
// zero, which happens whenever poolValue < claimSupply, is an error rather
// than a silent zero mint.
func MintOnDeposit(net, claimSupply, poolValue uint64) (uint64, error) {
	if claimSupply == 0 {
		return net, nil
	}
	price := poolValue / claimSupply
	if price == 0 {
		return 0, errorsmod.Wrapf(ErrDivisionByZero, "claim price is zero: pool value %d, claim supply %d", poolValue, claimSupply)
	}
	return net / price, nil
}

// BurnOnRedeem returns the base asset owed, before fees, for burned claim
// tokens. Redemption is valued 1:1 and does not consult pool value.
func BurnOnRedeem(claimBurned uint64) uint64 {
	return claimBurned
}
