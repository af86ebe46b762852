package types

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
)

const (
	// ModuleName defines the module name
	ModuleName = "fund"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName
)

// Fund-owned account addresses are fixed per fund and per purpose, so two
// funds never share a vault, a router or a staging account.

// ClaimDenom returns the claim token denom of a fund
func ClaimDenom(fundID string) string { return fmt.Sprintf("%s/%s", ModuleName, fundID) }

// VaultAddress holds the fund's base asset
func VaultAddress(fundID string) string { return fmt.Sprintf("%s/%s/vault", ModuleName, fundID) }

// TreasuryAddress is the claim token mint authority and holds the seed mint
func TreasuryAddress(fundID string) string {
	return fmt.Sprintf("%s/%s/treasury", ModuleName, fundID)
}

// HoldingsAddress holds the fund's target asset
func HoldingsAddress(fundID string) string {
	return fmt.Sprintf("%s/%s/holdings", ModuleName, fundID)
}

// RouterAddress is the routing authority used by rebalancing sessions
func RouterAddress(fundID string) string { return fmt.Sprintf("%s/%s/router", ModuleName, fundID) }

// StagingAddress is the staging holding account for one swap direction
func StagingAddress(fundID string, dir Direction) string {
	return fmt.Sprintf("%s/%s/staging/%s", ModuleName, fundID, dir)
}

// MaxFundIDLength bounds fund identifiers
const MaxFundIDLength = 64

// ValidateFundID accepts ASCII letters, digits, '-' and '_'. Fund IDs are
// embedded in store keys and account addresses, so separators are refused.
func ValidateFundID(id string) error {
	if id == "" || len(id) > MaxFundIDLength {
		return errorsmod.Wrapf(ErrInvalidRequest, "fund id must be 1-%d characters", MaxFundIDLength)
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return errorsmod.Wrapf(ErrInvalidRequest, "fund id %q contains %q", id, c)
		}
	}
	return nil
}
