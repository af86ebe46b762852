package types

import "cosmossdk.io/collections"

const (
	// ModuleName defines the module name
	ModuleName = "custody"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName
)

var (
	BalancesPrefix = collections.NewPrefix(1)
	SupplyPrefix   = collections.NewPrefix(2)
	AccountsPrefix = collections.NewPrefix(3)
	DenomsPrefix   = collections.NewPrefix(4)
)
