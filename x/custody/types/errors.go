package types

import (
	errorsmod "cosmossdk.io/errors"
)

// custody module errors
var (
	ErrInsufficientBalance   = errorsmod.Register(ModuleName, 2, "insufficient balance")
	ErrUnauthorized          = errorsmod.Register(ModuleName, 3, "unauthorized")
	ErrIncorrectOwner        = errorsmod.Register(ModuleName, 4, "holding account owned by another authority")
	ErrAccountNotFound       = errorsmod.Register(ModuleName, 5, "holding account not found")
	ErrInsufficientAllowance = errorsmod.Register(ModuleName, 6, "insufficient delegate allowance")
	ErrOverflow              = errorsmod.Register(ModuleName, 7, "arithmetic overflow")
	ErrInvalidAddress        = errorsmod.Register(ModuleName, 8, "invalid address")
	ErrInvalidAmount         = errorsmod.Register(ModuleName, 9, "invalid amount")
	ErrDenomMismatch         = errorsmod.Register(ModuleName, 10, "denom mismatch")
	ErrUnknownDenom          = errorsmod.Register(ModuleName, 11, "unknown denom")
)
