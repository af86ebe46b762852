package types

import (
	"errors"

	errorsmod "cosmossdk.io/errors"

	custodytypes "github.com/openalpha/pawfund/x/custody/types"
)

// fund module errors
var (
	ErrArithmeticOverflow   = errorsmod.Register(ModuleName, 2, "arithmetic overflow")
	ErrDivisionByZero       = errorsmod.Register(ModuleName, 3, "division by zero")
	ErrInsufficientFunds    = errorsmod.Register(ModuleName, 4, "insufficient funds")
	ErrInsufficientTokens   = errorsmod.Register(ModuleName, 5, "insufficient tokens")
	ErrInvalidFundStatus    = errorsmod.Register(ModuleName, 6, "invalid fund status")
	ErrFundExpired          = errorsmod.Register(ModuleName, 7, "fund expired")
	ErrUnauthorized         = errorsmod.Register(ModuleName, 8, "unauthorized")
	ErrIncorrectOwner       = errorsmod.Register(ModuleName, 9, "incorrect owner")
	ErrExternalVenueFailure = errorsmod.Register(ModuleName, 10, "external venue failure")
	ErrFundNotFound         = errorsmod.Register(ModuleName, 11, "fund not found")
	ErrFundExists           = errorsmod.Register(ModuleName, 12, "fund already exists")
	ErrInvalidRequest       = errorsmod.Register(ModuleName, 13, "invalid request")
	ErrInvalidLayout        = errorsmod.Register(ModuleName, 14, "account list does not match venue layout")
	ErrDepositTooSmall      = errorsmod.Register(ModuleName, 15, "deposit too small to mint claim tokens")
)

// FromCustody translates a custody error into the fund taxonomy. Errors with
// no fund counterpart are returned unchanged.
func FromCustody(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, custodytypes.ErrInsufficientBalance), errors.Is(err, custodytypes.ErrInsufficientAllowance):
		return errorsmod.Wrap(ErrInsufficientFunds, err.Error())
	case errors.Is(err, custodytypes.ErrUnauthorized):
		return errorsmod.Wrap(ErrUnauthorized, err.Error())
	case errors.Is(err, custodytypes.ErrIncorrectOwner):
		return errorsmod.Wrap(ErrIncorrectOwner, err.Error())
	case errors.Is(err, custodytypes.ErrOverflow):
		return errorsmod.Wrap(ErrArithmeticOverflow, err.Error())
	default:
		return err
	}
}
