package keeper

import (
	"context"
	"sort"
	"strconv"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/pawfund/pkg/checked"
	"github.com/openalpha/pawfund/x/custody/types"
)

func formatUint(v uint64) string { return strconv.FormatUint(v, 10) }

// TransferBase moves the base asset out of an account covered by auth
func (k *Keeper) TransferBase(ctx context.Context, auth types.Capability, from, to string, amount uint64) error {
	return k.TransferToken(ctx, auth, from, to, k.params.BaseDenom, amount)
}

// TransferToken moves amount of denom out of an account covered by auth
func (k *Keeper) TransferToken(ctx context.Context, auth types.Capability, from, to, denom string, amount uint64) error {
	if err := authorize(auth, from); err != nil {
		return err
	}
	if err := k.move(ctx, from, to, denom, amount); err != nil {
		return err
	}
	if amount > 0 {
		emitTransfer(ctx, from, to, denom, amount)
	}
	return nil
}

// RegisterDenom records mintAuthority as the only account allowed to mint
// denom. Re-registering with the same authority is a no-op.
func (k *Keeper) RegisterDenom(ctx context.Context, denom, mintAuthority string) error {
	if err := types.ValidateAddress(mintAuthority); err != nil {
		return err
	}
	existing, err := k.Denoms.Get(ctx, denom)
	switch {
	case err == nil && existing == mintAuthority:
		return nil
	case err == nil:
		return errorsmod.Wrapf(types.ErrUnauthorized, "denom %s already registered to %s", denom, existing)
	case !errorsIsNotFound(err):
		return err
	}
	return k.Denoms.Set(ctx, denom, mintAuthority)
}

// MintClaim issues amount of a registered denom to an account. auth must cover
// the denom's mint authority.
func (k *Keeper) MintClaim(ctx context.Context, auth types.Capability, denom, to string, amount uint64) error {
	mintAuthority, err := k.Denoms.Get(ctx, denom)
	if err != nil {
		if errorsIsNotFound(err) {
			return errorsmod.Wrap(types.ErrUnknownDenom, denom)
		}
		return err
	}
	if err := authorize(auth, mintAuthority); err != nil {
		return err
	}
	if err := types.ValidateAddress(to); err != nil {
		return err
	}
	if err := k.issue(ctx, denom, amount); err != nil {
		return err
	}
	if err := k.credit(ctx, to, denom, amount); err != nil {
		return err
	}

	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(
		sdk.NewEvent(
			"custody_mint",
			sdk.NewAttribute("denom", denom),
			sdk.NewAttribute("to", to),
			sdk.NewAttribute("amount", formatUint(amount)),
		),
	)
	return nil
}

// BurnClaim destroys amount of denom held by an account covered by auth
func (k *Keeper) BurnClaim(ctx context.Context, auth types.Capability, denom, from string, amount uint64) error {
	if err := authorize(auth, from); err != nil {
		return err
	}
	if err := k.debit(ctx, from, denom, amount); err != nil {
		return err
	}
	supply, err := k.SupplyOf(ctx, denom)
	if err != nil {
		return err
	}
	next, ok := checked.Sub(supply, amount)
	if !ok {
		return errorsmod.Wrapf(types.ErrOverflow, "burn %d exceeds %s supply %d", amount, denom, supply)
	}
	if err := k.Supply.Set(ctx, denom, next); err != nil {
		return err
	}

	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(
		sdk.NewEvent(
			"custody_burn",
			sdk.NewAttribute("denom", denom),
			sdk.NewAttribute("from", from),
			sdk.NewAttribute("amount", formatUint(amount)),
		),
	)
	return nil
}

// Fund credits an account with newly issued units. Only the custody
// authority may call it; it seeds operator and venue balances.
func (k *Keeper) Fund(ctx context.Context, signer, to, denom string, amount uint64) error {
	if signer != k.authority {
		return errorsmod.Wrapf(types.ErrUnauthorized, "%s is not the custody authority", signer)
	}
	if err := types.ValidateAddress(to); err != nil {
		return err
	}
	if amount == 0 {
		return types.ErrInvalidAmount
	}
	if err := k.issue(ctx, denom, amount); err != nil {
		return err
	}
	return k.credit(ctx, to, denom, amount)
}

func (k *Keeper) issue(ctx context.Context, denom string, amount uint64) error {
	supply, err := k.SupplyOf(ctx, denom)
	if err != nil {
		return err
	}
	next, ok := checked.Add(supply, amount)
	if !ok {
		return errorsmod.Wrapf(types.ErrOverflow, "%s supply overflow", denom)
	}
	return k.Supply.Set(ctx, denom, next)
}

// CreateHoldingAccount creates a holding account, funding its reserve from
// the payer. If an account already exists at the address and is owned by the
// requested owner it is returned unchanged with created=false; an account
// owned by anyone else fails with ErrIncorrectOwner.
func (k *Keeper) CreateHoldingAccount(ctx context.Context, auth types.Capability, req types.CreateAccountRequest) (acct types.HoldingAccount, created bool, err error) {
	if err := req.Validate(); err != nil {
		return acct, false, err
	}

	existing, found, err := k.HoldingAccount(ctx, req.Address)
	if err != nil {
		return acct, false, err
	}
	if found {
		if existing.Owner != req.Owner {
			return acct, false, errorsmod.Wrapf(types.ErrIncorrectOwner, "%s is owned by %s", req.Address, existing.Owner)
		}
		if existing.Denom != req.Denom || existing.Native != req.Native {
			return acct, false, errorsmod.Wrapf(types.ErrDenomMismatch, "%s holds %s", req.Address, existing.Denom)
		}
		return existing, false, nil
	}

	if err := authorize(auth, req.Payer); err != nil {
		return acct, false, err
	}
	if err := k.move(ctx, req.Payer, req.Address, k.params.BaseDenom, k.params.AccountReserve); err != nil {
		return acct, false, err
	}

	acct = types.HoldingAccount{
		Address: req.Address,
		Owner:   req.Owner,
		Denom:   req.Denom,
		Native:  req.Native,
		Reserve: k.params.AccountReserve,
	}
	if err := k.Accounts.Set(ctx, req.Address, acct); err != nil {
		return types.HoldingAccount{}, false, err
	}

	k.logger.Debug("Holding account created", "address", req.Address, "owner", req.Owner, "denom", req.Denom)
	return acct, true, nil
}

// CloseHoldingAccount moves every balance held at the account, reserve
// included, to refundTo and removes the account record. auth must cover the
// account's owner.
func (k *Keeper) CloseHoldingAccount(ctx context.Context, auth types.Capability, address, refundTo string) error {
	acct, found, err := k.HoldingAccount(ctx, address)
	if err != nil {
		return err
	}
	if !found {
		return errorsmod.Wrap(types.ErrAccountNotFound, address)
	}
	if err := authorize(auth, acct.Owner); err != nil {
		return err
	}

	balances, err := k.AllBalances(ctx, address)
	if err != nil {
		return err
	}

	// Drop the record first so the reserve is no longer protected.
	if err := k.Accounts.Remove(ctx, address); err != nil {
		return err
	}
	denoms := make([]string, 0, len(balances))
	for denom := range balances {
		denoms = append(denoms, denom)
	}
	sort.Strings(denoms)
	for _, denom := range denoms {
		if err := k.move(ctx, address, refundTo, denom, balances[denom]); err != nil {
			return err
		}
	}

	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(
		sdk.NewEvent(
			"custody_close_account",
			sdk.NewAttribute("address", address),
			sdk.NewAttribute("refund_to", refundTo),
		),
	)
	return nil
}

// SyncNative sets a native account's tracked balance to its spendable base
// balance.
func (k *Keeper) SyncNative(ctx context.Context, address string) (uint64, error) {
	acct, found, err := k.HoldingAccount(ctx, address)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, errorsmod.Wrap(types.ErrAccountNotFound, address)
	}

	bal, err := k.Balance(ctx, address, acct.Denom)
	if err != nil {
		return 0, err
	}
	if acct.Native {
		acct.Tracked = checked.SaturatingSub(bal, acct.Reserve)
	} else {
		acct.Tracked = bal
	}
	if err := k.Accounts.Set(ctx, address, acct); err != nil {
		return 0, err
	}
	return acct.Tracked, nil
}

// ApproveDelegate replaces any existing allowance on the account with exactly
// amount for delegate. auth must cover the account's owner.
func (k *Keeper) ApproveDelegate(ctx context.Context, auth types.Capability, address, delegate string, amount uint64) error {
	acct, found, err := k.HoldingAccount(ctx, address)
	if err != nil {
		return err
	}
	if !found {
		return errorsmod.Wrap(types.ErrAccountNotFound, address)
	}
	if err := authorize(auth, acct.Owner); err != nil {
		return err
	}
	if err := types.ValidateAddress(delegate); err != nil {
		return err
	}

	acct.Delegate = delegate
	acct.Allowance = amount
	return k.Accounts.Set(ctx, address, acct)
}

// SpendDelegated moves amount out of a holding account on behalf of its
// delegate. auth must cover the delegate identity, and both the allowance and
// the tracked balance must cover amount.
func (k *Keeper) SpendDelegated(ctx context.Context, auth types.Capability, address, to string, amount uint64) error {
	acct, found, err := k.HoldingAccount(ctx, address)
	if err != nil {
		return err
	}
	if !found {
		return errorsmod.Wrap(types.ErrAccountNotFound, address)
	}
	if acct.Delegate == "" || !auth.Allows(acct.Delegate) {
		return errorsmod.Wrapf(types.ErrUnauthorized, "%q is not the delegate of %s", auth.Holder(), address)
	}
	if acct.Allowance < amount {
		return errorsmod.Wrapf(types.ErrInsufficientAllowance, "allowance %d, need %d", acct.Allowance, amount)
	}
	if acct.Tracked < amount {
		return errorsmod.Wrapf(types.ErrInsufficientBalance, "tracked %d, need %d", acct.Tracked, amount)
	}

	tracked := acct.Tracked - amount
	allowance := acct.Allowance - amount
	if err := k.move(ctx, address, to, acct.Denom, amount); err != nil {
		return err
	}

	// move may already have clamped Tracked on a native account.
	acct, _, err = k.HoldingAccount(ctx, address)
	if err != nil {
		return err
	}
	acct.Allowance = allowance
	if acct.Tracked > tracked {
		acct.Tracked = tracked
	}
	if err := k.Accounts.Set(ctx, address, acct); err != nil {
		return err
	}

	emitTransfer(ctx, address, to, acct.Denom, amount)
	return nil
}

func errorsIsNotFound(err error) bool {
	return errorsmod.IsOf(err, collections.ErrNotFound)
}
