package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/pawfund/pkg/checked"
	"github.com/openalpha/pawfund/x/custody/types"
)

// Keeper is the custody ledger: balances per (address, denom), issuance per
// denom, and holding account records.
type Keeper struct {
	storeService store.KVStoreService
	params       types.Params
	authority    string
	logger       log.Logger

	Schema   collections.Schema
	Balances collections.Map[collections.Pair[string, string], uint64]
	Supply   collections.Map[string, uint64]
	Accounts collections.Map[string, types.HoldingAccount]
	// Denoms maps a mintable denom to its mint authority.
	Denoms collections.Map[string, string]
}

// NewKeeper creates a new custody Keeper
func NewKeeper(storeService store.KVStoreService, params types.Params, authority string, logger log.Logger) *Keeper {
	if err := params.Validate(); err != nil {
		panic(err)
	}

	builder := collections.NewSchemaBuilder(storeService)
	k := &Keeper{
		storeService: storeService,
		params:       params,
		authority:    authority,
		logger:       logger.With("module", "x/"+types.ModuleName),

		Balances: collections.NewMap(builder, types.BalancesPrefix, "balances", collections.PairKeyCodec(collections.StringKey, collections.StringKey), collections.Uint64Value),
		Supply:   collections.NewMap(builder, types.SupplyPrefix, "supply", collections.StringKey, collections.Uint64Value),
		Accounts: collections.NewMap(builder, types.AccountsPrefix, "accounts", collections.StringKey, types.HoldingAccountValue),
		Denoms:   collections.NewMap(builder, types.DenomsPrefix, "denoms", collections.StringKey, collections.StringValue),
	}

	schema, err := builder.Build()
	if err != nil {
		panic(err)
	}
	k.Schema = schema

	return k
}

// Params returns the custody parameters
func (k *Keeper) Params() types.Params {
	return k.params
}

// BaseDenom returns the denom of the base asset
func (k *Keeper) BaseDenom() string {
	return k.params.BaseDenom
}

// Authority returns the address allowed to fund accounts out of thin air
func (k *Keeper) Authority() string {
	return k.authority
}

// Balance returns the balance of addr in denom. Missing entries read as zero.
func (k *Keeper) Balance(ctx context.Context, addr, denom string) (uint64, error) {
	amount, err := k.Balances.Get(ctx, collections.Join(addr, denom))
	if errors.Is(err, collections.ErrNotFound) {
		return 0, nil
	}
	return amount, err
}

// SupplyOf returns the total issued amount of denom
func (k *Keeper) SupplyOf(ctx context.Context, denom string) (uint64, error) {
	amount, err := k.Supply.Get(ctx, denom)
	if errors.Is(err, collections.ErrNotFound) {
		return 0, nil
	}
	return amount, err
}

// HoldingAccount returns the holding account at addr, if any
func (k *Keeper) HoldingAccount(ctx context.Context, addr string) (types.HoldingAccount, bool, error) {
	acct, err := k.Accounts.Get(ctx, addr)
	if errors.Is(err, collections.ErrNotFound) {
		return types.HoldingAccount{}, false, nil
	}
	if err != nil {
		return types.HoldingAccount{}, false, err
	}
	return acct, true, nil
}

// AllBalances returns every non-zero balance held by addr, keyed by denom
func (k *Keeper) AllBalances(ctx context.Context, addr string) (map[string]uint64, error) {
	out := make(map[string]uint64)
	rng := collections.NewPrefixedPairRange[string, string](addr)
	err := k.Balances.Walk(ctx, rng, func(key collections.Pair[string, string], value uint64) (bool, error) {
		if value > 0 {
			out[key.K2()] = value
		}
		return false, nil
	})
	return out, err
}

func (k *Keeper) setBalance(ctx context.Context, addr, denom string, amount uint64) error {
	key := collections.Join(addr, denom)
	if amount == 0 {
		return k.Balances.Remove(ctx, key)
	}
	return k.Balances.Set(ctx, key, amount)
}

func (k *Keeper) credit(ctx context.Context, addr, denom string, amount uint64) error {
	bal, err := k.Balance(ctx, addr, denom)
	if err != nil {
		return err
	}
	next, ok := checked.Add(bal, amount)
	if !ok {
		return errorsmod.Wrapf(types.ErrOverflow, "credit %d%s to %s", amount, denom, addr)
	}
	return k.setBalance(ctx, addr, denom, next)
}

// debit removes amount from addr. Holding accounts never drop below their
// reserve in the base denom, and native accounts clamp their tracked view.
func (k *Keeper) debit(ctx context.Context, addr, denom string, amount uint64) error {
	bal, err := k.Balance(ctx, addr, denom)
	if err != nil {
		return err
	}

	acct, isHolding, err := k.HoldingAccount(ctx, addr)
	if err != nil {
		return err
	}

	spendable := bal
	if isHolding && denom == k.params.BaseDenom {
		spendable = checked.SaturatingSub(bal, acct.Reserve)
	}
	if amount > spendable {
		return errorsmod.Wrapf(types.ErrInsufficientBalance, "%s has %d%s spendable, need %d", addr, spendable, denom, amount)
	}

	if err := k.setBalance(ctx, addr, denom, bal-amount); err != nil {
		return err
	}

	if isHolding && acct.Native && denom == k.params.BaseDenom {
		if limit := spendable - amount; acct.Tracked > limit {
			acct.Tracked = limit
			return k.Accounts.Set(ctx, addr, acct)
		}
	}
	return nil
}

func (k *Keeper) move(ctx context.Context, from, to, denom string, amount uint64) error {
	if amount == 0 || from == to {
		return nil
	}
	if err := types.ValidateAddress(to); err != nil {
		return err
	}
	if err := k.debit(ctx, from, denom, amount); err != nil {
		return err
	}
	return k.credit(ctx, to, denom, amount)
}

func authorize(auth types.Capability, account string) error {
	if !auth.Allows(account) {
		return errorsmod.Wrapf(types.ErrUnauthorized, "capability of %q does not cover %s", auth.Holder(), account)
	}
	return nil
}

func emitTransfer(ctx context.Context, from, to, denom string, amount uint64) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			"custody_transfer",
			sdk.NewAttribute("from", from),
			sdk.NewAttribute("to", to),
			sdk.NewAttribute("denom", denom),
			sdk.NewAttribute("amount", formatUint(amount)),
		),
	)
}
