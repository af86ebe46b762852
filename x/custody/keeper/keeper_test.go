package keeper

import (
	"errors"
	"testing"

	"cosmossdk.io/log"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/runtime"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/pawfund/x/custody/types"
)

const testAuthority = "custody-admin"

func setupKeeper(t testing.TB) (*Keeper, sdk.Context) {
	t.Helper()

	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	if err := stateStore.LoadLatestVersion(); err != nil {
		t.Fatalf("failed to load store: %v", err)
	}

	ctx := sdk.NewContext(stateStore, cmtproto.Header{}, false, log.NewNopLogger())
	params := types.Params{BaseDenom: "ubase", AccountReserve: 100}
	k := NewKeeper(runtime.NewKVStoreService(storeKey), params, testAuthority, log.NewNopLogger())
	return k, ctx
}

func fund(t *testing.T, k *Keeper, ctx sdk.Context, addr, denom string, amount uint64) {
	t.Helper()
	if err := k.Fund(ctx, testAuthority, addr, denom, amount); err != nil {
		t.Fatalf("fund %s: %v", addr, err)
	}
}

func balance(t *testing.T, k *Keeper, ctx sdk.Context, addr, denom string) uint64 {
	t.Helper()
	bal, err := k.Balance(ctx, addr, denom)
	if err != nil {
		t.Fatalf("balance %s: %v", addr, err)
	}
	return bal
}

func TestTransferRequiresCapability(t *testing.T) {
	k, ctx := setupKeeper(t)
	fund(t, k, ctx, "alice", "ubase", 1_000)

	err := k.TransferBase(ctx, types.NewCapability("mallory", "mallory"), "alice", "mallory", 10)
	if !errors.Is(err, types.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}

	if err := k.TransferBase(ctx, types.NewCapability("alice", "alice"), "alice", "bob", 400); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if got := balance(t, k, ctx, "alice", "ubase"); got != 600 {
		t.Errorf("expected alice 600, got %d", got)
	}
	if got := balance(t, k, ctx, "bob", "ubase"); got != 400 {
		t.Errorf("expected bob 400, got %d", got)
	}

	err = k.TransferBase(ctx, types.NewCapability("alice", "alice"), "alice", "bob", 601)
	if !errors.Is(err, types.ErrInsufficientBalance) {
		t.Errorf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestFundRequiresAuthority(t *testing.T) {
	k, ctx := setupKeeper(t)
	if err := k.Fund(ctx, "alice", "alice", "ubase", 10); !errors.Is(err, types.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestMintAndBurnTrackSupply(t *testing.T) {
	k, ctx := setupKeeper(t)
	if err := k.RegisterDenom(ctx, "fund/a", "fund/a/treasury"); err != nil {
		t.Fatalf("register denom: %v", err)
	}
	if err := k.RegisterDenom(ctx, "fund/a", "someone-else"); !errors.Is(err, types.ErrUnauthorized) {
		t.Errorf("expected re-registration to fail, got %v", err)
	}

	minter := types.NewCapability("fund", "fund/a/treasury")
	if err := k.MintClaim(ctx, minter, "fund/a", "alice", 500); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if err := k.MintClaim(ctx, types.NewCapability("alice", "alice"), "fund/a", "alice", 1); !errors.Is(err, types.ErrUnauthorized) {
		t.Errorf("expected mint without authority to fail, got %v", err)
	}

	if err := k.BurnClaim(ctx, types.NewCapability("alice", "alice"), "fund/a", "alice", 200); err != nil {
		t.Fatalf("burn failed: %v", err)
	}

	supply, err := k.SupplyOf(ctx, "fund/a")
	if err != nil {
		t.Fatal(err)
	}
	if supply != 300 {
		t.Errorf("expected supply 300, got %d", supply)
	}
	if got := balance(t, k, ctx, "alice", "fund/a"); got != 300 {
		t.Errorf("expected alice 300, got %d", got)
	}
}

func TestCreateHoldingAccountIdempotent(t *testing.T) {
	k, ctx := setupKeeper(t)
	fund(t, k, ctx, "router", "ubase", 1_000)
	routerCap := types.NewCapability("router", "router")
	req := types.CreateAccountRequest{Address: "staging", Owner: "router", Denom: "ubase", Native: true, Payer: "router"}

	acct, created, err := k.CreateHoldingAccount(ctx, routerCap, req)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !created || acct.Reserve != 100 {
		t.Errorf("expected new account with reserve 100, got created=%v reserve=%d", created, acct.Reserve)
	}

	_, created, err = k.CreateHoldingAccount(ctx, routerCap, req)
	if err != nil {
		t.Fatalf("second create should be a no-op, got %v", err)
	}
	if created {
		t.Error("second create reported a new account")
	}
	if got := balance(t, k, ctx, "router", "ubase"); got != 900 {
		t.Errorf("reserve charged twice: router has %d", got)
	}

	req.Owner = "intruder"
	if _, _, err := k.CreateHoldingAccount(ctx, routerCap, req); !errors.Is(err, types.ErrIncorrectOwner) {
		t.Errorf("expected ErrIncorrectOwner, got %v", err)
	}
}

func TestNativeSyncAndDelegatedSpend(t *testing.T) {
	k, ctx := setupKeeper(t)
	fund(t, k, ctx, "router", "ubase", 10_000)
	routerCap := types.NewCapability("router", "router")

	req := types.CreateAccountRequest{Address: "staging", Owner: "router", Denom: "ubase", Native: true, Payer: "router"}
	if _, _, err := k.CreateHoldingAccount(ctx, routerCap, req); err != nil {
		t.Fatal(err)
	}
	if err := k.TransferBase(ctx, routerCap, "router", "staging", 1_000); err != nil {
		t.Fatal(err)
	}

	acct, _, _ := k.HoldingAccount(ctx, "staging")
	if acct.Tracked != 0 {
		t.Errorf("tracked balance should lag until sync, got %d", acct.Tracked)
	}

	tracked, err := k.SyncNative(ctx, "staging")
	if err != nil {
		t.Fatal(err)
	}
	if tracked != 1_000 {
		t.Errorf("expected tracked 1000 after sync, got %d", tracked)
	}

	if err := k.ApproveDelegate(ctx, routerCap, "staging", "venue", 600); err != nil {
		t.Fatal(err)
	}
	venue := types.NewCapability("venue", "venue")

	if err := k.SpendDelegated(ctx, venue, "staging", "venue", 700); !errors.Is(err, types.ErrInsufficientAllowance) {
		t.Errorf("expected ErrInsufficientAllowance, got %v", err)
	}
	if err := k.SpendDelegated(ctx, types.NewCapability("other", "other"), "staging", "other", 1); !errors.Is(err, types.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if err := k.SpendDelegated(ctx, venue, "staging", "venue", 600); err != nil {
		t.Fatalf("delegated spend failed: %v", err)
	}

	acct, _, _ = k.HoldingAccount(ctx, "staging")
	if acct.Allowance != 0 || acct.Tracked != 400 {
		t.Errorf("expected allowance 0 tracked 400, got allowance %d tracked %d", acct.Allowance, acct.Tracked)
	}
}

func TestCloseHoldingAccountRefundsEverything(t *testing.T) {
	k, ctx := setupKeeper(t)
	fund(t, k, ctx, "router", "ubase", 1_000)
	routerCap := types.NewCapability("router", "router")

	req := types.CreateAccountRequest{Address: "staging", Owner: "router", Denom: "utarget", Payer: "router"}
	if _, _, err := k.CreateHoldingAccount(ctx, routerCap, req); err != nil {
		t.Fatal(err)
	}
	fund(t, k, ctx, "staging", "utarget", 50)

	if err := k.CloseHoldingAccount(ctx, types.NewCapability("other", "other"), "staging", "other"); !errors.Is(err, types.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if err := k.CloseHoldingAccount(ctx, routerCap, "staging", "router"); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if _, found, _ := k.HoldingAccount(ctx, "staging"); found {
		t.Error("account record still present after close")
	}
	if got := balance(t, k, ctx, "router", "ubase"); got != 1_000 {
		t.Errorf("expected reserve refunded, router has %d", got)
	}
	if got := balance(t, k, ctx, "router", "utarget"); got != 50 {
		t.Errorf("expected token balance refunded, router has %d", got)
	}
	if got := balance(t, k, ctx, "staging", "ubase"); got != 0 {
		t.Errorf("expected staging drained, has %d", got)
	}
}
