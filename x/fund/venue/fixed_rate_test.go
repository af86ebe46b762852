package venue

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

	custodykeeper "github.com/openalpha/pawfund/x/custody/keeper"
	custodytypes "github.com/openalpha/pawfund/x/custody/types"
	"github.com/openalpha/pawfund/x/fund/types"
)

func setupVenue(t *testing.T, cfg Config) (*FixedRate, *custodykeeper.Keeper, sdk.Context) {
	t.Helper()

	key := storetypes.NewKVStoreKey(custodytypes.StoreKey)
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(key, storetypes.StoreTypeIAVL, db)
	if err := stateStore.LoadLatestVersion(); err != nil {
		t.Fatalf("failed to load store: %v", err)
	}
	ctx := sdk.NewContext(stateStore, cmtproto.Header{}, false, log.NewNopLogger())
	custody := custodykeeper.NewKeeper(runtime.NewKVStoreService(key), custodytypes.Params{BaseDenom: "ubase", AccountReserve: 10}, "admin", log.NewNopLogger())

	v, err := NewFixedRate(custody, cfg, log.NewNopLogger())
	if err != nil {
		t.Fatalf("new venue: %v", err)
	}

	for _, seed := range []struct {
		addr, denom string
		amount      uint64
	}{
		{"router", "ubase", 10_000},
		{cfg.Liquidity, "utarget", 500},
		{cfg.Liquidity, "ubase", 500},
	} {
		if err := custody.Fund(ctx, "admin", seed.addr, seed.denom, seed.amount); err != nil {
			t.Fatal(err)
		}
	}

	routerCap := custodytypes.NewCapability("router", "router")
	req := custodytypes.CreateAccountRequest{Address: "staging", Owner: "router", Denom: "ubase", Native: true, Payer: "router"}
	if _, _, err := custody.CreateHoldingAccount(ctx, routerCap, req); err != nil {
		t.Fatal(err)
	}
	if err := custody.TransferBase(ctx, routerCap, "router", "staging", 1_000); err != nil {
		t.Fatal(err)
	}
	if _, err := custody.SyncNative(ctx, "staging"); err != nil {
		t.Fatal(err)
	}
	if err := custody.ApproveDelegate(ctx, routerCap, "staging", cfg.ID, 1_000); err != nil {
		t.Fatal(err)
	}
	return v, custody, ctx
}

func accounts(t *testing.T, v *FixedRate) []types.AccountRef {
	t.Helper()
	refs, err := v.Layout().Bind(map[types.AccountRole]string{
		types.RoleAuthority:   "router",
		types.RoleStaging:     "staging",
		types.RoleDestination: "holdings",
	})
	if err != nil {
		t.Fatal(err)
	}
	return refs
}

func TestQuote(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateNumerator, cfg.RateDenominator = 2, 1
	v, _, _ := setupVenue(t, cfg)

	tests := []struct {
		name    string
		in      string
		amount  uint64
		wantOut string
		want    uint64
	}{
		{"base buys half as much target", "ubase", 100, "utarget", 50},
		{"target sells for twice the base", "utarget", 100, "ubase", 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			denom, out, err := v.Quote(tt.in, tt.amount)
			if err != nil {
				t.Fatal(err)
			}
			if denom != tt.wantOut || out != tt.want {
				t.Errorf("Quote(%s, %d) = %d%s, want %d%s", tt.in, tt.amount, out, denom, tt.want, tt.wantOut)
			}
		})
	}

	if _, _, err := v.Quote("uother", 1); !errors.Is(err, types.ErrExternalVenueFailure) {
		t.Errorf("expected ErrExternalVenueFailure, got %v", err)
	}
}

func TestExecute(t *testing.T) {
	v, custody, ctx := setupVenue(t, DefaultConfig())

	if err := v.Execute(ctx, Instruction{Version: LayoutVersion, AmountIn: 400, MinAmountOut: 400}.Encode(), accounts(t, v)); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if got, _ := custody.Balance(ctx, "holdings", "utarget"); got != 400 {
		t.Errorf("expected 400 target delivered, got %d", got)
	}
	acct, _, _ := custody.HoldingAccount(ctx, "staging")
	if acct.Allowance != 600 || acct.Tracked != 600 {
		t.Errorf("expected allowance and tracked 600, got %d and %d", acct.Allowance, acct.Tracked)
	}
}

func TestExecuteFailures(t *testing.T) {
	tests := []struct {
		name      string
		payload   []byte
		reorder   bool
		failAfter bool
		wantSpent uint64
	}{
		{"garbage payload", []byte("not json"), false, false, 0},
		{"wrong version", Instruction{Version: "other/v9", AmountIn: 1}.Encode(), false, false, 0},
		{"reordered accounts", Instruction{Version: LayoutVersion, AmountIn: 1}.Encode(), true, false, 0},
		{"slippage", Instruction{Version: LayoutVersion, AmountIn: 100, MinAmountOut: 101}.Encode(), false, false, 0},
		{"not enough liquidity", Instruction{Version: LayoutVersion, AmountIn: 900}.Encode(), false, false, 0},
		{"fail after spend", Instruction{Version: LayoutVersion, AmountIn: 100}.Encode(), false, true, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, custody, ctx := setupVenue(t, DefaultConfig())
			v.SetFailAfterSpend(tt.failAfter)
			refs := accounts(t, v)
			if tt.reorder {
				refs[0], refs[1] = refs[1], refs[0]
			}

			err := v.Execute(ctx, tt.payload, refs)
			if !errors.Is(err, types.ErrExternalVenueFailure) {
				t.Fatalf("expected ErrExternalVenueFailure, got %v", err)
			}
			acct, _, _ := custody.HoldingAccount(ctx, "staging")
			if spent := 1_000 - acct.Tracked; spent != tt.wantSpent {
				t.Errorf("expected %d spent, got %d", tt.wantSpent, spent)
			}
		})
	}
}
