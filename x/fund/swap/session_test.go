package swap

import (
	"context"
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

// scriptedVenue records what it was handed and optionally fails
type scriptedVenue struct {
	err      error
	calls    int
	accounts []types.AccountRef
	allow    uint64
	custody  *custodykeeper.Keeper
}

func (v *scriptedVenue) Layout() types.VenueLayout {
	return types.VenueLayout{
		Version: "scripted/v1",
		Slots: []types.LayoutSlot{
			{Role: types.RoleAuthority, Writable: true, Signer: true},
			{Role: types.RoleStaging, Writable: true},
			{Role: types.RoleDestination, Writable: true},
		},
	}
}

func (v *scriptedVenue) Delegate() string { return "scripted" }

func (v *scriptedVenue) Execute(ctx context.Context, _ []byte, accounts []types.AccountRef) error {
	v.calls++
	v.accounts = accounts
	acct, _, _ := v.custody.HoldingAccount(ctx, accounts[1].Address)
	v.allow = acct.Allowance
	return v.err
}

func setupSession(t *testing.T, venueErr error) (*Session, *scriptedVenue, *custodykeeper.Keeper, sdk.Context) {
	t.Helper()

	key := storetypes.NewKVStoreKey(custodytypes.StoreKey)
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(key, storetypes.StoreTypeIAVL, db)
	if err := stateStore.LoadLatestVersion(); err != nil {
		t.Fatalf("failed to load store: %v", err)
	}
	ctx := sdk.NewContext(stateStore, cmtproto.Header{}, false, log.NewNopLogger())

	custody := custodykeeper.NewKeeper(runtime.NewKVStoreService(key), custodytypes.Params{BaseDenom: "ubase", AccountReserve: 100}, "admin", log.NewNopLogger())
	if err := custody.Fund(ctx, "admin", "router", "ubase", 10_000); err != nil {
		t.Fatal(err)
	}
	venue := &scriptedVenue{err: venueErr, custody: custody}
	return NewSession(custody, venue, log.NewNopLogger()), venue, custody, ctx
}

func testPlan() Plan {
	return Plan{
		FundID:       "f1",
		Direction:    types.DirectionBaseToTarget,
		Amount:       1_000,
		Authority:    "router",
		Staging:      "staging",
		StagingDenom: "ubase",
		Native:       true,
		Source:       "router",
		Destination:  "holdings",
		Capability:   custodytypes.NewCapability("fund", "router"),
	}
}

func TestSessionSettles(t *testing.T) {
	s, venue, custody, ctx := setupSession(t, nil)

	res, err := s.Run(ctx, testPlan())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !res.Submitted || !res.Settled || res.State != StagingClosed {
		t.Errorf("unexpected result: %+v", res)
	}
	if venue.calls != 1 || venue.allow != 1_000 {
		t.Errorf("expected one call with allowance 1000, got %d calls allowance %d", venue.calls, venue.allow)
	}
	if venue.accounts[0].Address != "router" || !venue.accounts[0].Signer || venue.accounts[2].Address != "holdings" {
		t.Errorf("unexpected account list: %+v", venue.accounts)
	}
	if _, found, _ := custody.HoldingAccount(ctx, "staging"); found {
		t.Error("staging not closed")
	}
}

func TestSessionVenueFailureClosesAndRefunds(t *testing.T) {
	s, _, custody, ctx := setupSession(t, errors.New("route not found"))

	res, err := s.Run(ctx, testPlan())
	if err != nil {
		t.Fatalf("venue failure must not surface as a session error: %v", err)
	}
	if res.VenueErr == nil || res.Settled || res.State != StagingClosed {
		t.Errorf("unexpected result: %+v", res)
	}
	if _, found, _ := custody.HoldingAccount(ctx, "staging"); found {
		t.Error("staging not closed")
	}
	bal, _ := custody.Balance(ctx, "router", "ubase")
	if bal != 10_000 {
		t.Errorf("expected router fully refunded, got %d", bal)
	}
}

func TestSessionPreSubmissionFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Plan)
		wantErr error
	}{
		{"zero amount", func(p *Plan) { p.Amount = 0 }, types.ErrInvalidRequest},
		{"source short", func(p *Plan) { p.Amount = 50_000 }, types.ErrInsufficientFunds},
		{"capability does not cover authority", func(p *Plan) { p.Capability = custodytypes.NewCapability("fund") }, types.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, venue, _, ctx := setupSession(t, nil)
			plan := testPlan()
			tt.mutate(&plan)

			res, err := s.Run(ctx, plan)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if res.Submitted || venue.calls != 0 {
				t.Errorf("venue invoked on a failed plan: %+v", res)
			}
		})
	}
}

func TestReconcilerArithmetic(t *testing.T) {
	r := VaultReconciler{BaseFloor: 50}

	if _, err := r.AvailableForRouting(1_159, 1_000, 50, 110); !errors.Is(err, types.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
	if got, err := r.AvailableForRouting(1_160, 1_000, 50, 110); err != nil || got != 1_000 {
		t.Errorf("expected 1000 routable, got %d (err %v)", got, err)
	}
	if _, err := r.AvailableForRouting(10, ^uint64(0), 1, 0); !errors.Is(err, types.ErrArithmeticOverflow) {
		t.Errorf("expected ErrArithmeticOverflow, got %v", err)
	}

	tests := []struct {
		name                 string
		before, after, floor uint64
		want                 uint64
	}{
		{"gain above before", 50, 160, 50, 110},
		{"loss clamps to zero", 160, 50, 50, 0},
		{"floor above before", 0, 160, 50, 110},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.SettlementDelta(tt.before, tt.after, tt.floor); got != tt.want {
				t.Errorf("SettlementDelta(%d, %d, %d) = %d, want %d", tt.before, tt.after, tt.floor, got, tt.want)
			}
		})
	}
}
