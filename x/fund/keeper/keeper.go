package keeper

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	custodytypes "github.com/openalpha/pawfund/x/custody/types"
	"github.com/openalpha/pawfund/x/fund/swap"
	"github.com/openalpha/pawfund/x/fund/types"
)

// Store key prefixes
var (
	FundKeyPrefix           = []byte{0x01}
	DepositKeyPrefix        = []byte{0x02}
	DepositorIndexKeyPrefix = []byte{0x03}
	RebalanceKeyPrefix      = []byte{0x04}
)

// Keeper manages the fund module state
type Keeper struct {
	storeKey  storetypes.StoreKey
	custody   types.CustodyKeeper
	venue     types.SwapVenue
	clock     types.Clock
	params    types.Params
	lifecycle types.Lifecycle
	authority string
	logger    log.Logger
}

// NewKeeper creates a new fund keeper
func NewKeeper(
	storeKey storetypes.StoreKey,
	custody types.CustodyKeeper,
	venue types.SwapVenue,
	clock types.Clock,
	params types.Params,
	authority string,
	logger log.Logger,
) *Keeper {
	if err := params.Validate(); err != nil {
		panic(err)
	}
	if clock == nil {
		clock = types.SystemClock{}
	}
	return &Keeper{
		storeKey:  storeKey,
		custody:   custody,
		venue:     venue,
		clock:     clock,
		params:    params,
		lifecycle: types.NewLifecycle(params.MaxFundAge()),
		authority: authority,
		logger:    logger.With("module", "x/fund"),
	}
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// GetAuthority returns the administrative authority address
func (k *Keeper) GetAuthority() string {
	return k.authority
}

// GetParams returns the module parameters
func (k *Keeper) GetParams() types.Params {
	return k.params
}

// GetStore returns the KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

func (k *Keeper) now() time.Time {
	return k.clock.Now()
}

// fundCapability covers every account the fund module controls for fundID
func (k *Keeper) fundCapability(fundID string) custodytypes.Capability {
	return custodytypes.NewCapability(types.ModuleName,
		types.VaultAddress(fundID),
		types.TreasuryAddress(fundID),
		types.HoldingsAddress(fundID),
		types.RouterAddress(fundID),
	)
}

func (k *Keeper) reconciler() swap.VaultReconciler {
	return swap.NewVaultReconciler(k.custody, k.params.BaseReserve)
}

// ============ Fund Operations ============

func fundKey(fundID string) []byte {
	return append(append([]byte{}, FundKeyPrefix...), []byte(fundID)...)
}

// SetFund saves a fund to the store
func (k *Keeper) SetFund(ctx sdk.Context, fund *types.Fund) {
	bz, _ := json.Marshal(fund)
	k.GetStore(ctx).Set(fundKey(fund.ID), bz)
}

// GetFund retrieves a fund from the store
func (k *Keeper) GetFund(ctx sdk.Context, fundID string) *types.Fund {
	bz := k.GetStore(ctx).Get(fundKey(fundID))
	if bz == nil {
		return nil
	}
	var fund types.Fund
	if err := json.Unmarshal(bz, &fund); err != nil {
		return nil
	}
	return &fund
}

// GetAllFunds returns all funds ordered by ID
func (k *Keeper) GetAllFunds(ctx sdk.Context) []*types.Fund {
	iterator := storetypes.KVStorePrefixIterator(k.GetStore(ctx), FundKeyPrefix)
	defer iterator.Close()

	var funds []*types.Fund
	for ; iterator.Valid(); iterator.Next() {
		var fund types.Fund
		if err := json.Unmarshal(iterator.Value(), &fund); err != nil {
			continue
		}
		funds = append(funds, &fund)
	}
	return funds
}

// ============ Deposit Records ============

func seqBytes(seq uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, seq)
	return bz
}

func fundPrefix(prefix []byte, fundID string) []byte {
	key := append(append([]byte{}, prefix...), []byte(fundID)...)
	return append(key, '/')
}

func depositKey(fundID string, seq uint64) []byte {
	return append(fundPrefix(DepositKeyPrefix, fundID), seqBytes(seq)...)
}

func depositorIndexPrefix(depositor string) []byte {
	key := append(append([]byte{}, DepositorIndexKeyPrefix...), []byte(depositor)...)
	return append(key, 0x00)
}

// SetDeposit saves a deposit record and indexes it by depositor
func (k *Keeper) SetDeposit(ctx sdk.Context, rec *types.DepositRecord) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(rec)
	key := depositKey(rec.FundID, rec.Sequence)
	store.Set(key, bz)

	// Index by depositor
	store.Set(append(depositorIndexPrefix(rec.Depositor), key...), []byte{})
}

// GetFundDeposits returns the deposit ledger of a fund in sequence order
func (k *Keeper) GetFundDeposits(ctx sdk.Context, fundID string) []*types.DepositRecord {
	iterator := storetypes.KVStorePrefixIterator(k.GetStore(ctx), fundPrefix(DepositKeyPrefix, fundID))
	defer iterator.Close()

	var records []*types.DepositRecord
	for ; iterator.Valid(); iterator.Next() {
		var rec types.DepositRecord
		if err := json.Unmarshal(iterator.Value(), &rec); err != nil {
			continue
		}
		records = append(records, &rec)
	}
	return records
}

// GetDepositorDeposits returns every deposit made by depositor across funds
func (k *Keeper) GetDepositorDeposits(ctx sdk.Context, depositor string) []*types.DepositRecord {
	store := k.GetStore(ctx)
	prefix := depositorIndexPrefix(depositor)
	iterator := storetypes.KVStorePrefixIterator(store, prefix)
	defer iterator.Close()

	var records []*types.DepositRecord
	for ; iterator.Valid(); iterator.Next() {
		bz := store.Get(iterator.Key()[len(prefix):])
		if bz == nil {
			continue
		}
		var rec types.DepositRecord
		if err := json.Unmarshal(bz, &rec); err != nil {
			continue
		}
		records = append(records, &rec)
	}
	return records
}

// ============ Rebalance Records ============

func rebalanceKey(fundID string, seq uint64) []byte {
	return append(fundPrefix(RebalanceKeyPrefix, fundID), seqBytes(seq)...)
}

// SetRebalance saves a rebalance record
func (k *Keeper) SetRebalance(ctx sdk.Context, rec *types.RebalanceRecord) {
	bz, _ := json.Marshal(rec)
	k.GetStore(ctx).Set(rebalanceKey(rec.FundID, rec.Sequence), bz)
}

// GetFundRebalances returns the rebalance history of a fund in sequence order
func (k *Keeper) GetFundRebalances(ctx sdk.Context, fundID string) []*types.RebalanceRecord {
	iterator := storetypes.KVStorePrefixIterator(k.GetStore(ctx), fundPrefix(RebalanceKeyPrefix, fundID))
	defer iterator.Close()

	var records []*types.RebalanceRecord
	for ; iterator.Valid(); iterator.Next() {
		var rec types.RebalanceRecord
		if err := json.Unmarshal(iterator.Value(), &rec); err != nil {
			continue
		}
		records = append(records, &rec)
	}
	return records
}
