package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"cosmossdk.io/log"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	"github.com/cespare/xxhash/v2"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/runtime"
	sdk "github.com/cosmos/cosmos-sdk/types"

	custodykeeper "github.com/openalpha/pawfund/x/custody/keeper"
	custodytypes "github.com/openalpha/pawfund/x/custody/types"
	fundkeeper "github.com/openalpha/pawfund/x/fund/keeper"
	fundtypes "github.com/openalpha/pawfund/x/fund/types"
	"github.com/openalpha/pawfund/x/fund/venue"
)

const fundLockStripes = 64

// ErrClosed is returned by operations on a closed State
var ErrClosed = errors.New("state closed")

// State runs the custody and fund keepers over a commit multistore without a
// consensus engine. Every Exec is one block: it runs under the lock of the
// fund it touches, executes against the working stores and commits.
type State struct {
	// commit serializes Exec and EndBlock; Query holds it for reading.
	commit sync.RWMutex

	// fundLocks serializes Exec per fund. Fund IDs hash onto a fixed set of
	// stripes, so unrelated funds may share one.
	fundLocks [fundLockStripes]sync.Mutex

	db     dbm.DB
	cms    storetypes.CommitMultiStore
	clock  fundtypes.Clock
	logger log.Logger
	closed bool

	CustodyKeeper *custodykeeper.Keeper
	FundKeeper    *fundkeeper.Keeper
	Venue         *venue.FixedRate
	MsgServer     *fundkeeper.MsgServer
	QueryServer   *fundkeeper.QueryServer

	authority string
}

// NewState opens the database, mounts the module stores and wires the
// keepers. Genesis allocations are applied when the store is empty.
func NewState(opts Options) (*State, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	clock := opts.Clock
	if clock == nil {
		clock = fundtypes.SystemClock{}
	}

	db, err := openDB(opts.DBBackend, opts.Home)
	if err != nil {
		return nil, err
	}

	custodyKey := storetypes.NewKVStoreKey(custodytypes.StoreKey)
	fundKey := storetypes.NewKVStoreKey(fundtypes.StoreKey)

	cms := store.NewCommitMultiStore(db, logger, metrics.NewNoOpMetrics())
	cms.MountStoreWithDB(custodyKey, storetypes.StoreTypeIAVL, db)
	cms.MountStoreWithDB(fundKey, storetypes.StoreTypeIAVL, db)
	if err := cms.LoadLatestVersion(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	custody := custodykeeper.NewKeeper(
		runtime.NewKVStoreService(custodyKey),
		opts.Custody,
		opts.Authority,
		logger,
	)
	v, err := venue.NewFixedRate(custody, opts.Venue, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	fund := fundkeeper.NewKeeper(fundKey, custody, v, clock, opts.Fund, opts.Authority, logger)

	s := &State{
		db:            db,
		cms:           cms,
		clock:         clock,
		logger:        logger.With("module", "app"),
		CustodyKeeper: custody,
		FundKeeper:    fund,
		Venue:         v,
		MsgServer:     fundkeeper.NewMsgServerImpl(fund),
		QueryServer:   fundkeeper.NewQueryServerImpl(fund),
		authority:     opts.Authority,
	}

	if cms.LastCommitID().Version == 0 && len(opts.Genesis) > 0 {
		if _, err := s.Exec("", func(ctx sdk.Context) error {
			for _, a := range opts.Genesis {
				if err := custody.Fund(ctx, opts.Authority, a.Address, a.Denom, a.Amount); err != nil {
					return fmt.Errorf("genesis allocation %s: %w", a.Address, err)
				}
			}
			return nil
		}); err != nil {
			s.Close()
			return nil, err
		}
		s.logger.Info("Genesis applied", "allocations", len(opts.Genesis))
	}

	s.logger.Info("State loaded",
		"backend", opts.DBBackend,
		"height", cms.LastCommitID().Version,
	)
	return s, nil
}

func openDB(backend, home string) (dbm.DB, error) {
	switch backend {
	case BackendMemDB:
		return dbm.NewMemDB(), nil
	case BackendGoLevelDB:
		return dbm.NewDB(Name, dbm.GoLevelDBBackend, filepath.Join(home, "data"))
	default:
		return nil, fmt.Errorf("unsupported db backend %q", backend)
	}
}

// Authority returns the administrative address
func (s *State) Authority() string {
	return s.authority
}

// Height returns the last committed height
func (s *State) Height() int64 {
	s.commit.RLock()
	defer s.commit.RUnlock()
	return s.cms.LastCommitID().Version
}

func (s *State) fundLock(fundID string) *sync.Mutex {
	return &s.fundLocks[xxhash.Sum64String(fundID)%fundLockStripes]
}

// Exec runs fn as one block and commits. The block is committed even when fn
// fails, since keepers persist some state (forced expiry) before rejecting;
// keepers are responsible for rolling back their own partial effects.
func (s *State) Exec(fundID string, fn func(ctx sdk.Context) error) (sdk.Events, error) {
	fl := s.fundLock(fundID)
	fl.Lock()
	defer fl.Unlock()

	s.commit.Lock()
	defer s.commit.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	ctx := s.newContext(s.cms, s.cms.LastCommitID().Version+1)
	err := fn(ctx)
	s.cms.Commit()
	return ctx.EventManager().Events(), err
}

// Query runs fn against a branch of the last committed state. Writes made
// by fn are discarded.
func (s *State) Query(fn func(ctx sdk.Context) error) error {
	s.commit.RLock()
	defer s.commit.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return fn(s.newContext(s.cms.CacheMultiStore(), s.cms.LastCommitID().Version))
}

// EndBlock runs the fund lifecycle sweep as its own block
func (s *State) EndBlock() (sdk.Events, error) {
	return s.Exec("", s.FundKeeper.EndBlocker)
}

// Faucet credits addr through the custody authority
func (s *State) Faucet(addr, denom string, amount uint64) (sdk.Events, error) {
	return s.Exec("", func(ctx sdk.Context) error {
		return s.CustodyKeeper.Fund(ctx, s.authority, addr, denom, amount)
	})
}

// Close closes the database. Further calls fail with ErrClosed.
func (s *State) Close() error {
	s.commit.Lock()
	defer s.commit.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *State) newContext(ms storetypes.MultiStore, height int64) sdk.Context {
	header := cmtproto.Header{
		ChainID: Name,
		Height:  height,
		Time:    s.clock.Now(),
	}
	return sdk.NewContext(ms, header, false, s.logger)
}
