package app

import (
	"fmt"
	"os"
	"path/filepath"

	"cosmossdk.io/log"

	custodytypes "github.com/openalpha/pawfund/x/custody/types"
	fundtypes "github.com/openalpha/pawfund/x/fund/types"
	"github.com/openalpha/pawfund/x/fund/venue"
)

const (
	Name = "pawfund"

	// Database backends accepted by Options.DBBackend
	BackendMemDB     = "memdb"
	BackendGoLevelDB = "goleveldb"
)

var (
	// DefaultNodeHome default home directory for the daemon
	DefaultNodeHome string
)

func init() {
	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}

	DefaultNodeHome = filepath.Join(userHomeDir, "."+Name)
}

// Allocation credits an address at genesis
type Allocation struct {
	Address string `mapstructure:"address" yaml:"address" json:"address"`
	Denom   string `mapstructure:"denom" yaml:"denom" json:"denom"`
	Amount  uint64 `mapstructure:"amount" yaml:"amount" json:"amount"`
}

// Options configures a State
type Options struct {
	DBBackend string
	Home      string
	// Authority administers both custody and fund modules.
	Authority string

	Custody custodytypes.Params
	Fund    fundtypes.Params
	Venue   venue.Config

	// Genesis is applied once, to an empty store.
	Genesis []Allocation

	Clock  fundtypes.Clock
	Logger log.Logger
}

// DefaultOptions returns options for an in-memory state
func DefaultOptions() Options {
	return Options{
		DBBackend: BackendMemDB,
		Home:      DefaultNodeHome,
		Authority: Name + "/authority",
		Custody:   custodytypes.DefaultParams(),
		Fund:      fundtypes.DefaultParams(),
		Venue:     venue.DefaultConfig(),
		Logger:    log.NewNopLogger(),
	}
}

// Validate validates the options
func (o Options) Validate() error {
	switch o.DBBackend {
	case BackendMemDB, BackendGoLevelDB:
	default:
		return fmt.Errorf("unsupported db backend %q", o.DBBackend)
	}
	if o.DBBackend == BackendGoLevelDB && o.Home == "" {
		return fmt.Errorf("home directory required for %s", o.DBBackend)
	}
	if err := custodytypes.ValidateAddress(o.Authority); err != nil {
		return fmt.Errorf("authority: %w", err)
	}
	if err := o.Custody.Validate(); err != nil {
		return err
	}
	if err := o.Fund.Validate(); err != nil {
		return err
	}
	if o.Venue.TargetDenom != o.Fund.TargetDenom {
		return fmt.Errorf("venue target denom %q does not match fund target denom %q", o.Venue.TargetDenom, o.Fund.TargetDenom)
	}
	for _, a := range o.Genesis {
		if err := custodytypes.ValidateAddress(a.Address); err != nil {
			return fmt.Errorf("genesis allocation: %w", err)
		}
		if a.Denom == "" || a.Amount == 0 {
			return fmt.Errorf("genesis allocation for %s needs a denom and a positive amount", a.Address)
		}
	}
	return nil
}
