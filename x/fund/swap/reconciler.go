package swap

import (
	"context"

	errorsmod "cosmossdk.io/errors"

	"github.com/openalpha/pawfund/pkg/checked"
	"github.com/openalpha/pawfund/x/fund/types"
)

// VaultReconciler answers the balance questions a rebalance asks before and
// after the venue call. Only observed balances feed settlement.
type VaultReconciler struct {
	custody types.CustodyKeeper

	// BaseFloor is the minimum base balance of plain fund accounts.
	BaseFloor uint64
}

// NewVaultReconciler creates a VaultReconciler
func NewVaultReconciler(custody types.CustodyKeeper, baseFloor uint64) VaultReconciler {
	return VaultReconciler{custody: custody, BaseFloor: baseFloor}
}

// StagingReserve is the base reserve a new staging holding account locks up
func (r VaultReconciler) StagingReserve() uint64 {
	return r.custody.Params().AccountReserve
}

// RequiredFloor returns the minimum base balance addr must keep. Holding
// accounts keep their reserve, every other account keeps BaseFloor.
func (r VaultReconciler) RequiredFloor(ctx context.Context, addr string) (uint64, error) {
	acct, found, err := r.custody.HoldingAccount(ctx, addr)
	if err != nil {
		return 0, err
	}
	if found {
		return acct.Reserve, nil
	}
	return r.BaseFloor, nil
}

// AvailableForRouting checks that balance covers requested plus floor plus
// buffer and returns what would remain routable above floor and buffer.
func (r VaultReconciler) AvailableForRouting(balance, requested, floor, buffer uint64) (uint64, error) {
	need, ok := checked.Sum(requested, floor, buffer)
	if !ok {
		return 0, errorsmod.Wrapf(types.ErrArithmeticOverflow, "routing need %d+%d+%d", requested, floor, buffer)
	}
	if balance < need {
		return 0, errorsmod.Wrapf(types.ErrInsufficientFunds, "balance %d below %d (amount %d, floor %d, buffer %d)", balance, need, requested, floor, buffer)
	}
	return balance - floor - buffer, nil
}

// SettlementDelta returns how much of after may be routed onward: whatever
// exceeds both the pre-trade balance and the floor.
func (r VaultReconciler) SettlementDelta(before, after, floor uint64) uint64 {
	base := before
	if floor > base {
		base = floor
	}
	return checked.SaturatingSub(after, base)
}

// BaseBalance reads the base balance of addr
func (r VaultReconciler) BaseBalance(ctx context.Context, addr string) (uint64, error) {
	return r.custody.Balance(ctx, addr, r.custody.Params().BaseDenom)
}
