package types

import (
	"time"

	errorsmod "cosmossdk.io/errors"
)

// DefaultMaxFundAge is how long a fund accepts operations after creation
const DefaultMaxFundAge = 90 * 24 * time.Hour

// Lifecycle drives Active -> Trading -> Expired transitions
type Lifecycle struct {
	MaxAge time.Duration
}

// NewLifecycle creates a Lifecycle with the given maximum fund age
func NewLifecycle(maxAge time.Duration) Lifecycle {
	return Lifecycle{MaxAge: maxAge}
}

// IsAged reports whether the fund is older than MaxAge at now
func (l Lifecycle) IsAged(f *Fund, now time.Time) bool {
	return now.Unix()-f.CreatedAt > int64(l.MaxAge/time.Second)
}

// Expire forces an aged fund to Expired. It reports whether the status
// changed, in which case the caller must persist the fund.
func (l Lifecycle) Expire(f *Fund, now time.Time) bool {
	if !l.IsAged(f, now) || f.Status == FundStatusExpired {
		return false
	}
	f.Status = FundStatusExpired
	f.UpdatedAt = now.Unix()
	return true
}

// Admit runs ahead of every deposit, redeem and rebalance. The age check comes
// first: an aged fund is flagged Expired and the call is rejected with
// ErrFundExpired, with transitioned telling the caller to persist the flag
// even though the call fails. A fund already Expired is rejected with
// ErrInvalidFundStatus.
func (l Lifecycle) Admit(f *Fund, now time.Time) (transitioned bool, err error) {
	if l.IsAged(f, now) {
		transitioned = l.Expire(f, now)
		return transitioned, errorsmod.Wrapf(ErrFundExpired, "fund %s created at %d", f.ID, f.CreatedAt)
	}
	if f.Status == FundStatusExpired {
		return false, errorsmod.Wrapf(ErrInvalidFundStatus, "fund %s is %s", f.ID, f.Status)
	}
	return false, nil
}

// AfterDeposit moves an Active fund to Trading once its cumulative deposits
// reach the invest threshold. It reports whether the status changed.
func (l Lifecycle) AfterDeposit(f *Fund) bool {
	if f.Status != FundStatusActive || f.TotalDeposited < f.InvestThreshold {
		return false
	}
	f.Status = FundStatusTrading
	return true
}
