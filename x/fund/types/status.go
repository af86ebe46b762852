package types

import (
	errorsmod "cosmossdk.io/errors"
)

// FundStatus is the lifecycle state of a fund
type FundStatus int

const (
	FundStatusActive FundStatus = iota
	FundStatusTrading
	FundStatusExpired
)

// String returns the string representation of FundStatus
func (s FundStatus) String() string {
	switch s {
	case FundStatusActive:
		return "active"
	case FundStatusTrading:
		return "trading"
	case FundStatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if no further transition is possible
func (s FundStatus) IsTerminal() bool {
	return s == FundStatusExpired
}

// CanAdvanceTo reports whether moving from s to next is a legal transition.
// Status only moves forward: Active->Trading, Active->Expired, Trading->Expired.
func (s FundStatus) CanAdvanceTo(next FundStatus) bool {
	switch s {
	case FundStatusActive:
		return next == FundStatusTrading || next == FundStatusExpired
	case FundStatusTrading:
		return next == FundStatusExpired
	default:
		return false
	}
}

// Direction is the direction of one rebalancing leg
type Direction int

const (
	DirectionBaseToTarget Direction = iota + 1
	DirectionTargetToBase
)

// String returns the string representation of Direction
func (d Direction) String() string {
	switch d {
	case DirectionBaseToTarget:
		return "base_to_target"
	case DirectionTargetToBase:
		return "target_to_base"
	default:
		return "unknown"
	}
}

// ParseDirection parses the string form of a Direction
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "base_to_target":
		return DirectionBaseToTarget, nil
	case "target_to_base":
		return DirectionTargetToBase, nil
	default:
		return 0, errorsmod.Wrapf(ErrInvalidRequest, "unknown direction %q", s)
	}
}
