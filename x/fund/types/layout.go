package types

import (
	errorsmod "cosmossdk.io/errors"
)

// AccountRole names the part an account plays in a venue call
type AccountRole string

const (
	// RoleAuthority is the routing authority that owns the staging account
	RoleAuthority AccountRole = "authority"
	// RoleStaging is the staging account the venue spends from
	RoleStaging AccountRole = "staging"
	// RoleDestination receives the venue's output
	RoleDestination AccountRole = "destination"
)

// AccountRef is one account handed to a venue
type AccountRef struct {
	Address  string      `json:"address"`
	Role     AccountRole `json:"role"`
	Writable bool        `json:"writable"`
	Signer   bool        `json:"signer"`
}

// LayoutSlot is one position in a venue's account layout
type LayoutSlot struct {
	Role     AccountRole `json:"role"`
	Writable bool        `json:"writable"`
	Signer   bool        `json:"signer"`
}

// VenueLayout is the versioned, ordered account schema a venue expects
type VenueLayout struct {
	Version string       `json:"version"`
	Slots   []LayoutSlot `json:"slots"`
}

// Bind builds the ordered account list for this layout. Every slot must be
// given an address.
func (l VenueLayout) Bind(addrs map[AccountRole]string) ([]AccountRef, error) {
	refs := make([]AccountRef, 0, len(l.Slots))
	for _, slot := range l.Slots {
		addr, ok := addrs[slot.Role]
		if !ok || addr == "" {
			return nil, errorsmod.Wrapf(ErrInvalidLayout, "%s: no address for role %s", l.Version, slot.Role)
		}
		refs = append(refs, AccountRef{
			Address:  addr,
			Role:     slot.Role,
			Writable: slot.Writable,
			Signer:   slot.Signer,
		})
	}
	if len(addrs) != len(l.Slots) {
		return nil, errorsmod.Wrapf(ErrInvalidLayout, "%s: %d addresses for %d slots", l.Version, len(addrs), len(l.Slots))
	}
	return refs, nil
}

// Resolve checks refs against the layout slot by slot and indexes them by
// role. Order, roles and flags must match exactly.
func (l VenueLayout) Resolve(refs []AccountRef) (map[AccountRole]AccountRef, error) {
	if len(refs) != len(l.Slots) {
		return nil, errorsmod.Wrapf(ErrInvalidLayout, "%s: expected %d accounts, got %d", l.Version, len(l.Slots), len(refs))
	}
	out := make(map[AccountRole]AccountRef, len(refs))
	for i, slot := range l.Slots {
		ref := refs[i]
		if ref.Role != slot.Role || ref.Writable != slot.Writable || ref.Signer != slot.Signer {
			return nil, errorsmod.Wrapf(ErrInvalidLayout, "%s: slot %d is %+v, expected %+v", l.Version, i, ref, slot)
		}
		out[slot.Role] = ref
	}
	return out, nil
}
