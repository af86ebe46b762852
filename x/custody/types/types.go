package types

import (
	"fmt"
	"strings"
)

// HoldingAccount is an account that must be created before use, carries a
// reserve floor, and may delegate a bounded allowance to a third party.
type HoldingAccount struct {
	Address string `json:"address"`
	Owner   string `json:"owner"`
	Denom   string `json:"denom"`

	// Native accounts wrap the base asset; Tracked is their token-side view
	// and drifts from the raw balance until SyncNative is called.
	Native  bool   `json:"native"`
	Reserve uint64 `json:"reserve"`
	Tracked uint64 `json:"tracked"`

	Delegate  string `json:"delegate,omitempty"`
	Allowance uint64 `json:"allowance,omitempty"`
}

// CreateAccountRequest describes a holding account to create.
type CreateAccountRequest struct {
	Address string
	Owner   string
	Denom   string
	Native  bool
	// Payer funds the reserve in the base denom.
	Payer string
}

// Validate checks the request fields
func (r CreateAccountRequest) Validate() error {
	if err := ValidateAddress(r.Address); err != nil {
		return err
	}
	if err := ValidateAddress(r.Owner); err != nil {
		return err
	}
	if err := ValidateAddress(r.Payer); err != nil {
		return err
	}
	if r.Denom == "" {
		return fmt.Errorf("%w: empty denom", ErrUnknownDenom)
	}
	return nil
}

// Params defines custody parameters
type Params struct {
	BaseDenom      string `mapstructure:"base_denom" yaml:"base_denom" json:"base_denom"`
	AccountReserve uint64 `mapstructure:"account_reserve" yaml:"account_reserve" json:"account_reserve"`
}

// DefaultParams returns default custody parameters
func DefaultParams() Params {
	return Params{
		BaseDenom:      "ubase",
		AccountReserve: 2_039_280,
	}
}

// Validate validates the parameters
func (p Params) Validate() error {
	if strings.TrimSpace(p.BaseDenom) == "" {
		return fmt.Errorf("base denom must not be empty")
	}
	return nil
}

// ValidateAddress rejects empty addresses and addresses containing whitespace.
func ValidateAddress(addr string) error {
	if addr == "" || strings.ContainsAny(addr, " \t\n") {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	return nil
}
