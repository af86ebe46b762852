package types

import (
	"fmt"
	"strconv"

	errorsmod "cosmossdk.io/errors"

	custodytypes "github.com/openalpha/pawfund/x/custody/types"
)

// Message types
const (
	TypeMsgCreateFund = "create_fund"
	TypeMsgDeposit    = "deposit"
	TypeMsgRedeem     = "redeem"
	TypeMsgRebalance  = "rebalance"
	TypeMsgDrainFund  = "drain_fund"
)

// ParseAmount parses a base-10 u64 amount. The empty string parses as zero.
func ParseAmount(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errorsmod.Wrapf(ErrInvalidRequest, "invalid amount %q", s)
	}
	return v, nil
}

func parsePositive(field, s string) error {
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	if v == 0 {
		return errorsmod.Wrapf(ErrInvalidRequest, "%s must be positive", field)
	}
	return nil
}

// MsgCreateFund defines the CreateFund message
type MsgCreateFund struct {
	Creator         string `json:"creator"`
	Manager         string `json:"manager"`
	FundID          string `json:"fund_id,omitempty"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	SeedAmount      string `json:"seed_amount"`
	InvestThreshold string `json:"invest_threshold"`
}

// Route implements sdk.Msg
func (msg MsgCreateFund) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgCreateFund) Type() string { return TypeMsgCreateFund }

// ValidateBasic implements sdk.Msg
func (msg MsgCreateFund) ValidateBasic() error {
	if err := custodytypes.ValidateAddress(msg.Creator); err != nil {
		return err
	}
	if err := custodytypes.ValidateAddress(msg.Manager); err != nil {
		return err
	}
	if msg.Name == "" {
		return errorsmod.Wrap(ErrInvalidRequest, "name must not be empty")
	}
	if _, err := ParseAmount(msg.SeedAmount); err != nil {
		return err
	}
	if _, err := ParseAmount(msg.InvestThreshold); err != nil {
		return err
	}
	return nil
}

// String implements proto.Message
func (msg MsgCreateFund) String() string {
	return fmt.Sprintf("MsgCreateFund{Creator: %s, Manager: %s, Name: %s, Seed: %s}", msg.Creator, msg.Manager, msg.Name, msg.SeedAmount)
}

// MsgCreateFundResponse defines the CreateFund response
type MsgCreateFundResponse struct {
	FundID     string `json:"fund_id"`
	ClaimDenom string `json:"claim_denom"`
	Vault      string `json:"vault"`
}

// MsgDeposit defines the Deposit message
type MsgDeposit struct {
	Depositor   string `json:"depositor"`
	FundID      string `json:"fund_id"`
	Amount      string `json:"amount"`
	TVLSnapshot string `json:"tvl_snapshot"`
}

// Route implements sdk.Msg
func (msg MsgDeposit) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgDeposit) Type() string { return TypeMsgDeposit }

// ValidateBasic implements sdk.Msg
func (msg MsgDeposit) ValidateBasic() error {
	if err := custodytypes.ValidateAddress(msg.Depositor); err != nil {
		return err
	}
	if msg.FundID == "" {
		return ErrFundNotFound
	}
	if err := parsePositive("amount", msg.Amount); err != nil {
		return err
	}
	_, err := ParseAmount(msg.TVLSnapshot)
	return err
}

// String implements proto.Message
func (msg MsgDeposit) String() string {
	return fmt.Sprintf("MsgDeposit{Depositor: %s, FundID: %s, Amount: %s, TVL: %s}", msg.Depositor, msg.FundID, msg.Amount, msg.TVLSnapshot)
}

// MsgRedeem defines the Redeem message
type MsgRedeem struct {
	Redeemer    string `json:"redeemer"`
	FundID      string `json:"fund_id"`
	ClaimAmount string `json:"claim_amount"`
}

// Route implements sdk.Msg
func (msg MsgRedeem) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgRedeem) Type() string { return TypeMsgRedeem }

// ValidateBasic implements sdk.Msg. A zero claim amount is left to the keeper,
// which rejects it with ErrInsufficientTokens after the burn.
func (msg MsgRedeem) ValidateBasic() error {
	if err := custodytypes.ValidateAddress(msg.Redeemer); err != nil {
		return err
	}
	if msg.FundID == "" {
		return ErrFundNotFound
	}
	_, err := ParseAmount(msg.ClaimAmount)
	return err
}

// String implements proto.Message
func (msg MsgRedeem) String() string {
	return fmt.Sprintf("MsgRedeem{Redeemer: %s, FundID: %s, Claim: %s}", msg.Redeemer, msg.FundID, msg.ClaimAmount)
}

// MsgRebalance defines the Rebalance message
type MsgRebalance struct {
	Manager      string `json:"manager"`
	FundID       string `json:"fund_id"`
	Direction    string `json:"direction"`
	Amount       string `json:"amount"`
	VenuePayload []byte `json:"venue_payload"`
}

// Route implements sdk.Msg
func (msg MsgRebalance) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgRebalance) Type() string { return TypeMsgRebalance }

// ValidateBasic implements sdk.Msg
func (msg MsgRebalance) ValidateBasic() error {
	if err := custodytypes.ValidateAddress(msg.Manager); err != nil {
		return err
	}
	if msg.FundID == "" {
		return ErrFundNotFound
	}
	if _, err := ParseDirection(msg.Direction); err != nil {
		return err
	}
	return parsePositive("amount", msg.Amount)
}

// String implements proto.Message
func (msg MsgRebalance) String() string {
	return fmt.Sprintf("MsgRebalance{Manager: %s, FundID: %s, Direction: %s, Amount: %s}", msg.Manager, msg.FundID, msg.Direction, msg.Amount)
}

// MsgDrainFund defines the DrainFund message
type MsgDrainFund struct {
	Authority   string `json:"authority"`
	FundID      string `json:"fund_id"`
	Destination string `json:"destination"`
}

// Route implements sdk.Msg
func (msg MsgDrainFund) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgDrainFund) Type() string { return TypeMsgDrainFund }

// ValidateBasic implements sdk.Msg
func (msg MsgDrainFund) ValidateBasic() error {
	if err := custodytypes.ValidateAddress(msg.Authority); err != nil {
		return err
	}
	if msg.FundID == "" {
		return ErrFundNotFound
	}
	return custodytypes.ValidateAddress(msg.Destination)
}

// String implements proto.Message
func (msg MsgDrainFund) String() string {
	return fmt.Sprintf("MsgDrainFund{Authority: %s, FundID: %s, Destination: %s}", msg.Authority, msg.FundID, msg.Destination)
}
