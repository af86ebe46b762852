package types

import (
	"errors"
	"testing"
)

func testLayout() VenueLayout {
	return VenueLayout{
		Version: "test/v1",
		Slots: []LayoutSlot{
			{Role: RoleAuthority, Writable: true, Signer: true},
			{Role: RoleStaging, Writable: true},
			{Role: RoleDestination, Writable: true},
		},
	}
}

func TestLayoutBindAndResolve(t *testing.T) {
	layout := testLayout()
	refs, err := layout.Bind(map[AccountRole]string{
		RoleAuthority:   "router",
		RoleStaging:     "staging",
		RoleDestination: "holdings",
	})
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if len(refs) != 3 || refs[0].Address != "router" || !refs[0].Signer || refs[2].Address != "holdings" {
		t.Fatalf("unexpected refs: %+v", refs)
	}

	byRole, err := layout.Resolve(refs)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if byRole[RoleStaging].Address != "staging" {
		t.Errorf("expected staging, got %s", byRole[RoleStaging].Address)
	}
}

func TestLayoutRejectsMismatches(t *testing.T) {
	layout := testLayout()
	good, _ := layout.Bind(map[AccountRole]string{
		RoleAuthority:   "router",
		RoleStaging:     "staging",
		RoleDestination: "holdings",
	})

	swapped := []AccountRef{good[1], good[0], good[2]}
	escalated := []AccountRef{good[0], good[1], good[2]}
	escalated[1].Signer = true

	tests := []struct {
		name string
		refs []AccountRef
	}{
		{"too few", good[:2]},
		{"reordered", swapped},
		{"flag mismatch", escalated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := layout.Resolve(tt.refs); !errors.Is(err, ErrInvalidLayout) {
				t.Errorf("expected ErrInvalidLayout, got %v", err)
			}
		})
	}

	if _, err := layout.Bind(map[AccountRole]string{RoleAuthority: "router"}); !errors.Is(err, ErrInvalidLayout) {
		t.Errorf("expected missing role to fail, got %v", err)
	}
}

func TestMsgValidateBasic(t *testing.T) {
	tests := []struct {
		name    string
		msg     interface{ ValidateBasic() error }
		wantErr bool
	}{
		{"deposit ok", MsgDeposit{Depositor: "alice", FundID: "f1", Amount: "100", TVLSnapshot: "0"}, false},
		{"deposit zero", MsgDeposit{Depositor: "alice", FundID: "f1", Amount: "0"}, true},
		{"deposit garbage", MsgDeposit{Depositor: "alice", FundID: "f1", Amount: "1e3"}, true},
		{"redeem zero passes", MsgRedeem{Redeemer: "alice", FundID: "f1", ClaimAmount: "0"}, false},
		{"rebalance bad direction", MsgRebalance{Manager: "m", FundID: "f1", Direction: "sideways", Amount: "1"}, true},
		{"rebalance ok", MsgRebalance{Manager: "m", FundID: "f1", Direction: "target_to_base", Amount: "1"}, false},
		{"create without name", MsgCreateFund{Creator: "c", Manager: "m"}, true},
		{"drain without destination", MsgDrainFund{Authority: "admin", FundID: "f1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.ValidateBasic()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBasic() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
