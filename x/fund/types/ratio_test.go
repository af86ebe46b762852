package types

import (
	"errors"
	"testing"
)

func TestMintOnDeposit(t *testing.T) {
	tests := []struct {
		name      string
		net       uint64
		supply    uint64
		poolValue uint64
		want      uint64
		wantErr   error
	}{
		{"bootstrap mints one to one", 9_900, 0, 0, 9_900, nil},
		{"bootstrap ignores pool value", 500, 0, 1_000_000, 500, nil},
		{"price of one", 1_000, 1_000, 1_000, 1_000, nil},
		{"price of two", 1_000, 1_000, 2_000, 500, nil},
		{"price floors", 1_000, 1_000, 2_999, 500, nil},
		{"zero pool value", 1_000, 1_000, 0, 0, ErrDivisionByZero},
		{"pool value below supply", 1_000, 1_000, 999, 0, ErrDivisionByZero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MintOnDeposit(tt.net, tt.supply, tt.poolValue)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("MintOnDeposit(%d, %d, %d) = %d, want %d", tt.net, tt.supply, tt.poolValue, got, tt.want)
			}
		})
	}
}

func TestMintOnDepositMonotonicInPoolValue(t *testing.T) {
	const net, supply = 1_000_000, 10_000
	prev := uint64(1<<63 - 1)
	for poolValue := uint64(supply); poolValue <= supply*50; poolValue += 777 {
		got, err := MintOnDeposit(net, supply, poolValue)
		if err != nil {
			t.Fatalf("pool value %d: %v", poolValue, err)
		}
		if got > prev {
			t.Fatalf("mint grew from %d to %d as pool value rose to %d", prev, got, poolValue)
		}
		prev = got
	}
}

func TestBurnOnRedeemIsOneToOne(t *testing.T) {
	for _, claim := range []uint64{0, 1, 42, 1 << 40} {
		if got := BurnOnRedeem(claim); got != claim {
			t.Errorf("BurnOnRedeem(%d) = %d", claim, got)
		}
	}
}
