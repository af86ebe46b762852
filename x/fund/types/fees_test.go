package types

import (
	"errors"
	"math"
	"testing"
)

func TestFeeSplitPreservesGross(t *testing.T) {
	policy := DefaultFeePolicy()
	for _, gross := range []uint64{0, 1, 99, 100, 101, 1_000, 12_345, 999_999_937, math.MaxUint64 / 100} {
		split, err := policy.Split(gross)
		if err != nil {
			t.Fatalf("Split(%d): %v", gross, err)
		}
		if split.Net+split.StakeholderA+split.StakeholderB != gross {
			t.Errorf("Split(%d) = %+v does not add up", gross, split)
		}

		sat := policy.SplitSaturating(gross)
		if sat.Net+sat.StakeholderA+sat.StakeholderB != gross {
			t.Errorf("SplitSaturating(%d) = %+v does not add up", gross, sat)
		}
	}
}

func TestFeeSplitDefaultPolicy(t *testing.T) {
	tests := []struct {
		name  string
		gross uint64
		want  FeeSplit
	}{
		{"round amount", 10_000, FeeSplit{Net: 9_900, StakeholderA: 20, StakeholderB: 80}},
		{"fee rounds down", 150, FeeSplit{Net: 149, StakeholderA: 0, StakeholderB: 1}},
		{"below one unit of fee", 99, FeeSplit{Net: 99}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DefaultFeePolicy().Split(tt.gross)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Split(%d) = %+v, want %+v", tt.gross, got, tt.want)
			}
		})
	}
}

func TestFeeSplitCheckedVsSaturating(t *testing.T) {
	policy := FeePolicy{FeeNumerator: 3, FeeDenominator: 100, SplitNumerator: 20, SplitDenominator: 100}

	_, err := policy.Split(math.MaxUint64)
	if !errors.Is(err, ErrArithmeticOverflow) {
		t.Errorf("expected ErrArithmeticOverflow, got %v", err)
	}

	sat := policy.SplitSaturating(math.MaxUint64)
	if sat.Net+sat.Fee() != math.MaxUint64 {
		t.Errorf("saturating split lost value: %+v", sat)
	}
}

func TestFeePolicyValidate(t *testing.T) {
	tests := []struct {
		name    string
		policy  FeePolicy
		wantErr bool
	}{
		{"default", DefaultFeePolicy(), false},
		{"zero fee denominator", FeePolicy{FeeNumerator: 1, SplitDenominator: 1}, true},
		{"fee above 100%", FeePolicy{FeeNumerator: 2, FeeDenominator: 1, SplitDenominator: 1}, true},
		{"split above 100%", FeePolicy{FeeDenominator: 1, SplitNumerator: 3, SplitDenominator: 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
