package types

import (
	"errors"
	"testing"
	"time"
)

func TestLifecycleThresholdTransition(t *testing.T) {
	lc := NewLifecycle(DefaultMaxFundAge)
	f := &Fund{ID: "f1", InvestThreshold: 1_000, Status: FundStatusActive}

	f.TotalDeposited = 999
	if lc.AfterDeposit(f) {
		t.Error("fund moved to trading below the threshold")
	}
	if f.Status != FundStatusActive {
		t.Errorf("expected active, got %s", f.Status)
	}

	f.TotalDeposited++
	if !lc.AfterDeposit(f) {
		t.Error("fund did not move to trading at the threshold")
	}
	if f.Status != FundStatusTrading {
		t.Errorf("expected trading, got %s", f.Status)
	}

	if lc.AfterDeposit(f) {
		t.Error("trading fund transitioned again")
	}
}

func TestLifecycleAdmit(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lc := NewLifecycle(DefaultMaxFundAge)

	tests := []struct {
		name             string
		status           FundStatus
		now              time.Time
		wantErr          error
		wantTransitioned bool
		wantStatus       FundStatus
	}{
		{"fresh active", FundStatusActive, t0.Add(time.Hour), nil, false, FundStatusActive},
		{"trading at exactly max age", FundStatusTrading, t0.Add(DefaultMaxFundAge), nil, false, FundStatusTrading},
		{"aged active", FundStatusActive, t0.Add(91 * 24 * time.Hour), ErrFundExpired, true, FundStatusExpired},
		{"aged trading", FundStatusTrading, t0.Add(91 * 24 * time.Hour), ErrFundExpired, true, FundStatusExpired},
		{"aged and already expired", FundStatusExpired, t0.Add(91 * 24 * time.Hour), ErrFundExpired, false, FundStatusExpired},
		{"expired before max age", FundStatusExpired, t0.Add(time.Hour), ErrInvalidFundStatus, false, FundStatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Fund{ID: "f1", Status: tt.status, CreatedAt: t0.Unix()}
			transitioned, err := lc.Admit(f, tt.now)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if transitioned != tt.wantTransitioned {
				t.Errorf("transitioned = %v, want %v", transitioned, tt.wantTransitioned)
			}
			if f.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", f.Status, tt.wantStatus)
			}
		})
	}
}

func TestFundStatusTransitions(t *testing.T) {
	if !FundStatusActive.CanAdvanceTo(FundStatusTrading) || !FundStatusTrading.CanAdvanceTo(FundStatusExpired) {
		t.Error("forward transitions rejected")
	}
	if FundStatusTrading.CanAdvanceTo(FundStatusActive) || FundStatusExpired.CanAdvanceTo(FundStatusActive) {
		t.Error("backward transitions accepted")
	}
	if !FundStatusExpired.IsTerminal() {
		t.Error("expired should be terminal")
	}
}
