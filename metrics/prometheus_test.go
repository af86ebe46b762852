package metrics

import (
	"fmt"
	"testing"

	errorsmod "cosmossdk.io/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	fundtypes "github.com/openalpha/pawfund/x/fund/types"
)

func TestRecordOperationLabelsRegisteredErrors(t *testing.T) {
	c := newCollector(prometheus.NewRegistry())

	c.RecordOperation("deposit", nil, 1)
	c.RecordOperation("deposit", errorsmod.Wrap(fundtypes.ErrFundExpired, "wrapped"), 1)

	if got := testutil.ToFloat64(c.OperationsTotal.WithLabelValues("deposit", "ok")); got != 1 {
		t.Errorf("expected 1 ok, got %v", got)
	}
	if got := testutil.ToFloat64(c.OperationsTotal.WithLabelValues("deposit", "error")); got != 1 {
		t.Errorf("expected 1 error, got %v", got)
	}

	code := fmt.Sprintf("%d", fundtypes.ErrFundExpired.ABCICode())
	if got := testutil.ToFloat64(c.ErrorsTotal.WithLabelValues("deposit", fundtypes.ModuleName, code)); got != 1 {
		t.Errorf("expected error labelled %s/%s, got %v", fundtypes.ModuleName, code, got)
	}
}

func TestRecordDepositAndRebalance(t *testing.T) {
	c := newCollector(prometheus.NewRegistry())

	c.RecordDeposit("alpha", 10_000, 20, 80, 9_900)
	c.RecordRebalance("alpha", "base_to_target", "settled", 110)
	c.RecordRebalance("alpha", "base_to_target", "venue_failed", 0)
	c.RecordFundState("alpha", 8_900, 9_900)

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"deposited", c.DepositedTotal.WithLabelValues("alpha"), 10_000},
		{"manager fee", c.FeesTotal.WithLabelValues("alpha", "manager"), 20},
		{"owner fee", c.FeesTotal.WithLabelValues("alpha", "owner"), 80},
		{"minted", c.MintedTotal.WithLabelValues("alpha"), 9_900},
		{"settled", c.RebalancesTotal.WithLabelValues("alpha", "base_to_target", "settled"), 1},
		{"failed", c.RebalancesTotal.WithLabelValues("alpha", "base_to_target", "venue_failed"), 1},
		{"routed", c.RoutedTotal.WithLabelValues("alpha"), 110},
		{"capital", c.AvailableCapital.WithLabelValues("alpha"), 8_900},
		{"supply", c.ClaimSupply.WithLabelValues("alpha"), 9_900},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
