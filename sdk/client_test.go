package sdk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openalpha/pawfund/api"
	"github.com/openalpha/pawfund/api/types"
	"github.com/openalpha/pawfund/app"
)

func newTestAPI(t *testing.T) string {
	t.Helper()
	opts := app.DefaultOptions()
	opts.Genesis = []app.Allocation{
		{Address: "creator", Denom: opts.Custody.BaseDenom, Amount: 10_000_000},
		{Address: "alice", Denom: opts.Custody.BaseDenom, Amount: 10_000_000},
	}
	state, err := app.NewState(opts)
	require.NoError(t, err)

	cfg := api.DefaultConfig()
	cfg.DisableRateLimit = true
	cfg.EnableFaucet = true
	srv := api.NewServer(cfg, api.NewStateService(state, nil, nil), nil, nil)
	httpSrv := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		httpSrv.Close()
		state.Close()
	})
	return httpSrv.URL
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	url := newTestAPI(t)

	created, err := NewClient(url, "creator").CreateFund(ctx, types.CreateFundRequest{
		Manager:         "manager",
		Name:            "Generated",
		InvestThreshold: "1000000",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.FundID)

	alice := NewClient(url, "alice")
	mint, err := alice.Deposit(ctx, created.FundID, types.DepositRequest{Amount: "100000"})
	require.NoError(t, err)
	require.Equal(t, "99000", mint.Minted)

	fund, err := alice.Fund(ctx, created.FundID)
	require.NoError(t, err)
	require.Equal(t, "99000", fund.ClaimSupply)

	// claim denoms contain slashes
	bal, err := alice.Balance(ctx, "alice", fund.ClaimDenom)
	require.NoError(t, err)
	require.Equal(t, "99000", bal.Amount)

	claim, err := alice.ClaimBalance(ctx, created.FundID, "alice")
	require.NoError(t, err)
	require.Equal(t, "99000", claim.Amount)

	deposits, err := alice.Deposits(ctx, created.FundID, 0, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(1), deposits.Total)
	require.Equal(t, uint64(100_000), deposits.Items[0].GrossAmount)

	funds, err := alice.Funds(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, funds.Items, 1)

	estimate, err := alice.EstimateDeposit(ctx, created.FundID, "1000", "")
	require.NoError(t, err)
	require.NotEmpty(t, estimate.Minted)

	require.NoError(t, alice.Faucet(ctx, types.FaucetRequest{Address: "bob", Denom: "ubase", Amount: "7"}))
	bal, err = alice.Balance(ctx, "bob", "ubase")
	require.NoError(t, err)
	require.Equal(t, "7", bal.Amount)
}

func TestClientErrors(t *testing.T) {
	ctx := context.Background()
	url := newTestAPI(t)

	_, err := NewClient(url, "alice").Fund(ctx, "missing")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusNotFound, apiErr.Status)
	require.Equal(t, "fund", apiErr.Codespace)

	_, err = NewClient(url, "").Deposit(ctx, "missing", types.DepositRequest{Amount: "1"})
	require.Error(t, err)
	require.False(t, errors.As(err, &apiErr), "expected a local error without a signer")
}
