package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/pawfund/api/middleware"
	"github.com/openalpha/pawfund/api/types"
	ws "github.com/openalpha/pawfund/api/websocket"
	"github.com/openalpha/pawfund/app"
	fundtypes "github.com/openalpha/pawfund/x/fund/types"
)

func newTestServer(t *testing.T, cfg *Config) (*StateService, *ws.Hub, *httptest.Server) {
	t.Helper()
	opts := app.DefaultOptions()
	opts.Genesis = []app.Allocation{
		{Address: "creator", Denom: opts.Custody.BaseDenom, Amount: 100_000_000},
		{Address: "alice", Denom: opts.Custody.BaseDenom, Amount: 100_000_000},
	}
	state, err := app.NewState(opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	hub := ws.NewHub(nil, log.NewNopLogger())
	go hub.Run(ctx)

	svc := NewStateService(state, hub, log.NewNopLogger())
	srv := NewServer(cfg, svc, hub, log.NewNopLogger())
	httpSrv := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		httpSrv.Close()
		_ = srv.Stop(context.Background())
		cancel()
		state.Close()
	})
	return svc, hub, httpSrv
}

func TestHealthAndMetrics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DisableRateLimit = true
	_, _, srv := newTestServer(t, cfg)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	require.Equal(t, "healthy", health["status"])
	require.EqualValues(t, 1, health["height"])

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DisableRateLimit = true
	_, _, srv := newTestServer(t, cfg)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/v1/funds", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), types.SignerHeader)
}

func TestSignerRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit = &middleware.RateLimitConfig{
		IPRequestsPerSecond: 100,
		IPBurst:             100,
		BlockDuration:       time.Minute,
		TxPerSecond:         1,
		TxBurst:             1,
		CleanupInterval:     time.Minute,
		BucketTTL:           time.Minute,
	}
	_, _, srv := newTestServer(t, cfg)

	post := func() int {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/funds/alpha/deposit", strings.NewReader(`{"amount":"10"}`))
		require.NoError(t, err)
		req.Header.Set(types.SignerHeader, "alice")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}
	require.Equal(t, http.StatusNotFound, post())
	require.Equal(t, http.StatusTooManyRequests, post())
}

func TestDepositPublishesToFundChannel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DisableRateLimit = true
	svc, hub, srv := newTestServer(t, cfg)

	_, err := svc.CreateFund(context.Background(), &fundtypes.MsgCreateFund{
		Creator: "creator",
		Manager: "manager",
		FundID:  "alpha",
		Name:    "Alpha",
	})
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.WriteJSON(ws.ClientMessage{Action: "subscribe", Channel: ws.FundChannel("alpha")}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ack ws.WSMessage
	require.NoError(t, conn.ReadJSON(&ack))
	require.Equal(t, "subscribed", ack.Type)
	require.Eventually(t, func() bool {
		return hub.GetChannelClientCount(ws.FundChannel("alpha")) == 1
	}, 5*time.Second, 10*time.Millisecond)

	receipt, err := svc.Deposit(context.Background(), &fundtypes.MsgDeposit{Depositor: "alice", FundID: "alpha", Amount: "100000"})
	require.NoError(t, err)
	require.Equal(t, uint64(99_000), receipt.Minted)

	var event ws.EventMessage
	require.NoError(t, conn.ReadJSON(&event))
	require.Equal(t, "fund_deposit", event.Type)
	require.Equal(t, "alpha", event.Attributes["fund_id"])
	require.Equal(t, svc.Height(), event.Height)
}

func TestSweepCountsExpiredFunds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DisableRateLimit = true
	svc, _, _ := newTestServer(t, cfg)

	expired, err := svc.Sweep()
	require.NoError(t, err)
	require.Zero(t, expired)
}
