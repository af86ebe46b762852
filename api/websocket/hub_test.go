package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil, log.NewNopLogger())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn, v interface{}) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func subscribe(t *testing.T, conn *websocket.Conn, channel string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(ClientMessage{Action: "subscribe", Channel: channel}))
	var ack WSMessage
	readMessage(t, conn, &ack)
	require.Equal(t, "subscribed", ack.Type)
}

func TestPublishEventsRoutesByFund(t *testing.T) {
	hub, url := startHub(t)

	alpha := dial(t, url)
	subscribe(t, alpha, FundChannel("alpha"))
	all := dial(t, url)
	subscribe(t, all, ChannelAll)

	require.Eventually(t, func() bool {
		return hub.GetChannelClientCount(FundChannel("alpha")) == 1 && hub.GetChannelClientCount(ChannelAll) == 1
	}, 5*time.Second, 10*time.Millisecond)

	hub.PublishEvents(7, sdk.Events{
		sdk.NewEvent("fund_deposit", sdk.NewAttribute("fund_id", "beta")),
		sdk.NewEvent("fund_deposit", sdk.NewAttribute("fund_id", "alpha"), sdk.NewAttribute("minted", "9900")),
	})

	var msg EventMessage
	readMessage(t, alpha, &msg)
	require.Equal(t, FundChannel("alpha"), msg.Channel)
	require.Equal(t, "fund_deposit", msg.Type)
	require.Equal(t, int64(7), msg.Height)
	require.Equal(t, "9900", msg.Attributes["minted"])

	readMessage(t, all, &msg)
	require.Equal(t, "beta", msg.Attributes["fund_id"])
	readMessage(t, all, &msg)
	require.Equal(t, "alpha", msg.Attributes["fund_id"])
}

func TestClientControlMessages(t *testing.T) {
	_, url := startHub(t)
	conn := dial(t, url)

	tests := []struct {
		name     string
		msg      ClientMessage
		wantType string
	}{
		{"ping", ClientMessage{Action: "ping"}, "pong"},
		{"unknown action", ClientMessage{Action: "shout"}, "error"},
		{"empty fund channel", ClientMessage{Action: "subscribe", Channel: "fund:"}, "error"},
		{"unknown channel", ClientMessage{Action: "subscribe", Channel: "ticker:BTC"}, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, conn.WriteJSON(tt.msg))
			var reply WSMessage
			readMessage(t, conn, &reply)
			require.Equal(t, tt.wantType, reply.Type)
		})
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "1.1.1.1:80", "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.3"}, "1.1.1.1:80", "10.0.0.3"},
		{"remote addr", nil, "1.1.1.1:80", "1.1.1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/ws", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := getClientIP(r); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
