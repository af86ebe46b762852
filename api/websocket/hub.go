package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/pawfund/metrics"
)

// ChannelAll receives every event. Per-fund channels are "fund:<id>".
const ChannelAll = "events"

// FundChannel returns the channel carrying events of one fund
func FundChannel(fundID string) string {
	return "fund:" + fundID
}

// EventMessage is a committed state event pushed to subscribers
type EventMessage struct {
	Channel    string            `json:"channel"`
	Type       string            `json:"type"`
	Height     int64             `json:"height"`
	Timestamp  int64             `json:"timestamp"`
	Attributes map[string]string `json:"attributes"`
}

type outbound struct {
	channel string
	payload []byte
}

// Hub maintains the set of active clients and fans events out by channel
type Hub struct {
	clients  map[*Client]bool
	channels map[string]map[*Client]bool // channel -> clients

	broadcast   chan outbound
	register    chan *Client
	unregister  chan *Client
	subscribe   chan *SubscriptionRequest
	unsubscribe chan *SubscriptionRequest
	done        chan struct{}

	mu sync.RWMutex

	config  *HubConfig
	logger  log.Logger
	metrics *metrics.Collector
}

// HubConfig contains hub configuration
type HubConfig struct {
	// Connection limits
	MaxClientsPerIP  int `mapstructure:"max_clients_per_ip" yaml:"max_clients_per_ip"`
	MaxSubscriptions int `mapstructure:"max_subscriptions" yaml:"max_subscriptions"`

	// Messages per second per client
	MessageRateLimit int `mapstructure:"message_rate_limit" yaml:"message_rate_limit"`
}

// DefaultHubConfig returns default hub configuration
func DefaultHubConfig() *HubConfig {
	return &HubConfig{
		MaxClientsPerIP:  10,
		MaxSubscriptions: 50,
		MessageRateLimit: 100,
	}
}

// SubscriptionRequest represents a subscription request
type SubscriptionRequest struct {
	Client  *Client
	Channel string
}

// NewHub creates a new Hub
func NewHub(config *HubConfig, logger log.Logger) *Hub {
	if config == nil {
		config = DefaultHubConfig()
	}

	return &Hub{
		clients:     make(map[*Client]bool),
		channels:    make(map[string]map[*Client]bool),
		broadcast:   make(chan outbound, 256),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan *SubscriptionRequest, 256),
		unsubscribe: make(chan *SubscriptionRequest, 256),
		done:        make(chan struct{}),
		config:      config,
		logger:      logger.With("module", "api/websocket"),
		metrics:     metrics.GetCollector(),
	}
}

// Run starts the hub's main loop. It returns when ctx is done, after
// closing every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case req := <-h.subscribe:
			h.handleSubscription(req)

		case req := <-h.unsubscribe:
			h.handleUnsubscription(req)

		case msg := <-h.broadcast:
			h.broadcastMessage(msg)
		}
	}
}

// registerClient adds a new client
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	h.metrics.RecordWSConnection(1)
}

// unregisterClient removes a client
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	for channel, clients := range h.channels {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.channels, channel)
		}
	}
	close(client.send)
	h.metrics.RecordWSConnection(-1)
}

// closeAll stops the hub and drops every connection. Send channels stay
// open since read pumps may still be writing to them.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	close(h.done)
	for client := range h.clients {
		client.conn.Close()
		h.metrics.RecordWSConnection(-1)
	}
	h.clients = make(map[*Client]bool)
	h.channels = make(map[string]map[*Client]bool)
}

// handleSubscription handles a subscription request
func (h *Hub) handleSubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[req.Client]; !ok {
		return
	}
	if h.channels[req.Channel] == nil {
		h.channels[req.Channel] = make(map[*Client]bool)
	}
	h.channels[req.Channel][req.Client] = true
}

// handleUnsubscription handles an unsubscription request
func (h *Hub) handleUnsubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.channels[req.Channel]; ok {
		delete(clients, req.Client)
		if len(clients) == 0 {
			delete(h.channels, req.Channel)
		}
	}
}

// broadcastMessage delivers msg to the channel's subscribers. Slow clients
// whose buffers are full miss the message.
func (h *Hub) broadcastMessage(msg outbound) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.channels[msg.channel] {
		select {
		case client.send <- msg.payload:
		default:
			h.logger.Debug("Dropping message for slow client", "client", client.id, "channel", msg.channel)
		}
	}
}

// BroadcastToChannel queues message for every subscriber of channel
func (h *Hub) BroadcastToChannel(channel string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast", "channel", channel, "error", err)
		return
	}
	select {
	case h.broadcast <- outbound{channel: channel, payload: data}:
	default:
		h.logger.Warn("Broadcast queue full, dropping message", "channel", channel)
	}
}

// PublishEvents fans committed events out to ChannelAll and, for events
// carrying a fund_id attribute, to that fund's channel.
func (h *Hub) PublishEvents(height int64, events sdk.Events) {
	now := time.Now().Unix()
	for _, e := range events {
		attrs := make(map[string]string, len(e.Attributes))
		for _, a := range e.Attributes {
			attrs[a.Key] = a.Value
		}
		msg := EventMessage{
			Channel:    ChannelAll,
			Type:       e.Type,
			Height:     height,
			Timestamp:  now,
			Attributes: attrs,
		}
		h.BroadcastToChannel(ChannelAll, msg)
		if fundID, ok := attrs["fund_id"]; ok {
			msg.Channel = FundChannel(fundID)
			h.BroadcastToChannel(msg.Channel, msg)
		}
		h.metrics.RecordWSMessage(e.Type)
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetChannelClientCount returns the number of subscribers of channel
func (h *Hub) GetChannelClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// clientsFromIP counts connected clients from ip
func (h *Hub) clientsFromIP(ip string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if c.ip == ip {
			n++
		}
	}
	return n
}
