package websocket

import (
	"context"
	"sync"
)

type hubEventKind int

const (
	eventRegister hubEventKind = iota
	eventUnregister
	eventSubscribe
	eventUnsubscribe
)

// hubEvent goes through a single queue so that a client's register,
// subscriptions and unregister are applied in the order they were issued.
type hubEvent struct {
	kind    hubEventKind
	client  *Client
	channel string
	// applied is closed once the event has taken effect, if set.
	applied chan struct{}
}

// Hub manages WebSocket client connections and channel subscriptions
type Hub struct {
	mu sync.RWMutex

	// clients maps client ID to client (for cleanup)
	clients map[string]*Client

	// channels maps channel name to set of clients subscribed to it
	channels map[string]map[*Client]struct{}

	events  chan hubEvent
	stopped chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:  make(map[string]*Client),
		channels: make(map[string]map[*Client]struct{}),
		events:   make(chan hubEvent, 1024),
		stopped:  make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.stopped)
			return
		case ev := <-h.events:
			switch ev.kind {
			case eventRegister:
				h.addClient(ev.client)
			case eventUnregister:
				h.removeClient(ev.client)
			case eventSubscribe:
				h.subscribeToChannel(ev.client, ev.channel)
			case eventUnsubscribe:
				h.unsubscribeFromChannel(ev.client, ev.channel)
			}
			if ev.applied != nil {
				close(ev.applied)
			}
		}
	}
}

// Register adds a new client to the hub and returns once the client is
// subscribed to the channels it was created with. A broadcast issued after
// Register returns reaches the client.
func (h *Hub) Register(client *Client) {
	ev := hubEvent{kind: eventRegister, client: client, applied: make(chan struct{})}
	select {
	case h.events <- ev:
	case <-h.stopped:
		return
	}
	select {
	case <-ev.applied:
	case <-h.stopped:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.events <- hubEvent{kind: eventUnregister, client: client}
}

func (h *Hub) Subscribe(client *Client, channel string) {
	h.events <- hubEvent{kind: eventSubscribe, client: client, channel: channel}
}

func (h *Hub) Unsubscribe(client *Client, channel string) {
	h.events <- hubEvent{kind: eventUnsubscribe, client: client, channel: channel}
}

// Broadcast sends a tally of the given version to all clients subscribed to
// a channel. Clients that already hold that version or a newer one skip it.
func (h *Hub) Broadcast(channel string, version int64, payload []byte) {
	h.mu.RLock()
	for c := range h.channels[channel] {
		c.SendResults(version, payload)
	}
	h.mu.RUnlock()
}

// SendTo delivers a tally to one registered client. It reports false when the
// client is gone or already holds a newer tally.
func (h *Hub) SendTo(client *Client, version int64, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[client.ID]; !ok {
		return false
	}
	return client.SendResults(version, payload)
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetChannelSubscriberCount returns the number of subscribers for a channel
func (h *Hub) GetChannelSubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	for _, channel := range client.GetChannels() {
		h.addSubscriber(client, channel)
	}
}

func (h *Hub) addSubscriber(client *Client, channel string) {
	if _, ok := h.channels[channel]; !ok {
		h.channels[channel] = make(map[*Client]struct{})
	}
	h.channels[channel][client] = struct{}{}
}

func (h *Hub) dropSubscriber(client *Client, channel string) {
	if subscribers, ok := h.channels[channel]; ok {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.channels, channel)
		}
	}
}

// removeClient removes a client and all its subscriptions, then closes its
// send queue.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	for _, channel := range client.GetChannels() {
		h.dropSubscriber(client, channel)
	}
	delete(h.clients, client.ID)
	close(client.Send)
}

func (h *Hub) subscribeToChannel(client *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// A client that already left must not be reachable from a channel.
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	h.addSubscriber(client, channel)
	client.Subscribe(channel)
}

func (h *Hub) unsubscribeFromChannel(client *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.dropSubscriber(client, channel)
	client.Unsubscribe(channel)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		close(client.Send)
		delete(h.clients, id)
	}
	h.channels = make(map[string]map[*Client]struct{})
}
