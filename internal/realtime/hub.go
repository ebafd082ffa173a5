package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60

	// SendBuffer is the number of undelivered messages a subscriber may hold
	// before further messages to it are dropped.
	SendBuffer = 256
)

// Message is the push envelope delivered to subscribers.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Subscription is one listener registered on the hub.
type Subscription struct {
	ID   string
	send chan Message
}

// C returns the channel messages are delivered on. It is closed on Unsubscribe.
func (s *Subscription) C() <-chan Message { return s.send }

// Hub keeps the set of current subscribers and fans published events out to all of them.
// Delivery is at-most-once: a subscriber whose buffer is full misses the message, and
// subscribers that join later never see earlier events.
type Hub struct {
	subs      map[string]*Subscription
	mu        sync.RWMutex
	publishMu sync.Mutex
	buffer    int
	logger    *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[string]*Subscription),
		buffer: SendBuffer,
		logger: logger,
	}
}

// Subscribe registers a new, independent listener.
func (h *Hub) Subscribe() *Subscription {
	s := &Subscription{
		ID:   uuid.New().String(),
		send: make(chan Message, h.buffer),
	}
	h.mu.Lock()
	h.subs[s.ID] = s
	count := len(h.subs)
	h.mu.Unlock()
	h.logger.Debug("subscriber joined", zap.String("subscription_id", s.ID), zap.Int("subscribers", count))
	return s
}

// Unsubscribe removes a listener and closes its channel. Calling it again is a no-op.
func (h *Hub) Unsubscribe(s *Subscription) {
	if s == nil {
		return
	}
	h.mu.Lock()
	_, ok := h.subs[s.ID]
	if ok {
		delete(h.subs, s.ID)
		close(s.send)
	}
	count := len(h.subs)
	h.mu.Unlock()
	if ok {
		h.logger.Debug("subscriber left", zap.String("subscription_id", s.ID), zap.Int("subscribers", count))
	}
}

// Publish delivers payload under event to every current subscriber.
// Publishes are serialized, so each subscriber receives events in publish order.
func (h *Hub) Publish(event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			h.logger.Error("marshal broadcast payload", zap.String("event", event), zap.Error(err))
			return
		}
	}
	msg := Message{Event: event, Data: data}

	h.publishMu.Lock()
	defer h.publishMu.Unlock()
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.subs {
		select {
		case s.send <- msg:
		default:
			h.logger.Warn("subscriber buffer full, dropping message",
				zap.String("subscription_id", s.ID), zap.String("event", event))
		}
	}
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close unsubscribes everyone. Used on shutdown so write pumps send a close frame.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, s := range h.subs {
		delete(h.subs, id)
		close(s.send)
	}
}
