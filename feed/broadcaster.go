package feed

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBuffer is how many undelivered events a subscriber may fall behind by
// before further events are dropped for it.
const DefaultBuffer = 32

type client struct {
	ownerID int64
	events  chan Event
}

// Broadcaster keeps the open streams of every user. Events published for an
// owner reach only that owner's subscribers.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[string]*client
	buffer  int
	logger  *zap.Logger
}

// NewBroadcaster creates an empty Broadcaster. A buffer <= 0 means DefaultBuffer.
func NewBroadcaster(buffer int, logger *zap.Logger) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broadcaster{
		clients: make(map[string]*client),
		buffer:  buffer,
		logger:  logger,
	}
}

// Subscribe registers a stream for ownerID and returns its client id and the
// channel events arrive on. The channel is closed by Unsubscribe or Close.
func (b *Broadcaster) Subscribe(ownerID int64) (string, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	clientID := uuid.New().String()
	c := &client{ownerID: ownerID, events: make(chan Event, b.buffer)}
	b.clients[clientID] = c

	b.logger.Debug("feed client subscribed", zap.String("client_id", clientID), zap.Int64("owner_id", ownerID))
	return clientID, c.events
}

// Unsubscribe removes a client and closes its channel. Unknown ids are ignored.
func (b *Broadcaster) Unsubscribe(clientID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.clients[clientID]
	if !ok {
		return
	}
	close(c.events)
	delete(b.clients, clientID)
	b.logger.Debug("feed client removed", zap.String("client_id", clientID))
}

// Publish hands event to every subscriber of ownerID without blocking and
// reports how many received it.
func (b *Broadcaster) Publish(ownerID int64, event Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for id, c := range b.clients {
		if c.ownerID != ownerID {
			continue
		}
		select {
		case c.events <- event:
			delivered++
		default:
			b.logger.Warn("feed client is not keeping up, event dropped",
				zap.String("client_id", id),
				zap.Int64("owner_id", ownerID),
				zap.String("event_id", event.ID))
		}
	}
	return delivered
}

// ActiveClients returns the ids of all open subscriptions, sorted.
func (b *Broadcaster) ActiveClients() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, 0, len(b.clients))
	for id := range b.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close drops every subscription. Streams see their channel close and return.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, c := range b.clients {
		close(c.events)
		delete(b.clients, id)
	}
}
