package events

import "sync"

type (
	// Hub fans flow events out to subscribed consumers. Publishing never
	// blocks; consumers that fall behind lose the oldest pending events
	Hub struct {
		mu        sync.Mutex
		consumers map[*Consumer]struct{}
		closed    bool
	}

	// Consumer receives events from a Hub until closed
	Consumer struct {
		hub  *Hub
		ch   chan *Event
		once sync.Once
	}
)

const consumerBufferSize = 64

// NewHub creates an event hub with no subscribers
func NewHub() *Hub {
	return &Hub{
		consumers: map[*Consumer]struct{}{},
	}
}

// NewConsumer subscribes a new consumer to the hub
func (h *Hub) NewConsumer() *Consumer {
	c := &Consumer{
		hub: h,
		ch:  make(chan *Event, consumerBufferSize),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(c.ch)
		return c
	}
	h.consumers[c] = struct{}{}
	return c
}

// Publish delivers an event to all current consumers
func (h *Hub) Publish(ev *Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for c := range h.consumers {
		select {
		case c.ch <- ev:
		default:
			// drop oldest so a stalled reader cannot block the engine
			select {
			case <-c.ch:
			default:
			}
			select {
			case c.ch <- ev:
			default:
			}
		}
	}
}

// Close shuts down the hub and all consumer channels
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.consumers {
		close(c.ch)
	}
	h.consumers = map[*Consumer]struct{}{}
}

// Receive returns the channel events arrive on. The channel is closed when
// either the consumer or the hub shuts down
func (c *Consumer) Receive() <-chan *Event {
	return c.ch
}

// Close unsubscribes the consumer from its hub
func (c *Consumer) Close() {
	c.once.Do(func() {
		c.hub.mu.Lock()
		defer c.hub.mu.Unlock()
		if _, ok := c.hub.consumers[c]; ok {
			delete(c.hub.consumers, c)
			close(c.ch)
		}
	})
}
