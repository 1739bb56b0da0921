// Package live pushes collection snapshots to connected browsers.
//
// After every successful mutation the API publishes the whole collection
// to the Hub; each websocket subscriber gets it as one JSON text message.
// A Watcher can also publish when the data file changes on disk.
package live

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/charmbracelet/log"

	"todos/internal/todo"
)

const subscriberBuffer = 8

// Hub fans snapshots out to subscribers.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan []byte]struct{}
	last   []byte // last published payload, for dedup
	logger *log.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		subs:   make(map[chan []byte]struct{}),
		logger: logger,
	}
}

// Subscribe registers a subscriber. The returned channel is closed when
// the subscriber is dropped or cancel is called.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.remove(ch)
	}
	return ch, cancel
}

// Publish sends todos to every subscriber. A payload identical to the
// previous one is skipped. Subscribers with a full buffer are dropped.
func (h *Hub) Publish(todos []todo.Todo) {
	if todos == nil {
		todos = []todo.Todo{}
	}
	data, err := json.Marshal(todos)
	if err != nil {
		h.logger.Error("marshal snapshot", "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if bytes.Equal(data, h.last) {
		return
	}
	h.last = data

	for ch := range h.subs {
		select {
		case ch <- data:
		default:
			h.logger.Warn("dropping slow live subscriber")
			h.remove(ch)
		}
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// remove must be called with h.mu held.
func (h *Hub) remove(ch chan []byte) {
	if _, ok := h.subs[ch]; !ok {
		return
	}
	delete(h.subs, ch)
	close(ch)
}
