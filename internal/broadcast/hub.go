// Package broadcast fans session snapshots out to connected observers.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"
)

// Listener receives serialized snapshots. Send must be safe to call from
// any goroutine; the hub never sends to one listener concurrently.
type Listener interface {
	Send(ctx context.Context, msg []byte) error
	Close() error
}

// DefaultSendTimeout bounds a single delivery.
const DefaultSendTimeout = 5 * time.Second

// Hub tracks listeners and delivers each broadcast to all of them. A listener
// whose send fails is removed and closed without affecting the others.
type Hub struct {
	mu        sync.Mutex
	listeners map[uint64]*entry
	nextID    uint64

	sendTimeout time.Duration
	logger      *log.Logger

	// OnCount is called with the listener count after every change.
	OnCount func(int)
	// OnDelivery is called once per attempted send.
	OnDelivery func(ok bool)
}

type entry struct {
	l    Listener
	send sync.Mutex
}

func NewHub(logger *log.Logger, sendTimeout time.Duration) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	return &Hub{
		listeners:   make(map[uint64]*entry),
		sendTimeout: sendTimeout,
		logger:      logger,
	}
}

// Register adds l and returns a function that removes it again. The returned
// function is idempotent and does not close the listener.
func (h *Hub) Register(l Listener) (unregister func()) {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.listeners[id] = &entry{l: l}
	n := len(h.listeners)
	h.mu.Unlock()
	h.notifyCount(n)

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(id, false) })
	}
}

// Count returns the number of registered listeners.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

// Broadcast serializes msg once and sends it to every listener registered at
// the time of the call. It returns the number of successful deliveries.
func (h *Hub) Broadcast(ctx context.Context, msg any) (int, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("marshal broadcast: %w", err)
	}
	return h.BroadcastRaw(ctx, payload), nil
}

// BroadcastRaw sends an already serialized payload.
func (h *Hub) BroadcastRaw(ctx context.Context, payload []byte) int {
	h.mu.Lock()
	targets := make(map[uint64]*entry, len(h.listeners))
	for id, e := range h.listeners {
		targets[id] = e
	}
	h.mu.Unlock()

	if len(targets) == 0 {
		return 0
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		ok     int
		failed []uint64
	)
	for id, e := range targets {
		wg.Add(1)
		go func(id uint64, e *entry) {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(ctx, h.sendTimeout)
			defer cancel()

			e.send.Lock()
			err := e.l.Send(sendCtx, payload)
			e.send.Unlock()

			if h.OnDelivery != nil {
				h.OnDelivery(err == nil)
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				h.logger.Printf("broadcast: dropping listener %d: %v", id, err)
				failed = append(failed, id)
				return
			}
			ok++
		}(id, e)
	}
	wg.Wait()

	for _, id := range failed {
		h.remove(id, true)
	}
	return ok
}

// CloseAll closes and removes every listener.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	all := h.listeners
	h.listeners = make(map[uint64]*entry)
	h.mu.Unlock()

	for _, e := range all {
		_ = e.l.Close()
	}
	h.notifyCount(0)
}

func (h *Hub) remove(id uint64, closeListener bool) {
	h.mu.Lock()
	e, ok := h.listeners[id]
	if ok {
		delete(h.listeners, id)
	}
	n := len(h.listeners)
	h.mu.Unlock()

	if !ok {
		return
	}
	if closeListener {
		_ = e.l.Close()
	}
	h.notifyCount(n)
}

func (h *Hub) notifyCount(n int) {
	if h.OnCount != nil {
		h.OnCount(n)
	}
}
