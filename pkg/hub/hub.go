// Package hub implements the broadcast fan-out that streams StatusUpdates to every
// connected Transport Adapter.
package hub

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// StatusUpdate is the broadcast message emitted after a probe completes (or at Checking entry).
type StatusUpdate struct {
	ServiceID int64
	Status    string
	Timestamp string
}

// Subscriber is a bounded inbox attached to one external stream.
type Subscriber struct {
	id    string
	inbox chan StatusUpdate
	hub   *Hub
	once  sync.Once
}

// NextMessage blocks until a message is available or the subscriber is closed.
func (s *Subscriber) NextMessage() (StatusUpdate, bool) {
	msg, ok := <-s.inbox
	return msg, ok
}

// Close detaches the subscriber from the Hub. Safe to call more than once.
func (s *Subscriber) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		delete(h.subscribers, s.id)
		h.mu.Unlock()
		close(s.inbox)
	})
}

// Hub is the pub/sub fan-out component. The subscriber set is a plain map guarded by mu:
// Subscribe and Close take it exclusively to mutate membership, deliver holds it for its whole
// send loop so a subscriber can never be closed (and its inbox closed) while a delivery to it is
// in flight.
type Hub struct {
	inboxCap int

	mu          sync.RWMutex
	subscribers map[string]*Subscriber

	publishCh chan StatusUpdate

	stop chan struct{}
	wg   sync.WaitGroup
}

// New creates a Hub whose subscriber inboxes have the given capacity.
func New(inboxCap int) *Hub {
	if inboxCap <= 0 {
		inboxCap = 100
	}
	return &Hub{
		inboxCap:    inboxCap,
		subscribers: make(map[string]*Subscriber),
		publishCh:   make(chan StatusUpdate, 1024),
		stop:        make(chan struct{}),
	}
}

// Run starts the Hub's single-writer publish loop in a background goroutine and returns
// immediately; the loop exits once Stop is called.
func (h *Hub) Run() {
	h.wg.Add(1)
	go h.runLoopWithRecover()
}

func (h *Hub) runLoopWithRecover() {
	defer h.wg.Done()
	for {
		if h.runLoop() {
			return
		}
		log.Printf("hub: loop panicked, restarting")
	}
}

func (h *Hub) runLoop() (stopped bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("hub: recovered panic: %v", r)
			stopped = false
		}
	}()

	for {
		select {
		case <-h.stop:
			return true
		case msg := <-h.publishCh:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg StatusUpdate) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subscribers {
		select {
		case sub.inbox <- msg:
		default:
			log.Printf("hub: subscriber %s inbox full, dropping update for service %d", sub.id, msg.ServiceID)
		}
	}
}

// Subscribe registers a new Subscriber and returns it. It never blocks on Run having been
// called, so callers can subscribe before or after Start.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{
		id:    uuid.NewString(),
		inbox: make(chan StatusUpdate, h.inboxCap),
		hub:   h,
	}
	h.mu.Lock()
	h.subscribers[sub.id] = sub
	h.mu.Unlock()
	return sub
}

// Publish enqueues an update for delivery to every subscriber. Non-blocking: if the Hub's
// central queue is full the update is dropped and logged, never blocking the caller.
func (h *Hub) Publish(msg StatusUpdate) {
	select {
	case h.publishCh <- msg:
	default:
		log.Printf("hub: central queue full, dropping update for service %d", msg.ServiceID)
	}
}

// Stop shuts the Hub's loop down and waits for it to exit.
func (h *Hub) Stop() {
	close(h.stop)
	h.wg.Wait()
}
