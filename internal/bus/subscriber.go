package bus

import (
	"sync"

	jsoniter "github.com/json-iterator/go"
)

// Envelope is one delivery to a subscriber. Topic is empty for broadcast
// deliveries.
type Envelope struct {
	Topic   string              `json:"topic,omitempty"`
	Message jsoniter.RawMessage `json:"message"`
}

// Subscriber owns a bounded delivery queue. Slow consumers lose the oldest
// queued envelope instead of blocking publishers.
type Subscriber struct {
	id      string
	ch      chan Envelope
	mu      sync.Mutex
	closed  bool
	dropped int64
}

func newSubscriber(id string, queueSize int) *Subscriber {
	return &Subscriber{
		id: id,
		ch: make(chan Envelope, queueSize),
	}
}

func (s *Subscriber) ID() string {
	return s.id
}

// C is the delivery channel; it is closed when the subscriber is detached
// or the bus stops.
func (s *Subscriber) C() <-chan Envelope {
	return s.ch
}

// Dropped reports how many envelopes were discarded due to queue overflow.
func (s *Subscriber) Dropped() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Subscriber) enqueue(env Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- env:
		return
	default:
	}
	// queue full: drop the oldest, then try once more
	select {
	case <-s.ch:
		s.dropped++
	default:
	}
	select {
	case s.ch <- env:
	default:
		s.dropped++
	}
}

func (s *Subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
