// Package bus is the in-process event distribution layer. It exposes two
// surfaces: topic channels with a retained last message per topic, and a
// broadcast channel reaching every registered connection.
package bus

import (
	"sync"

	"github.com/OpenListTeam/go-cache"
	"github.com/luco5826/dsp/pkg/utils"
	"github.com/pkg/errors"
)

var ErrStopped = errors.New("event bus is stopped")

const defaultQueueSize = 64

type Bus struct {
	mu        sync.Mutex
	running   bool
	queueSize int
	topics    map[string]map[*Subscriber]struct{}
	subTopics map[*Subscriber]map[string]struct{}
	watchers  map[*Subscriber]struct{}
	retained  cache.ICache[[]byte]
}

func New() *Bus {
	return &Bus{
		queueSize: defaultQueueSize,
		topics:    make(map[string]map[*Subscriber]struct{}),
		subTopics: make(map[*Subscriber]map[string]struct{}),
		watchers:  make(map[*Subscriber]struct{}),
		retained:  cache.NewMemCache(cache.WithShards[[]byte](16)),
	}
}

func (b *Bus) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return errors.New("event bus already started")
	}
	b.running = true
	return nil
}

// Stop closes every subscriber channel and rejects further publishes.
func (b *Bus) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		return
	}
	b.running = false
	for s := range b.subTopics {
		s.close()
	}
	for s := range b.watchers {
		if _, ok := b.subTopics[s]; !ok {
			s.close()
		}
	}
	b.topics = make(map[string]map[*Subscriber]struct{})
	b.subTopics = make(map[*Subscriber]map[string]struct{})
	b.watchers = make(map[*Subscriber]struct{})
}

// NewSubscriber creates a detached subscriber with the bus queue size.
func (b *Bus) NewSubscriber(id string) *Subscriber {
	return newSubscriber(id, b.queueSize)
}

// Subscribe begins delivery of the given topic and immediately replays the
// retained message, if any. Subscribing an already-subscribed topic is a
// no-op.
func (b *Bus) Subscribe(s *Subscriber, topic string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		return ErrStopped
	}
	if ts, ok := b.subTopics[s]; ok {
		if _, dup := ts[topic]; dup {
			return nil
		}
	} else {
		b.subTopics[s] = make(map[string]struct{})
	}
	b.subTopics[s][topic] = struct{}{}
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[*Subscriber]struct{})
	}
	b.topics[topic][s] = struct{}{}
	if data, ok := b.retained.Get(topic); ok {
		s.enqueue(Envelope{Topic: topic, Message: data})
	}
	return nil
}

// Unsubscribe stops delivery for the topic; unknown topics are a no-op.
func (b *Bus) Unsubscribe(s *Subscriber, topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.topics[topic]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(b.topics, topic)
		}
	}
	if ts, ok := b.subTopics[s]; ok {
		delete(ts, topic)
	}
}

// Publish delivers data to every current subscriber of the topic, updating
// the retained slot first so a joiner racing the publish still observes the
// current state.
func (b *Bus) Publish(topic string, data []byte, retain bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		return ErrStopped
	}
	if retain {
		b.retained.Set(topic, data)
	}
	for s := range b.topics[topic] {
		s.enqueue(Envelope{Topic: topic, Message: data})
	}
	return nil
}

// Retained returns the last retained message for the topic.
func (b *Bus) Retained(topic string) ([]byte, bool) {
	return b.retained.Get(topic)
}

// DropRetained clears the retained slot, used when a task is deleted.
func (b *Bus) DropRetained(topic string) {
	b.retained.Del(topic)
}

// Register adds the subscriber to the broadcast channel.
func (b *Bus) Register(s *Subscriber) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		return ErrStopped
	}
	b.watchers[s] = struct{}{}
	return nil
}

func (b *Bus) Deregister(s *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.watchers, s)
}

// Broadcast fans data out to every registered connection. Delivery is
// best-effort; a stopped bus only logs.
func (b *Bus) Broadcast(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		utils.Log.Warn("broadcast on stopped event bus dropped")
		return
	}
	for s := range b.watchers {
		s.enqueue(Envelope{Message: data})
	}
}

// Detach removes the subscriber from every topic and the broadcast channel
// and closes its queue.
func (b *Bus) Detach(s *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ts, ok := b.subTopics[s]; ok {
		for topic := range ts {
			if subs, ok := b.topics[topic]; ok {
				delete(subs, s)
				if len(subs) == 0 {
					delete(b.topics, topic)
				}
			}
		}
		delete(b.subTopics, s)
	}
	delete(b.watchers, s)
	s.close()
}
