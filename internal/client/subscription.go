// Package client holds the subscription-lifecycle and reconciliation state
// machine that keeps a paginated, filtered task view consistent as events
// and page/filter changes interleave.
package client

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/luco5826/dsp/internal/model"
)

type Filter string

const (
	FilterPublic   Filter = "public"
	FilterOwned    Filter = "owned"
	FilterAssigned Filter = "assigned"
)

// TopicClient issues subscribe/unsubscribe calls on the transport.
type TopicClient interface {
	Subscribe(topic string) error
	Unsubscribe(topic string) error
}

// SubscriptionManager tracks the topics matching the currently visible task
// set and adjusts membership by delta. The public listing topic stays
// subscribed regardless of the active filter, so creation of a new public
// task is always learned.
type SubscriptionManager struct {
	mu     sync.Mutex
	client TopicClient
	topics mapset.Set[string]
}

func NewSubscriptionManager(tc TopicClient) *SubscriptionManager {
	return &SubscriptionManager{
		client: tc,
		topics: mapset.NewSet[string](),
	}
}

// Start subscribes the pinned public listing topic.
func (m *SubscriptionManager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscribe(model.PublicTopic)
}

// Update recomputes topic membership for the given visible task ids:
// unsubscribes first, then subscribes, keeping the pinned topic. Calling it
// with an unchanged set is a no-op.
func (m *SubscriptionManager) Update(taskIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := mapset.NewSet[string]()
	next.Add(model.PublicTopic)
	for _, id := range taskIDs {
		next.Add(model.TaskTopic(id))
	}

	for _, topic := range m.topics.Difference(next).ToSlice() {
		if err := m.unsubscribe(topic); err != nil {
			return err
		}
	}
	for _, topic := range next.Difference(m.topics).ToSlice() {
		if err := m.subscribe(topic); err != nil {
			return err
		}
	}
	return nil
}

// SubscribeTask adds a single task topic, used when an event makes a new
// task relevant. Idempotent.
func (m *SubscriptionManager) SubscribeTask(taskID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscribe(model.TaskTopic(taskID))
}

// UnsubscribeTask drops a single task topic. Unknown topics are a no-op.
func (m *SubscriptionManager) UnsubscribeTask(taskID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unsubscribe(model.TaskTopic(taskID))
}

// Topics returns the currently subscribed topic set.
func (m *SubscriptionManager) Topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.topics.ToSlice()
}

// Resubscribe re-issues every current subscription after a transport
// reconnect; retained-message replay supplies current state.
func (m *SubscriptionManager) Resubscribe() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, topic := range m.topics.ToSlice() {
		if err := m.client.Subscribe(topic); err != nil {
			return err
		}
	}
	return nil
}

func (m *SubscriptionManager) subscribe(topic string) error {
	if m.topics.Contains(topic) {
		return nil
	}
	if err := m.client.Subscribe(topic); err != nil {
		return err
	}
	m.topics.Add(topic)
	return nil
}

func (m *SubscriptionManager) unsubscribe(topic string) error {
	if !m.topics.Contains(topic) {
		return nil
	}
	if err := m.client.Unsubscribe(topic); err != nil {
		return err
	}
	m.topics.Remove(topic)
	return nil
}
