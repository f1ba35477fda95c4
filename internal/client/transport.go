package client

import (
	"context"
	"sync"
	"time"

	retry "github.com/avast/retry-go"
	"github.com/gorilla/websocket"
	"github.com/luco5826/dsp/internal/bus"
	"github.com/luco5826/dsp/pkg/utils"
	"github.com/pkg/errors"
)

// wsCommand is the control frame sent on the topic-channel socket.
type wsCommand struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

const (
	actionSubscribe   = "subscribe"
	actionUnsubscribe = "unsubscribe"
)

// Transport maintains the topic-channel websocket. On connection loss it
// redials with backoff, re-issues every current subscription and invokes
// OnReconnect so the owner can re-fetch the current page; there is no
// gap-filling beyond retained last-state per topic.
type Transport struct {
	url  string
	recv func(raw []byte)

	// OnReconnect runs after subscriptions were re-issued on a new socket.
	OnReconnect func()

	mu     sync.Mutex
	conn   *websocket.Conn
	topics func() []string
	closed bool
}

func NewTransport(url string, recv func(raw []byte)) *Transport {
	return &Transport{url: url, recv: recv}
}

// BindTopics wires the subscription set re-issued after reconnects.
func (t *Transport) BindTopics(topics func() []string) {
	t.topics = topics
}

// Connect dials the server and starts the read loop.
func (t *Transport) Connect(ctx context.Context) error {
	if err := t.dial(ctx); err != nil {
		return err
	}
	go t.readLoop(ctx)
	return nil
}

func (t *Transport) dial(ctx context.Context) error {
	return retry.Do(
		func() error {
			conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.url, nil)
			if err != nil {
				return err
			}
			t.mu.Lock()
			t.conn = conn
			t.mu.Unlock()
			return nil
		},
		retry.Attempts(5),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}

func (t *Transport) readLoop(ctx context.Context) {
	for {
		t.mu.Lock()
		conn := t.conn
		closed := t.closed
		t.mu.Unlock()
		if closed || conn == nil {
			return
		}
		var env bus.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if ctx.Err() != nil || t.isClosed() {
				return
			}
			utils.Log.Warnf("event socket lost: %v", err)
			if err := t.reconnect(ctx); err != nil {
				utils.Log.Errorf("event socket reconnect failed: %v", err)
				return
			}
			continue
		}
		t.recv(env.Message)
	}
}

func (t *Transport) reconnect(ctx context.Context) error {
	if err := t.dial(ctx); err != nil {
		return err
	}
	if t.topics != nil {
		for _, topic := range t.topics() {
			if err := t.send(wsCommand{Action: actionSubscribe, Topic: topic}); err != nil {
				return err
			}
		}
	}
	if t.OnReconnect != nil {
		t.OnReconnect()
	}
	return nil
}

func (t *Transport) Subscribe(topic string) error {
	return t.send(wsCommand{Action: actionSubscribe, Topic: topic})
}

func (t *Transport) Unsubscribe(topic string) error {
	return t.send(wsCommand{Action: actionUnsubscribe, Topic: topic})
}

func (t *Transport) send(cmd wsCommand) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil || t.closed {
		return errors.New("event socket not connected")
	}
	return errors.WithStack(t.conn.WriteJSON(cmd))
}

func (t *Transport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return errors.WithStack(err)
}
