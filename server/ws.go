package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/luco5826/dsp/internal/bus"
	"github.com/luco5826/dsp/internal/model"
	"github.com/luco5826/dsp/internal/presence"
	"github.com/luco5826/dsp/pkg/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type wsCommand struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

func validTopic(topic string) bool {
	return topic == model.PublicTopic || strings.HasPrefix(topic, "task:")
}

// eventsHandler bridges the topic channel to a websocket connection. The
// client drives membership with subscribe/unsubscribe frames; deliveries
// are envelopes carrying the topic and the raw event.
func eventsHandler(b *bus.Bus) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			utils.Log.Warnf("events upgrade failed: %v", err)
			return
		}
		sub := b.NewSubscriber(uuid.NewString())

		go func() {
			for env := range sub.C() {
				if err := conn.WriteJSON(env); err != nil {
					return
				}
			}
			_ = conn.Close()
		}()

		for {
			var cmd wsCommand
			if err := conn.ReadJSON(&cmd); err != nil {
				break
			}
			if !validTopic(cmd.Topic) {
				utils.Log.Warnf("subscriber %s sent bad topic %q", sub.ID(), cmd.Topic)
				continue
			}
			switch cmd.Action {
			case "subscribe":
				if err := b.Subscribe(sub, cmd.Topic); err != nil {
					utils.Log.Warnf("subscribe %s: %v", cmd.Topic, err)
				}
			case "unsubscribe":
				b.Unsubscribe(sub, cmd.Topic)
			}
		}
		b.Detach(sub)
		_ = conn.Close()
	}
}

// notificationsHandler serves the broadcast channel: presence messages for
// every live connection, with the current login snapshot replayed first.
func notificationsHandler(b *bus.Bus, reg *presence.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			utils.Log.Warnf("notifications upgrade failed: %v", err)
			return
		}
		sub := b.NewSubscriber(uuid.NewString())
		if err := b.Register(sub); err != nil {
			utils.Log.Warnf("register watcher: %v", err)
			_ = conn.Close()
			return
		}

		for _, msg := range reg.Snapshot() {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				b.Detach(sub)
				_ = conn.Close()
				return
			}
		}

		go func() {
			for env := range sub.C() {
				if err := conn.WriteMessage(websocket.TextMessage, env.Message); err != nil {
					return
				}
			}
			_ = conn.Close()
		}()

		// drain control frames until the peer goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		b.Detach(sub)
		_ = conn.Close()
	}
}
