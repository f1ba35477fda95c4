// Package presence tracks which users are connected and which task each
// currently holds. State is transient and rebuilt from the store on
// reconnect.
package presence

import (
	"sync"

	"github.com/luco5826/dsp/internal/bus"
	"github.com/luco5826/dsp/internal/db"
	"github.com/luco5826/dsp/internal/model"
	"github.com/luco5826/dsp/pkg/utils"
)

type Registry struct {
	mu      sync.RWMutex
	entries map[int64]*model.PresenceMessage
	bus     *bus.Bus
}

func NewRegistry(b *bus.Bus) *Registry {
	return &Registry{
		entries: make(map[int64]*model.PresenceMessage),
		bus:     b,
	}
}

// OnConnect records the session and broadcasts a login message carrying the
// user's current active task, looked up from the store.
func (r *Registry) OnConnect(user *model.User) error {
	task, err := db.ActiveTaskForUser(user.ID)
	if err != nil {
		return err
	}
	msg := &model.PresenceMessage{
		Type:     model.PresenceLogin,
		UserID:   user.ID,
		UserName: user.Name,
	}
	if task != nil {
		msg.TaskID = &task.ID
		msg.TaskName = task.Description
	}
	r.mu.Lock()
	r.entries[user.ID] = msg
	r.mu.Unlock()
	r.broadcast(msg)
	return nil
}

// OnLogout drops the session entry and broadcasts a logout message.
func (r *Registry) OnLogout(userID int64, userName string) {
	r.mu.Lock()
	delete(r.entries, userID)
	r.mu.Unlock()
	r.broadcast(&model.PresenceMessage{
		Type:     model.PresenceLogout,
		UserID:   userID,
		UserName: userName,
	})
}

// OnSelectionChange updates the entry with the newly held task and
// broadcasts an update message.
func (r *Registry) OnSelectionChange(userID int64, userName string, taskID int64, taskName string) {
	id := taskID
	snapshot := &model.PresenceMessage{
		Type:     model.PresenceLogin,
		UserID:   userID,
		UserName: userName,
		TaskID:   &id,
		TaskName: taskName,
	}
	r.mu.Lock()
	r.entries[userID] = snapshot
	r.mu.Unlock()
	r.broadcast(&model.PresenceMessage{
		Type:     model.PresenceUpdate,
		UserID:   userID,
		UserName: userName,
		TaskID:   &id,
		TaskName: taskName,
	})
}

// OnSelectionCleared drops the held task from the user's entry and
// broadcasts an update message with no task, so watchers stop showing the
// released lock. A user without an entry advertised nothing; nothing to do.
func (r *Registry) OnSelectionCleared(userID int64) {
	r.mu.Lock()
	e, ok := r.entries[userID]
	if !ok {
		r.mu.Unlock()
		return
	}
	snapshot := &model.PresenceMessage{
		Type:     model.PresenceLogin,
		UserID:   userID,
		UserName: e.UserName,
	}
	r.entries[userID] = snapshot
	r.mu.Unlock()
	r.broadcast(&model.PresenceMessage{
		Type:     model.PresenceUpdate,
		UserID:   userID,
		UserName: snapshot.UserName,
	})
}

// Entry returns the current presence entry for the user, if connected.
func (r *Registry) Entry(userID int64) (*model.PresenceMessage, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[userID]
	return e, ok
}

// Snapshot returns the marshaled login state of every connected user, used
// to replay presence to a freshly opened broadcast connection.
func (r *Registry) Snapshot() [][]byte {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([][]byte, 0, len(r.entries))
	for _, e := range r.entries {
		data, err := e.Marshal()
		if err != nil {
			continue
		}
		out = append(out, data)
	}
	return out
}

func (r *Registry) broadcast(msg *model.PresenceMessage) {
	data, err := msg.Marshal()
	if err != nil {
		utils.Log.Warnf("failed to marshal presence message: %+v", err)
		return
	}
	r.bus.Broadcast(data)
}
