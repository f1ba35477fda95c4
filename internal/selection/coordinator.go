// Package selection turns task mutations and "select task" requests into
// committed store state plus the events every connected client needs.
package selection

import (
	"github.com/luco5826/dsp/internal/bus"
	"github.com/luco5826/dsp/internal/db"
	"github.com/luco5826/dsp/internal/model"
	"github.com/luco5826/dsp/internal/presence"
	"github.com/luco5826/dsp/pkg/utils"
)

type Coordinator struct {
	bus      *bus.Bus
	presence *presence.Registry
}

func NewCoordinator(b *bus.Bus, p *presence.Registry) *Coordinator {
	return &Coordinator{bus: b, presence: p}
}

// Select moves the caller's exclusive lock onto taskID. The store operation
// is atomic; events are published only after commit. Returns
// db.ErrTaskNotFound or db.ErrSelectionConflict, which the API layer maps
// to 404 and 403. A conflict leaves the caller's previous lock untouched
// and is never retried here.
func (c *Coordinator) Select(userID, taskID int64) error {
	res, err := db.SelectTask(userID, taskID)
	if err != nil {
		return err
	}

	uid := userID
	c.publish(model.TaskTopic(taskID), &model.SelectionEvent{
		Operation: model.OpUpdate,
		Status:    model.StatusActive,
		UserID:    &uid,
		UserName:  res.UserName,
		TaskID:    taskID,
	}, true)

	if res.PrevTaskID != nil && *res.PrevTaskID != taskID {
		c.publish(model.TaskTopic(*res.PrevTaskID), &model.SelectionEvent{
			Operation: model.OpUpdate,
			Status:    model.StatusInactive,
			TaskID:    *res.PrevTaskID,
		}, true)
	}

	c.presence.OnSelectionChange(userID, res.UserName, taskID, res.TaskName)
	return nil
}

// Deselect releases the caller's lock, if any, publishing the inactive
// event for the released task.
func (c *Coordinator) Deselect(userID int64) error {
	prev, err := db.ClearActive(userID)
	if err != nil {
		return err
	}
	if prev != nil {
		c.publish(model.TaskTopic(*prev), &model.SelectionEvent{
			Operation: model.OpUpdate,
			Status:    model.StatusInactive,
			TaskID:    *prev,
		}, true)
		c.presence.OnSelectionCleared(userID)
	}
	return nil
}

// TaskCreated announces a new task. Public tasks are announced on the
// public listing topic so viewers of the public filter learn about them.
func (c *Coordinator) TaskCreated(t *model.Task) {
	ev := &model.SelectionEvent{
		Operation: model.OpCreate,
		Status:    model.StatusNone,
		TaskID:    t.ID,
		Payload:   t,
	}
	if !t.Private {
		c.publish(model.PublicTopic, ev, true)
	}
	c.publish(model.TaskTopic(t.ID), ev, true)
}

// TaskUpdated announces a content change; visibilityChanged marks a
// public/private flip, which is also announced on the public listing topic.
func (c *Coordinator) TaskUpdated(t *model.Task, visibilityChanged bool) {
	status := model.StatusNone
	if visibilityChanged {
		if t.Private {
			status = model.StatusPrivate
		} else {
			status = model.StatusPublic
		}
	}
	ev := &model.SelectionEvent{
		Operation: model.OpUpdate,
		Status:    status,
		TaskID:    t.ID,
		Payload:   t,
	}
	c.publish(model.TaskTopic(t.ID), ev, true)
	if visibilityChanged {
		c.publish(model.PublicTopic, ev, true)
	}
}

// TaskDeleted announces removal and clears the retained state for the
// task's topic.
func (c *Coordinator) TaskDeleted(taskID int64) {
	c.publish(model.TaskTopic(taskID), &model.SelectionEvent{
		Operation: model.OpDelete,
		Status:    model.StatusNone,
		TaskID:    taskID,
	}, false)
	c.bus.DropRetained(model.TaskTopic(taskID))
}

func (c *Coordinator) TaskCompleted(t *model.Task) {
	c.publish(model.TaskTopic(t.ID), &model.SelectionEvent{
		Operation: model.OpUpdate,
		Status:    model.StatusNone,
		TaskID:    t.ID,
		Payload:   t,
	}, true)
}

// PrimeRetained publishes the current holder of every task as a retained
// message, so subscribers arriving after a restart still learn who holds
// what.
func (c *Coordinator) PrimeRetained() error {
	selections, err := db.TaskSelections()
	if err != nil {
		return err
	}
	for _, sel := range selections {
		ev := &model.SelectionEvent{
			Operation: model.OpUpdate,
			Status:    model.StatusInactive,
			TaskID:    sel.TaskID,
		}
		if sel.UserID != nil {
			ev.Status = model.StatusActive
			ev.UserID = sel.UserID
			if sel.UserName != nil {
				ev.UserName = *sel.UserName
			}
		}
		c.publish(model.TaskTopic(sel.TaskID), ev, true)
	}
	return nil
}

// publish never fails the calling operation: transport loss is logged and
// recovered by reconnect-driven resync.
func (c *Coordinator) publish(topic string, ev *model.SelectionEvent, retain bool) {
	data, err := ev.Marshal()
	if err != nil {
		utils.Log.Errorf("failed to marshal event for %s: %+v", topic, err)
		return
	}
	if err := c.bus.Publish(topic, data, retain); err != nil {
		utils.Log.Warnf("dropped publish to %s: %v", topic, err)
	}
}
