package client

import (
	"context"

	"github.com/luco5826/dsp/internal/model"
	"github.com/luco5826/dsp/pkg/utils"
)

// PageInfo mirrors the pagination counters of the list endpoints.
type PageInfo struct {
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
}

// TaskView is a listed task annotated with its current lock holder.
type TaskView struct {
	model.Task
	HolderID   *int64 `json:"holderId,omitempty"`
	HolderName string `json:"holderName,omitempty"`
}

// Reconciler folds inbound events into the visible task list in arrival
// order. All methods must be called from a single goroutine; Run provides
// that loop when events arrive over a channel. User actions such as
// LoadPage interleave between event drains, so every event is applied
// against the current view, never the view at publish time.
type Reconciler struct {
	subs     *SubscriptionManager
	filter   Filter
	pageSize int
	tasks    []TaskView
	page     PageInfo
}

func NewReconciler(subs *SubscriptionManager, pageSize int) *Reconciler {
	return &Reconciler{
		subs:     subs,
		filter:   FilterPublic,
		pageSize: pageSize,
	}
}

// LoadPage replaces the visible snapshot after a page or filter fetch and
// realigns topic subscriptions to the new visible set.
func (r *Reconciler) LoadPage(filter Filter, tasks []model.Task, page PageInfo) error {
	r.filter = filter
	r.page = page
	r.tasks = make([]TaskView, 0, len(tasks))
	ids := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		r.tasks = append(r.tasks, TaskView{Task: t})
		ids = append(ids, t.ID)
	}
	return r.subs.Update(ids)
}

// Tasks returns the current visible list.
func (r *Reconciler) Tasks() []TaskView {
	return r.tasks
}

func (r *Reconciler) Page() PageInfo {
	return r.page
}

func (r *Reconciler) Filter() Filter {
	return r.filter
}

// HandleEvent decodes and applies one inbound message. A malformed message
// is logged and dropped; it never halts processing of later events.
func (r *Reconciler) HandleEvent(raw []byte) {
	ev, err := model.ParseSelectionEvent(raw)
	if err != nil {
		utils.Log.Warnf("dropping event: %v", err)
		return
	}
	r.apply(ev)
}

// Run drains the event channel until the context ends.
func (r *Reconciler) Run(ctx context.Context, events <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-events:
			if !ok {
				return
			}
			r.HandleEvent(raw)
		}
	}
}

func (r *Reconciler) apply(ev *model.SelectionEvent) {
	switch ev.Operation {
	case model.OpCreate:
		r.applyCreate(ev)
	case model.OpDelete:
		r.applyDelete(ev)
	case model.OpUpdate:
		r.applyUpdate(ev)
	}
}

func (r *Reconciler) applyCreate(ev *model.SelectionEvent) {
	// future updates of the task are interesting regardless of the view
	if err := r.subs.SubscribeTask(ev.TaskID); err != nil {
		utils.Log.Warnf("subscribe task %d: %v", ev.TaskID, err)
	}
	if r.filter != FilterPublic || ev.Payload == nil || ev.Payload.Private {
		return
	}
	r.insert(ev.Payload)
}

func (r *Reconciler) applyDelete(ev *model.SelectionEvent) {
	if err := r.subs.UnsubscribeTask(ev.TaskID); err != nil {
		utils.Log.Warnf("unsubscribe task %d: %v", ev.TaskID, err)
	}
	r.remove(ev.TaskID)
}

func (r *Reconciler) applyUpdate(ev *model.SelectionEvent) {
	switch ev.Status {
	case model.StatusActive:
		if i := r.index(ev.TaskID); i >= 0 {
			r.tasks[i].HolderID = ev.UserID
			r.tasks[i].HolderName = ev.UserName
		}
	case model.StatusInactive:
		if i := r.index(ev.TaskID); i >= 0 {
			r.tasks[i].HolderID = nil
			r.tasks[i].HolderName = ""
		}
	case model.StatusPublic:
		if err := r.subs.SubscribeTask(ev.TaskID); err != nil {
			utils.Log.Warnf("subscribe task %d: %v", ev.TaskID, err)
		}
		if r.filter != FilterPublic || ev.Payload == nil {
			return
		}
		if r.index(ev.TaskID) < 0 {
			r.insert(ev.Payload)
		}
	case model.StatusPrivate:
		// under the owned/assigned filter the task stays visible, so the
		// subscription must survive the flip
		if r.filter == FilterPublic {
			if err := r.subs.UnsubscribeTask(ev.TaskID); err != nil {
				utils.Log.Warnf("unsubscribe task %d: %v", ev.TaskID, err)
			}
			r.remove(ev.TaskID)
		}
	default:
		// content change: merge in place, preserving list position
		if i := r.index(ev.TaskID); i >= 0 && ev.Payload != nil {
			holderID, holderName := r.tasks[i].HolderID, r.tasks[i].HolderName
			r.tasks[i] = TaskView{Task: *ev.Payload, HolderID: holderID, HolderName: holderName}
		}
	}
}

// insert appends the task when the current page has room; otherwise only
// the pagination counters move and the task surfaces on a later fetch.
func (r *Reconciler) insert(t *model.Task) {
	r.page.TotalItems++
	r.recountPages()
	if len(r.tasks) >= r.pageSize {
		return
	}
	r.tasks = append(r.tasks, TaskView{Task: *t})
}

func (r *Reconciler) remove(taskID int64) {
	i := r.index(taskID)
	if i < 0 {
		return
	}
	r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
	if r.page.TotalItems > 0 {
		r.page.TotalItems--
	}
	r.recountPages()
}

func (r *Reconciler) index(taskID int64) int {
	for i := range r.tasks {
		if r.tasks[i].ID == taskID {
			return i
		}
	}
	return -1
}

func (r *Reconciler) recountPages() {
	if r.pageSize <= 0 {
		return
	}
	pages := int(r.page.TotalItems) / r.pageSize
	if int(r.page.TotalItems)%r.pageSize != 0 {
		pages++
	}
	r.page.TotalPages = pages
}
