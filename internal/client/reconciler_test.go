package client

import (
	"context"
	"testing"
	"time"

	"github.com/luco5826/dsp/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReconciler(t *testing.T, pageSize int) (*Reconciler, *fakeTopicClient) {
	t.Helper()
	m, fc := newTestManager(t)
	return NewReconciler(m, pageSize), fc
}

func loadTasks(t *testing.T, r *Reconciler, filter Filter, ids ...int64) {
	t.Helper()
	tasks := make([]model.Task, 0, len(ids))
	for _, id := range ids {
		tasks = append(tasks, model.Task{ID: id, Description: "task"})
	}
	pages := 1
	if len(ids) > 0 && r.pageSize > 0 {
		pages = (len(ids) + r.pageSize - 1) / r.pageSize
	}
	require.NoError(t, r.LoadPage(filter, tasks, PageInfo{
		TotalItems:  int64(len(ids)),
		TotalPages:  pages,
		CurrentPage: 1,
	}))
}

func event(t *testing.T, ev *model.SelectionEvent) []byte {
	t.Helper()
	data, err := ev.Marshal()
	require.NoError(t, err)
	return data
}

func visibleIDs(r *Reconciler) []int64 {
	ids := make([]int64, 0, len(r.Tasks()))
	for _, tv := range r.Tasks() {
		ids = append(ids, tv.ID)
	}
	return ids
}

func TestLoadPageAlignsSubscriptions(t *testing.T) {
	r, fc := newTestReconciler(t, 3)
	loadTasks(t, r, FilterPublic, 1, 2)
	assert.ElementsMatch(t, []string{"+task:1", "+task:2"}, fc.calls)
	assert.Equal(t, []int64{1, 2}, visibleIDs(r))

	fc.reset()
	loadTasks(t, r, FilterOwned, 2, 3)
	assert.ElementsMatch(t, []string{"-task:1", "+task:3"}, fc.calls)
	assert.Equal(t, FilterOwned, r.Filter())
}

func TestCreateAppendsWhenPageHasRoom(t *testing.T) {
	r, _ := newTestReconciler(t, 3)
	loadTasks(t, r, FilterPublic, 1, 2)

	r.HandleEvent(event(t, &model.SelectionEvent{
		Operation: model.OpCreate,
		Status:    model.StatusNone,
		TaskID:    3,
		Payload:   &model.Task{ID: 3, Description: "new"},
	}))

	assert.Equal(t, []int64{1, 2, 3}, visibleIDs(r))
	assert.EqualValues(t, 3, r.Page().TotalItems)
	assert.Equal(t, 1, r.Page().TotalPages)
}

func TestCreateOnFullPageBumpsCountersOnly(t *testing.T) {
	r, _ := newTestReconciler(t, 2)
	loadTasks(t, r, FilterPublic, 1, 2)

	r.HandleEvent(event(t, &model.SelectionEvent{
		Operation: model.OpCreate,
		Status:    model.StatusNone,
		TaskID:    3,
		Payload:   &model.Task{ID: 3},
	}))

	assert.Equal(t, []int64{1, 2}, visibleIDs(r))
	assert.EqualValues(t, 3, r.Page().TotalItems)
	assert.Equal(t, 2, r.Page().TotalPages)
}

func TestCreateSubscribesEvenWhenNotVisible(t *testing.T) {
	r, fc := newTestReconciler(t, 3)
	loadTasks(t, r, FilterOwned, 1)
	fc.reset()

	r.HandleEvent(event(t, &model.SelectionEvent{
		Operation: model.OpCreate,
		Status:    model.StatusNone,
		TaskID:    9,
		Payload:   &model.Task{ID: 9},
	}))

	assert.Equal(t, []string{"+task:9"}, fc.calls)
	assert.Equal(t, []int64{1}, visibleIDs(r))
}

func TestCreatePrivateNeverListed(t *testing.T) {
	r, _ := newTestReconciler(t, 3)
	loadTasks(t, r, FilterPublic, 1)

	r.HandleEvent(event(t, &model.SelectionEvent{
		Operation: model.OpCreate,
		Status:    model.StatusNone,
		TaskID:    2,
		Payload:   &model.Task{ID: 2, Private: true},
	}))

	assert.Equal(t, []int64{1}, visibleIDs(r))
	assert.EqualValues(t, 1, r.Page().TotalItems)
}

func TestDeleteRemovesAndUnsubscribes(t *testing.T) {
	r, fc := newTestReconciler(t, 3)
	loadTasks(t, r, FilterPublic, 1, 2)
	fc.reset()

	r.HandleEvent(event(t, &model.SelectionEvent{
		Operation: model.OpDelete,
		Status:    model.StatusNone,
		TaskID:    1,
	}))

	assert.Equal(t, []string{"-task:1"}, fc.calls)
	assert.Equal(t, []int64{2}, visibleIDs(r))
	assert.EqualValues(t, 1, r.Page().TotalItems)
}

func TestActiveAndInactiveAnnotateInPlace(t *testing.T) {
	r, _ := newTestReconciler(t, 3)
	loadTasks(t, r, FilterPublic, 1, 2)

	uid := int64(7)
	r.HandleEvent(event(t, &model.SelectionEvent{
		Operation: model.OpUpdate,
		Status:    model.StatusActive,
		UserID:    &uid,
		UserName:  "alice",
		TaskID:    2,
	}))

	views := r.Tasks()
	assert.Equal(t, []int64{1, 2}, visibleIDs(r))
	require.NotNil(t, views[1].HolderID)
	assert.EqualValues(t, 7, *views[1].HolderID)
	assert.Equal(t, "alice", views[1].HolderName)
	assert.Nil(t, views[0].HolderID)

	r.HandleEvent(event(t, &model.SelectionEvent{
		Operation: model.OpUpdate,
		Status:    model.StatusInactive,
		TaskID:    2,
	}))

	views = r.Tasks()
	assert.Nil(t, views[1].HolderID)
	assert.Empty(t, views[1].HolderName)
}

func TestPublicFlipInsertsIntoPublicView(t *testing.T) {
	r, fc := newTestReconciler(t, 3)
	loadTasks(t, r, FilterPublic, 1)
	fc.reset()

	r.HandleEvent(event(t, &model.SelectionEvent{
		Operation: model.OpUpdate,
		Status:    model.StatusPublic,
		TaskID:    5,
		Payload:   &model.Task{ID: 5, Description: "now public"},
	}))

	assert.Equal(t, []string{"+task:5"}, fc.calls)
	assert.Equal(t, []int64{1, 5}, visibleIDs(r))
	assert.EqualValues(t, 2, r.Page().TotalItems)
}

func TestPrivateFlipRemovesFromPublicView(t *testing.T) {
	r, fc := newTestReconciler(t, 3)
	loadTasks(t, r, FilterPublic, 1, 2)
	fc.reset()

	r.HandleEvent(event(t, &model.SelectionEvent{
		Operation: model.OpUpdate,
		Status:    model.StatusPrivate,
		TaskID:    2,
	}))

	assert.Equal(t, []string{"-task:2"}, fc.calls)
	assert.Equal(t, []int64{1}, visibleIDs(r))
	assert.EqualValues(t, 1, r.Page().TotalItems)
}

func TestPrivateFlipKeepsOwnedViewAndSubscription(t *testing.T) {
	r, fc := newTestReconciler(t, 3)
	loadTasks(t, r, FilterOwned, 1, 2)
	fc.reset()

	r.HandleEvent(event(t, &model.SelectionEvent{
		Operation: model.OpUpdate,
		Status:    model.StatusPrivate,
		TaskID:    2,
	}))

	// the owner keeps seeing their own task, and must keep receiving its
	// lock-state and content updates
	assert.Equal(t, []int64{1, 2}, visibleIDs(r))
	assert.Empty(t, fc.calls)

	uid := int64(7)
	r.HandleEvent(event(t, &model.SelectionEvent{
		Operation: model.OpUpdate,
		Status:    model.StatusActive,
		UserID:    &uid,
		UserName:  "alice",
		TaskID:    2,
	}))
	require.NotNil(t, r.Tasks()[1].HolderID)
	assert.EqualValues(t, 7, *r.Tasks()[1].HolderID)
}

func TestContentMergePreservesPositionAndHolder(t *testing.T) {
	r, _ := newTestReconciler(t, 3)
	loadTasks(t, r, FilterPublic, 1, 2, 3)

	uid := int64(7)
	r.HandleEvent(event(t, &model.SelectionEvent{
		Operation: model.OpUpdate,
		Status:    model.StatusActive,
		UserID:    &uid,
		UserName:  "alice",
		TaskID:    2,
	}))
	r.HandleEvent(event(t, &model.SelectionEvent{
		Operation: model.OpUpdate,
		Status:    model.StatusNone,
		TaskID:    2,
		Payload:   &model.Task{ID: 2, Description: "edited", Important: true},
	}))

	assert.Equal(t, []int64{1, 2, 3}, visibleIDs(r))
	view := r.Tasks()[1]
	assert.Equal(t, "edited", view.Description)
	assert.True(t, view.Important)
	require.NotNil(t, view.HolderID)
	assert.EqualValues(t, 7, *view.HolderID)
	assert.Equal(t, "alice", view.HolderName)
}

func TestMalformedEventDropped(t *testing.T) {
	r, _ := newTestReconciler(t, 3)
	loadTasks(t, r, FilterPublic, 1)

	r.HandleEvent([]byte(`not json`))
	r.HandleEvent([]byte(`{"operation":"EXPLODE","status":"none","taskId":1}`))
	r.HandleEvent([]byte(`{"operation":"UPDATE","status":"none"}`))

	assert.Equal(t, []int64{1}, visibleIDs(r))
	assert.EqualValues(t, 1, r.Page().TotalItems)
}

func TestRunAppliesEventsUntilCancel(t *testing.T) {
	r, _ := newTestReconciler(t, 3)
	loadTasks(t, r, FilterPublic, 1)

	events := make(chan []byte, 2)
	events <- event(t, &model.SelectionEvent{
		Operation: model.OpCreate,
		Status:    model.StatusNone,
		TaskID:    2,
		Payload:   &model.Task{ID: 2},
	})
	close(events)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r.Run(ctx, events)

	assert.Equal(t, []int64{1, 2}, visibleIDs(r))
}
