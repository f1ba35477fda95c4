package presence

import (
	"testing"
	"time"

	"github.com/luco5826/dsp/internal/bus"
	"github.com/luco5826/dsp/internal/db"
	"github.com/luco5826/dsp/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setup(t *testing.T) (*bus.Bus, *Registry) {
	t.Helper()
	d, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := d.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Init(d))
	t.Cleanup(func() { _ = sqlDB.Close() })

	b := bus.New()
	require.NoError(t, b.Start())
	t.Cleanup(b.Stop)
	return b, NewRegistry(b)
}

func seedUser(t *testing.T, name string) *model.User {
	t.Helper()
	u := &model.User{Name: name, Email: name + "@test.local"}
	require.NoError(t, u.SetPassword("password"))
	require.NoError(t, db.CreateUser(u))
	return u
}

func nextBroadcast(t *testing.T, s *bus.Subscriber) *model.PresenceMessage {
	t.Helper()
	select {
	case env, ok := <-s.C():
		require.True(t, ok, "watcher channel closed")
		msg, err := model.ParsePresenceMessage(env.Message)
		require.NoError(t, err)
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
		return nil
	}
}

func TestOnConnectBroadcastsLogin(t *testing.T) {
	b, reg := setup(t)
	alice := seedUser(t, "alice")

	w := b.NewSubscriber("watcher")
	require.NoError(t, b.Register(w))

	require.NoError(t, reg.OnConnect(alice))
	msg := nextBroadcast(t, w)
	assert.Equal(t, model.PresenceLogin, msg.Type)
	assert.Equal(t, alice.ID, msg.UserID)
	assert.Equal(t, "alice", msg.UserName)
	assert.Nil(t, msg.TaskID)
}

func TestOnConnectCarriesActiveTask(t *testing.T) {
	b, reg := setup(t)
	owner := seedUser(t, "owner")
	alice := seedUser(t, "alice")
	task := &model.Task{Description: "held work", OwnerID: owner.ID}
	require.NoError(t, db.CreateTask(task))
	require.NoError(t, db.AssignUser(task.ID, alice.ID, owner.ID))
	_, err := db.SelectTask(alice.ID, task.ID)
	require.NoError(t, err)

	w := b.NewSubscriber("watcher")
	require.NoError(t, b.Register(w))

	require.NoError(t, reg.OnConnect(alice))
	msg := nextBroadcast(t, w)
	require.NotNil(t, msg.TaskID)
	assert.Equal(t, task.ID, *msg.TaskID)
	assert.Equal(t, "held work", msg.TaskName)
}

func TestOnLogout(t *testing.T) {
	b, reg := setup(t)
	alice := seedUser(t, "alice")
	require.NoError(t, reg.OnConnect(alice))

	w := b.NewSubscriber("watcher")
	require.NoError(t, b.Register(w))

	reg.OnLogout(alice.ID, alice.Name)
	msg := nextBroadcast(t, w)
	assert.Equal(t, model.PresenceLogout, msg.Type)
	assert.Equal(t, alice.ID, msg.UserID)

	_, ok := reg.Entry(alice.ID)
	assert.False(t, ok)
}

func TestOnSelectionChange(t *testing.T) {
	b, reg := setup(t)
	alice := seedUser(t, "alice")
	require.NoError(t, reg.OnConnect(alice))

	w := b.NewSubscriber("watcher")
	require.NoError(t, b.Register(w))

	reg.OnSelectionChange(alice.ID, alice.Name, 42, "answer everything")
	msg := nextBroadcast(t, w)
	assert.Equal(t, model.PresenceUpdate, msg.Type)
	require.NotNil(t, msg.TaskID)
	assert.EqualValues(t, 42, *msg.TaskID)
	assert.Equal(t, "answer everything", msg.TaskName)

	// the stored snapshot replays as a login message
	entry, ok := reg.Entry(alice.ID)
	require.True(t, ok)
	assert.Equal(t, model.PresenceLogin, entry.Type)
	require.NotNil(t, entry.TaskID)
	assert.EqualValues(t, 42, *entry.TaskID)
}

func TestOnSelectionCleared(t *testing.T) {
	b, reg := setup(t)
	alice := seedUser(t, "alice")
	require.NoError(t, reg.OnConnect(alice))
	reg.OnSelectionChange(alice.ID, alice.Name, 42, "answer everything")

	w := b.NewSubscriber("watcher")
	require.NoError(t, b.Register(w))

	reg.OnSelectionCleared(alice.ID)
	msg := nextBroadcast(t, w)
	assert.Equal(t, model.PresenceUpdate, msg.Type)
	assert.Equal(t, alice.ID, msg.UserID)
	assert.Nil(t, msg.TaskID)
	assert.Empty(t, msg.TaskName)

	entry, ok := reg.Entry(alice.ID)
	require.True(t, ok)
	assert.Equal(t, model.PresenceLogin, entry.Type)
	assert.Nil(t, entry.TaskID)

	// a user with no entry stays silent
	reg.OnSelectionCleared(9999)
	select {
	case env := <-w.C():
		t.Fatalf("unexpected broadcast: %s", env.Message)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSnapshotMarshalsEveryEntry(t *testing.T) {
	_, reg := setup(t)
	alice := seedUser(t, "alice")
	bob := seedUser(t, "bob")
	require.NoError(t, reg.OnConnect(alice))
	require.NoError(t, reg.OnConnect(bob))

	snap := reg.Snapshot()
	require.Len(t, snap, 2)
	users := map[int64]bool{}
	for _, data := range snap {
		msg, err := model.ParsePresenceMessage(data)
		require.NoError(t, err)
		assert.Equal(t, model.PresenceLogin, msg.Type)
		users[msg.UserID] = true
	}
	assert.True(t, users[alice.ID])
	assert.True(t, users[bob.ID])
}
