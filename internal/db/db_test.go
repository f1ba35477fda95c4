package db

import (
	"testing"

	"github.com/luco5826/dsp/internal/model"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	handle, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := handle.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, Init(handle))
	t.Cleanup(func() {
		_ = sqlDB.Close()
		db = nil
	})
}

func mustUser(t *testing.T, name, email string) *model.User {
	t.Helper()
	u := &model.User{Name: name, Email: email}
	require.NoError(t, u.SetPassword("secret"))
	require.NoError(t, CreateUser(u))
	return u
}

func mustTask(t *testing.T, ownerID int64, description string, private bool) *model.Task {
	t.Helper()
	task := &model.Task{Description: description, Private: private, OwnerID: ownerID}
	require.NoError(t, CreateTask(task))
	return task
}

func mustAssign(t *testing.T, taskID, userID, ownerID int64) {
	t.Helper()
	require.NoError(t, AssignUser(taskID, userID, ownerID))
}
