package db

import "github.com/pkg/errors"

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrUserNotFound = errors.New("user not found")
	ErrNotOwner     = errors.New("user is not the owner of the task")
	ErrNotAssignee  = errors.New("user is not an assignee of the task")

	// ErrSelectionConflict is expected under contention and is the only
	// error surfaced directly to the end user.
	ErrSelectionConflict = errors.New("task already selected by another user")
)
