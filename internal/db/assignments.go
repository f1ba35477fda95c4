package db

import (
	"github.com/luco5826/dsp/internal/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func AssignUser(taskID, userID, ownerID int64) error {
	t, err := GetTaskByID(taskID)
	if err != nil {
		return err
	}
	if t.OwnerID != ownerID {
		return ErrNotOwner
	}
	if _, err := GetUserByID(userID); err != nil {
		return err
	}
	a := model.Assignment{TaskID: taskID, UserID: userID}
	return errors.WithStack(db.FirstOrCreate(&a, model.Assignment{TaskID: taskID, UserID: userID}).Error)
}

func RemoveAssignee(taskID, userID, ownerID int64) error {
	t, err := GetTaskByID(taskID)
	if err != nil {
		return err
	}
	if t.OwnerID != ownerID {
		return ErrNotOwner
	}
	return errors.WithStack(db.Where("task_id = ? AND user_id = ?", taskID, userID).
		Delete(&model.Assignment{}).Error)
}

func ListAssignees(taskID, ownerID int64) ([]model.User, error) {
	t, err := GetTaskByID(taskID)
	if err != nil {
		return nil, err
	}
	if t.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	var users []model.User
	err = db.Model(&model.User{}).
		Joins("JOIN assignments ON assignments.user_id = users.id").
		Where("assignments.task_id = ?", taskID).
		Order("users.id ASC").
		Find(&users).Error
	return users, errors.WithStack(err)
}

// AssignBalanced assigns every unassigned task of the owner to the user
// currently carrying the fewest assignments, one task at a time.
func AssignBalanced(ownerID int64) error {
	var taskIDs []int64
	err := db.Model(&model.Task{}).
		Joins("LEFT JOIN assignments ON assignments.task_id = tasks.id").
		Where("tasks.owner_id = ? AND assignments.task_id IS NULL", ownerID).
		Pluck("tasks.id", &taskIDs).Error
	if err != nil {
		return errors.WithStack(err)
	}
	for _, taskID := range taskIDs {
		var userID int64
		err = db.Raw(`SELECT users.id FROM users
			LEFT JOIN assignments ON assignments.user_id = users.id
			GROUP BY users.id ORDER BY COUNT(assignments.task_id) ASC, users.id ASC LIMIT 1`).
			Scan(&userID).Error
		if err != nil {
			return errors.WithStack(err)
		}
		if userID == 0 {
			return nil
		}
		a := model.Assignment{TaskID: taskID, UserID: userID}
		if err := db.Create(&a).Error; err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// TaskSelection is one row of the holder snapshot used to prime retained
// topic messages at startup.
type TaskSelection struct {
	TaskID   int64
	UserID   *int64
	UserName *string
}

func TaskSelections() ([]TaskSelection, error) {
	var rows []TaskSelection
	err := db.Raw(`SELECT tasks.id AS task_id, users.id AS user_id, users.name AS user_name
		FROM tasks
		LEFT JOIN assignments ON tasks.id = assignments.task_id AND assignments.active = ?
		LEFT JOIN users ON users.id = assignments.user_id`, true).
		Scan(&rows).Error
	return rows, errors.WithStack(err)
}

// ActiveTaskForUser returns the task the user currently holds, or nil.
func ActiveTaskForUser(userID int64) (*model.Task, error) {
	var tasks []model.Task
	err := db.Model(&model.Task{}).
		Joins("JOIN assignments ON assignments.task_id = tasks.id").
		Where("assignments.user_id = ? AND assignments.active = ?", userID, true).
		Limit(1).
		Find(&tasks).Error
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	return &tasks[0], nil
}

// SelectResult describes a committed selection.
type SelectResult struct {
	PrevTaskID *int64
	UserName   string
	TaskName   string
}

// SelectTask moves the user's exclusive lock to taskID. The whole operation
// is one transaction: clearing the user's active row and the conditional
// set are atomic with respect to any other SelectTask call. A conflict
// rolls everything back, so the caller's previous lock stays held.
func SelectTask(userID, taskID int64) (*SelectResult, error) {
	res := &SelectResult{}
	err := db.Transaction(func(tx *gorm.DB) error {
		// Lock the task row so competing selects on the same task queue
		// here instead of racing the NOT EXISTS check below. Without it the
		// subquery is a snapshot read on mysql and postgres and two
		// transactions can both see no holder and both commit.
		var task model.Task
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&task, taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return errors.WithStack(err)
		}
		var user model.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return errors.WithStack(err)
		}
		res.UserName = user.Name
		res.TaskName = task.Description

		var prev []model.Assignment
		if err := tx.Where("user_id = ? AND active = ?", userID, true).
			Limit(1).Find(&prev).Error; err != nil {
			return errors.WithStack(err)
		}
		if len(prev) > 0 {
			id := prev[0].TaskID
			res.PrevTaskID = &id
		}

		if err := tx.Model(&model.Assignment{}).
			Where("user_id = ?", userID).
			Update("active", false).Error; err != nil {
			return errors.WithStack(err)
		}

		// Compare-and-swap: only takes effect when no other user holds the
		// task. Zero affected rows also covers "caller is not an assignee".
		set := tx.Exec(`UPDATE assignments SET active = ?
			WHERE user_id = ? AND task_id = ?
			AND NOT EXISTS (SELECT 1 FROM assignments
				WHERE user_id <> ? AND task_id = ? AND active = ?)`,
			true, userID, taskID, userID, taskID, true)
		if set.Error != nil {
			return errors.WithStack(set.Error)
		}
		if set.RowsAffected == 0 {
			return ErrSelectionConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ClearActive releases the user's lock, if any, and returns the task it was
// held on.
func ClearActive(userID int64) (*int64, error) {
	var prevTaskID *int64
	err := db.Transaction(func(tx *gorm.DB) error {
		var prev []model.Assignment
		if err := tx.Where("user_id = ? AND active = ?", userID, true).
			Limit(1).Find(&prev).Error; err != nil {
			return errors.WithStack(err)
		}
		if len(prev) == 0 {
			return nil
		}
		id := prev[0].TaskID
		prevTaskID = &id
		return errors.WithStack(tx.Model(&model.Assignment{}).
			Where("user_id = ?", userID).
			Update("active", false).Error)
	})
	if err != nil {
		return nil, err
	}
	return prevTaskID, nil
}
