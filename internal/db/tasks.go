package db

import (
	"github.com/luco5826/dsp/internal/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func CreateTask(t *model.Task) error {
	return errors.WithStack(db.Create(t).Error)
}

func GetTaskByID(id int64) (*model.Task, error) {
	var t model.Task
	if err := db.First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, errors.Wrapf(err, "failed find task %d", id)
	}
	return &t, nil
}

// UpdateTask replaces the mutable fields of an owned task. Returns the
// stored task before the update so callers can detect visibility flips.
func UpdateTask(t *model.Task, ownerID int64) (*model.Task, error) {
	old, err := GetTaskByID(t.ID)
	if err != nil {
		return nil, err
	}
	if old.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	t.OwnerID = old.OwnerID
	t.CreatedAt = old.CreatedAt
	if err := db.Save(t).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return old, nil
}

func DeleteTask(id, ownerID int64) error {
	t, err := GetTaskByID(id)
	if err != nil {
		return err
	}
	if t.OwnerID != ownerID {
		return ErrNotOwner
	}
	return errors.WithStack(db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&model.Assignment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Task{}, id).Error
	}))
}

// CompleteTask marks a task done. Owners and assignees may complete.
func CompleteTask(id, userID int64) (*model.Task, error) {
	t, err := GetTaskByID(id)
	if err != nil {
		return nil, err
	}
	if t.OwnerID != userID {
		var count int64
		err = db.Model(&model.Assignment{}).
			Where("task_id = ? AND user_id = ?", id, userID).
			Count(&count).Error
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if count == 0 {
			return nil, ErrNotAssignee
		}
	}
	if err := db.Model(&model.Task{}).Where("id = ?", id).Update("completed", true).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	t.Completed = true
	return t, nil
}

func listTasks(tx *gorm.DB, page, pageSize int) ([]model.Task, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, errors.WithStack(err)
	}
	var tasks []model.Task
	err := tx.Order("id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&tasks).Error
	return tasks, total, errors.WithStack(err)
}

func ListPublicTasks(page, pageSize int) ([]model.Task, int64, error) {
	return listTasks(db.Model(&model.Task{}).Where("private = ?", false), page, pageSize)
}

func ListOwnedTasks(ownerID int64, page, pageSize int) ([]model.Task, int64, error) {
	return listTasks(db.Model(&model.Task{}).Where("owner_id = ?", ownerID), page, pageSize)
}

func ListAssignedTasks(userID int64, page, pageSize int) ([]model.Task, int64, error) {
	tx := db.Model(&model.Task{}).
		Joins("JOIN assignments ON assignments.task_id = tasks.id").
		Where("assignments.user_id = ?", userID)
	return listTasks(tx, page, pageSize)
}
