package model

import "time"

// Task is one entry of the shared list. A task is owned by its creator;
// assignees may complete it, the owner may do everything else.
type Task struct {
	ID          int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Description string     `gorm:"column:description;size:1024;not null" json:"description"`
	Important   bool       `gorm:"column:important" json:"important"`
	Private     bool       `gorm:"column:private;index:idx_task_private" json:"private"`
	Deadline    *time.Time `gorm:"column:deadline" json:"deadline,omitempty"`
	Project     string     `gorm:"column:project;size:255" json:"project,omitempty"`
	Completed   bool       `gorm:"column:completed" json:"completed"`
	OwnerID     int64      `gorm:"column:owner_id;index:idx_task_owner" json:"owner"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (Task) TableName() string {
	return "tasks"
}
