package model

// Assignment relates a user to a task. Active marks the exclusive selection
// lock: at most one active row per task and at most one active row per user
// may exist at any time.
type Assignment struct {
	TaskID int64 `gorm:"column:task_id;primaryKey;autoIncrement:false;index:idx_assignment_active" json:"task"`
	UserID int64 `gorm:"column:user_id;primaryKey;autoIncrement:false;index:idx_assignment_user" json:"user"`
	Active bool  `gorm:"column:active;index:idx_assignment_active" json:"active"`
}

func (Assignment) TableName() string {
	return "assignments"
}
