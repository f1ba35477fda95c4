package handles

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/luco5826/dsp/internal/conf"
	"github.com/luco5826/dsp/internal/db"
	"github.com/luco5826/dsp/internal/model"
	"github.com/luco5826/dsp/internal/selection"
	"github.com/luco5826/dsp/server/common"
	"github.com/pkg/errors"
)

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		common.ErrorStrResp(c, "invalid "+name, 400)
		return 0, false
	}
	return id, true
}

func pageNo(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("pageNo", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	return page
}

func pageResp(c *gin.Context, tasks []model.Task, total int64, page int) {
	pageSize := conf.Conf.PageSize
	totalPages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		totalPages++
	}
	if total > 0 && page > totalPages {
		common.ErrorStrResp(c, "the page does not exist", 404)
		return
	}
	common.SuccessResp(c, common.PageResp{
		TotalPages:  totalPages,
		CurrentPage: page,
		TotalItems:  total,
		Tasks:       tasks,
	})
}

// ListPublicTasks serves the public filter; it needs no session.
func ListPublicTasks(c *gin.Context) {
	page := pageNo(c)
	tasks, total, err := db.ListPublicTasks(page, conf.Conf.PageSize)
	if err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	pageResp(c, tasks, total, page)
}

func ListOwnedTasks(c *gin.Context) {
	user, ok := getUser(c)
	if !ok {
		common.ErrorStrResp(c, "user invalid", 401)
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	if userID != user.ID {
		common.ErrorStrResp(c, "the user is not characterized by the specified userId", 403)
		return
	}
	page := pageNo(c)
	tasks, total, err := db.ListOwnedTasks(userID, page, conf.Conf.PageSize)
	if err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	pageResp(c, tasks, total, page)
}

func ListAssignedTasks(c *gin.Context) {
	user, ok := getUser(c)
	if !ok {
		common.ErrorStrResp(c, "user invalid", 401)
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	if userID != user.ID {
		common.ErrorStrResp(c, "the user is not characterized by the specified userId", 403)
		return
	}
	page := pageNo(c)
	tasks, total, err := db.ListAssignedTasks(userID, page, conf.Conf.PageSize)
	if err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	pageResp(c, tasks, total, page)
}

func GetTask(c *gin.Context) {
	user, ok := getUser(c)
	if !ok {
		common.ErrorStrResp(c, "user invalid", 401)
		return
	}
	id, ok := pathID(c, "taskId")
	if !ok {
		return
	}
	task, err := db.GetTaskByID(id)
	if err != nil {
		common.ErrorStrResp(c, "task not found", 404)
		return
	}
	if task.Private && task.OwnerID != user.ID {
		common.ErrorStrResp(c, "the user is not the owner of the task", 403)
		return
	}
	common.SuccessResp(c, task)
}

// AddTask stores a new task and lets the coordinator announce it.
func AddTask(coord *selection.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := getUser(c)
		if !ok {
			common.ErrorStrResp(c, "user invalid", 401)
			return
		}
		var task model.Task
		if err := c.ShouldBind(&task); err != nil {
			common.ErrorStrResp(c, "invalid request format", 400)
			return
		}
		task.ID = 0
		task.OwnerID = user.ID
		task.Completed = false
		if err := db.CreateTask(&task); err != nil {
			common.ErrorResp(c, err, 500)
			return
		}
		coord.TaskCreated(&task)
		common.SuccessResp(c, task)
	}
}

func UpdateTask(coord *selection.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := getUser(c)
		if !ok {
			common.ErrorStrResp(c, "user invalid", 401)
			return
		}
		id, ok := pathID(c, "taskId")
		if !ok {
			return
		}
		var task model.Task
		if err := c.ShouldBind(&task); err != nil {
			common.ErrorStrResp(c, "invalid request format", 400)
			return
		}
		task.ID = id
		old, err := db.UpdateTask(&task, user.ID)
		if err != nil {
			taskErrResp(c, err)
			return
		}
		coord.TaskUpdated(&task, old.Private != task.Private)
		common.SuccessResp(c)
	}
}

func DeleteTask(coord *selection.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := getUser(c)
		if !ok {
			common.ErrorStrResp(c, "user invalid", 401)
			return
		}
		id, ok := pathID(c, "taskId")
		if !ok {
			return
		}
		if err := db.DeleteTask(id, user.ID); err != nil {
			taskErrResp(c, err)
			return
		}
		coord.TaskDeleted(id)
		common.SuccessResp(c)
	}
}

func CompleteTask(coord *selection.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := getUser(c)
		if !ok {
			common.ErrorStrResp(c, "user invalid", 401)
			return
		}
		id, ok := pathID(c, "taskId")
		if !ok {
			return
		}
		task, err := db.CompleteTask(id, user.ID)
		if err != nil {
			taskErrResp(c, err)
			return
		}
		coord.TaskCompleted(task)
		common.SuccessResp(c)
	}
}

func taskErrResp(c *gin.Context, err error) {
	switch {
	case errors.Is(err, db.ErrTaskNotFound):
		common.ErrorStrResp(c, "the task does not exist", 404)
	case errors.Is(err, db.ErrUserNotFound):
		common.ErrorStrResp(c, "the user does not exist", 404)
	case errors.Is(err, db.ErrNotOwner):
		common.ErrorStrResp(c, "the user is not the owner of the task", 403)
	case errors.Is(err, db.ErrNotAssignee):
		common.ErrorStrResp(c, "the user is not an assignee of the task", 403)
	default:
		common.ErrorResp(c, err, 500)
	}
}
