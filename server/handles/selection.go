package handles

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/luco5826/dsp/internal/db"
	"github.com/luco5826/dsp/internal/selection"
	"github.com/luco5826/dsp/server/common"
	"github.com/pkg/errors"
)

type SelectReq struct {
	TaskID int64 `json:"taskId" binding:"required"`
}

// SelectTask is the exclusive-selection endpoint: 204 on success, 403 when
// the task is held by someone else, 404 when it does not exist. A conflict
// is surfaced once and never retried server-side.
func SelectTask(coord *selection.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := getUser(c)
		if !ok {
			common.ErrorStrResp(c, "user invalid", 401)
			return
		}
		var req SelectReq
		if err := c.ShouldBind(&req); err != nil {
			common.ErrorStrResp(c, "invalid request format", 400)
			return
		}
		err := coord.Select(user.ID, req.TaskID)
		switch {
		case err == nil:
			c.Status(http.StatusNoContent)
		case errors.Is(err, db.ErrTaskNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "the task does not exist"})
		case errors.Is(err, db.ErrSelectionConflict):
			c.JSON(http.StatusForbidden, gin.H{"message": "task already selected by another user"})
		default:
			common.ErrorResp(c, err, 500)
		}
	}
}

// DeselectTask releases the caller's current lock, if any.
func DeselectTask(coord *selection.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := getUser(c)
		if !ok {
			common.ErrorStrResp(c, "user invalid", 401)
			return
		}
		if err := coord.Deselect(user.ID); err != nil {
			common.ErrorResp(c, err, 500)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
