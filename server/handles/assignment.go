package handles

import (
	"github.com/gin-gonic/gin"
	"github.com/luco5826/dsp/internal/db"
	"github.com/luco5826/dsp/server/common"
)

type AssignReq struct {
	ID int64 `json:"id" binding:"required"`
}

func AssignUser(c *gin.Context) {
	user, ok := getUser(c)
	if !ok {
		common.ErrorStrResp(c, "user invalid", 401)
		return
	}
	taskID, ok := pathID(c, "taskId")
	if !ok {
		return
	}
	var req AssignReq
	if err := c.ShouldBind(&req); err != nil {
		common.ErrorStrResp(c, "invalid request format", 400)
		return
	}
	if err := db.AssignUser(taskID, req.ID, user.ID); err != nil {
		taskErrResp(c, err)
		return
	}
	common.SuccessResp(c)
}

func ListAssignees(c *gin.Context) {
	user, ok := getUser(c)
	if !ok {
		common.ErrorStrResp(c, "user invalid", 401)
		return
	}
	taskID, ok := pathID(c, "taskId")
	if !ok {
		return
	}
	users, err := db.ListAssignees(taskID, user.ID)
	if err != nil {
		taskErrResp(c, err)
		return
	}
	infos := make([]UserInfo, 0, len(users))
	for _, u := range users {
		infos = append(infos, UserInfo{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	common.SuccessResp(c, infos)
}

func RemoveAssignee(c *gin.Context) {
	user, ok := getUser(c)
	if !ok {
		common.ErrorStrResp(c, "user invalid", 401)
		return
	}
	taskID, ok := pathID(c, "taskId")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	if err := db.RemoveAssignee(taskID, userID, user.ID); err != nil {
		taskErrResp(c, err)
		return
	}
	common.SuccessResp(c)
}

// AssignBalanced spreads the caller's unassigned tasks over the users with
// the fewest assignments.
func AssignBalanced(c *gin.Context) {
	user, ok := getUser(c)
	if !ok {
		common.ErrorStrResp(c, "user invalid", 401)
		return
	}
	if err := db.AssignBalanced(user.ID); err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	common.SuccessResp(c)
}
