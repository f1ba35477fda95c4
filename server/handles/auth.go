package handles

import (
	"github.com/gin-gonic/gin"
	"github.com/luco5826/dsp/internal/conf"
	"github.com/luco5826/dsp/internal/db"
	"github.com/luco5826/dsp/internal/model"
	"github.com/luco5826/dsp/internal/presence"
	"github.com/luco5826/dsp/pkg/utils"
	"github.com/luco5826/dsp/server/common"
	"github.com/luco5826/dsp/server/middlewares"
)

type LoginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserInfo struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func getUser(c *gin.Context) (*model.User, bool) {
	user, ok := c.Request.Context().Value(conf.UserKey).(*model.User)
	return user, ok
}

// Login verifies credentials, issues the session cookie and broadcasts the
// login presence message carrying the user's current active task.
func Login(reg *presence.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginReq
		if err := c.ShouldBind(&req); err != nil {
			common.ErrorStrResp(c, "invalid request format", 400)
			return
		}
		user, err := db.GetUserByEmail(req.Email)
		if err != nil {
			common.ErrorStrResp(c, "incorrect e-mail or password", 401, true)
			return
		}
		if err := user.ValidatePassword(req.Password); err != nil {
			common.ErrorStrResp(c, "incorrect e-mail or password", 401, true)
			return
		}
		token, err := middlewares.SignSession(user.ID)
		if err != nil {
			common.ErrorResp(c, err, 500)
			return
		}
		if err := reg.OnConnect(user); err != nil {
			common.ErrorResp(c, err, 500)
			return
		}
		c.SetCookie(middlewares.CookieName, token, 0, "/", "", false, true)
		common.SuccessResp(c, UserInfo{ID: user.ID, Name: user.Name, Email: user.Email})
	}
}

// Logout clears the cookie and broadcasts the logout presence message.
func Logout(reg *presence.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := getUser(c)
		if !ok {
			common.ErrorStrResp(c, "user invalid", 401)
			return
		}
		reg.OnLogout(user.ID, user.Name)
		c.SetCookie(middlewares.CookieName, "", -1, "/", "", false, true)
		common.SuccessResp(c)
	}
}

func CurrentUser(c *gin.Context) {
	user, ok := getUser(c)
	if !ok {
		common.ErrorStrResp(c, "user invalid", 401)
		return
	}
	common.SuccessResp(c, UserInfo{ID: user.ID, Name: user.Name, Email: user.Email})
}

func ListUsers(c *gin.Context) {
	users, err := db.ListUsers()
	if err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	common.SuccessResp(c, utils.MustSliceConvert(users, func(u model.User) UserInfo {
		return UserInfo{ID: u.ID, Name: u.Name, Email: u.Email}
	}))
}

func GetUser(c *gin.Context) {
	id, ok := pathID(c, "userId")
	if !ok {
		return
	}
	user, err := db.GetUserByID(id)
	if err != nil {
		common.ErrorStrResp(c, "user not found", 404)
		return
	}
	common.SuccessResp(c, UserInfo{ID: user.ID, Name: user.Name, Email: user.Email})
}
