package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/luco5826/dsp/pkg/utils"
)

type Resp struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// PageResp carries one page of tasks with the pagination counters the
// client reconciler keeps in sync.
type PageResp struct {
	TotalPages  int         `json:"totalPages"`
	CurrentPage int         `json:"currentPage"`
	TotalItems  int64       `json:"totalItems"`
	Tasks       interface{} `json:"tasks"`
	Next        string      `json:"next,omitempty"`
}

func ErrorResp(c *gin.Context, err error, code int, l ...bool) {
	if len(l) == 0 || !l[0] {
		utils.Log.Errorf("%+v", err)
	}
	c.JSON(http.StatusOK, Resp{
		Code:    code,
		Message: err.Error(),
		Data:    nil,
	})
	c.Abort()
}

func ErrorStrResp(c *gin.Context, str string, code int, l ...bool) {
	if len(l) != 0 && l[0] {
		utils.Log.Error(str)
	}
	c.JSON(http.StatusOK, Resp{
		Code:    code,
		Message: str,
		Data:    nil,
	})
	c.Abort()
}

func SuccessResp(c *gin.Context, data ...interface{}) {
	if len(data) == 0 {
		c.JSON(http.StatusOK, Resp{
			Code:    200,
			Message: "success",
			Data:    nil,
		})
		return
	}
	c.JSON(http.StatusOK, Resp{
		Code:    200,
		Message: "success",
		Data:    data[0],
	})
}
