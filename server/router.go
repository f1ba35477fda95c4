package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/luco5826/dsp/internal/bus"
	"github.com/luco5826/dsp/internal/conf"
	"github.com/luco5826/dsp/internal/presence"
	"github.com/luco5826/dsp/internal/selection"
	"github.com/luco5826/dsp/server/handles"
	"github.com/luco5826/dsp/server/middlewares"
)

// Init wires every route onto the engine.
func Init(e *gin.Engine, coord *selection.Coordinator, reg *presence.Registry, b *bus.Bus) {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = conf.Conf.Cors
	corsConfig.AllowCredentials = true
	e.Use(cors.New(corsConfig))

	api := e.Group("/api")

	api.POST("/users/authenticator", handles.Login(reg))
	api.GET("/tasks/public", handles.ListPublicTasks)
	api.GET("/events", eventsHandler(b))
	api.GET("/notifications", notificationsHandler(b, reg))

	auth := api.Group("", middlewares.Auth)
	auth.GET("/users/authenticator", handles.CurrentUser)
	auth.GET("/users/authenticator/logout", handles.Logout(reg))

	auth.POST("/tasks", handles.AddTask(coord))
	auth.GET("/tasks/:taskId", handles.GetTask)
	auth.PUT("/tasks/:taskId", handles.UpdateTask(coord))
	auth.DELETE("/tasks/:taskId", handles.DeleteTask(coord))
	auth.PUT("/tasks/:taskId/completion", handles.CompleteTask(coord))

	auth.POST("/tasks/:taskId/assignees", handles.AssignUser)
	auth.GET("/tasks/:taskId/assignees", handles.ListAssignees)
	auth.DELETE("/tasks/:taskId/assignees/:userId", handles.RemoveAssignee)
	auth.POST("/tasks/assignments", handles.AssignBalanced)

	auth.GET("/users", handles.ListUsers)
	auth.GET("/users/:userId", handles.GetUser)
	auth.GET("/users/:userId/tasks/created", handles.ListOwnedTasks)
	auth.GET("/users/:userId/tasks/assigned", handles.ListAssignedTasks)

	auth.PUT("/selection", handles.SelectTask(coord))
	auth.DELETE("/selection", handles.DeselectTask(coord))
}
