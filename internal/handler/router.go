package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/LUBTFY/agent-starter-pack/internal/middleware"
)

type RouterDeps struct {
	Query     *QueryHandler
	Tools     *ToolHandler
	JWTSecret []byte
}

func RegisterRoutes(group *gin.RouterGroup, deps RouterDeps) {
	api := group.Group("")
	if len(deps.JWTSecret) > 0 {
		api.Use(middleware.JWTAuth(deps.JWTSecret))
	}
	api.POST("/query", deps.Query.Query)
	api.GET("/tools", deps.Tools.List)
	api.POST("/tools/:name", deps.Tools.Invoke)
}
