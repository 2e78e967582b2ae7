package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/LUBTFY/agent-starter-pack/internal/agent"
	"github.com/LUBTFY/agent-starter-pack/internal/pkg/errcode"
	"github.com/LUBTFY/agent-starter-pack/internal/pkg/response"
)

type ToolHandler struct {
	box *agent.Toolbox
}

func NewToolHandler(box *agent.Toolbox) *ToolHandler {
	return &ToolHandler{box: box}
}

type toolInfo struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Parameters  []agent.ParamSpec `json:"parameters"`
}

func (h *ToolHandler) List(c *gin.Context) {
	tools := h.box.List()
	out := make([]toolInfo, 0, len(tools))
	for _, tool := range tools {
		out = append(out, toolInfo{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
		})
	}
	response.Success(c, out)
}

type invokeResponse struct {
	Result string `json:"result"`
}

func (h *ToolHandler) Invoke(c *gin.Context) {
	name := c.Param("name")
	tool, err := h.box.Get(name)
	if err != nil {
		response.Error(c, errcode.ErrToolNotFound, "unknown tool")
		return
	}
	var args map[string]interface{}
	if err := c.ShouldBindJSON(&args); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid tool arguments")
		return
	}
	result, err := tool.Invoke(c.Request.Context(), args)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, invokeResponse{Result: result})
}
