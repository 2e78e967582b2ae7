package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/LUBTFY/agent-starter-pack/internal/agent"
	"github.com/LUBTFY/agent-starter-pack/internal/pkg/errcode"
	"github.com/LUBTFY/agent-starter-pack/internal/pkg/response"
)

type QueryHandler struct {
	search *agent.VectorSearchTool
}

func NewQueryHandler(search *agent.VectorSearchTool) *QueryHandler {
	return &QueryHandler{search: search}
}

type queryRequest struct {
	Query string `json:"query" binding:"required"`
}

type queryResponse struct {
	Result string `json:"result"`
}

func (h *QueryHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "query is required")
		return
	}
	result, err := h.search.Search(c.Request.Context(), req.Query)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, queryResponse{Result: result})
}
