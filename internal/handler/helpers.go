package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/LUBTFY/agent-starter-pack/internal/ai"
	"github.com/LUBTFY/agent-starter-pack/internal/pkg/errcode"
	apperrors "github.com/LUBTFY/agent-starter-pack/internal/pkg/errors"
	"github.com/LUBTFY/agent-starter-pack/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(context.Background()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, apperrors.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, apperrors.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, apperrors.ErrUnavailable), errors.Is(err, ai.ErrUnavailable):
		response.Error(c, errcode.ErrEmbeddingUnavailable, "service unavailable")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
