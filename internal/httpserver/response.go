package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"labelshop/internal/domain"
)

type errorResponse struct {
	Message string `json:"message"`
}

// writeError maps domain sentinels to status codes. Unknown errors are logged and hidden.
func (h *handlers) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrAlreadyExists):
		status, msg = http.StatusConflict, strings.TrimPrefix(err.Error(), domain.ErrAlreadyExists.Error()+": ")
	case errors.Is(err, domain.ErrInvalidInput):
		status, msg = http.StatusBadRequest, strings.TrimPrefix(err.Error(), domain.ErrInvalidInput.Error()+": ")
	case errors.Is(err, domain.ErrForbidden):
		status, msg = http.StatusForbidden, "forbidden"
	default:
		_ = c.Error(err)
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, errorResponse{Message: msg})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Message: msg})
}
