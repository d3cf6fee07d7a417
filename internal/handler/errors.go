package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	infralogger "github.com/jameskolean/blog-thumbs/infrastructure/logger"
	"github.com/jameskolean/blog-thumbs/internal/service"
	"github.com/jameskolean/blog-thumbs/internal/storage"
)

// respondError maps service errors to a status and a {"error": ...} body.
func respondError(c *gin.Context, log infralogger.Logger, err error) {
	status := http.StatusInternalServerError
	msg := "internal server error"

	switch {
	case errors.Is(err, service.ErrInvalidSlug):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrUnknownSlug):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, storage.ErrBufferFull):
		status, msg = http.StatusServiceUnavailable, "vote buffer full, try again later"
	case errors.Is(err, service.ErrNoContent), errors.Is(err, service.ErrFlushUnavailable):
		status, msg = http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		status, msg = http.StatusGatewayTimeout, "request timed out"
	}

	if status >= http.StatusInternalServerError {
		infralogger.FromContext(c.Request.Context(), log).Error("Request failed",
			infralogger.String("path", c.FullPath()),
			infralogger.Int("status", status),
			infralogger.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": msg})
}
