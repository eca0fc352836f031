package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"trxearn/internal/domain"
	"trxearn/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps domain errors onto HTTP statuses. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBlocked), errors.Is(err, domain.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrCooldown):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrDuplicateAccount):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidCreds):
		return http.StatusUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrBelowMinimum),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrPendingExists),
		errors.Is(err, domain.ErrAlreadyCompleted),
		errors.Is(err, domain.ErrTaskInactive),
		errors.Is(err, domain.ErrNotPending),
		errors.Is(err, domain.ErrNotApproved),
		errors.Is(err, service.ErrTaskFieldsRequired):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes the error body. Internal errors are logged and hidden from the caller.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("method", c.Request.Method),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	if status == http.StatusGatewayTimeout {
		logger.Warn("request timed out", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "request timed out"})
		return
	}
	body := gin.H{"error": err.Error()}
	var cd *domain.CooldownError
	if errors.As(err, &cd) {
		body["error"] = domain.ErrCooldown.Error()
		body["remaining_time"] = cd.RemainingSeconds()
	}
	c.JSON(status, body)
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// parseLimit reads ?limit= with a default and an upper bound.
func parseLimit(c *gin.Context, def, max int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}
