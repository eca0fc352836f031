package handler

import (
	"net/http"

	"trxearn/internal/middleware"
	"trxearn/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TaskHandler struct {
	tasks  *service.TaskService
	ledger *service.LedgerService
	logger *zap.Logger
}

func NewTaskHandler(tasks *service.TaskService, ledger *service.LedgerService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, ledger: ledger, logger: logger}
}

// List handles GET /tasks.
func (h *TaskHandler) List(c *gin.Context) {
	out, err := h.tasks.ListForAccount(c.Request.Context(), middleware.GetAccountID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Complete handles POST /tasks/:id/complete.
func (h *TaskHandler) Complete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	res, err := h.ledger.CompleteTask(c.Request.Context(), middleware.GetAccountID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Stats handles GET /tasks/stats.
func (h *TaskHandler) Stats(c *gin.Context) {
	st, err := h.tasks.Stats(c.Request.Context(), middleware.GetAccountID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
