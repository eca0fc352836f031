package handler

import (
	"net/http"

	"trxearn/internal/domain"
	"trxearn/internal/middleware"
	"trxearn/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WithdrawalHandler struct {
	withdrawals *service.WithdrawalService
	logger      *zap.Logger
}

func NewWithdrawalHandler(withdrawals *service.WithdrawalService, logger *zap.Logger) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawals: withdrawals, logger: logger}
}

// Request handles POST /withdrawals. An omitted address uses the saved wallet.
func (h *WithdrawalHandler) Request(c *gin.Context) {
	var req struct {
		Amount    domain.Amount `json:"amount"`
		ToAddress string        `json:"to_address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.withdrawals.Request(c.Request.Context(), middleware.GetAccountID(c), req.Amount, req.ToAddress)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// History handles GET /withdrawals.
func (h *WithdrawalHandler) History(c *gin.Context) {
	out, err := h.withdrawals.History(c.Request.Context(), middleware.GetAccountID(c), parseLimit(c, 50, 200))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Get handles GET /withdrawals/:id.
func (h *WithdrawalHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	w, err := h.withdrawals.Get(c.Request.Context(), middleware.GetAccountID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// Cancel handles POST /withdrawals/:id/cancel.
func (h *WithdrawalHandler) Cancel(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	res, err := h.withdrawals.Cancel(c.Request.Context(), middleware.GetAccountID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Stats handles GET /withdrawals/stats.
func (h *WithdrawalHandler) Stats(c *gin.Context) {
	st, err := h.withdrawals.AccountStats(c.Request.Context(), middleware.GetAccountID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
