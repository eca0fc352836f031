package handler

import (
	"net/http"

	"trxearn/internal/middleware"
	"trxearn/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LedgerHandler serves ad watches and the transaction log.
type LedgerHandler struct {
	ledger *service.LedgerService
	logger *zap.Logger
}

func NewLedgerHandler(ledger *service.LedgerService, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, logger: logger}
}

// WatchAd handles POST /ads/watch.
func (h *LedgerHandler) WatchAd(c *gin.Context) {
	res, err := h.ledger.WatchAd(c.Request.Context(), middleware.GetAccountID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// AdStatus handles GET /ads/status.
func (h *LedgerHandler) AdStatus(c *gin.Context) {
	st, err := h.ledger.AdStatus(c.Request.Context(), middleware.GetAccountID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// AdStats handles GET /ads/stats.
func (h *LedgerHandler) AdStats(c *gin.Context) {
	st, err := h.ledger.AdStats(c.Request.Context(), middleware.GetAccountID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// Transactions handles GET /transactions.
func (h *LedgerHandler) Transactions(c *gin.Context) {
	limit := parseLimit(c, 50, 200)
	txs, err := h.ledger.History(c.Request.Context(), middleware.GetAccountID(c), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": txs, "limit": limit})
}
