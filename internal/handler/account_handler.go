package handler

import (
	"net/http"

	"trxearn/internal/middleware"
	"trxearn/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AccountHandler struct {
	accounts *service.AccountService
	logger   *zap.Logger
}

func NewAccountHandler(accounts *service.AccountService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

// Session handles POST /auth/session. It creates the account on first authentication.
func (h *AccountHandler) Session(c *gin.Context) {
	var req struct {
		service.ProfileInput
		ReferralCode string `json:"referral_code"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Username == "" {
		req.Username = middleware.GetUsername(c)
	}
	a, created, err := h.accounts.EnsureAccount(c.Request.Context(), middleware.GetAccountID(c), req.ProfileInput, req.ReferralCode)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"account": a, "created": created})
}

// Me handles GET /me.
func (h *AccountHandler) Me(c *gin.Context) {
	p, err := h.accounts.Profile(c.Request.Context(), middleware.GetAccountID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// SetWallet handles PUT /me/wallet.
func (h *AccountHandler) SetWallet(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wallet_address required"})
		return
	}
	a, err := h.accounts.SetWalletAddress(c.Request.Context(), middleware.GetAccountID(c), req.WalletAddress)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallet_address": a.WalletAddress})
}
