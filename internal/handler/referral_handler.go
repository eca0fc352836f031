package handler

import (
	"net/http"

	"trxearn/internal/middleware"
	"trxearn/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReferralHandler struct {
	referrals *service.ReferralService
	logger    *zap.Logger
}

func NewReferralHandler(referrals *service.ReferralService, logger *zap.Logger) *ReferralHandler {
	return &ReferralHandler{referrals: referrals, logger: logger}
}

// Info handles GET /referrals.
func (h *ReferralHandler) Info(c *gin.Context) {
	info, err := h.referrals.Info(c.Request.Context(), middleware.GetAccountID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// Stats handles GET /referrals/stats.
func (h *ReferralHandler) Stats(c *gin.Context) {
	st, err := h.referrals.Stats(c.Request.Context(), middleware.GetAccountID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// Leaderboard handles GET /referrals/leaderboard.
func (h *ReferralHandler) Leaderboard(c *gin.Context) {
	limit := parseLimit(c, 10, 100)
	entries, err := h.referrals.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

// Validate handles GET /referrals/validate/:code. Unknown codes answer valid=false, not 404.
func (h *ReferralHandler) Validate(c *gin.Context) {
	ref, err := h.referrals.ValidateCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		if statusFor(err) == http.StatusNotFound {
			c.JSON(http.StatusOK, gin.H{"valid": false})
			return
		}
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "referrer": ref})
}
