package handler

import (
	"net/http"
	"strconv"

	"trxearn/internal/domain"
	"trxearn/internal/middleware"
	"trxearn/internal/repository"
	"trxearn/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	authSvc     *service.AuthService
	accounts    *service.AccountService
	ledger      *service.LedgerService
	withdrawals *service.WithdrawalService
	tasks       *service.TaskService
	audit       *service.AuditService
	logger      *zap.Logger
}

func NewAdminHandler(
	authSvc *service.AuthService,
	accounts *service.AccountService,
	ledger *service.LedgerService,
	withdrawals *service.WithdrawalService,
	tasks *service.TaskService,
	audit *service.AuditService,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		authSvc:     authSvc,
		accounts:    accounts,
		ledger:      ledger,
		withdrawals: withdrawals,
		tasks:       tasks,
		audit:       audit,
		logger:      logger,
	}
}

// AdminLogin handles POST /admin/login.
func (h *AdminHandler) AdminLogin(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, err := h.authSvc.AdminLogin(req.Username, req.Password)
	if err != nil {
		h.logger.Warn("admin login failed", zap.String("username", req.Username), zap.String("ip", c.ClientIP()))
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token})
}

// Dashboard handles GET /admin/stats.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days < 1 || days > 365 {
		days = 30
	}
	o, err := h.audit.Overview(c.Request.Context(), days)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit := parsePagination(c)
	f := repository.AccountFilter{
		Search: c.Query("search"),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	if v := c.Query("blocked"); v != "" {
		blocked, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid blocked filter"})
			return
		}
		f.Blocked = &blocked
	}
	users, total, err := h.accounts.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users, "total": total, "page": page, "limit": limit})
}

// GetUser handles GET /admin/users/:account_id.
func (h *AdminHandler) GetUser(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("account_id")
	p, err := h.accounts.Profile(ctx, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	txs, err := h.ledger.History(ctx, id, 20)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	stats, err := h.withdrawals.AccountStats(ctx, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": p, "recent_transactions": txs, "withdrawals": stats})
}

// SetBlocked handles POST /admin/users/:account_id/block.
func (h *AdminHandler) SetBlocked(c *gin.Context) {
	var req struct {
		Blocked *bool  `json:"blocked" binding:"required"`
		Reason  string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "blocked flag required"})
		return
	}
	a, err := h.accounts.SetBlocked(c.Request.Context(), c.Param("account_id"), *req.Blocked, req.Reason, middleware.GetAccountID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// AdjustBalance handles POST /admin/users/:account_id/adjust-balance. Negative amounts debit.
func (h *AdminHandler) AdjustBalance(c *gin.Context) {
	var req struct {
		Amount domain.Amount `json:"amount"`
		Reason string        `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount and reason required"})
		return
	}
	entry, err := h.ledger.AdminAdjust(c.Request.Context(), c.Param("account_id"), req.Amount, req.Reason, middleware.GetAccountID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": entry, "new_balance": entry.BalanceAfter})
}

// Reconcile handles GET /admin/users/:account_id/reconcile.
func (h *AdminHandler) Reconcile(c *gin.Context) {
	r, err := h.audit.Reconcile(c.Request.Context(), c.Param("account_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// RetryPayouts handles POST /admin/users/:account_id/retry-payouts.
func (h *AdminHandler) RetryPayouts(c *gin.Context) {
	outcomes, err := h.audit.RetryPayouts(c.Request.Context(), c.Param("account_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payouts": outcomes})
}

// VerifyTask handles POST /admin/users/:account_id/tasks/:id/verify.
func (h *AdminHandler) VerifyTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	res, err := h.ledger.VerifyTask(c.Request.Context(), c.Param("account_id"), id, middleware.GetAccountID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListWithdrawals handles GET /admin/withdrawals?status=.
func (h *AdminHandler) ListWithdrawals(c *gin.Context) {
	status := c.DefaultQuery("status", domain.WithdrawalPending)
	if status == "all" {
		status = ""
	}
	list, err := h.withdrawals.List(c.Request.Context(), status, parseLimit(c, 50, 500))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": len(list)})
}

// WithdrawalStats handles GET /admin/withdrawals/stats.
func (h *AdminHandler) WithdrawalStats(c *gin.Context) {
	st, err := h.withdrawals.TotalStats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

type processRequest struct {
	TxHash string `json:"tx_hash"`
	Notes  string `json:"notes"`
}

func bindProcess(c *gin.Context) (processRequest, bool) {
	var req processRequest
	if c.Request.ContentLength == 0 {
		return req, true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}
	return req, true
}

// ApproveWithdrawal handles POST /admin/withdrawals/:id/approve.
func (h *AdminHandler) ApproveWithdrawal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	req, ok := bindProcess(c)
	if !ok {
		return
	}
	res, err := h.withdrawals.Approve(c.Request.Context(), id, middleware.GetAccountID(c), req.TxHash, req.Notes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// RejectWithdrawal handles POST /admin/withdrawals/:id/reject.
func (h *AdminHandler) RejectWithdrawal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	req, ok := bindProcess(c)
	if !ok {
		return
	}
	res, err := h.withdrawals.Reject(c.Request.Context(), id, middleware.GetAccountID(c), req.Notes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CompleteWithdrawal handles POST /admin/withdrawals/:id/complete.
func (h *AdminHandler) CompleteWithdrawal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	req, ok := bindProcess(c)
	if !ok {
		return
	}
	w, err := h.withdrawals.Complete(c.Request.Context(), id, middleware.GetAccountID(c), req.TxHash, req.Notes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// ListTasks handles GET /admin/tasks. Inactive tasks are included.
func (h *AdminHandler) ListTasks(c *gin.Context) {
	tasks, err := h.tasks.List(c.Request.Context(), false)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tasks, "total": len(tasks)})
}

// CreateTask handles POST /admin/tasks.
func (h *AdminHandler) CreateTask(c *gin.Context) {
	var in service.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.tasks.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// UpdateTask handles PATCH /admin/tasks/:id.
func (h *AdminHandler) UpdateTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in service.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.tasks.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// DeleteTask handles DELETE /admin/tasks/:id.
func (h *AdminHandler) DeleteTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.tasks.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// Logs handles GET /admin/logs?action=&target=.
func (h *AdminHandler) Logs(c *gin.Context) {
	actions, err := h.audit.ListAdminActions(c.Request.Context(), c.Query("action"), c.Query("target"), parseLimit(c, 100, 500))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": actions, "total": len(actions)})
}
