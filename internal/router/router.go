package router

import (
	"trxearn/config"
	"trxearn/internal/events"
	"trxearn/internal/handler"
	"trxearn/internal/middleware"
	"trxearn/internal/service"
	"trxearn/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the process-wide collaborators built in main.
type Deps struct {
	Logger    *zap.Logger
	Publisher events.Publisher
	Feed      *ws.AdminFeed
	Accounts  *ws.AccountFeed
	Limiter   middleware.Limiter
}

func Setup(cfg *config.Config, db *gorm.DB, deps Deps) *gin.Engine {
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := deps.Logger
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	if deps.Limiter != nil {
		r.Use(middleware.RateLimit(deps.Limiter, logger))
	}

	// Services
	referralSvc := service.NewReferralService(db, cfg.Rewards, cfg.Telegram, deps.Publisher, logger)
	ledgerSvc := service.NewLedgerService(db, referralSvc, cfg.Rewards, deps.Publisher, logger)
	withdrawalSvc := service.NewWithdrawalService(db, referralSvc, cfg.Rewards, deps.Publisher, logger)
	accountSvc := service.NewAccountService(db, cfg.Rewards, cfg.Telegram, deps.Publisher, logger)
	taskSvc := service.NewTaskService(db, logger)
	auditSvc := service.NewAuditService(db, referralSvc, withdrawalSvc, logger)
	authSvc := service.NewAuthService(cfg)

	// Handlers
	accountHandler := handler.NewAccountHandler(accountSvc, logger)
	ledgerHandler := handler.NewLedgerHandler(ledgerSvc, logger)
	taskHandler := handler.NewTaskHandler(taskSvc, ledgerSvc, logger)
	referralHandler := handler.NewReferralHandler(referralSvc, logger)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalSvc, logger)
	adminHandler := handler.NewAdminHandler(authSvc, accountSvc, ledgerSvc, withdrawalSvc, taskSvc, auditSvc, logger)
	healthHandler := handler.NewHealthHandler(db)

	authMw := middleware.AuthRequired(&cfg.JWT)
	adminMw := middleware.AdminRequired()
	userMw := middleware.UserRequired()

	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	{
		api.POST("/auth/session", authMw, userMw, accountHandler.Session)
		api.GET("/referrals/validate/:code", referralHandler.Validate)

		me := api.Group("/me")
		me.Use(authMw, userMw)
		{
			me.GET("", accountHandler.Me)
			me.PUT("/wallet", accountHandler.SetWallet)
		}

		ads := api.Group("/ads")
		ads.Use(authMw, userMw)
		{
			ads.POST("/watch", ledgerHandler.WatchAd)
			ads.GET("/status", ledgerHandler.AdStatus)
			ads.GET("/stats", ledgerHandler.AdStats)
		}
		api.GET("/transactions", authMw, userMw, ledgerHandler.Transactions)

		tasks := api.Group("/tasks")
		tasks.Use(authMw, userMw)
		{
			tasks.GET("", taskHandler.List)
			tasks.GET("/stats", taskHandler.Stats)
			tasks.POST("/:id/complete", taskHandler.Complete)
		}

		referrals := api.Group("/referrals")
		referrals.Use(authMw, userMw)
		{
			referrals.GET("", referralHandler.Info)
			referrals.GET("/stats", referralHandler.Stats)
			referrals.GET("/leaderboard", referralHandler.Leaderboard)
		}

		withdrawals := api.Group("/withdrawals")
		withdrawals.Use(authMw, userMw)
		{
			withdrawals.POST("", withdrawalHandler.Request)
			withdrawals.GET("", withdrawalHandler.History)
			withdrawals.GET("/stats", withdrawalHandler.Stats)
			withdrawals.GET("/:id", withdrawalHandler.Get)
			withdrawals.POST("/:id/cancel", withdrawalHandler.Cancel)
		}

		api.POST("/admin/login", adminHandler.AdminLogin)
		admin := api.Group("/admin")
		admin.Use(authMw, adminMw)
		{
			admin.GET("/stats", adminHandler.Dashboard)
			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/users/:account_id", adminHandler.GetUser)
			admin.POST("/users/:account_id/block", adminHandler.SetBlocked)
			admin.POST("/users/:account_id/adjust-balance", adminHandler.AdjustBalance)
			admin.GET("/users/:account_id/reconcile", adminHandler.Reconcile)
			admin.POST("/users/:account_id/retry-payouts", adminHandler.RetryPayouts)
			admin.POST("/users/:account_id/tasks/:id/verify", adminHandler.VerifyTask)
			admin.GET("/withdrawals", adminHandler.ListWithdrawals)
			admin.GET("/withdrawals/stats", adminHandler.WithdrawalStats)
			admin.POST("/withdrawals/:id/approve", adminHandler.ApproveWithdrawal)
			admin.POST("/withdrawals/:id/reject", adminHandler.RejectWithdrawal)
			admin.POST("/withdrawals/:id/complete", adminHandler.CompleteWithdrawal)
			admin.GET("/tasks", adminHandler.ListTasks)
			admin.POST("/tasks", adminHandler.CreateTask)
			admin.PATCH("/tasks/:id", adminHandler.UpdateTask)
			admin.DELETE("/tasks/:id", adminHandler.DeleteTask)
			admin.GET("/logs", adminHandler.Logs)
		}
	}

	if deps.Feed != nil {
		r.GET("/ws/admin", ws.UpgradeAdminFeed(&cfg.JWT, deps.Feed))
	}
	if deps.Accounts != nil {
		r.GET("/ws/me", ws.UpgradeAccountFeed(&cfg.JWT, deps.Accounts))
	}

	return r
}
