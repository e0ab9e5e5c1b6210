package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/bisrat6/Huletfish/internal/auth"
	"github.com/bisrat6/Huletfish/internal/config"
	"github.com/bisrat6/Huletfish/internal/email"
	"github.com/bisrat6/Huletfish/internal/export"
	"github.com/bisrat6/Huletfish/internal/user"
	"github.com/bisrat6/Huletfish/internal/wallet"
	"github.com/bisrat6/Huletfish/internal/withdrawal"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
	email  *email.Service
}

func New(db *sqlx.DB, cfg *config.Config, emailService *email.Service) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())

	userHandler := user.NewHandler(db, cfg.JWTSecret)
	walletHandler := wallet.NewHandler(db)
	withdrawalHandler := withdrawal.NewHandler(db, emailService, cfg.Currency)
	exportHandler := export.NewHandler(db)

	public := router.Group("/auth")
	public.Use(RateLimitMiddleware(5, 10))
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)
		protected.PUT("/me/bank-details", userHandler.UpdateBankDetails)
		protected.GET("/wallet", walletHandler.GetMyWallet)
		protected.GET("/wallet/ledger", walletHandler.ListLedger)
		protected.GET("/withdrawals", withdrawalHandler.ListMine)
		protected.POST("/withdrawals", auth.RequireApprovedHost(), withdrawalHandler.Create)
	}

	adminMiddleware := auth.RequireRole("admin")
	admin := router.Group("/admin")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.GET("/withdrawals", withdrawalHandler.ListAll)
		admin.POST("/withdrawals/:id/mark-paid", withdrawalHandler.MarkPaid)
		admin.POST("/withdrawals/:id/mark-failed", withdrawalHandler.MarkFailed)
		admin.POST("/payouts/export", exportHandler.CreateExport)
		admin.GET("/payouts/batches", exportHandler.ListBatches)
		admin.POST("/hosts/:hostID/approve", userHandler.ApproveHost)
		admin.POST("/hosts/:hostID/credit", walletHandler.CreditHost)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())

	return &Server{
		router: router,
		db:     db,
		config: cfg,
		email:  emailService,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Router exposes the gin engine for handler tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
