// internal/router/router.go
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/scpnet/scp-backend/internal/config"
	"github.com/scpnet/scp-backend/internal/handlers"
	"github.com/scpnet/scp-backend/internal/middleware"
	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/repository"
	"github.com/scpnet/scp-backend/internal/services"
	"github.com/scpnet/scp-backend/internal/utils"
)

const Version = "1.0.0"

// Dependencies are the collaborators the HTTP surface runs on. Store and
// Config are required; a nil optional collaborator disables its feature.
type Dependencies struct {
	Store    *repository.Store
	Config   *config.Config
	Events   services.EventPublisher
	Notifier services.Notifier
	Revoker  services.TokenRevoker
	Objects  services.ObjectStore
	Payments services.PaymentGateway
}

func Initialize(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	store := deps.Store

	objects := deps.Objects
	if objects == nil {
		storage, err := services.NewStorageService(cfg)
		if err != nil {
			logrus.WithError(err).Warn("Object storage unavailable, falling back to local disk")
			localCfg := *cfg
			localCfg.AWS.AccessKeyID = ""
			storage, _ = services.NewStorageService(&localCfg)
		}
		objects = storage
	}

	// Initialize services
	authService := services.NewAuthService(store, cfg, deps.Revoker)
	supplierService := services.NewSupplierService(store)
	staffService := services.NewStaffService(store)
	linkService := services.NewLinkService(store, deps.Events, deps.Notifier)
	productService := services.NewProductService(store)
	orderService := services.NewOrderService(store, deps.Events, deps.Notifier)
	paymentService := services.NewPaymentService(store, cfg, deps.Payments)
	complaintService := services.NewComplaintService(store, deps.Events, deps.Notifier)
	chatService := services.NewChatService(store, objects, deps.Events)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	supplierHandler := handlers.NewSupplierHandler(supplierService)
	staffHandler := handlers.NewStaffHandler(staffService)
	linkHandler := handlers.NewLinkHandler(linkService)
	productHandler := handlers.NewProductHandler(productService)
	orderHandler := handlers.NewOrderHandler(orderService, paymentService)
	complaintHandler := handlers.NewComplaintHandler(complaintService)
	chatHandler := handlers.NewChatHandler(chatService)
	healthHandler := handlers.NewHealthHandler(store, Version)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	r.Use(middleware.PerMinute(cfg.RateLimit.GeneralPerMinute).Middleware())

	r.GET("/health", healthHandler.Health)
	if cfg.AWS.AccessKeyID == "" {
		r.Static(cfg.AWS.LocalBaseURL, cfg.AWS.LocalUploadDir)
	}

	authRequired := middleware.AuthRequired(authService)
	consumerOnly := middleware.RequireRoles(models.RoleConsumer)
	supplierSide := middleware.RequireRoles(middleware.SupplierRoles...)
	ownerOnly := middleware.RequireRoles(models.RoleSupplierOwner)
	ownerOrManager := middleware.RequireRoles(models.RoleSupplierOwner, models.RoleSupplierManager)

	v1 := r.Group("/v1")
	v1.Use(middleware.AuditLogMiddleware(store.AuditLogs))
	{
		auth := v1.Group("/auth")
		auth.Use(middleware.PerMinute(cfg.RateLimit.AuthPerMinute).Middleware())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authRequired, authHandler.Logout)
			auth.GET("/me", authRequired, authHandler.Me)
		}

		suppliers := v1.Group("/suppliers")
		suppliers.Use(authRequired)
		{
			suppliers.POST("", ownerOnly, supplierHandler.Create)
			suppliers.GET("", supplierHandler.List)
			suppliers.GET("/me", supplierSide, supplierHandler.Mine)
			suppliers.GET("/:id", supplierHandler.Get)
		}

		staff := v1.Group("/staff")
		staff.Use(authRequired)
		{
			staff.POST("", ownerOnly, staffHandler.Create)
			staff.GET("", ownerOrManager, staffHandler.List)
			staff.PATCH("/:id", ownerOnly, staffHandler.UpdateRole)
			staff.DELETE("/:id", ownerOnly, staffHandler.Delete)
		}

		links := v1.Group("/links")
		links.Use(authRequired)
		{
			links.GET("", linkHandler.List)
			links.POST("/:id", consumerOnly, linkHandler.Request)
			links.POST("/:id/accept", ownerOrManager, linkHandler.Accept)
			links.POST("/:id/block", ownerOrManager, linkHandler.Block)
			links.POST("/:id/remove", ownerOrManager, linkHandler.Remove)
		}

		products := v1.Group("/products")
		products.Use(authRequired)
		{
			products.GET("", consumerOnly, productHandler.ListForSupplier)
			products.GET("/mine", supplierSide, productHandler.ListMine)
			products.GET("/:id", productHandler.Get)
			products.POST("", ownerOnly, productHandler.Create)
			products.PUT("/:id", ownerOnly, productHandler.Update)
			products.DELETE("/:id", ownerOnly, productHandler.Delete)
		}

		orders := v1.Group("/orders")
		orders.Use(authRequired)
		{
			orders.POST("", consumerOnly, orderHandler.Create)
			orders.GET("", orderHandler.List)
			orders.GET("/:id", orderHandler.Get)
			orders.GET("/:id/invoice", orderHandler.Invoice)
			orders.POST("/:id/accept", ownerOrManager, orderHandler.Accept)
			orders.POST("/:id/reject", ownerOrManager, orderHandler.Reject)
			orders.POST("/:id/pay", consumerOnly, orderHandler.Pay)
		}

		complaints := v1.Group("/complaints")
		complaints.Use(authRequired)
		{
			complaints.POST("", consumerOnly, complaintHandler.Create)
			complaints.GET("", complaintHandler.List)
			complaints.PATCH("/:id/status", ownerOnly, complaintHandler.UpdateStatus)
			complaints.POST("/:id/escalate", middleware.RequireRoles(models.RoleSupplierSales), complaintHandler.Escalate)
		}

		chat := v1.Group("/chat")
		chat.Use(authRequired)
		{
			chat.POST("/:link_id/messages", chatHandler.Send)
			chat.GET("/:link_id/messages", chatHandler.List)
			chat.POST("/:link_id/attachments", chatHandler.Upload)
		}
	}

	return r
}
