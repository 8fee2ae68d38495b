package handler

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"asdm/internal/app/metrics"
	"asdm/internal/app/middleware"
)

// RegisterRoutes mounts the REST API. Groups only require a session; which
// role may do what is decided by the gate inside each handler.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	corsConfig := cors.Config{
		AllowOrigins:     h.Config.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.SessionHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))
	router.Use(middleware.Metrics())

	authenticated := h.Auth.WithAuthCheck()

	// ============ Authentication ============
	auth := router.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/profile", authenticated, h.Profile)
	}

	api := router.Group("/api")
	api.GET("", h.Index)

	// ============ Users ============
	users := api.Group("/utilisateurs")
	{
		users.POST("", h.Auth.WithOptionalSession(), h.CreateUser) // open registration
		users.GET("", authenticated, h.ListUsers)
		users.GET("/me", authenticated, h.GetMe)
		users.GET("/:id", authenticated, h.GetUser)
		users.PUT("/:id", authenticated, h.UpdateUser)
		users.DELETE("/:id", authenticated, h.DeleteUser)
	}

	// ============ Agents ============
	agents := api.Group("/agents")
	agents.Use(authenticated)
	{
		agents.GET("", h.ListAgents)
		agents.GET("/:id", h.GetAgent)
		agents.POST("", h.CreateAgent)
		agents.PUT("/:id", h.UpdateAgent)
		agents.DELETE("/:id", h.DeleteAgent)
	}

	// ============ Grant requests ============
	demandes := api.Group("/demandes")
	demandes.Use(authenticated)
	{
		demandes.GET("", h.ListGrantRequests)
		demandes.POST("", h.CreateGrantRequest)
		demandes.GET("/:id", h.GetGrantRequest)
		demandes.PUT("/:id", h.UpdateGrantRequest)
		demandes.DELETE("/:id", h.DeleteGrantRequest)

		demandes.PATCH("/:id/statut", h.UpdateGrantRequestStatus)
		demandes.POST("/:id/assigner-agent", h.AssignAgent)
		demandes.POST("/:id/accepter", h.AcceptGrantRequest)
		demandes.POST("/:id/rejeter", h.RejectGrantRequest)

		demandes.GET("/:id/documents", h.ListGrantRequestDocuments)
		demandes.POST("/:id/documents", h.UploadGrantRequestDocument)
	}

	// ============ Documents ============
	documents := api.Group("/documents")
	documents.Use(authenticated)
	{
		documents.GET("", h.ListDocuments)
		documents.POST("", h.UploadDocument)
		documents.GET("/:id", h.GetDocument)
		documents.GET("/:id/fichier", h.DownloadDocument)
		documents.PUT("/:id", h.UpdateDocument)
		documents.DELETE("/:id", h.DeleteDocument)
	}

	// ============ Payments ============
	payments := api.Group("/paiements")
	payments.Use(authenticated)
	{
		payments.GET("", h.ListPayments)
		payments.POST("", h.CreatePayment)
		payments.GET("/:id", h.GetPayment)
		payments.PUT("/:id", h.UpdatePayment)
		payments.DELETE("/:id", h.DeletePayment)
		payments.POST("/:id/traiter", h.ProcessPayment)
		payments.POST("/:id/annuler", h.CancelPayment)
	}

	// ============ Reports ============
	reports := api.Group("/rapports")
	reports.Use(authenticated)
	{
		reports.GET("", h.ListReports)
		reports.POST("", h.CreateReport)
		reports.POST("/generer", h.GenerateReport)
		reports.GET("/:id", h.GetReport)
		reports.PUT("/:id", h.UpdateReport)
		reports.DELETE("/:id", h.DeleteReport)
	}

	// ============ Notifications ============
	notifications := api.Group("/notifications")
	notifications.Use(authenticated)
	{
		notifications.GET("", h.ListNotifications)
		notifications.POST("", h.CreateNotification)
		notifications.GET("/non-lues", h.UnreadNotifications)
		notifications.GET("/:id", h.GetNotification)
		notifications.PUT("/:id", h.UpdateNotification)
		notifications.POST("/:id/marquer-lu", h.MarkNotificationRead)
		notifications.DELETE("/:id", h.DeleteNotification)
	}

	// ============ Dashboard ============
	dashboard := api.Group("/dashboard")
	dashboard.Use(authenticated)
	{
		dashboard.GET("/stats", h.DashboardStats)
		dashboard.GET("/graphiques", h.DashboardCharts)
		dashboard.GET("/metriques", h.DashboardMetrics)
	}

	router.GET("/ping", h.Ping)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
