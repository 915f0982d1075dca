package handlers

import (
	"recoverydesk/internal/auth"
	"recoverydesk/internal/models"

	"github.com/gin-gonic/gin"
)

// LocalDocumentsPath is the URL prefix local document blobs are served under.
const LocalDocumentsPath = "/uploads/documents"

// RouteOptions carries the pieces of routing that depend on configuration.
type RouteOptions struct {
	// LoginLimit guards the credential endpoints. Nil disables it.
	LoginLimit gin.HandlerFunc
	// LocalUploadDir is served under LocalDocumentsPath when non-empty.
	LocalUploadDir string
}

// RegisterRoutes mounts /health and the /api tree.
func (h *Handler) RegisterRoutes(router *gin.Engine, opts RouteOptions) {
	router.GET("/health", HealthHandler)
	if opts.LocalUploadDir != "" {
		router.Static(LocalDocumentsPath, opts.LocalUploadDir)
	}

	api := router.Group("/api")

	login := api.Group("/auth")
	if opts.LoginLimit != nil {
		login.Use(opts.LoginLimit)
	}
	login.POST("/login", h.Login)
	login.POST("/client-login", h.ClientLogin)
	if h.google != nil {
		login.GET("/google/login", h.GoogleLogin)
		login.GET("/google/callback", h.GoogleCallback)
	}

	protected := api.Group("")
	protected.Use(auth.AuthMiddleware(h.tokens, h.principals, h.log))

	staff := auth.RequireRoles(models.RoleAdmin, models.RoleEmployee)
	admin := auth.RequireRoles(models.RoleAdmin)

	protected.GET("/auth/me", h.Me)

	users := protected.Group("/users", admin)
	{
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
	}

	clients := protected.Group("/clients")
	{
		clients.GET("", staff, h.ListClients)
		clients.GET("/:clientId/files", h.ClientFiles)
		clients.GET("/:clientId/stats", h.ClientStats)
		clients.POST("", staff, h.CreateClient)
		clients.PUT("/:id", staff, h.UpdateClient)
	}

	files := protected.Group("/files", staff)
	{
		files.GET("", h.ListFiles)
		files.GET("/:id", h.GetFile)
		files.POST("", h.CreateFile)
		files.PUT("/:id", h.UpdateFile)
		files.POST("/:id/move-to-paid", h.MoveToPaid)
	}

	expenses := protected.Group("/expenses")
	{
		expenses.GET("/types", h.ListExpenseTypes)
		expenses.GET("/file/:fileId", h.FileExpenses)
		expenses.POST("", staff, h.CreateExpense)
		expenses.DELETE("/:id", staff, h.DeleteExpense)
	}

	tasks := protected.Group("/tasks", staff)
	{
		tasks.GET("", h.ListTasks)
		tasks.GET("/my-tasks", h.MyTasks)
		tasks.POST("", h.CreateTask)
		tasks.PUT("/:id", h.UpdateTask)
	}

	documents := protected.Group("/documents")
	{
		documents.GET("/file/:fileId", h.FileDocuments)
		documents.GET("/client/:clientId", h.ClientDocuments)
		documents.POST("/upload", staff, h.UploadDocument)
		documents.DELETE("/:id", staff, h.DeleteDocument)
	}

	caseTypes := protected.Group("/case-types")
	{
		caseTypes.GET("", h.ListCaseTypes)
		caseTypes.POST("", staff, h.CreateCaseType)
		caseTypes.DELETE("/:id", admin, h.DeleteCaseType)
	}

	cases := protected.Group("/cases")
	{
		cases.GET("/client/:clientId", h.ClientCases)
		cases.POST("", staff, h.CreateCase)
		cases.PUT("/:id", staff, h.UpdateCase)
	}

	events := protected.Group("/case-events")
	{
		events.GET("/case/:caseId", h.CaseEvents)
		events.POST("", staff, h.CreateCaseEvent)
		events.DELETE("/:id", staff, h.DeleteCaseEvent)
	}

	stats := protected.Group("/stats", staff)
	{
		stats.GET("/dashboard", h.DashboardStats)
		stats.GET("/clients", h.ClientStatistics)
		stats.GET("/monthly", h.MonthlyStats)
		stats.GET("/monthly/:year", h.MonthlyStats)
	}

	notifications := protected.Group("/notifications")
	{
		notifications.GET("", h.ListNotifications)
		notifications.GET("/unread-count", h.UnreadNotificationCount)
		notifications.PUT("/read-all", h.MarkAllNotificationsRead)
		notifications.PUT("/:id/read", h.MarkNotificationRead)
	}

	locations := protected.Group("/locations", staff)
	{
		locations.GET("/validate", h.ValidateLocation)
		locations.GET("/geocode", h.GeocodeAddress)
	}

	protected.GET("/search", staff, h.Search)
}
