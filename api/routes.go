package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bob/internal/auth"
)

// RegisterRoutes 注册全部路由
func RegisterRoutes(router *gin.Engine, container *AppContainer, handlers *Handlers) {
	// 探活与监控
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 开放接口
	public := router.Group("/api/auth")
	{
		public.POST("/register", handlers.Auth.Register)
		public.POST("/login", handlers.Auth.Login)
		public.POST("/refresh", handlers.Auth.Refresh)
	}

	// 认证接口
	authorized := router.Group("/api")
	authorized.Use(auth.Middleware(container.JWTService))
	{
		authorized.POST("/auth/logout", handlers.Auth.Logout)
		authorized.GET("/auth/me", handlers.Auth.Me)

		authorized.GET("/notifications", handlers.Issues.ListNotifications)
		authorized.PUT("/notifications/:notificationId/read", handlers.Issues.MarkNotificationRead)

		projects := authorized.Group("/projects")
		{
			projects.POST("", handlers.Projects.Create)
			projects.GET("", handlers.Projects.List)
			projects.GET("/:id", handlers.Projects.Get)
			projects.POST("/:id/archive", handlers.Projects.Archive)

			projects.GET("/:id/members", handlers.Projects.ListMembers)
			projects.POST("/:id/members", handlers.Projects.AddMember)
			projects.DELETE("/:id/members/:userId", handlers.Projects.RemoveMember)

			projects.POST("/:id/teams", handlers.Projects.CreateTeam)
			projects.POST("/:id/teams/:teamId/members", handlers.Projects.AddTeamMember)

			projects.POST("/:id/documents", handlers.Documents.Upload)
			projects.GET("/:id/documents", handlers.Documents.List)
			projects.GET("/:id/documents/:docId", handlers.Documents.Get)
			projects.DELETE("/:id/documents/:docId", handlers.Documents.Delete)

			projects.POST("/:id/search", handlers.Search.Search)

			projects.POST("/:id/issues", handlers.Issues.Create)
			projects.GET("/:id/issues", handlers.Issues.List)
			projects.GET("/:id/issues/:issueId", handlers.Issues.Get)
			projects.PUT("/:id/issues/:issueId/status", handlers.Issues.UpdateStatus)
			projects.PUT("/:id/issues/:issueId/assign", handlers.Issues.Assign)
			projects.POST("/:id/issues/:issueId/comments", handlers.Issues.AddComment)
			projects.GET("/:id/issues/:issueId/comments", handlers.Issues.ListComments)

			projects.GET("/:id/elements", handlers.Elements.Search)
			projects.GET("/:id/elements/storeys", handlers.Elements.Storeys)
			projects.GET("/:id/elements/:globalId", handlers.Elements.Get)

			projects.POST("/:id/chat", handlers.Chat.Ask)
			projects.GET("/:id/chat/history", handlers.Chat.History)
		}
	}
}
