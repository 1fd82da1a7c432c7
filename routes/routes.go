package routes

import (
	"faculty-appraisal-api/config"
	"faculty-appraisal-api/controllers"
	"faculty-appraisal-api/middleware"
	"faculty-appraisal-api/models"

	"github.com/gin-gonic/gin"
)

// SetupRoutes mounts the API. controllers.InitServices must have been called.
func SetupRoutes(router *gin.Engine, jwtCfg config.JWTConfig) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Faculty Appraisal API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(controllers.UserService(), jwtCfg))
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.GET("/statuses", controllers.GetStatuses)

			// Dashboard, scoped to what the caller can see
			protected.GET("/dashboard", controllers.GetDashboard)

			appraisals := protected.Group("/appraisals")
			{
				appraisals.GET("", controllers.ListAppraisals)
				appraisals.GET("/:id", controllers.GetAppraisal)
				appraisals.GET("/:id/reviews", controllers.GetAppraisalReviews)
				appraisals.GET("/:id/history", controllers.GetAppraisalHistory)
				appraisals.GET("/:id/documents", controllers.ListAppraisalDocuments)

				// Only faculty can submit and edit their appraisals
				appraisals.POST("", middleware.RequireRole(models.RoleFaculty), controllers.CreateAppraisal)
				appraisals.PUT("/:id", middleware.RequireRole(models.RoleFaculty), controllers.ResubmitAppraisal)
				appraisals.POST("/:id/documents", middleware.RequireRole(models.RoleFaculty), controllers.AttachAppraisalDocument)

				// Reviewer decisions
				appraisals.POST("/:id/hod-decision", middleware.RequireRole(models.RoleHOD), controllers.HODDecision)
				appraisals.POST("/:id/admin-decision", middleware.RequireRole(models.RoleAdmin), controllers.AdminDecision)
			}

			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.PATCH("/:id/read", controllers.MarkNotificationRead)
			}

			// Admin routes
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireRole(models.RoleAdmin))
			{
				admin.GET("/users", controllers.ListUsers)
				admin.PATCH("/users/:id/role", controllers.ChangeUserRole)
			}
		}
	}
}
