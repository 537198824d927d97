package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/spdteam/dashboard-server/controllers"
	"github.com/spdteam/dashboard-server/middleware"
)

func SetupRoutes(r *gin.Engine) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	r.GET("/health", controllers.HealthCheck)

	// unauthenticated surfaces
	r.GET("/public/:vertical/:studentId", middleware.ValidateVertical(), controllers.PublicView)
	r.GET("/preview/:vertical/sections/:id", middleware.ValidateVertical(), controllers.PreviewSection)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/google/login", controllers.GoogleLoginHandler)
		}

		protected := api.Group("/")
		protected.Use(middleware.AuthJWT())
		{
			protected.GET("/me", controllers.Me)
			protected.POST("/upload/image", middleware.RateLimitUpload(), controllers.UploadImage)
			protected.GET("/exports/:job_id", controllers.GetExport)
		}

		// everything below is scoped to one document vertical
		vertical := protected.Group("/:vertical")
		vertical.Use(middleware.ValidateVertical())
		{
			sections := vertical.Group("/sections")
			{
				sections.GET("", controllers.ListSections)
				sections.POST("", middleware.RequireTeacher(), controllers.CreateSection)
				sections.PATCH("/:id", middleware.RequireTeacher(), controllers.UpdateSection)
				sections.POST("/:id/share", middleware.RequireTeacher(), controllers.ShareSection)
			}

			template := vertical.Group("/template")
			{
				template.GET("", controllers.ListTemplate)
				template.POST("", middleware.RequireTeacher(), controllers.CreateQuestion)
				template.PATCH("/:id", middleware.RequireTeacher(), controllers.UpdateQuestion)
				template.DELETE("/:id", middleware.RequireTeacher(), controllers.ArchiveQuestion)
			}
			vertical.POST("/publish_questions", middleware.RequireTeacher(), controllers.PublishQuestions)

			groups := vertical.Group("/custom_group")
			{
				groups.GET("", controllers.ListGroups)
				groups.POST("", middleware.RequireTeacher(), controllers.CreateGroup)
				groups.PATCH("/:id", middleware.RequireTeacher(), controllers.UpdateGroup)
				groups.DELETE("/:id", middleware.RequireTeacher(), controllers.DeleteGroup)
			}

			vertical.GET("/responses_by_student", controllers.GetResponsesByStudent)
			responses := vertical.Group("/responses")
			{
				responses.PUT("/stage", middleware.RequireStudent(), controllers.StageResponse)
				responses.POST("/flush", middleware.RequireStudent(), controllers.FlushResponses)
				responses.PATCH("/:id", controllers.UpdateResponse)
			}

			vertical.POST("/review_add_all", controllers.SyncReviews)
			review := vertical.Group("/review")
			{
				review.GET("", controllers.GetReviews)
				review.GET("/progress", controllers.GetProgress)
				review.PATCH("/:id", middleware.RequireTeacher(), controllers.PatchReview)
				review.POST("/:id/submit", middleware.RequireStudent(), middleware.RateLimitSubmit(), controllers.SubmitReview)
				review.POST("/:id/withdraw", middleware.RequireStudent(), controllers.WithdrawReview)
				review.POST("/:id/complete", middleware.RequireTeacher(), controllers.CompleteReview)
				review.POST("/:id/revise", middleware.RequireTeacher(), controllers.ReviseReview)
				review.POST("/:id/reopen", middleware.RequireTeacher(), controllers.ReopenReview)
			}

			comments := vertical.Group("/comments")
			{
				comments.GET("", controllers.GetComments)
				comments.POST("", controllers.CreateComment)
				comments.PATCH("/:id", controllers.UpdateComment)
				comments.DELETE("/:id", middleware.RequireTeacher(), controllers.DeleteComment)
			}

			vertical.GET("/badges", controllers.GetBadges)
			vertical.POST("/export/:studentId", middleware.RequireTeacher(), controllers.CreateExport)
		}
	}
}
