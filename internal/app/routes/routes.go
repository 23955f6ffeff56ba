package routes

import (
	"net/http"

	"github.com/elimishatrust/studyloan/internal/app/controllers"
	"github.com/elimishatrust/studyloan/internal/app/models"
	"github.com/elimishatrust/studyloan/internal/app/models/dto"
	"github.com/elimishatrust/studyloan/internal/middleware"
	"github.com/elimishatrust/studyloan/internal/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// Controllers groups the HTTP handlers mounted by SetupRouter
type Controllers struct {
	Auth         *controllers.AuthController
	Applications *controllers.ApplicationController
	Documents    *controllers.DocumentController
	Review       *controllers.ReviewController
	Users        *controllers.UserController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	router.NoRoute(middleware.NoRoute)

	router.GET("/ping", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := router.Group("/api/v1")

	v1.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}))
	})

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.Auth.Register)
		auth.GET("/verify", c.Auth.VerifyEmail)
		auth.POST("/login", c.Auth.Login)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	authenticated.GET("/users/me", c.Users.GetProfile)

	// Applicant routes. The services reject callers that are not students.
	authenticated.POST("/submissions/submit", c.Applications.Submit)
	students := authenticated.Group("/students/me")
	{
		students.PATCH("/details", c.Applications.UpdateDetails)
		students.GET("/submission-status", c.Applications.GetSubmissionStatus)
	}
	uploads := authenticated.Group("/uploads")
	{
		uploads.GET("", c.Documents.List)
		uploads.POST("/upload", c.Documents.Upload)
	}

	// Review routes
	review := authenticated.Group("/admin/students")
	review.Use(authMiddleware.RequireRoles(models.RoleStaff, models.RoleAdmin))
	{
		review.GET("", c.Review.ListApplicants)
		review.GET("/:id", c.Review.GetApplicant)
	}

	staff := authenticated.Group("/staff")
	staff.Use(authMiddleware.RequireRoles(models.RoleStaff))
	{
		staff.PATCH("/submission/:id", c.Review.SetStatus)
	}

	admin := authenticated.Group("/admin")
	admin.Use(authMiddleware.RequireRoles(models.RoleAdmin))
	{
		admin.POST("/create-staff", c.Users.CreateStaff)
		admin.GET("/users", c.Users.ListUsers)
	}
}
