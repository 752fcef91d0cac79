package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/kutay/teacherportal/internal/app/controllers"
	"github.com/kutay/teacherportal/internal/app/models/dto"
	"github.com/kutay/teacherportal/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	studentController *controllers.StudentController,
	importController *controllers.ImportController,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/refresh", authController.RefreshToken)
		auth.POST("/logout", authController.Logout)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.POST("/auth/logout-all", authController.LogoutAll)

		students := authenticated.Group("/students")
		{
			students.GET("", studentController.List)
			students.POST("", studentController.Add)
			students.GET("/dashboard", studentController.Dashboard)
			students.POST("/bulk-delete", studentController.BulkDelete)
			students.POST("/import", importController.Import)
			students.PUT("/:id", studentController.Edit)
			students.DELETE("/:id", studentController.Delete)
		}
	}

	// Health check endpoint (public)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(200, dto.APIResponse{
			Success: true,
			Data:    gin.H{"status": "ok"},
		})
	})

	// Swagger routes are set up in bootstrap.go already
}
