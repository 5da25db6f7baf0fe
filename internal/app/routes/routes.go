package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/enrollment/internal/app/controllers"
	"github.com/yigit/enrollment/internal/app/models"
	"github.com/yigit/enrollment/internal/app/models/dto"
	"github.com/yigit/enrollment/internal/middleware"
)

// Controllers groups the handlers mounted by SetupRouter
type Controllers struct {
	Offering      *controllers.OfferingController
	Enrollment    *controllers.EnrollmentController
	AdminOffering *controllers.AdminOfferingController
}

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	ctrl Controllers,
	authMiddleware *middleware.AuthMiddleware,
	secureCookies bool,
) {
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}))
	})

	// API version group
	v1 := router.Group("/api/v1")

	// --- Public catalogue, identified by token when present and by session cookie otherwise ---
	public := v1.Group("")
	public.Use(middleware.Session(secureCookies), authMiddleware.OptionalAuth())
	{
		public.GET("/offerings", ctrl.Offering.ListOfferings)
		public.GET("/offerings/:id", ctrl.Offering.GetOffering)
		public.GET("/me/last-visited", ctrl.Offering.GetLastVisited)
	}

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.POST("/offerings/:id/enrollments", ctrl.Enrollment.Enroll)
	}

	// --- Administrator routes ---
	admin := v1.Group("/admin")
	admin.Use(authMiddleware.JWTAuth(), authMiddleware.RoleRequired(models.RoleAdministrator))
	{
		admin.GET("/offerings", ctrl.AdminOffering.ListOfferings)
		admin.POST("/offerings", ctrl.AdminOffering.CreateOffering)
		admin.PUT("/offerings/:id", ctrl.AdminOffering.UpdateOffering)
		admin.POST("/offerings/:id/toggle-active", ctrl.AdminOffering.ToggleActive)
		admin.GET("/offerings/:id/enrollments", ctrl.AdminOffering.ListEnrollments)

		admin.PUT("/enrollments/:id/state", ctrl.Enrollment.SetState)
	}

	// Health check endpoint (public)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}))
	})
}
