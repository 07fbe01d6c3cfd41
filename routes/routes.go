package routes

import (
	"time"

	"meridian/handlers"
	"meridian/middleware"
	"meridian/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	admin    = models.RoleAdmin
	patient  = models.RolePatient
	provider = models.RoleProvider
)

// RegisterBookingRoutes sets up booking lifecycle and dispatch endpoints.
func RegisterBookingRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	bookings := api.Group("/bookings")
	{
		bookings.POST("", middleware.RequireRole(patient, admin), hb.Booking.CreateBooking)
		bookings.GET("", hb.Booking.ListBookings)
		bookings.GET("/:id", hb.Booking.GetBooking)
		bookings.GET("/:id/candidates", middleware.RequireRole(admin), hb.Booking.GetCandidates)
		bookings.POST("/:id/assign", middleware.RequireRole(admin), hb.Booking.AssignProvider)
		bookings.POST("/:id/confirm", hb.Booking.ConfirmBooking)
		bookings.POST("/:id/start", middleware.RequireRole(provider, admin), hb.Booking.StartSession)
		bookings.POST("/:id/complete", middleware.RequireRole(provider, admin), hb.Booking.CompleteSession)
		bookings.POST("/:id/cancel", middleware.RequireRole(patient, admin), hb.Booking.CancelBooking)
	}
}

// RegisterCatalogRoutes sets up the read side of the service catalog.
func RegisterCatalogRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	api.GET("/services", hb.Catalog.GetAvailableServices)
	api.GET("/services/:id", hb.Catalog.GetServiceByID)
}

// RegisterPatientRoutes sets up patient records, packages and progress.
func RegisterPatientRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	patients := api.Group("/patients")
	{
		patients.GET("/:id", hb.Registry.GetPatient)
		patients.GET("/:id/progress", hb.Registry.GetProgress)
		patients.POST("/:id/packages", middleware.RequireRole(admin), hb.Registry.PurchasePackage)
	}
	api.GET("/packages/:id", hb.Registry.GetPackage)
}

// RegisterAdminRoutes sets up endpoints for admin operations.
func RegisterAdminRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	adminGroup := api.Group("/admin")
	{
		adminGroup.Use(middleware.RequireRole(admin))
		adminGroup.PUT("/services/:id", hb.Catalog.UpsertService)
		adminGroup.POST("/providers", hb.Registry.RegisterProvider)
		adminGroup.GET("/providers", hb.Registry.ListProviders)
		adminGroup.GET("/providers/:id", hb.Registry.GetProvider)
		adminGroup.PATCH("/providers/:id/status", hb.Registry.SetProviderStatus)
		adminGroup.POST("/patients", hb.Registry.CreatePatient)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", handlers.Health)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, maxRequestsPerMin int) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	RegisterHealthRoute(r)

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(maxRequestsPerMin), middleware.JWTAuthMiddleware())
	RegisterBookingRoutes(api, hb)
	RegisterCatalogRoutes(api, hb)
	RegisterPatientRoutes(api, hb)
	RegisterAdminRoutes(api, hb)
}
