package routes

import (
	"time"

	"neokids-server/internal/config"
	"neokids-server/internal/handlers"
	"neokids-server/internal/middleware"
	"neokids-server/internal/models"
	"neokids-server/internal/seed"
	"neokids-server/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, log *zap.Logger) {
	appointments := store.NewAppointmentStore(db)
	patients := store.NewPatientStore(db)
	services := store.NewServiceStore(db)
	users := store.NewUserStore(db)

	authHandler := handlers.NewAuthHandler(users, log, cfg.JWTSecret, time.Duration(cfg.JWTExpirationMinutes)*time.Minute)
	appointmentHandler := handlers.NewAppointmentHandler(appointments, patients, services, log, cfg.RequireLGPDConsent)
	patientHandler := handlers.NewPatientHandler(patients, log)
	serviceHandler := handlers.NewServiceHandler(services, log)
	dashboardHandler := handlers.NewDashboardHandler(appointments, log)
	demoHandler := handlers.NewDemoHandler(seed.New(db, log), log)

	// Public routes (no authentication required)
	public := router.Group("")
	{
		public.POST("/signup", middleware.OptionalAuthMiddleware(cfg.JWTSecret), authHandler.Signup)
		public.POST("/auth/login", authHandler.Login)
		// The demo loader creates accounts with well-known passwords.
		if cfg.IsDevelopment() {
			public.POST("/init-demo", demoHandler.InitDemo)
		}
	}

	// Authenticated routes
	private := router.Group("")
	private.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		private.GET("/auth/profile", authHandler.GetProfile)

		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("", appointmentHandler.GetAppointments)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)
			appointmentRoutes.GET("/:id/samples", appointmentHandler.GetAppointmentSamples)
			appointmentRoutes.PATCH("/:id/status", appointmentHandler.UpdateAppointmentStatus)
			appointmentRoutes.DELETE("/:id", appointmentHandler.DeleteAppointment)
		}

		patientRoutes := private.Group("/patients")
		{
			patientRoutes.POST("", patientHandler.CreatePatient)
			patientRoutes.GET("/search", patientHandler.SearchPatients)
			patientRoutes.GET("/:id", patientHandler.GetPatientByID)
			patientRoutes.PUT("/:id", patientHandler.UpdatePatient)
			patientRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), patientHandler.DeletePatient)
		}

		serviceRoutes := private.Group("/services")
		{
			serviceRoutes.POST("", serviceHandler.CreateService)
			serviceRoutes.GET("", serviceHandler.GetServices)
			serviceRoutes.GET("/:id", serviceHandler.GetServiceByID)
			serviceRoutes.PUT("/:id", serviceHandler.UpdateService)
			serviceRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), serviceHandler.DeleteService)
		}

		private.GET("/dashboard/stats", dashboardHandler.GetStats)
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
