package router

import (
	"time" // CORS max age

	"clinic_system/internal/api"        // API handlers
	"clinic_system/internal/middleware" // JWT middleware

	"github.com/gin-contrib/cors"  // CORS middleware
	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// NewRouter wires up all routes. Registration and login are open; every
// resource route sits behind the JWT middleware. rdb may be nil, in which
// case the doctor directory is served without caching.
func NewRouter(db *gorm.DB, rdb *redis.Client, jwtSecret string) *gin.Engine {
	r := gin.Default() // Gin router instance

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	apiGroup := r.Group("/api")

	// Auth routes (open)
	auth := apiGroup.Group("/auth")
	auth.POST("/register", api.RegisterHandler(db))      // Registration endpoint
	auth.POST("/login", api.LoginHandler(db, jwtSecret)) // Login endpoint

	// Patient routes (protected, owner-scoped)
	patients := apiGroup.Group("/patients", middleware.JWTAuthMiddleware(jwtSecret))
	patients.POST("", api.CreatePatientHandler(db))       // Create patient
	patients.GET("", api.ListPatientsHandler(db))         // List the caller's patients
	patients.GET("/:id", api.GetPatientHandler(db))       // Retrieve one patient
	patients.PUT("/:id", api.UpdatePatientHandler(db))    // Update one patient
	patients.DELETE("/:id", api.DeletePatientHandler(db)) // Delete one patient

	// Doctor routes (protected, global directory)
	doctors := apiGroup.Group("/doctors", middleware.JWTAuthMiddleware(jwtSecret))
	doctors.POST("", api.CreateDoctorHandler(db, rdb))       // Create doctor
	doctors.GET("", api.ListDoctorsHandler(db, rdb))         // List all doctors
	doctors.GET("/:id", api.GetDoctorHandler(db))            // Retrieve one doctor
	doctors.PUT("/:id", api.UpdateDoctorHandler(db, rdb))    // Update one doctor
	doctors.DELETE("/:id", api.DeleteDoctorHandler(db, rdb)) // Delete one doctor

	// Mapping routes (protected, scoped through patient ownership)
	mappings := apiGroup.Group("/mappings", middleware.JWTAuthMiddleware(jwtSecret))
	mappings.POST("", api.CreateMappingHandler(db))                          // Assign a doctor to a patient
	mappings.GET("", api.ListMappingsHandler(db))                            // List the caller's mappings
	mappings.GET("/patient/:patient_id", api.ListPatientMappingsHandler(db)) // List mappings for one patient
	mappings.GET("/:id", api.GetMappingHandler(db))                          // Retrieve one mapping
	mappings.PUT("/:id", api.UpdateMappingHandler(db))                       // Update one mapping
	mappings.DELETE("/:id", api.DeleteMappingHandler(db))                    // Delete one mapping

	return r
}
