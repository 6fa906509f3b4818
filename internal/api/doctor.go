package api

import (
	"context"  // Context for Redis operations
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"time"     // Timestamps and cache TTL

	"clinic_system/internal/apperr" // Error taxonomy
	"clinic_system/internal/domain" // Importing domain models
	"clinic_system/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// doctorListCacheKey caches the full doctor directory listing
const doctorListCacheKey = "doctors:all"

// doctorListCacheTTL bounds staleness if an invalidation is ever missed
const doctorListCacheTTL = 60 * time.Second

// DoctorRequest represents a doctor create/update request.
// Experience is a pointer so 0 passes the required check.
type DoctorRequest struct {
	Name           string   `json:"name" binding:"required"`             // Doctor name
	Specialization string   `json:"specialization" binding:"required"`   // Medical specialization
	Experience     *float64 `json:"experience" binding:"required,gte=0"` // Years of experience
}

// DoctorResponse is the public representation of a doctor
type DoctorResponse struct {
	ID             uint      `json:"id"`             // Doctor ID
	Name           string    `json:"name"`           // Doctor name
	Specialization string    `json:"specialization"` // Medical specialization
	Experience     float64   `json:"experience"`     // Years of experience
	CreatedAt      time.Time `json:"created_at"`     // Timestamp of creation
	UpdatedAt      time.Time `json:"updated_at"`     // Timestamp of last update
}

// toDoctorResponse maps a doctor model to its response form
func toDoctorResponse(d domain.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:             d.ID,
		Name:           d.Name,
		Specialization: d.Specialization,
		Experience:     d.Experience,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// invalidateDoctorCache drops the cached directory listing after a mutation
func invalidateDoctorCache(rdb *redis.Client) {
	if rdb == nil {
		return
	}
	_ = utils.DeleteCache(context.Background(), rdb, doctorListCacheKey)
}

// ListDoctorsHandler returns the full doctor directory.
// The directory is global: every authenticated caller sees the same listing,
// so it is served through the Redis cache. Cache errors fall back to the
// database.
func ListDoctorsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background() // Context for Redis operations
		var cached []DoctorResponse
		if rdb != nil {
			// Try to get cached listing
			if found, err := utils.GetCache(ctx, rdb, doctorListCacheKey, &cached); err == nil && found {
				c.JSON(http.StatusOK, cached)
				return
			}
		}
		var doctors []domain.Doctor
		if err := db.Order("created_at desc").Find(&doctors).Error; err != nil {
			apperr.Respond(c, err, "Failed to retrieve doctors.")
			return
		}
		resp := make([]DoctorResponse, len(doctors))
		for i, d := range doctors {
			resp[i] = toDoctorResponse(d)
		}
		if rdb != nil {
			// Cache the listing for future requests
			_ = utils.SetCache(ctx, rdb, doctorListCacheKey, resp, doctorListCacheTTL)
		}
		c.JSON(http.StatusOK, resp)
	}
}

// GetDoctorHandler returns a doctor by id
func GetDoctorHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var doctor domain.Doctor
		if err := db.First(&doctor, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apperr.Respond(c, apperr.Missing("Doctor not found."), "Failed to retrieve doctor.")
				return
			}
			apperr.Respond(c, err, "Failed to retrieve doctor.")
			return
		}
		c.JSON(http.StatusOK, toDoctorResponse(doctor))
	}
}

// CreateDoctorHandler adds a doctor to the directory.
// Doctors are unowned: any authenticated caller may create one.
func CreateDoctorHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DoctorRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, bindingError(err), "Failed to create doctor. Please check your input.")
			return
		}
		doctor := domain.Doctor{
			Name:           req.Name,           // Doctor name
			Specialization: req.Specialization, // Medical specialization
			Experience:     *req.Experience,    // Years of experience
		}
		if err := db.Create(&doctor).Error; err != nil {
			apperr.Respond(c, err, "Failed to create doctor. Please check your input.")
			return
		}
		invalidateDoctorCache(rdb) // Invalidate the directory listing
		// Log the creation
		logrus.WithFields(logrus.Fields{
			"doctor_id":      doctor.ID,             // Doctor ID
			"specialization": doctor.Specialization, // Specialization
		}).Info("Doctor created")
		c.JSON(http.StatusCreated, toDoctorResponse(doctor))
	}
}

// UpdateDoctorHandler updates a doctor in the directory
func UpdateDoctorHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var doctor domain.Doctor
		if err := db.First(&doctor, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apperr.Respond(c, apperr.Missing("Doctor not found."), "Failed to update doctor. Please check your input.")
				return
			}
			apperr.Respond(c, err, "Failed to update doctor. Please check your input.")
			return
		}
		var req DoctorRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, bindingError(err), "Failed to update doctor. Please check your input.")
			return
		}
		doctor.Name = req.Name
		doctor.Specialization = req.Specialization
		doctor.Experience = *req.Experience
		if err := db.Save(&doctor).Error; err != nil {
			apperr.Respond(c, err, "Failed to update doctor. Please check your input.")
			return
		}
		invalidateDoctorCache(rdb) // Invalidate the directory listing
		c.JSON(http.StatusOK, toDoctorResponse(doctor))
	}
}

// DeleteDoctorHandler removes a doctor from the directory.
// The doctor's mappings are removed by the foreign-key cascade.
func DeleteDoctorHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var doctor domain.Doctor
		if err := db.First(&doctor, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apperr.Respond(c, apperr.Missing("Doctor not found."), "Failed to delete doctor.")
				return
			}
			apperr.Respond(c, err, "Failed to delete doctor.")
			return
		}
		if err := db.Delete(&doctor).Error; err != nil {
			apperr.Respond(c, err, "Failed to delete doctor.")
			return
		}
		invalidateDoctorCache(rdb) // Invalidate the directory listing
		// Log the deletion
		logrus.WithFields(logrus.Fields{
			"doctor_id": doctor.ID, // Doctor ID
		}).Info("Doctor deleted")
		c.Status(http.StatusNoContent)
	}
}
