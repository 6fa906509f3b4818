package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"time"     // Timestamps in responses

	"clinic_system/internal/access" // Ownership checks
	"clinic_system/internal/apperr" // Error taxonomy
	"clinic_system/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// PatientRequest represents a patient create/update request.
// created_by is never accepted from input; the server assigns the caller.
// Age is a pointer so 0 passes the required check.
type PatientRequest struct {
	Name   string `json:"name" binding:"required"`                           // Patient name
	Age    *int   `json:"age" binding:"required,gte=0,lte=150"`              // Age, 0-150 inclusive
	Gender string `json:"gender" binding:"required,oneof=Male Female Other"` // Gender enum
}

// PatientResponse is the public representation of a patient
type PatientResponse struct {
	ID        uint      `json:"id"`         // Patient ID
	Name      string    `json:"name"`       // Patient name
	Age       int       `json:"age"`        // Age
	Gender    string    `json:"gender"`     // Gender
	CreatedBy uint      `json:"created_by"` // Owning user ID
	CreatedAt time.Time `json:"created_at"` // Timestamp of creation
	UpdatedAt time.Time `json:"updated_at"` // Timestamp of last update
}

// toPatientResponse maps a patient model to its response form
func toPatientResponse(p domain.Patient) PatientResponse {
	return PatientResponse{
		ID:        p.ID,
		Name:      p.Name,
		Age:       p.Age,
		Gender:    p.Gender,
		CreatedBy: p.CreatedByID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// CreatePatientHandler creates a patient owned by the caller
func CreatePatientHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req PatientRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, bindingError(err), "Failed to create patient. Please check your input.")
			return
		}
		patient := domain.Patient{
			Name:        req.Name,   // Patient name
			Age:         *req.Age,   // Validated age
			Gender:      req.Gender, // Validated gender
			CreatedByID: userID,     // Owner set server-side, never from input
		}
		if err := db.Create(&patient).Error; err != nil {
			apperr.Respond(c, err, "Failed to create patient. Please check your input.")
			return
		}
		// Log the creation
		logrus.WithFields(logrus.Fields{
			"patient_id": patient.ID, // Patient ID
			"user_id":    userID,     // Owning user ID
		}).Info("Patient created")
		c.JSON(http.StatusCreated, toPatientResponse(patient))
	}
}

// ListPatientsHandler returns the caller's patients, newest first
func ListPatientsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var patients []domain.Patient
		// Scoped query: other users' patients never appear
		if err := access.OwnedPatients(db, userID).Order("created_at desc").Find(&patients).Error; err != nil {
			apperr.Respond(c, err, "Failed to retrieve patients.")
			return
		}
		resp := make([]PatientResponse, len(patients))
		for i, p := range patients {
			resp[i] = toPatientResponse(p)
		}
		c.JSON(http.StatusOK, resp)
	}
}

// GetPatientHandler returns one of the caller's patients by id.
// A patient owned by another user reads as not-found, hiding its existence.
func GetPatientHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var patient domain.Patient
		if err := access.OwnedPatients(db, userID).First(&patient, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apperr.Respond(c, apperr.Missing("Patient not found."), "Failed to retrieve patient.")
				return
			}
			apperr.Respond(c, err, "Failed to retrieve patient.")
			return
		}
		c.JSON(http.StatusOK, toPatientResponse(patient))
	}
}

// UpdatePatientHandler updates one of the caller's patients
func UpdatePatientHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var patient domain.Patient
		// Scoped load: a miss is a 404, whether absent or owned by someone else
		if err := access.OwnedPatients(db, userID).First(&patient, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apperr.Respond(c, apperr.Missing("Patient not found."), "Failed to update patient. Please check your input.")
				return
			}
			apperr.Respond(c, err, "Failed to update patient. Please check your input.")
			return
		}
		// Explicit ownership re-check before mutating. Redundant behind the
		// scoped query, kept so the check is uniform across mutations.
		if err := access.RequirePatientOwner(&patient, userID, "You don't have permission to update this patient."); err != nil {
			apperr.Respond(c, err, "Failed to update patient. Please check your input.")
			return
		}
		var req PatientRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, bindingError(err), "Failed to update patient. Please check your input.")
			return
		}
		patient.Name = req.Name
		patient.Age = *req.Age
		patient.Gender = req.Gender
		if err := db.Save(&patient).Error; err != nil {
			apperr.Respond(c, err, "Failed to update patient. Please check your input.")
			return
		}
		c.JSON(http.StatusOK, toPatientResponse(patient))
	}
}

// DeletePatientHandler deletes one of the caller's patients.
// The patient's mappings are removed by the foreign-key cascade.
func DeletePatientHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var patient domain.Patient
		if err := access.OwnedPatients(db, userID).First(&patient, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apperr.Respond(c, apperr.Missing("Patient not found."), "Failed to delete patient.")
				return
			}
			apperr.Respond(c, err, "Failed to delete patient.")
			return
		}
		if err := access.RequirePatientOwner(&patient, userID, "You don't have permission to delete this patient."); err != nil {
			apperr.Respond(c, err, "Failed to delete patient.")
			return
		}
		if err := db.Delete(&patient).Error; err != nil {
			apperr.Respond(c, err, "Failed to delete patient.")
			return
		}
		// Log the deletion
		logrus.WithFields(logrus.Fields{
			"patient_id": patient.ID, // Patient ID
			"user_id":    userID,     // Owning user ID
		}).Info("Patient deleted")
		c.Status(http.StatusNoContent)
	}
}
