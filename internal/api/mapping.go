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

// MappingRequest represents a mapping create request
type MappingRequest struct {
	PatientID uint `json:"patient_id" binding:"required"` // Patient to assign
	DoctorID  uint `json:"doctor_id" binding:"required"`  // Doctor to assign
}

// MappingUpdateRequest represents a mapping update request.
// Either reference may be re-pointed; omitted fields keep their value.
type MappingUpdateRequest struct {
	PatientID uint `json:"patient_id"` // New patient, optional
	DoctorID  uint `json:"doctor_id"`  // New doctor, optional
}

// PatientDetails is the patient summary embedded in mapping responses
type PatientDetails struct {
	ID     uint   `json:"id"`     // Patient ID
	Name   string `json:"name"`   // Patient name
	Age    int    `json:"age"`    // Age
	Gender string `json:"gender"` // Gender
}

// DoctorDetails is the doctor summary embedded in mapping responses
type DoctorDetails struct {
	ID             uint    `json:"id"`             // Doctor ID
	Name           string  `json:"name"`           // Doctor name
	Specialization string  `json:"specialization"` // Medical specialization
	Experience     float64 `json:"experience"`     // Years of experience
}

// MappingResponse is the denormalized representation of a mapping. Storage
// stays normalized; the linked patient and doctor summaries are embedded for
// read convenience.
type MappingResponse struct {
	ID             uint           `json:"id"`              // Mapping ID
	Patient        uint           `json:"patient"`         // Patient ID
	Doctor         uint           `json:"doctor"`          // Doctor ID
	AssignedAt     time.Time      `json:"assigned_at"`     // Timestamp of assignment
	PatientDetails PatientDetails `json:"patient_details"` // Linked patient summary
	DoctorDetails  DoctorDetails  `json:"doctor_details"`  // Linked doctor summary
}

// toMappingResponse maps a mapping with loaded relations to its response form
func toMappingResponse(m domain.PatientDoctorMapping) MappingResponse {
	return MappingResponse{
		ID:         m.ID,
		Patient:    m.PatientID,
		Doctor:     m.DoctorID,
		AssignedAt: m.AssignedAt,
		PatientDetails: PatientDetails{
			ID:     m.Patient.ID,
			Name:   m.Patient.Name,
			Age:    m.Patient.Age,
			Gender: m.Patient.Gender,
		},
		DoctorDetails: DoctorDetails{
			ID:             m.Doctor.ID,
			Name:           m.Doctor.Name,
			Specialization: m.Doctor.Specialization,
			Experience:     m.Doctor.Experience,
		},
	}
}

// CreateMappingHandler assigns a doctor to one of the caller's patients.
// The validation pipeline runs in order: resolve both entities (404), confirm
// patient ownership (403), reject an existing pair (400), then insert. A
// racing duplicate that slips past the pre-check is caught at the unique
// index and reported with the same message.
func CreateMappingHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req MappingRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, bindingError(err), "Failed to create mapping. Please check your input.")
			return
		}
		// Resolve the patient
		var patient domain.Patient
		if err := db.First(&patient, "id = ?", req.PatientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apperr.Respond(c, apperr.Missing("Patient not found."), "Failed to create mapping. Please check your input.")
				return
			}
			apperr.Respond(c, err, "Failed to create mapping. Please check your input.")
			return
		}
		// Resolve the doctor
		var doctor domain.Doctor
		if err := db.First(&doctor, "id = ?", req.DoctorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apperr.Respond(c, apperr.Missing("Doctor not found."), "Failed to create mapping. Please check your input.")
				return
			}
			apperr.Respond(c, err, "Failed to create mapping. Please check your input.")
			return
		}
		// Confirm the caller owns the patient
		if err := access.RequirePatientOwner(&patient, userID, "You don't have permission to assign doctors to this patient."); err != nil {
			apperr.Respond(c, err, "Failed to create mapping. Please check your input.")
			return
		}
		// Friendlier error on the common, non-racing path
		var existing domain.PatientDoctorMapping
		err := db.Where("patient_id = ? AND doctor_id = ?", patient.ID, doctor.ID).First(&existing).Error
		if err == nil {
			apperr.Respond(c, apperr.Invalid("This doctor is already assigned to this patient."), "Failed to create mapping. Please check your input.")
			return
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			apperr.Respond(c, err, "Failed to create mapping. Please check your input.")
			return
		}
		mapping := domain.PatientDoctorMapping{
			PatientID: patient.ID, // Linked patient
			DoctorID:  doctor.ID,  // Linked doctor
		}
		if err := db.Create(&mapping).Error; err != nil {
			// Concurrent duplicate create: the unique index is the source of
			// truth, translated to the same response as the pre-check
			if isDuplicateErr(err) {
				apperr.Respond(c, apperr.Invalid("This doctor is already assigned to this patient."), "Failed to create mapping. Please check your input.")
				return
			}
			apperr.Respond(c, err, "Failed to create mapping. Please check your input.")
			return
		}
		mapping.Patient = patient // For the denormalized response
		mapping.Doctor = doctor
		// Log the assignment
		logrus.WithFields(logrus.Fields{
			"mapping_id": mapping.ID, // Mapping ID
			"patient_id": patient.ID, // Patient ID
			"doctor_id":  doctor.ID,  // Doctor ID
			"user_id":    userID,     // Owning user ID
		}).Info("Doctor assigned to patient")
		c.JSON(http.StatusCreated, toMappingResponse(mapping))
	}
}

// ListMappingsHandler returns mappings whose patient the caller owns
func ListMappingsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var mappings []domain.PatientDoctorMapping
		// Scoped through the patient join; ownership is transitive
		err := access.OwnedMappings(db, userID).
			Preload("Patient").
			Preload("Doctor").
			Order("patient_doctor_mappings.assigned_at desc").
			Find(&mappings).Error
		if err != nil {
			apperr.Respond(c, err, "Failed to retrieve mappings.")
			return
		}
		resp := make([]MappingResponse, len(mappings))
		for i, m := range mappings {
			resp[i] = toMappingResponse(m)
		}
		c.JSON(http.StatusOK, resp)
	}
}

// GetMappingHandler returns one mapping by id, scoped to the caller
func GetMappingHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var mapping domain.PatientDoctorMapping
		err := access.OwnedMappings(db, userID).
			Preload("Patient").
			Preload("Doctor").
			First(&mapping, "patient_doctor_mappings.id = ?", c.Param("id")).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apperr.Respond(c, apperr.Missing("Mapping not found."), "Failed to retrieve mapping.")
				return
			}
			apperr.Respond(c, err, "Failed to retrieve mapping.")
			return
		}
		c.JSON(http.StatusOK, toMappingResponse(mapping))
	}
}

// UpdateMappingHandler re-points a mapping's patient or doctor reference.
// The caller must own the mapping's current patient and, when re-pointing,
// the new patient as well.
func UpdateMappingHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var mapping domain.PatientDoctorMapping
		if err := db.Preload("Patient").Preload("Doctor").First(&mapping, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apperr.Respond(c, apperr.Missing("Mapping not found."), "Failed to update mapping. Please check your input.")
				return
			}
			apperr.Respond(c, err, "Failed to update mapping. Please check your input.")
			return
		}
		// Transitive ownership check on the current patient
		if err := access.RequirePatientOwner(&mapping.Patient, userID, "You can only update mappings for your own patients."); err != nil {
			apperr.Respond(c, err, "Failed to update mapping. Please check your input.")
			return
		}
		var req MappingUpdateRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, bindingError(err), "Failed to update mapping. Please check your input.")
			return
		}
		// Re-point the patient reference
		if req.PatientID != 0 && req.PatientID != mapping.PatientID {
			var patient domain.Patient
			if err := db.First(&patient, "id = ?", req.PatientID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					apperr.Respond(c, apperr.Missing("Patient not found."), "Failed to update mapping. Please check your input.")
					return
				}
				apperr.Respond(c, err, "Failed to update mapping. Please check your input.")
				return
			}
			// The new patient must also belong to the caller
			if err := access.RequirePatientOwner(&patient, userID, "You can only update mappings for your own patients."); err != nil {
				apperr.Respond(c, err, "Failed to update mapping. Please check your input.")
				return
			}
			mapping.PatientID = patient.ID
			mapping.Patient = patient
		}
		// Re-point the doctor reference
		if req.DoctorID != 0 && req.DoctorID != mapping.DoctorID {
			var doctor domain.Doctor
			if err := db.First(&doctor, "id = ?", req.DoctorID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					apperr.Respond(c, apperr.Missing("Doctor not found."), "Failed to update mapping. Please check your input.")
					return
				}
				apperr.Respond(c, err, "Failed to update mapping. Please check your input.")
				return
			}
			mapping.DoctorID = doctor.ID
			mapping.Doctor = doctor
		}
		// Omit the loaded relations so only the mapping row is written
		if err := db.Omit("Patient", "Doctor").Save(&mapping).Error; err != nil {
			// A re-point that collides with an existing pair reads the same
			// as a duplicate create
			if isDuplicateErr(err) {
				apperr.Respond(c, apperr.Invalid("This doctor is already assigned to this patient."), "Failed to update mapping. Please check your input.")
				return
			}
			apperr.Respond(c, err, "Failed to update mapping. Please check your input.")
			return
		}
		c.JSON(http.StatusOK, toMappingResponse(mapping))
	}
}

// DeleteMappingHandler removes a doctor assignment from one of the caller's
// patients
func DeleteMappingHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var mapping domain.PatientDoctorMapping
		if err := db.Preload("Patient").First(&mapping, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apperr.Respond(c, apperr.Missing("Mapping not found."), "Failed to delete mapping.")
				return
			}
			apperr.Respond(c, err, "Failed to delete mapping.")
			return
		}
		// Transitive ownership check before deleting
		if err := access.RequirePatientOwner(&mapping.Patient, userID, "You can only delete mappings for your own patients."); err != nil {
			apperr.Respond(c, err, "Failed to delete mapping.")
			return
		}
		if err := db.Delete(&mapping).Error; err != nil {
			apperr.Respond(c, err, "Failed to delete mapping.")
			return
		}
		// Log the removal
		logrus.WithFields(logrus.Fields{
			"mapping_id": mapping.ID,        // Mapping ID
			"patient_id": mapping.PatientID, // Patient ID
			"doctor_id":  mapping.DoctorID,  // Doctor ID
			"user_id":    userID,            // Owning user ID
		}).Info("Doctor assignment removed")
		c.Status(http.StatusNoContent)
	}
}

// ListPatientMappingsHandler returns all mappings for one of the caller's
// patients. Existence and ownership are checked together: an unknown id and
// another user's patient produce the same not-found response, so the endpoint
// never leaks whether the patient exists.
func ListPatientMappingsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var patient domain.Patient
		// Combined existence and ownership check through the scoped query
		if err := access.OwnedPatients(db, userID).First(&patient, "id = ?", c.Param("patient_id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apperr.Respond(c, apperr.Missing("Patient not found or you don't have permission to access it."), "Failed to retrieve mappings.")
				return
			}
			apperr.Respond(c, err, "Failed to retrieve mappings.")
			return
		}
		var mappings []domain.PatientDoctorMapping
		err := access.OwnedMappings(db, userID).
			Where("patient_doctor_mappings.patient_id = ?", patient.ID).
			Preload("Patient").
			Preload("Doctor").
			Order("patient_doctor_mappings.assigned_at desc").
			Find(&mappings).Error
		if err != nil {
			apperr.Respond(c, err, "Failed to retrieve mappings.")
			return
		}
		resp := make([]MappingResponse, len(mappings))
		for i, m := range mappings {
			resp[i] = toMappingResponse(m)
		}
		c.JSON(http.StatusOK, resp)
	}
}
