package access

import (
	"clinic_system/internal/apperr" // Error taxonomy
	"clinic_system/internal/domain" // Importing domain models

	"gorm.io/gorm" // GORM ORM library
)

// RequirePatientOwner confirms the caller owns the patient before a mutation.
// Every mutating operation on a patient or its mappings applies this check up
// front; a mismatch is a PermissionDenied with the operation's message.
func RequirePatientOwner(patient *domain.Patient, userID uint, denied string) error {
	if patient.CreatedByID != userID {
		return apperr.Denied(denied)
	}
	return nil
}

// OwnedPatients scopes a patient query to the caller. Patients owned by other
// users never appear in results, so direct reads of them report not-found.
func OwnedPatients(db *gorm.DB, userID uint) *gorm.DB {
	return db.Where("created_by_id = ?", userID)
}

// OwnedMappings scopes a mapping query to mappings whose patient is owned by
// the caller. Ownership is transitive through the patient; the mapping row
// itself carries no owner column.
func OwnedMappings(db *gorm.DB, userID uint) *gorm.DB {
	return db.
		Joins("JOIN patients ON patients.id = patient_doctor_mappings.patient_id").
		Where("patients.created_by_id = ?", userID)
}
