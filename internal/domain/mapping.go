package domain

import "time"

// PatientDoctorMapping Model
//
// The (patient, doctor) pair is unique: the composite index is the source of
// truth for duplicate assignments, the API pre-check only gives a friendlier
// error on the non-racing path. The mapping carries no owner column; its
// effective owner is the linked patient's owner.
type PatientDoctorMapping struct {
	ID         uint      `gorm:"primaryKey"`                              // Primary key
	PatientID  uint      `gorm:"not null;uniqueIndex:idx_patient_doctor"` // Foreign key to Patient
	DoctorID   uint      `gorm:"not null;uniqueIndex:idx_patient_doctor"` // Foreign key to Doctor
	AssignedAt time.Time `gorm:"autoCreateTime"`                          // Timestamp of assignment, immutable

	Patient Patient `gorm:"foreignKey:PatientID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"` // Linked patient
	Doctor  Doctor  `gorm:"foreignKey:DoctorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`  // Linked doctor
}
