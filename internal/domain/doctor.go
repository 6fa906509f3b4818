package domain

import "time"

// Doctor Model
type Doctor struct {
	ID             uint      `gorm:"primaryKey"`        // Primary key
	Name           string    `gorm:"size:255;not null"` // Doctor name
	Specialization string    `gorm:"size:255;not null"` // Medical specialization
	Experience     float64   `gorm:"not null"`          // Years of experience
	CreatedAt      time.Time // Timestamp of creation
	UpdatedAt      time.Time // Timestamp of last update

	// Doctors are not owned by any user; any authenticated caller may manage them.
	Mappings []PatientDoctorMapping `gorm:"foreignKey:DoctorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"` // Patient assignments, removed with the doctor
}
