package domain

import "time"

// Patient Model
type Patient struct {
	ID          uint      `gorm:"primaryKey"`          // Primary key
	Name        string    `gorm:"size:255;not null"`   // Patient name
	Age         int       `gorm:"not null"`            // Age, validated to 0-150 at the API layer
	Gender      string    `gorm:"size:10;not null"`    // Gender: Male, Female or Other
	CreatedByID uint      `gorm:"not null;index"`      // Foreign key to the owning User, set once at creation
	CreatedAt   time.Time // Timestamp of creation
	UpdatedAt   time.Time // Timestamp of last update

	CreatedBy User                   `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"` // Owning user
	Mappings  []PatientDoctorMapping `gorm:"foreignKey:PatientID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`  // Doctor assignments, removed with the patient
}
