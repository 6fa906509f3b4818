package domain

import "time"

// User Model
type User struct {
	ID        uint      `gorm:"primaryKey"`                    // Primary key
	Name      string    `gorm:"size:255;not null"`             // Display name
	Email     string    `gorm:"size:255;uniqueIndex;not null"` // Unique email address
	Username  string    `gorm:"size:255;uniqueIndex;not null"` // Unique username, derived from the email local part
	Password  string    `gorm:"size:255;not null"`             // Hashed password, never returned to callers
	CreatedAt time.Time // Timestamp of creation
	UpdatedAt time.Time // Timestamp of last update

	Patients []Patient `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"` // Patients owned by this user
}
