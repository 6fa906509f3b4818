package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"clinic_system/internal/apperr" // Error taxonomy
	"clinic_system/internal/domain" // Importing domain models
	"clinic_system/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// RegisterRequest represents a registration request.
// The username is never accepted from input; it is derived from the email.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`           // Display name
	Email    string `json:"email" binding:"required,email"`    // Unique email address
	Password string `json:"password" binding:"required,min=8"` // Plaintext password, minimum 8 characters
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"` // Email address
	Password string `json:"password" binding:"required"`    // Plaintext password
}

// UserResponse is the public representation of a user; the password hash is
// never echoed back.
type UserResponse struct {
	ID       uint   `json:"id"`       // User ID
	Name     string `json:"name"`     // Display name
	Email    string `json:"email"`    // Email address
	Username string `json:"username"` // Derived username
}

// AuthResponse carries the JWT token returned on login
type AuthResponse struct {
	Token string `json:"token"` // JWT token
}

// RegisterHandler creates a new user account
func RegisterHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, bindingError(err), "Failed to register user.")
			return
		}
		email := strings.ToLower(strings.TrimSpace(req.Email)) // Normalize the email
		username := strings.SplitN(email, "@", 2)[0]           // Derived username: the part before the first @

		// Reject duplicate emails with a field-level error before hitting the
		// unique index, for the friendlier message on the common path
		var existing domain.User
		err := db.Where("email = ?", email).First(&existing).Error
		if err == nil {
			apperr.Respond(c, apperr.InvalidFields(map[string]string{
				"email": "A user with this email already exists.",
			}), "Failed to register user.")
			return
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			apperr.Respond(c, err, "Failed to register user.")
			return
		}

		// Hash the password; only the hash is ever stored
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			apperr.Respond(c, err, "Failed to register user.")
			return
		}
		user := domain.User{
			Name:     req.Name,     // Display name
			Email:    email,        // Normalized email
			Username: username,     // Derived username
			Password: string(hash), // Hashed password
		}
		if err := db.Create(&user).Error; err != nil {
			// Two emails can share a local part; the username unique index
			// rejects the second registration
			if isDuplicateErr(err) {
				apperr.Respond(c, apperr.InvalidFields(map[string]string{
					"username": "A user with this username already exists.",
				}), "Failed to register user.")
				return
			}
			apperr.Respond(c, err, "Failed to register user.")
			return
		}
		// Log the registration
		logrus.WithFields(logrus.Fields{
			"user_id":  user.ID,       // User ID
			"email":    user.Email,    // Email address
			"username": user.Username, // Derived username
		}).Info("User registered")
		// Return the created user, password excluded
		c.JSON(http.StatusCreated, gin.H{
			"message": "User registered successfully",
			"user": UserResponse{
				ID:       user.ID,
				Name:     user.Name,
				Email:    user.Email,
				Username: user.Username,
			},
		})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			apperr.Respond(c, bindingError(err), "Failed to log in.")
			return
		}
		var user domain.User // Fetch user from database
		if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
			// Generic message: never reveal whether the email exists
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(user.ID, jwtSecret)
		if err != nil {
			apperr.Respond(c, err, "Failed to log in.")
			return
		}
		// Return the token in the response
		c.JSON(http.StatusOK, AuthResponse{Token: token})
	}
}
