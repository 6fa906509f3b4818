package apperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// Kind classifies a failure into one of the response classes exposed to callers.
type Kind int

const (
	Validation       Kind = iota + 1 // Malformed, missing, out-of-range or duplicate input (400)
	PermissionDenied                 // Authenticated but not authorized for this resource (403)
	NotFound                         // Resource absent, or hidden from this caller (404)
)

// Error is a caller-safe failure with its response class.
// Fields carries field-level validation messages when available.
type Error struct {
	Kind    Kind              // Response class
	Message string            // Caller-safe message
	Fields  map[string]string // Optional field-error map, rendered instead of Message
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	for field, msg := range e.Fields {
		return field + ": " + msg
	}
	return "request failed"
}

// New creates an Error with the given kind and message
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Invalid creates a Validation error with a plain message
func Invalid(message string) *Error {
	return &Error{Kind: Validation, Message: message}
}

// InvalidFields creates a Validation error carrying a field-error map
func InvalidFields(fields map[string]string) *Error {
	return &Error{Kind: Validation, Fields: fields}
}

// Denied creates a PermissionDenied error
func Denied(message string) *Error {
	return &Error{Kind: PermissionDenied, Message: message}
}

// Missing creates a NotFound error
func Missing(message string) *Error {
	return &Error{Kind: NotFound, Message: message}
}

// status maps a kind to its HTTP status code
func status(kind Kind) int {
	switch kind {
	case PermissionDenied:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// Respond is the single boundary translator from errors to HTTP responses.
// Known kinds render their message (or field-error map) under "error" with the
// matching status. Anything else is logged and flattened to the operation's
// generic 400 fallback so internal detail never reaches the caller.
func Respond(c *gin.Context, err error, fallback string) {
	var appErr *Error
	if errors.As(err, &appErr) {
		if len(appErr.Fields) > 0 {
			c.JSON(status(appErr.Kind), gin.H{"error": appErr.Fields})
			return
		}
		c.JSON(status(appErr.Kind), gin.H{"error": appErr.Message})
		return
	}
	// Log the internal error with context, never expose it
	logrus.WithFields(logrus.Fields{
		"path":  c.FullPath(),
		"error": err.Error(),
	}).Error("Unhandled error")
	c.JSON(http.StatusBadRequest, gin.H{"error": fallback})
}
