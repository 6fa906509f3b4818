package api

import (
	"errors"  // Error inspection
	"reflect" // Struct tag lookup
	"strings" // String manipulation

	"clinic_system/internal/apperr" // Error taxonomy

	"github.com/gin-gonic/gin"               // Gin web framework
	"github.com/gin-gonic/gin/binding"       // Gin binding engine
	"github.com/go-playground/validator/v10" // Validator behind gin's binding
	"github.com/go-sql-driver/mysql"         // MySQL driver errors
	"gorm.io/gorm"                           // GORM ORM library
)

// Register json tag names with the validator so field errors reference the
// names callers actually send instead of Go struct field names.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// bindingError converts a ShouldBindJSON failure into a validation error,
// surfacing field-level messages verbatim when the validator produced them.
func bindingError(err error) *apperr.Error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
		return apperr.InvalidFields(fields)
	}
	// Malformed JSON and type mismatches get a generic message
	return apperr.Invalid("Invalid request")
}

// fieldMessage renders a single validator failure as a caller-facing message
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return "Ensure this field has at least " + fe.Param() + " characters."
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ") + "."
	case "gte", "lte":
		if fe.Field() == "age" {
			return "Age must be between 0 and 150."
		}
		return "Value is out of range."
	default:
		return "Invalid value."
	}
}

// currentUserID reads the authenticated user's ID set by the JWT middleware
func currentUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get("userID")
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// isDuplicateErr reports whether err is a unique-constraint violation from the
// storage layer. The unique indexes are the source of truth for duplicates;
// this translates a racing insert into the same response as the pre-check.
func isDuplicateErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// MySQL error 1062: duplicate entry for a unique key
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
