package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clinic_system/internal/domain"
	"clinic_system/internal/router"
	"clinic_system/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret"

// setupTestDB prepares an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to initialize test database")

	// A single connection keeps the in-memory database alive and makes the
	// foreign_keys pragma apply to every query
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error, "failed to enable foreign keys")

	err = db.AutoMigrate(&domain.User{}, &domain.Doctor{}, &domain.Patient{}, &domain.PatientDoctorMapping{})
	require.NoError(t, err, "failed to migrate tables")

	return db
}

// newTestRouter builds the full route tree over the test database,
// without a Redis cache.
func newTestRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return router.NewRouter(db, nil, testJWTSecret)
}

// newCachedTestRouter builds the route tree with the given Redis client.
func newCachedTestRouter(t *testing.T, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return router.NewRouter(db, rdb, testJWTSecret)
}

// createUser inserts a user directly and returns it with a valid token.
// MinCost keeps the hashing fast in tests.
func createUser(t *testing.T, db *gorm.DB, name, email string) (domain.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err, "failed to hash password")

	user := domain.User{
		Name:     name,
		Email:    email,
		Username: strings.SplitN(email, "@", 2)[0],
		Password: string(hash),
	}
	require.NoError(t, db.Create(&user).Error, "failed to create user")

	token, err := utils.GenerateJWT(user.ID, testJWTSecret)
	require.NoError(t, err, "failed to generate token")

	return user, token
}

// doRequest performs a JSON request against the router and records the result.
func doRequest(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decodeBody unmarshals a recorded JSON response body into dest.
func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), "failed to decode response body: %s", w.Body.String())
}

// errorBody returns the "error" value of a failure response.
func errorBody(t *testing.T, w *httptest.ResponseRecorder) any {
	t.Helper()
	var body map[string]any
	decodeBody(t, w, &body)
	require.Contains(t, body, "error", "response has no error field: %s", w.Body.String())
	return body["error"]
}

// fieldErrors returns the field-error map of a validation failure.
func fieldErrors(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	require.Equal(t, http.StatusBadRequest, w.Code, "expected a validation failure: %s", w.Body.String())
	fields, ok := errorBody(t, w).(map[string]any)
	require.True(t, ok, "error is not a field map: %s", w.Body.String())
	return fields
}
