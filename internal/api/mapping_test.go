package api_test

import (
	"fmt"
	"net/http"
	"testing"

	"clinic_system/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// seedMapping creates a user with one patient, one doctor and the mapping
// between them, returning the records and the user's token.
func seedMapping(t *testing.T, db *gorm.DB) (domain.Patient, domain.Doctor, domain.PatientDoctorMapping, string) {
	t.Helper()
	user, token := createUser(t, db, "Alice", "alice@example.com")
	patient := domain.Patient{Name: "Tom", Age: 40, Gender: "Male", CreatedByID: user.ID}
	require.NoError(t, db.Create(&patient).Error)
	doctor := domain.Doctor{Name: "Dr. X", Specialization: "Cardio", Experience: 5}
	require.NoError(t, db.Create(&doctor).Error)
	mapping := domain.PatientDoctorMapping{PatientID: patient.ID, DoctorID: doctor.ID}
	require.NoError(t, db.Create(&mapping).Error)
	return patient, doctor, mapping, token
}

func TestMappingLifecycle(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(t, db)

	// Register through the API, as in the documented end-to-end flow
	w := doRequest(t, r, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Jane", "email": "jane@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doRequest(t, r, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "jane@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	decodeBody(t, w, &login)

	w = doRequest(t, r, http.MethodPost, "/api/patients", login.Token, map[string]any{
		"name": "Tom", "age": 40, "gender": "Male",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var patient map[string]any
	decodeBody(t, w, &patient)

	w = doRequest(t, r, http.MethodPost, "/api/doctors", login.Token, map[string]any{
		"name": "Dr. X", "specialization": "Cardio", "experience": 5,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var doctor map[string]any
	decodeBody(t, w, &doctor)

	t.Run("create embeds patient and doctor details", func(t *testing.T) {
		w := doRequest(t, r, http.MethodPost, "/api/mappings", login.Token, map[string]any{
			"patient_id": patient["id"], "doctor_id": doctor["id"],
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var body map[string]any
		decodeBody(t, w, &body)
		assert.EqualValues(t, patient["id"], body["patient"])
		assert.EqualValues(t, doctor["id"], body["doctor"])
		assert.NotEmpty(t, body["assigned_at"])

		pd, ok := body["patient_details"].(map[string]any)
		require.True(t, ok, "missing patient_details")
		assert.Equal(t, "Tom", pd["name"])
		assert.EqualValues(t, 40, pd["age"])
		assert.Equal(t, "Male", pd["gender"])

		dd, ok := body["doctor_details"].(map[string]any)
		require.True(t, ok, "missing doctor_details")
		assert.Equal(t, "Dr. X", dd["name"])
		assert.Equal(t, "Cardio", dd["specialization"])
		assert.EqualValues(t, 5, dd["experience"])
	})

	t.Run("duplicate create is rejected, one row remains", func(t *testing.T) {
		w := doRequest(t, r, http.MethodPost, "/api/mappings", login.Token, map[string]any{
			"patient_id": patient["id"], "doctor_id": doctor["id"],
		})
		require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		assert.Equal(t, "This doctor is already assigned to this patient.", errorBody(t, w))

		var count int64
		require.NoError(t, db.Model(&domain.PatientDoctorMapping{}).
			Where("patient_id = ? AND doctor_id = ?", patient["id"], doctor["id"]).
			Count(&count).Error)
		assert.EqualValues(t, 1, count, "exactly one mapping row for the pair")
	})

	t.Run("list returns the denormalized mapping", func(t *testing.T) {
		w := doRequest(t, r, http.MethodGet, "/api/mappings", login.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var list []map[string]any
		decodeBody(t, w, &list)
		require.Len(t, list, 1)
		assert.Contains(t, list[0], "patient_details")
		assert.Contains(t, list[0], "doctor_details")
	})

	t.Run("missing referenced entities read as not found", func(t *testing.T) {
		w := doRequest(t, r, http.MethodPost, "/api/mappings", login.Token, map[string]any{
			"patient_id": 99999, "doctor_id": doctor["id"],
		})
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Patient not found.", errorBody(t, w))

		w = doRequest(t, r, http.MethodPost, "/api/mappings", login.Token, map[string]any{
			"patient_id": patient["id"], "doctor_id": 99999,
		})
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Doctor not found.", errorBody(t, w))
	})
}

func TestMappingTransitiveOwnership(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(t, db)
	patient, doctor, mapping, _ := seedMapping(t, db)
	_, tokenB := createUser(t, db, "Bob", "bob@example.com")
	mappingPath := fmt.Sprintf("/api/mappings/%d", mapping.ID)

	t.Run("create against another user's patient is forbidden", func(t *testing.T) {
		w := doRequest(t, r, http.MethodPost, "/api/mappings", tokenB, map[string]any{
			"patient_id": patient.ID, "doctor_id": doctor.ID,
		})
		require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
		assert.Equal(t, "You don't have permission to assign doctors to this patient.", errorBody(t, w))
	})

	t.Run("update by a non-owner is forbidden", func(t *testing.T) {
		w := doRequest(t, r, http.MethodPut, mappingPath, tokenB, map[string]any{
			"doctor_id": doctor.ID,
		})
		require.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "You can only update mappings for your own patients.", errorBody(t, w))
	})

	t.Run("delete by a non-owner is forbidden", func(t *testing.T) {
		w := doRequest(t, r, http.MethodDelete, mappingPath, tokenB, nil)
		require.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "You can only delete mappings for your own patients.", errorBody(t, w))
	})

	t.Run("scoped list and retrieve hide the mapping", func(t *testing.T) {
		w := doRequest(t, r, http.MethodGet, "/api/mappings", tokenB, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var list []map[string]any
		decodeBody(t, w, &list)
		assert.Empty(t, list)

		w = doRequest(t, r, http.MethodGet, mappingPath, tokenB, nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Mapping not found.", errorBody(t, w))
	})
}

func TestListPatientMappings(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(t, db)
	patient, _, _, tokenA := seedMapping(t, db)
	_, tokenB := createUser(t, db, "Bob", "bob@example.com")
	path := fmt.Sprintf("/api/mappings/patient/%d", patient.ID)

	t.Run("owner lists the patient's mappings", func(t *testing.T) {
		w := doRequest(t, r, http.MethodGet, path, tokenA, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var list []map[string]any
		decodeBody(t, w, &list)
		require.Len(t, list, 1)
	})

	t.Run("non-owner and unknown id read identically", func(t *testing.T) {
		// Existence must not leak: both cases return the same message
		wantMsg := "Patient not found or you don't have permission to access it."

		w := doRequest(t, r, http.MethodGet, path, tokenB, nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, wantMsg, errorBody(t, w))

		w = doRequest(t, r, http.MethodGet, "/api/mappings/patient/99999", tokenB, nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, wantMsg, errorBody(t, w))
	})
}

func TestMappingUpdate(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(t, db)
	patient, doctor, mapping, token := seedMapping(t, db)
	path := fmt.Sprintf("/api/mappings/%d", mapping.ID)

	other := domain.Doctor{Name: "Dr. Y", Specialization: "Neuro", Experience: 10}
	require.NoError(t, db.Create(&other).Error)

	t.Run("re-point to another doctor", func(t *testing.T) {
		w := doRequest(t, r, http.MethodPut, path, token, map[string]any{
			"doctor_id": other.ID,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var body map[string]any
		decodeBody(t, w, &body)
		assert.EqualValues(t, other.ID, body["doctor"])
		dd := body["doctor_details"].(map[string]any)
		assert.Equal(t, "Dr. Y", dd["name"])
	})

	t.Run("re-point onto an existing pair is rejected as already assigned", func(t *testing.T) {
		// (patient, doctor) now exists again as a second mapping
		second := domain.PatientDoctorMapping{PatientID: patient.ID, DoctorID: doctor.ID}
		require.NoError(t, db.Create(&second).Error)

		w := doRequest(t, r, http.MethodPut, path, token, map[string]any{
			"doctor_id": doctor.ID,
		})
		require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		assert.Equal(t, "This doctor is already assigned to this patient.", errorBody(t, w))
	})

	t.Run("re-point to a patient the caller does not own is forbidden", func(t *testing.T) {
		stranger, _ := createUser(t, db, "Bob", "bob@example.com")
		foreign := domain.Patient{Name: "Eve", Age: 30, Gender: "Female", CreatedByID: stranger.ID}
		require.NoError(t, db.Create(&foreign).Error)

		w := doRequest(t, r, http.MethodPut, path, token, map[string]any{
			"patient_id": foreign.ID,
		})
		require.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "You can only update mappings for your own patients.", errorBody(t, w))
	})
}

func TestMappingCascadeDelete(t *testing.T) {
	t.Run("deleting a patient removes its mappings", func(t *testing.T) {
		db := setupTestDB(t)
		r := newTestRouter(t, db)
		patient, _, _, token := seedMapping(t, db)

		w := doRequest(t, r, http.MethodDelete, fmt.Sprintf("/api/patients/%d", patient.ID), token, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		var count int64
		require.NoError(t, db.Model(&domain.PatientDoctorMapping{}).Count(&count).Error)
		assert.Zero(t, count, "mappings must cascade with the patient")
	})

	t.Run("deleting a doctor removes its mappings", func(t *testing.T) {
		db := setupTestDB(t)
		r := newTestRouter(t, db)
		_, doctor, _, token := seedMapping(t, db)

		w := doRequest(t, r, http.MethodDelete, fmt.Sprintf("/api/doctors/%d", doctor.ID), token, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		var count int64
		require.NoError(t, db.Model(&domain.PatientDoctorMapping{}).Count(&count).Error)
		assert.Zero(t, count, "mappings must cascade with the doctor")
	})

	t.Run("deleting a mapping leaves patient and doctor intact", func(t *testing.T) {
		db := setupTestDB(t)
		r := newTestRouter(t, db)
		patient, doctor, mapping, token := seedMapping(t, db)

		w := doRequest(t, r, http.MethodDelete, fmt.Sprintf("/api/mappings/%d", mapping.ID), token, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		var patients, doctors int64
		require.NoError(t, db.Model(&domain.Patient{}).Where("id = ?", patient.ID).Count(&patients).Error)
		require.NoError(t, db.Model(&domain.Doctor{}).Where("id = ?", doctor.ID).Count(&doctors).Error)
		assert.EqualValues(t, 1, patients)
		assert.EqualValues(t, 1, doctors)
	})
}
