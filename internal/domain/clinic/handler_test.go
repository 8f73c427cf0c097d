package clinic

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*echo.Echo, *Registry) {
	t.Helper()
	r := newTestRegistry()
	e := echo.New()
	NewHandler(r).RegisterRoutes(e.Group("/api/v1"))
	return e, r
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_CreatePatient(t *testing.T) {
	e, r := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/v1/patients", `{"name":"Laura Gomez","id":"99887766","birth_date":"12/03/1990"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got PatientResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, PatientResponse{ID: "99887766", Name: "Laura Gomez", BirthDate: "12/03/1990"}, got)
	assert.Len(t, r.Patients(), 1)

	rec = do(e, http.MethodPost, "/api/v1/patients", `{"name":"Other","id":"99887766","birth_date":"01/01/1980"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(e, http.MethodPost, "/api/v1/patients", `{"name":"Other","id":"1","birth_date":"1980-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/api/v1/patients", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_CreateDoctorWithSpecialties(t *testing.T) {
	e, r := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/v1/doctors",
		`{"name":"Jorge Perez","license":"MP201","specialties":[{"name":"Cardiologia","days":["lunes","miércoles"]}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got DoctorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "MP201", got.License)
	require.Len(t, got.Specialties, 1)
	assert.Equal(t, []string{"monday", "wednesday"}, got.Specialties[0].Days)

	// A bad specialty rejects the whole doctor.
	rec = do(e, http.MethodPost, "/api/v1/doctors",
		`{"name":"Marta Sosa","license":"MP300","specialties":[{"name":"Clinica","days":["funday"]}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, err := r.FindDoctor("MP300")
	assert.ErrorIs(t, err, ErrDoctorNotFound)

	rec = do(e, http.MethodPost, "/api/v1/doctors",
		`{"name":"Marta Sosa","license":"MP300","specialties":[{"name":"Clinica","days":["monday"]},{"name":"CLINICA","days":["friday"]}]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandler_SchedulingFlow(t *testing.T) {
	e, r := newTestServer(t)
	seed(t, r)

	rec := do(e, http.MethodPost, "/api/v1/appointments",
		`{"patient_id":"99887766","license":"MP201","specialty":"Cardiologia","at":"23/06/2025 10:00"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var appt AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &appt))
	assert.Equal(t, "23/06/2025 10:00", appt.At)
	assert.Equal(t, "monday", appt.Weekday)
	assert.NotEmpty(t, appt.ID)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"slot taken", `{"patient_id":"99887766","license":"MP201","specialty":"Cardiologia","at":"23/06/2025 10:00"}`, http.StatusConflict},
		{"unavailable", `{"patient_id":"99887766","license":"MP201","specialty":"Cardiologia","at":"24/06/2025 10:00"}`, http.StatusUnprocessableEntity},
		{"unknown patient", `{"patient_id":"x","license":"MP201","specialty":"Cardiologia","at":"25/06/2025 10:00"}`, http.StatusNotFound},
		{"unknown doctor", `{"patient_id":"99887766","license":"x","specialty":"Cardiologia","at":"25/06/2025 10:00"}`, http.StatusNotFound},
		{"bad date", `{"patient_id":"99887766","license":"MP201","specialty":"Cardiologia","at":"2025-06-25 10:00"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodPost, "/api/v1/appointments", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	rec = do(e, http.MethodGet, "/api/v1/appointments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Data  []AppointmentResponse `json:"data"`
		Total int                   `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Data, 1)
	assert.Equal(t, appt.ID, page.Data[0].ID)
}

func TestHandler_PrescriptionAndHistory(t *testing.T) {
	e, r := newTestServer(t)
	seed(t, r)

	rec := do(e, http.MethodPost, "/api/v1/prescriptions", `{"patient_id":"99887766","license":"MP201","medications":["", " "]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/api/v1/prescriptions", `{"patient_id":"99887766","license":"MP201","medications":["Aspirin"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/v1/patients/99887766/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var hist HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hist))
	assert.Equal(t, "99887766", hist.Patient.ID)
	assert.Empty(t, hist.Appointments)
	require.Len(t, hist.Prescriptions, 1)
	assert.Equal(t, []string{"Aspirin"}, hist.Prescriptions[0].Medications)

	rec = do(e, http.MethodGet, "/api/v1/patients/nobody/history", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/prescriptions?limit=1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)
}

func TestHandler_SpecialtyAndAvailability(t *testing.T) {
	e, r := newTestServer(t)
	seed(t, r)

	rec := do(e, http.MethodPost, "/api/v1/doctors/MP201/specialties", `{"name":"Clinica","days":["sábado"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(e, http.MethodPost, "/api/v1/doctors/MP201/specialties", `{"name":"clinica","days":["monday"]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(e, http.MethodPost, "/api/v1/doctors/NOPE/specialties", `{"name":"Clinica","days":["monday"]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/doctors/MP201/availability?day=Sabado", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"license":"MP201","day":"saturday","specialty":"Clinica"}`, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/v1/doctors/MP201/availability?day=sunday", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/doctors/MP201/availability", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/doctors/MP201", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var doc DoctorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Len(t, doc.Specialties, 2)

	rec = do(e, http.MethodGet, "/api/v1/doctors?limit=1&offset=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[],"total":1,"limit":1,"offset":5,"has_more":false}`, rec.Body.String())
}

func TestHandler_ListAndGetPatient(t *testing.T) {
	e, r := newTestServer(t)
	seed(t, r)

	rec := do(e, http.MethodGet, "/api/v1/patients/99887766", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Laura Gomez"`)

	rec = do(e, http.MethodGet, "/api/v1/patients/0000", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/patients", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)
}

func TestBindError_KeepsMiddlewareStatus(t *testing.T) {
	tooLarge := echo.NewHTTPError(http.StatusRequestEntityTooLarge, "too large")
	wrapped := echo.NewHTTPError(http.StatusBadRequest, "bind failed").SetInternal(tooLarge)

	var he *echo.HTTPError
	require.ErrorAs(t, bindError(tooLarge), &he)
	assert.Equal(t, http.StatusRequestEntityTooLarge, he.Code)

	require.ErrorAs(t, bindError(wrapped), &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)

	require.ErrorAs(t, bindError(assert.AnError), &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}
