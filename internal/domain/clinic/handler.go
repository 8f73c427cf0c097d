package clinic

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ehr/clinic/internal/platform/datefmt"
	"github.com/ehr/clinic/pkg/pagination"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/ehr/clinic/internal/domain/clinic")

// PatientResponse is the JSON form of a Patient.
type PatientResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BirthDate string `json:"birth_date"`
}

// SpecialtyResponse is the JSON form of a Specialty.
type SpecialtyResponse struct {
	Name string   `json:"name"`
	Days []string `json:"days"`
}

// DoctorResponse is the JSON form of a Doctor.
type DoctorResponse struct {
	License     string              `json:"license"`
	Name        string              `json:"name"`
	Specialties []SpecialtyResponse `json:"specialties"`
}

// AppointmentResponse is the JSON form of an Appointment. At is rendered as
// dd/mm/yyyy HH:MM local time.
type AppointmentResponse struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	License     string    `json:"license"`
	DoctorName  string    `json:"doctor_name"`
	Specialty   string    `json:"specialty"`
	At          string    `json:"at"`
	Weekday     string    `json:"weekday"`
	CreatedAt   time.Time `json:"created_at"`
}

// PrescriptionResponse is the JSON form of a Prescription.
type PrescriptionResponse struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	License     string    `json:"license"`
	DoctorName  string    `json:"doctor_name"`
	Medications []string  `json:"medications"`
	IssuedAt    time.Time `json:"issued_at"`
}

// HistoryResponse is the JSON form of a ClinicalHistory.
type HistoryResponse struct {
	Patient       PatientResponse        `json:"patient"`
	Appointments  []AppointmentResponse  `json:"appointments"`
	Prescriptions []PrescriptionResponse `json:"prescriptions"`
}

func toPatientResponse(p *Patient) PatientResponse {
	return PatientResponse{ID: p.nationalID, Name: p.name, BirthDate: datefmt.FormatDate(p.birthDate)}
}

func toSpecialtyResponse(s *Specialty) SpecialtyResponse {
	return SpecialtyResponse{Name: s.name, Days: s.Days()}
}

func toDoctorResponse(d *Doctor) DoctorResponse {
	specs := d.Specialties()
	out := DoctorResponse{License: d.license, Name: d.name, Specialties: make([]SpecialtyResponse, len(specs))}
	for i, s := range specs {
		out.Specialties[i] = toSpecialtyResponse(s)
	}
	return out
}

func toAppointmentResponse(a *Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.id,
		PatientID:   a.patient.nationalID,
		PatientName: a.patient.name,
		License:     a.doctor.license,
		DoctorName:  a.doctor.name,
		Specialty:   a.specialty,
		At:          datefmt.FormatDateTime(a.at),
		Weekday:     WeekdayName(a.at),
		CreatedAt:   a.createdAt,
	}
}

func toPrescriptionResponse(p *Prescription) PrescriptionResponse {
	return PrescriptionResponse{
		ID:          p.id,
		PatientID:   p.patient.nationalID,
		License:     p.doctor.license,
		DoctorName:  p.doctor.name,
		Medications: p.Medications(),
		IssuedAt:    p.issuedAt,
	}
}

func toHistoryResponse(h *ClinicalHistory) HistoryResponse {
	appts := h.Appointments()
	rx := h.Prescriptions()
	out := HistoryResponse{
		Patient:       toPatientResponse(h.patient),
		Appointments:  make([]AppointmentResponse, len(appts)),
		Prescriptions: make([]PrescriptionResponse, len(rx)),
	}
	for i, a := range appts {
		out.Appointments[i] = toAppointmentResponse(a)
	}
	for i, p := range rx {
		out.Prescriptions[i] = toPrescriptionResponse(p)
	}
	return out
}

type createPatientRequest struct {
	Name      string `json:"name"`
	ID        string `json:"id"`
	BirthDate string `json:"birth_date"`
}

type specialtyRequest struct {
	Name string   `json:"name"`
	Days []string `json:"days"`
}

type createDoctorRequest struct {
	Name        string             `json:"name"`
	License     string             `json:"license"`
	Specialties []specialtyRequest `json:"specialties"`
}

type scheduleRequest struct {
	PatientID string `json:"patient_id"`
	License   string `json:"license"`
	Specialty string `json:"specialty"`
	At        string `json:"at"`
}

type prescriptionRequest struct {
	PatientID   string   `json:"patient_id"`
	License     string   `json:"license"`
	Medications []string `json:"medications"`
}

// Handler exposes the Registry over HTTP.
type Handler struct {
	reg *Registry
}

// NewHandler creates a new Handler.
func NewHandler(reg *Registry) *Handler {
	return &Handler{reg: reg}
}

// RegisterRoutes registers the clinic routes on the given Echo group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/patients", h.CreatePatient)
	g.GET("/patients", h.ListPatients)
	g.GET("/patients/:id", h.GetPatient)
	g.GET("/patients/:id/history", h.GetHistory)

	g.POST("/doctors", h.CreateDoctor)
	g.GET("/doctors", h.ListDoctors)
	g.GET("/doctors/:license", h.GetDoctor)
	g.POST("/doctors/:license/specialties", h.AddSpecialty)
	g.GET("/doctors/:license/availability", h.GetAvailability)

	g.POST("/appointments", h.ScheduleAppointment)
	g.GET("/appointments", h.ListAppointments)

	g.POST("/prescriptions", h.IssuePrescription)
	g.GET("/prescriptions", h.ListPrescriptions)
}

func startSpan(c echo.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(c.Request().Context(), name, trace.WithAttributes(attrs...))
}

// fail records err on span and maps it to an HTTP error.
func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, Reason(err))
	return httpError(err)
}

func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrInvalidData), errors.Is(err, ErrInvalidPrescription), errors.Is(err, datefmt.ErrInvalidFormat):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrPatientNotFound), errors.Is(err, ErrDoctorNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicateEntity), errors.Is(err, ErrDuplicateSpecialty), errors.Is(err, ErrSlotTaken):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrDoctorUnavailable):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// bindError keeps statuses already chosen by middleware, such as 413 from the
// body limit, and reports anything else as a malformed request.
func bindError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

// CreatePatient handles POST /patients.
func (h *Handler) CreatePatient(c echo.Context) error {
	var req createPatientRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}
	_, span := startSpan(c, "clinic.RegisterPatient", attribute.String("clinic.patient_id", req.ID))
	defer span.End()

	p, err := h.reg.RegisterPatient(req.Name, req.ID, req.BirthDate)
	if err != nil {
		return fail(span, err)
	}
	return c.JSON(http.StatusCreated, toPatientResponse(p))
}

// ListPatients handles GET /patients.
func (h *Handler) ListPatients(c echo.Context) error {
	return c.JSON(http.StatusOK, pagination.Paginate(h.reg.Patients(), pagination.FromContext(c), toPatientResponse))
}

// GetPatient handles GET /patients/:id.
func (h *Handler) GetPatient(c echo.Context) error {
	p, err := h.reg.FindPatient(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toPatientResponse(p))
}

// GetHistory handles GET /patients/:id/history.
func (h *Handler) GetHistory(c echo.Context) error {
	hist, err := h.reg.ClinicalHistory(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toHistoryResponse(hist))
}

// CreateDoctor handles POST /doctors. Specialties in the body are attached
// before the doctor is stored, so an invalid specialty registers nothing.
func (h *Handler) CreateDoctor(c echo.Context) error {
	var req createDoctorRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}
	_, span := startSpan(c, "clinic.RegisterDoctor",
		attribute.String("clinic.license", req.License),
		attribute.Int("clinic.specialties", len(req.Specialties)))
	defer span.End()

	d, err := NewDoctor(req.Name, req.License)
	if err != nil {
		return fail(span, err)
	}
	for _, sr := range req.Specialties {
		s, err := NewSpecialty(sr.Name, sr.Days)
		if err != nil {
			return fail(span, err)
		}
		if err := d.AddSpecialty(s); err != nil {
			return fail(span, err)
		}
	}
	if err := h.reg.AddDoctor(d); err != nil {
		return fail(span, err)
	}
	return c.JSON(http.StatusCreated, toDoctorResponse(d))
}

// ListDoctors handles GET /doctors.
func (h *Handler) ListDoctors(c echo.Context) error {
	return c.JSON(http.StatusOK, pagination.Paginate(h.reg.Doctors(), pagination.FromContext(c), toDoctorResponse))
}

// GetDoctor handles GET /doctors/:license.
func (h *Handler) GetDoctor(c echo.Context) error {
	d, err := h.reg.FindDoctor(c.Param("license"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toDoctorResponse(d))
}

// AddSpecialty handles POST /doctors/:license/specialties.
func (h *Handler) AddSpecialty(c echo.Context) error {
	var req specialtyRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}
	license := c.Param("license")
	_, span := startSpan(c, "clinic.AddSpecialty",
		attribute.String("clinic.license", license),
		attribute.String("clinic.specialty", req.Name))
	defer span.End()

	s, err := h.reg.AddSpecialtyToDoctor(license, req.Name, req.Days)
	if err != nil {
		return fail(span, err)
	}
	return c.JSON(http.StatusCreated, toSpecialtyResponse(s))
}

// GetAvailability handles GET /doctors/:license/availability?day=.
func (h *Handler) GetAvailability(c echo.Context) error {
	day := c.QueryParam("day")
	if day == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "day query parameter is required")
	}
	name, err := h.reg.AvailableSpecialty(c.Param("license"), day)
	if err != nil {
		return httpError(err)
	}
	wd, _ := ParseWeekday(day)
	return c.JSON(http.StatusOK, map[string]string{
		"license":   c.Param("license"),
		"day":       DayName(wd),
		"specialty": name,
	})
}

// ScheduleAppointment handles POST /appointments.
func (h *Handler) ScheduleAppointment(c echo.Context) error {
	var req scheduleRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}
	_, span := startSpan(c, "clinic.ScheduleAppointment",
		attribute.String("clinic.patient_id", req.PatientID),
		attribute.String("clinic.license", req.License),
		attribute.String("clinic.specialty", req.Specialty))
	defer span.End()

	at, err := datefmt.ParseDateTime(req.At)
	if err != nil {
		return fail(span, err)
	}
	a, err := h.reg.ScheduleAppointment(req.PatientID, req.License, req.Specialty, at)
	if err != nil {
		return fail(span, err)
	}
	span.SetAttributes(attribute.String("clinic.appointment_id", a.id))
	return c.JSON(http.StatusCreated, toAppointmentResponse(a))
}

// ListAppointments handles GET /appointments.
func (h *Handler) ListAppointments(c echo.Context) error {
	return c.JSON(http.StatusOK, pagination.Paginate(h.reg.Appointments(), pagination.FromContext(c), toAppointmentResponse))
}

// IssuePrescription handles POST /prescriptions.
func (h *Handler) IssuePrescription(c echo.Context) error {
	var req prescriptionRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}
	_, span := startSpan(c, "clinic.IssuePrescription",
		attribute.String("clinic.patient_id", req.PatientID),
		attribute.String("clinic.license", req.License))
	defer span.End()

	rx, err := h.reg.IssuePrescription(req.PatientID, req.License, req.Medications)
	if err != nil {
		return fail(span, err)
	}
	return c.JSON(http.StatusCreated, toPrescriptionResponse(rx))
}

// ListPrescriptions handles GET /prescriptions.
func (h *Handler) ListPrescriptions(c echo.Context) error {
	return c.JSON(http.StatusOK, pagination.Paginate(h.reg.Prescriptions(), pagination.FromContext(c), toPrescriptionResponse))
}
