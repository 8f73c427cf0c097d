package clinic

import (
	"fmt"
	"strings"
	"time"

	"github.com/ehr/clinic/internal/platform/datefmt"
	"github.com/google/uuid"
)

// Appointment books a patient with a doctor for one specialty at an exact
// local time. Appointments have no duration.
type Appointment struct {
	id        string
	patient   *Patient
	doctor    *Doctor
	at        time.Time
	specialty string
	createdAt time.Time
}

// NewAppointment validates the references and requires at to be strictly
// after now.
func NewAppointment(p *Patient, d *Doctor, at time.Time, specialty string, now time.Time) (*Appointment, error) {
	if p == nil {
		return nil, invalidf("appointment needs a patient")
	}
	if d == nil {
		return nil, invalidf("appointment needs a doctor")
	}
	if at.IsZero() {
		return nil, invalidf("appointment time must be set")
	}
	if !at.After(now) {
		return nil, invalidf("appointment time %s is not in the future", datefmt.FormatDateTime(at))
	}
	specialty = strings.TrimSpace(specialty)
	if specialty == "" {
		return nil, invalidf("appointment specialty must not be blank")
	}
	return &Appointment{
		id:        uuid.New().String(),
		patient:   p,
		doctor:    d,
		at:        at,
		specialty: specialty,
		createdAt: now,
	}, nil
}

func (a *Appointment) ID() string           { return a.id }
func (a *Appointment) Patient() *Patient    { return a.patient }
func (a *Appointment) Doctor() *Doctor      { return a.doctor }
func (a *Appointment) At() time.Time        { return a.at }
func (a *Appointment) Specialty() string    { return a.specialty }
func (a *Appointment) CreatedAt() time.Time { return a.createdAt }

func (a *Appointment) String() string {
	return fmt.Sprintf("%s - %s with Dr. %s for %s (patient %s)",
		datefmt.FormatDateTime(a.at), a.patient.name, a.doctor.name, a.specialty, a.patient.nationalID)
}
