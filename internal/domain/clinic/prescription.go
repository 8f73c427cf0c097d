package clinic

import (
	"fmt"
	"strings"
	"time"

	"github.com/ehr/clinic/internal/platform/datefmt"
	"github.com/google/uuid"
)

// Prescription is a doctor's list of medications for a patient.
type Prescription struct {
	id          string
	patient     *Patient
	doctor      *Doctor
	medications []string
	issuedAt    time.Time
}

// NewPrescription keeps the non-blank medications, trimmed and in order, and
// stamps the prescription with now.
func NewPrescription(p *Patient, d *Doctor, medications []string, now time.Time) (*Prescription, error) {
	if p == nil {
		return nil, invalidf("prescription needs a patient")
	}
	if d == nil {
		return nil, invalidf("prescription needs a doctor")
	}
	meds := cleanMedications(medications)
	if len(meds) == 0 {
		return nil, fmt.Errorf("%w: at least one medication is required", ErrInvalidPrescription)
	}
	return &Prescription{
		id:          uuid.New().String(),
		patient:     p,
		doctor:      d,
		medications: meds,
		issuedAt:    now,
	}, nil
}

func cleanMedications(in []string) []string {
	out := make([]string, 0, len(in))
	for _, m := range in {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func (p *Prescription) ID() string          { return p.id }
func (p *Prescription) Patient() *Patient   { return p.patient }
func (p *Prescription) Doctor() *Doctor     { return p.doctor }
func (p *Prescription) IssuedAt() time.Time { return p.issuedAt }

// Medications returns a copy of the prescribed medications.
func (p *Prescription) Medications() []string {
	out := make([]string, len(p.medications))
	copy(out, p.medications)
	return out
}

func (p *Prescription) String() string {
	return fmt.Sprintf("%s - Dr. %s prescribed %s to %s",
		datefmt.FormatDateTime(p.issuedAt), p.doctor.name, strings.Join(p.medications, ", "), p.patient.name)
}
