package clinic

import (
	"fmt"
	"strings"
	"sync"
)

// ClinicalHistory is the append-only journal of one patient's appointments
// and prescriptions. Only the Registry appends to it.
type ClinicalHistory struct {
	patient *Patient

	mu            sync.RWMutex
	appointments  []*Appointment
	prescriptions []*Prescription
}

func newClinicalHistory(p *Patient) *ClinicalHistory {
	return &ClinicalHistory{patient: p}
}

func (h *ClinicalHistory) Patient() *Patient { return h.patient }

func (h *ClinicalHistory) addAppointment(a *Appointment) {
	h.mu.Lock()
	h.appointments = append(h.appointments, a)
	h.mu.Unlock()
}

func (h *ClinicalHistory) addPrescription(p *Prescription) {
	h.mu.Lock()
	h.prescriptions = append(h.prescriptions, p)
	h.mu.Unlock()
}

// Appointments returns a copy of the patient's appointments in booking order.
func (h *ClinicalHistory) Appointments() []*Appointment {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Appointment, len(h.appointments))
	copy(out, h.appointments)
	return out
}

// Prescriptions returns a copy of the patient's prescriptions in issuance order.
func (h *ClinicalHistory) Prescriptions() []*Prescription {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Prescription, len(h.prescriptions))
	copy(out, h.prescriptions)
	return out
}

func (h *ClinicalHistory) String() string {
	appts := h.Appointments()
	rx := h.Prescriptions()

	var b strings.Builder
	fmt.Fprintf(&b, "Clinical history of %s\n", h.patient)
	fmt.Fprintf(&b, "Appointments (%d):\n", len(appts))
	for _, a := range appts {
		fmt.Fprintf(&b, "  %s\n", a)
	}
	fmt.Fprintf(&b, "Prescriptions (%d):\n", len(rx))
	for _, p := range rx {
		fmt.Fprintf(&b, "  %s\n", p)
	}
	return b.String()
}
