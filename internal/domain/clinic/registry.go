// Package clinic implements the clinic registry: patients, doctors and their
// specialties, appointment scheduling against weekly availability,
// prescriptions, and per-patient clinical histories.
package clinic

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ehr/clinic/internal/platform/datefmt"
	"github.com/rs/zerolog"
)

// Operation names a Registry mutation as reported to observers.
type Operation string

const (
	OpRegisterPatient     Operation = "register_patient"
	OpRegisterDoctor      Operation = "register_doctor"
	OpAddSpecialty        Operation = "add_specialty"
	OpScheduleAppointment Operation = "schedule_appointment"
	OpIssuePrescription   Operation = "issue_prescription"
)

// Observer is notified after every Registry mutation attempt. err is nil on
// success. Observers run outside the Registry lock.
type Observer interface {
	Record(op Operation, err error)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(op Operation, err error)

// Record calls f(op, err).
func (f ObserverFunc) Record(op Operation, err error) {
	f(op, err)
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now as the source of "now" for future-date checks
// and timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.clock = now
		}
	}
}

// WithLogger sets the logger for accepted and rejected mutations.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) {
		r.log = l.With().Str("component", "registry").Logger()
	}
}

// WithObserver adds an observer.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// Registry owns every patient, doctor, clinical history, appointment and
// prescription. A single RWMutex serializes mutations, so the slot check and
// the append of a scheduled appointment happen atomically. A failed operation
// leaves the Registry unchanged.
type Registry struct {
	clock     func() time.Time
	log       zerolog.Logger
	observers []Observer

	mu            sync.RWMutex
	patients      map[string]*Patient
	patientOrder  []string
	doctors       map[string]*Doctor
	doctorOrder   []string
	histories     map[string]*ClinicalHistory
	appointments  []*Appointment
	prescriptions []*Prescription
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		clock:     time.Now,
		log:       zerolog.Nop(),
		patients:  make(map[string]*Patient),
		doctors:   make(map[string]*Doctor),
		histories: make(map[string]*ClinicalHistory),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) record(op Operation, err error) {
	for _, o := range r.observers {
		o.Record(op, err)
	}
}

// RegisterPatient builds a patient from raw input and adds it.
func (r *Registry) RegisterPatient(name, nationalID, birthDateText string) (*Patient, error) {
	p, err := NewPatient(name, nationalID, birthDateText, r.clock())
	if err != nil {
		r.record(OpRegisterPatient, err)
		return nil, err
	}
	if err := r.AddPatient(p); err != nil {
		return nil, err
	}
	return p, nil
}

// AddPatient stores p together with its empty clinical history.
func (r *Registry) AddPatient(p *Patient) error {
	err := r.addPatient(p)
	r.record(OpRegisterPatient, err)
	if err != nil {
		r.log.Debug().Err(err).Str("reason", Reason(err)).Msg("patient rejected")
		return err
	}
	r.log.Info().Str("patient_id", p.nationalID).Msg("patient registered")
	return nil
}

func (r *Registry) addPatient(p *Patient) error {
	if p == nil {
		return invalidf("patient must not be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.patients[p.nationalID]; exists {
		return fmt.Errorf("%w: patient with ID %s", ErrDuplicateEntity, p.nationalID)
	}
	r.patients[p.nationalID] = p
	r.patientOrder = append(r.patientOrder, p.nationalID)
	r.histories[p.nationalID] = newClinicalHistory(p)
	return nil
}

// RegisterDoctor builds a doctor without specialties and adds it.
func (r *Registry) RegisterDoctor(name, license string) (*Doctor, error) {
	d, err := NewDoctor(name, license)
	if err != nil {
		r.record(OpRegisterDoctor, err)
		return nil, err
	}
	if err := r.AddDoctor(d); err != nil {
		return nil, err
	}
	return d, nil
}

// AddDoctor stores d, keyed by its license.
func (r *Registry) AddDoctor(d *Doctor) error {
	err := r.addDoctor(d)
	r.record(OpRegisterDoctor, err)
	if err != nil {
		r.log.Debug().Err(err).Str("reason", Reason(err)).Msg("doctor rejected")
		return err
	}
	r.log.Info().Str("license", d.license).Msg("doctor registered")
	return nil
}

func (r *Registry) addDoctor(d *Doctor) error {
	if d == nil {
		return invalidf("doctor must not be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.doctors[d.license]; exists {
		return fmt.Errorf("%w: doctor with license %s", ErrDuplicateEntity, d.license)
	}
	d.markRegistered()
	r.doctors[d.license] = d
	r.doctorOrder = append(r.doctorOrder, d.license)
	return nil
}

// AddSpecialtyToDoctor builds a specialty and attaches it to the doctor with
// the given license.
func (r *Registry) AddSpecialtyToDoctor(license, name string, days []string) (*Specialty, error) {
	s, err := r.addSpecialtyToDoctor(license, name, days)
	r.record(OpAddSpecialty, err)
	if err != nil {
		r.log.Debug().Err(err).Str("license", license).Str("reason", Reason(err)).Msg("specialty rejected")
		return nil, err
	}
	r.log.Info().Str("license", license).Str("specialty", s.name).Strs("days", s.Days()).Msg("specialty added")
	return s, nil
}

func (r *Registry) addSpecialtyToDoctor(license, name string, days []string) (*Specialty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, err := r.doctorLocked(license)
	if err != nil {
		return nil, err
	}
	s, err := NewSpecialty(name, days)
	if err != nil {
		return nil, err
	}
	if err := d.addSpecialty(s); err != nil {
		return nil, err
	}
	return s, nil
}

// FindDoctor returns the doctor with the given license.
func (r *Registry) FindDoctor(license string) (*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.doctorLocked(license)
}

// FindPatient returns the patient with the given national ID.
func (r *Registry) FindPatient(nationalID string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.patientLocked(nationalID)
}

func (r *Registry) doctorLocked(license string) (*Doctor, error) {
	license = strings.TrimSpace(license)
	d, ok := r.doctors[license]
	if !ok {
		return nil, fmt.Errorf("%w: no doctor with license %s", ErrDoctorNotFound, license)
	}
	return d, nil
}

func (r *Registry) patientLocked(nationalID string) (*Patient, error) {
	nationalID = strings.TrimSpace(nationalID)
	p, ok := r.patients[nationalID]
	if !ok {
		return nil, fmt.Errorf("%w: no patient with ID %s", ErrPatientNotFound, nationalID)
	}
	return p, nil
}

// ScheduleAppointment books the patient with the doctor for specialty at the
// given local time. The checks run in a fixed order: patient, doctor, slot
// conflict, weekday availability, and finally appointment construction.
func (r *Registry) ScheduleAppointment(patientID, license, specialty string, at time.Time) (*Appointment, error) {
	a, err := r.scheduleAppointment(patientID, license, specialty, at)
	r.record(OpScheduleAppointment, err)
	if err != nil {
		r.log.Debug().Err(err).
			Str("patient_id", patientID).
			Str("license", license).
			Str("specialty", specialty).
			Time("at", at).
			Str("reason", Reason(err)).
			Msg("appointment rejected")
		return nil, err
	}
	r.log.Info().
		Str("appointment_id", a.id).
		Str("patient_id", a.patient.nationalID).
		Str("license", a.doctor.license).
		Str("specialty", a.specialty).
		Time("at", a.at).
		Msg("appointment scheduled")
	return a, nil
}

func (r *Registry) scheduleAppointment(patientID, license, specialty string, at time.Time) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.patientLocked(patientID)
	if err != nil {
		return nil, err
	}
	d, err := r.doctorLocked(license)
	if err != nil {
		return nil, err
	}

	for _, existing := range r.appointments {
		if existing.doctor.license == d.license && existing.at.Equal(at) {
			return nil, fmt.Errorf("%w: doctor %s already has an appointment at %s",
				ErrSlotTaken, d.license, datefmt.FormatDateTime(at))
		}
	}

	day := WeekdayName(at)
	if !d.attends(specialty, day) {
		return nil, fmt.Errorf("%w: doctor %s does not attend %s on %s",
			ErrDoctorUnavailable, d.license, strings.TrimSpace(specialty), day)
	}

	a, err := NewAppointment(p, d, at, specialty, r.clock())
	if err != nil {
		return nil, err
	}
	r.appointments = append(r.appointments, a)
	r.histories[p.nationalID].addAppointment(a)
	return a, nil
}

// AvailableSpecialty returns the first specialty, in the order they were
// added, that the doctor attends on day.
func (r *Registry) AvailableSpecialty(license, day string) (string, error) {
	if _, ok := ParseWeekday(day); !ok {
		return "", invalidf("unknown weekday %q", day)
	}
	d, err := r.FindDoctor(license)
	if err != nil {
		return "", err
	}
	name := d.SpecialtyForDay(day)
	if name == NoSpecialty {
		return "", fmt.Errorf("%w: doctor %s attends nothing on %s", ErrDoctorUnavailable, d.license, strings.TrimSpace(day))
	}
	return name, nil
}

// IssuePrescription records a prescription in the patient's clinical history.
// Blank medication entries are dropped; at least one must remain.
func (r *Registry) IssuePrescription(patientID, license string, medications []string) (*Prescription, error) {
	rx, err := r.issuePrescription(patientID, license, medications)
	r.record(OpIssuePrescription, err)
	if err != nil {
		r.log.Debug().Err(err).
			Str("patient_id", patientID).
			Str("license", license).
			Str("reason", Reason(err)).
			Msg("prescription rejected")
		return nil, err
	}
	r.log.Info().
		Str("prescription_id", rx.id).
		Str("patient_id", rx.patient.nationalID).
		Str("license", rx.doctor.license).
		Int("medications", len(rx.medications)).
		Msg("prescription issued")
	return rx, nil
}

func (r *Registry) issuePrescription(patientID, license string, medications []string) (*Prescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.patientLocked(patientID)
	if err != nil {
		return nil, err
	}
	d, err := r.doctorLocked(license)
	if err != nil {
		return nil, err
	}
	rx, err := NewPrescription(p, d, medications, r.clock())
	if err != nil {
		return nil, err
	}
	r.prescriptions = append(r.prescriptions, rx)
	r.histories[p.nationalID].addPrescription(rx)
	return rx, nil
}

// ClinicalHistory returns the history of the patient with the given ID.
func (r *Registry) ClinicalHistory(patientID string) (*ClinicalHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, err := r.patientLocked(patientID)
	if err != nil {
		return nil, err
	}
	return r.histories[p.nationalID], nil
}

// Patients returns every patient in registration order.
func (r *Registry) Patients() []*Patient {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Patient, 0, len(r.patientOrder))
	for _, id := range r.patientOrder {
		out = append(out, r.patients[id])
	}
	return out
}

// Doctors returns every doctor in registration order.
func (r *Registry) Doctors() []*Doctor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Doctor, 0, len(r.doctorOrder))
	for _, license := range r.doctorOrder {
		out = append(out, r.doctors[license])
	}
	return out
}

// Appointments returns every appointment in booking order.
func (r *Registry) Appointments() []*Appointment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Appointment, len(r.appointments))
	copy(out, r.appointments)
	return out
}

// Prescriptions returns every prescription in issuance order.
func (r *Registry) Prescriptions() []*Prescription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Prescription, len(r.prescriptions))
	copy(out, r.prescriptions)
	return out
}
