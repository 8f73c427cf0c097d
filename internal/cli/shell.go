// Package cli implements the interactive operator shell. It owns every prompt,
// parses dates and lists before calling the Registry, and reports each
// Registry error as a message without leaving the menu loop.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ehr/clinic/internal/domain/clinic"
	"github.com/ehr/clinic/internal/platform/datefmt"
	"github.com/ehr/clinic/internal/platform/textnorm"
	"github.com/rs/zerolog"
)

// errInputClosed ends the session when the input reaches EOF.
var errInputClosed = errors.New("input closed")

const rule = "=================================================="

// doneWord ends the specialty loop while adding a doctor.
const doneWord = "done"

// Shell is a menu-driven text interface over a Registry.
type Shell struct {
	reg *clinic.Registry
	in  *bufio.Scanner
	out io.Writer
	log zerolog.Logger
}

// New creates a Shell reading from in and writing prompts to out.
func New(reg *clinic.Registry, in io.Reader, out io.Writer, log zerolog.Logger) *Shell {
	return &Shell{
		reg: reg,
		in:  bufio.NewScanner(in),
		out: out,
		log: log.With().Str("component", "shell").Logger(),
	}
}

// Run shows the menu until the operator picks 0, the input ends, or ctx is
// cancelled. Registry errors never end the loop.
func (s *Shell) Run(ctx context.Context) error {
	s.println("            CLINIC MANAGEMENT SYSTEM")
	for {
		if err := ctx.Err(); err != nil {
			s.println("\nSession interrupted.")
			return nil
		}
		s.menu()
		opt, err := s.option()
		if errors.Is(err, errInputClosed) {
			s.println("\nInput closed. Session ended.")
			return nil
		}
		if err != nil {
			return err
		}
		if opt == "0" {
			s.println("\nSession closed.")
			return nil
		}

		if err := s.dispatch(opt); err != nil {
			if errors.Is(err, errInputClosed) {
				s.println("\nInput closed. Session ended.")
				return nil
			}
			return err
		}
	}
}

func (s *Shell) dispatch(opt string) error {
	switch opt {
	case "1":
		return s.addPatient()
	case "2":
		return s.addDoctor()
	case "3":
		return s.scheduleAppointment()
	case "4":
		return s.addSpecialty()
	case "5":
		return s.issuePrescription()
	case "6":
		return s.showHistory()
	case "7":
		s.listAppointments()
	case "8":
		s.listPatients()
	case "9":
		s.listDoctors()
	}
	return nil
}

func (s *Shell) menu() {
	s.println("\n" + rule)
	s.println("            CLINIC MANAGEMENT SYSTEM")
	s.println(rule)
	s.println("1) Add patient")
	s.println("2) Add doctor")
	s.println("3) Schedule appointment")
	s.println("4) Add specialty to doctor")
	s.println("5) Issue prescription")
	s.println("6) View clinical history")
	s.println("7) List all appointments")
	s.println("8) List all patients")
	s.println("9) List all doctors")
	s.println("0) Exit")
	s.println(rule)
}

func (s *Shell) option() (string, error) {
	for {
		opt, err := s.prompt("Select an option (0-9): ")
		if err != nil {
			return "", err
		}
		if len(opt) == 1 && opt[0] >= '0' && opt[0] <= '9' {
			return opt, nil
		}
		s.println("Invalid option. Enter a number from 0 to 9.")
	}
}

// prompt prints label and returns the next trimmed input line.
func (s *Shell) prompt(label string) (string, error) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return "", errInputClosed
	}
	return strings.TrimSpace(s.in.Text()), nil
}

// prompts asks each label in turn.
func (s *Shell) prompts(labels ...string) ([]string, error) {
	out := make([]string, len(labels))
	for i, l := range labels {
		v, err := s.prompt(l)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *Shell) println(a ...any) {
	fmt.Fprintln(s.out, a...)
}

func (s *Shell) printf(format string, a ...any) {
	fmt.Fprintf(s.out, format, a...)
}

func (s *Shell) heading(title string) {
	s.println("\n" + title)
	s.println(strings.Repeat("-", 30))
}

// report prints err as an operator-facing message.
func (s *Shell) report(err error) {
	s.log.Debug().Err(err).Str("reason", clinic.Reason(err)).Msg("operation failed")
	s.printf("%s: %v\n", describe(err), err)
}

func describe(err error) string {
	switch {
	case errors.Is(err, datefmt.ErrInvalidFormat):
		return "Invalid date"
	case errors.Is(err, clinic.ErrInvalidData):
		return "Invalid data"
	case errors.Is(err, clinic.ErrDuplicateEntity):
		return "Already registered"
	case errors.Is(err, clinic.ErrPatientNotFound), errors.Is(err, clinic.ErrDoctorNotFound):
		return "Not found"
	case errors.Is(err, clinic.ErrDoctorUnavailable):
		return "Doctor unavailable"
	case errors.Is(err, clinic.ErrSlotTaken):
		return "Slot taken"
	case errors.Is(err, clinic.ErrInvalidPrescription):
		return "Invalid prescription"
	case errors.Is(err, clinic.ErrDuplicateSpecialty):
		return "Duplicate specialty"
	default:
		return "Unexpected error"
	}
}

func (s *Shell) daysPrompt() (string, error) {
	s.println("Attendance days (comma separated):")
	s.println("Options: " + strings.Join(clinic.CanonicalDays(), ", "))
	return s.prompt("Days: ")
}

func (s *Shell) addPatient() error {
	s.heading("ADD PATIENT")
	v, err := s.prompts("Full name: ", "National ID: ", "Birth date (dd/mm/yyyy): ")
	if err != nil {
		return err
	}
	p, err := s.reg.RegisterPatient(v[0], v[1], v[2])
	if err != nil {
		s.report(err)
		return nil
	}
	s.printf("Patient %s added.\n", p.Name())
	return nil
}

// addDoctor collects specialties before the doctor is stored. A rejected
// specialty is reported and the loop continues.
func (s *Shell) addDoctor() error {
	s.heading("ADD DOCTOR")
	v, err := s.prompts("Full name: ", "License number: ")
	if err != nil {
		return err
	}
	d, err := clinic.NewDoctor(v[0], v[1])
	if err != nil {
		s.report(err)
		return nil
	}

	s.println("\nNow add the doctor's specialties.")
	for {
		name, err := s.prompt(fmt.Sprintf("Specialty name (or '%s' to finish): ", doneWord))
		if err != nil {
			return err
		}
		if strings.EqualFold(name, doneWord) {
			break
		}
		days, err := s.daysPrompt()
		if err != nil {
			return err
		}
		if days == "" {
			s.println("No days given, specialty skipped.")
			continue
		}
		spec, err := clinic.NewSpecialty(name, textnorm.SplitList(days))
		if err == nil {
			err = d.AddSpecialty(spec)
		}
		if err != nil {
			s.report(err)
			continue
		}
		s.printf("Specialty %s added.\n", spec.Name())
	}

	if err := s.reg.AddDoctor(d); err != nil {
		s.report(err)
		return nil
	}
	s.printf("Doctor %s added.\n", d.Name())
	return nil
}

func (s *Shell) scheduleAppointment() error {
	s.heading("SCHEDULE APPOINTMENT")
	v, err := s.prompts("Patient national ID: ", "Doctor license: ", "Specialty: ", "Date and time (dd/mm/yyyy HH:MM): ")
	if err != nil {
		return err
	}
	at, err := datefmt.ParseDateTime(v[3])
	if err != nil {
		s.report(err)
		return nil
	}
	a, err := s.reg.ScheduleAppointment(v[0], v[1], v[2], at)
	if err != nil {
		s.report(err)
		return nil
	}
	s.printf("Appointment scheduled: %s\n", a)
	return nil
}

func (s *Shell) addSpecialty() error {
	s.heading("ADD SPECIALTY TO DOCTOR")
	license, err := s.prompt("Doctor license: ")
	if err != nil {
		return err
	}
	// Fail fast on an unknown license before asking for the rest.
	if _, err := s.reg.FindDoctor(license); err != nil {
		s.report(err)
		return nil
	}
	name, err := s.prompt("Specialty name: ")
	if err != nil {
		return err
	}
	days, err := s.daysPrompt()
	if err != nil {
		return err
	}
	spec, err := s.reg.AddSpecialtyToDoctor(license, name, textnorm.SplitList(days))
	if err != nil {
		s.report(err)
		return nil
	}
	s.printf("Specialty %s added to doctor %s.\n", spec.Name(), license)
	return nil
}

func (s *Shell) issuePrescription() error {
	s.heading("ISSUE PRESCRIPTION")
	v, err := s.prompts("Patient national ID: ", "Doctor license: ", "Medications (comma separated): ")
	if err != nil {
		return err
	}
	rx, err := s.reg.IssuePrescription(v[0], v[1], textnorm.SplitList(v[2]))
	if err != nil {
		s.report(err)
		return nil
	}
	s.printf("Prescription issued: %s\n", strings.Join(rx.Medications(), ", "))
	return nil
}

func (s *Shell) showHistory() error {
	s.heading("CLINICAL HISTORY")
	id, err := s.prompt("Patient national ID: ")
	if err != nil {
		return err
	}
	h, err := s.reg.ClinicalHistory(id)
	if err != nil {
		s.report(err)
		return nil
	}
	fmt.Fprint(s.out, h.String())
	return nil
}

func (s *Shell) listAppointments() {
	s.heading("ALL APPOINTMENTS")
	appts := s.reg.Appointments()
	if len(appts) == 0 {
		s.println("No appointments scheduled.")
		return
	}
	for i, a := range appts {
		s.printf("%d. %s\n", i+1, a)
	}
}

func (s *Shell) listPatients() {
	s.heading("ALL PATIENTS")
	patients := s.reg.Patients()
	if len(patients) == 0 {
		s.println("No patients registered.")
		return
	}
	for i, p := range patients {
		s.printf("%d. %s\n", i+1, p)
	}
}

func (s *Shell) listDoctors() {
	s.heading("ALL DOCTORS")
	doctors := s.reg.Doctors()
	if len(doctors) == 0 {
		s.println("No doctors registered.")
		return
	}
	for i, d := range doctors {
		s.printf("%d. %s\n", i+1, d)
	}
}
