package clinic

import (
	"errors"
	"fmt"
)

// Every failing Registry operation wraps exactly one of these.
var (
	ErrInvalidData         = errors.New("invalid data")
	ErrDuplicateEntity     = errors.New("already registered")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrDoctorUnavailable   = errors.New("doctor unavailable")
	ErrSlotTaken           = errors.New("slot already taken")
	ErrInvalidPrescription = errors.New("invalid prescription")
	ErrDuplicateSpecialty  = errors.New("duplicate specialty")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidData, fmt.Sprintf(format, args...))
}

// Reason returns a short, stable label for the kind of err. It returns "" for
// nil and "internal" for errors outside the taxonomy.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidData):
		return "invalid_data"
	case errors.Is(err, ErrDuplicateEntity):
		return "duplicate_entity"
	case errors.Is(err, ErrPatientNotFound):
		return "patient_not_found"
	case errors.Is(err, ErrDoctorNotFound):
		return "doctor_not_found"
	case errors.Is(err, ErrDoctorUnavailable):
		return "doctor_unavailable"
	case errors.Is(err, ErrSlotTaken):
		return "slot_taken"
	case errors.Is(err, ErrInvalidPrescription):
		return "invalid_prescription"
	case errors.Is(err, ErrDuplicateSpecialty):
		return "duplicate_specialty"
	default:
		return "internal"
	}
}
