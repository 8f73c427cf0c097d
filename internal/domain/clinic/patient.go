package clinic

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ehr/clinic/internal/platform/datefmt"
)

// Patient is identified by its national ID. It never changes after creation.
type Patient struct {
	name       string
	nationalID string
	birthDate  time.Time
}

// NewPatient validates the fields and parses birthDateText as dd/mm/yyyy.
// The birth date may not fall after now.
func NewPatient(name, nationalID, birthDateText string, now time.Time) (*Patient, error) {
	name = strings.TrimSpace(name)
	nationalID = strings.TrimSpace(nationalID)
	if name == "" {
		return nil, invalidf("patient name must not be blank")
	}
	if nationalID == "" {
		return nil, invalidf("national ID must not be blank")
	}
	birth, err := datefmt.ParseDate(birthDateText)
	if err != nil {
		if errors.Is(err, datefmt.ErrInvalidFormat) {
			return nil, fmt.Errorf("%w: birth date %v", ErrInvalidData, err)
		}
		return nil, err
	}
	if birth.After(now) {
		return nil, invalidf("birth date %s is in the future", datefmt.FormatDate(birth))
	}
	return &Patient{name: name, nationalID: nationalID, birthDate: birth}, nil
}

func (p *Patient) Name() string         { return p.name }
func (p *Patient) NationalID() string   { return p.nationalID }
func (p *Patient) BirthDate() time.Time { return p.birthDate }

func (p *Patient) String() string {
	return fmt.Sprintf("%s, ID %s, born %s", p.name, p.nationalID, datefmt.FormatDate(p.birthDate))
}
