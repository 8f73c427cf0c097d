package clinic

import (
	"fmt"
	"strings"
	"sync"
)

// NoSpecialty is returned by SpecialtyForDay when the doctor attends nothing
// on the given day.
const NoSpecialty = "none"

// Doctor is identified by its license number and holds an ordered set of
// specialties with unique names.
type Doctor struct {
	name    string
	license string

	mu          sync.RWMutex
	specialties []*Specialty
	registered  bool
}

// NewDoctor creates a doctor without specialties.
func NewDoctor(name, license string) (*Doctor, error) {
	name = strings.TrimSpace(name)
	license = strings.TrimSpace(license)
	if name == "" {
		return nil, invalidf("doctor name must not be blank")
	}
	if license == "" {
		return nil, invalidf("license number must not be blank")
	}
	return &Doctor{name: name, license: license}, nil
}

func (d *Doctor) Name() string    { return d.name }
func (d *Doctor) License() string { return d.license }

// AddSpecialty appends s to a doctor that is still being built, unless a
// specialty with the same name is already held. Once the doctor is stored in
// a Registry, specialties are added with Registry.AddSpecialtyToDoctor.
func (d *Doctor) AddSpecialty(s *Specialty) error {
	d.mu.RLock()
	registered := d.registered
	d.mu.RUnlock()
	if registered {
		return invalidf("doctor %s is registered, add specialties through the registry", d.license)
	}
	return d.addSpecialty(s)
}

// markRegistered seals the doctor against direct specialty changes.
func (d *Doctor) markRegistered() {
	d.mu.Lock()
	d.registered = true
	d.mu.Unlock()
}

func (d *Doctor) addSpecialty(s *Specialty) error {
	if s == nil {
		return invalidf("specialty must not be nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, held := range d.specialties {
		if held.SameName(s.name) {
			return fmt.Errorf("%w: doctor %s already offers %s", ErrDuplicateSpecialty, d.license, held.name)
		}
	}
	d.specialties = append(d.specialties, s)
	return nil
}

// Specialties returns a copy of the held specialties in insertion order.
func (d *Doctor) Specialties() []*Specialty {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*Specialty, len(d.specialties))
	copy(out, d.specialties)
	return out
}

// SpecialtyForDay returns the name of the first specialty, in insertion
// order, offered on day, or NoSpecialty.
func (d *Doctor) SpecialtyForDay(day string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, s := range d.specialties {
		if s.OfferedOn(day) {
			return s.name
		}
	}
	return NoSpecialty
}

// attends reports whether any held specialty named specialty is offered on
// day. Unlike SpecialtyForDay it looks at every specialty.
func (d *Doctor) attends(specialty, day string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, s := range d.specialties {
		if s.SameName(specialty) && s.OfferedOn(day) {
			return true
		}
	}
	return false
}

func (d *Doctor) String() string {
	specs := d.Specialties()
	if len(specs) == 0 {
		return fmt.Sprintf("%s, license %s, no specialties", d.name, d.license)
	}
	parts := make([]string, len(specs))
	for i, s := range specs {
		parts[i] = s.String()
	}
	return fmt.Sprintf("%s, license %s, specialties: %s", d.name, d.license, strings.Join(parts, "; "))
}
