package reservation

import "fmt"

// ServiceCategory is the closed category label of a visit. Opaque to the
// scheduling engine; it only validates membership.
type ServiceCategory string

const (
	ServiceGrooming     ServiceCategory = "grooming"
	ServiceVaccination  ServiceCategory = "vaccination"
	ServiceConsultation ServiceCategory = "consultation"
)

// IsValid returns true if the category is recognized.
func (s ServiceCategory) IsValid() bool {
	switch s {
	case ServiceGrooming, ServiceVaccination, ServiceConsultation:
		return true
	}
	return false
}

// String returns the string representation of the category.
func (s ServiceCategory) String() string {
	return string(s)
}

// ParseServiceCategory converts a string to a ServiceCategory.
func ParseServiceCategory(s string) (ServiceCategory, error) {
	cat := ServiceCategory(s)
	if !cat.IsValid() {
		return "", fmt.Errorf("invalid service category: %s", s)
	}
	return cat, nil
}
