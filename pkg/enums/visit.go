package enums

import "fmt"

// VisitType identifies the kind of field event a record captures.
type VisitType string

const (
	VisitProspection  VisitType = "PROSPECTION"
	VisitSaleAttempt  VisitType = "SALE_ATTEMPT"
	VisitInspection   VisitType = "INSPECTION"
	VisitInstallation VisitType = "INSTALLATION"
)

var validVisitTypes = []VisitType{
	VisitProspection,
	VisitSaleAttempt,
	VisitInspection,
	VisitInstallation,
}

// String implements fmt.Stringer.
func (v VisitType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VisitType.
func (v VisitType) IsValid() bool {
	for _, candidate := range validVisitTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVisitType converts raw input into a VisitType.
func ParseVisitType(value string) (VisitType, error) {
	for _, candidate := range validVisitTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid visit type %q", value)
}

// VisitStatus is the user-chosen outcome of a visit, fixed at creation.
type VisitStatus string

const (
	VisitStatusPending   VisitStatus = "PENDING"
	VisitStatusCompleted VisitStatus = "COMPLETED"
	VisitStatusCancelled VisitStatus = "CANCELLED"
	VisitStatusSuccess   VisitStatus = "SUCCESS"
	VisitStatusFailed    VisitStatus = "FAILED"
)

var validVisitStatuses = []VisitStatus{
	VisitStatusPending,
	VisitStatusCompleted,
	VisitStatusCancelled,
	VisitStatusSuccess,
	VisitStatusFailed,
}

// String implements fmt.Stringer.
func (v VisitStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VisitStatus.
func (v VisitStatus) IsValid() bool {
	for _, candidate := range validVisitStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVisitStatus converts raw input into a VisitStatus.
func ParseVisitStatus(value string) (VisitStatus, error) {
	for _, candidate := range validVisitStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid visit status %q", value)
}
