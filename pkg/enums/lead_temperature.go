package enums

import "fmt"

// LeadTemperature is a prospector's qualitative rating of a lead.
type LeadTemperature string

const (
	LeadHot  LeadTemperature = "HOT"
	LeadWarm LeadTemperature = "WARM"
	LeadCold LeadTemperature = "COLD"
)

var validLeadTemperatures = []LeadTemperature{
	LeadHot,
	LeadWarm,
	LeadCold,
}

// leadPoints maps a temperature to the points a prospector earns.
var leadPoints = map[LeadTemperature]int{
	LeadHot:  5,
	LeadWarm: 2,
	LeadCold: 1,
}

// String implements fmt.Stringer.
func (l LeadTemperature) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LeadTemperature.
func (l LeadTemperature) IsValid() bool {
	for _, candidate := range validLeadTemperatures {
		if candidate == l {
			return true
		}
	}
	return false
}

// Points returns the gamification award for the temperature, zero when unknown.
func (l LeadTemperature) Points() int {
	return leadPoints[l]
}

// ParseLeadTemperature converts raw input into a LeadTemperature.
func ParseLeadTemperature(value string) (LeadTemperature, error) {
	for _, candidate := range validLeadTemperatures {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lead temperature %q", value)
}
