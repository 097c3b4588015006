package domain

import (
	dErrors "isolationd/pkg/domain-errors"
)

// Country selects which isolation policy applies to a subject.
type Country string

const (
	CountryEngland Country = "england"
	CountryWales   Country = "wales"
)

// validCountries is the single source of truth for supported policy regions.
var validCountries = map[Country]bool{
	CountryEngland: true,
	CountryWales:   true,
}

// ParseCountry constructs a Country from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseCountry(s string) (Country, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "country cannot be empty")
	}
	c := Country(s)
	if !c.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported country")
	}
	return c, nil
}

// IsValid checks if the country has a published isolation policy.
func (c Country) IsValid() bool {
	return validCountries[c]
}

func (c Country) String() string {
	return string(c)
}
