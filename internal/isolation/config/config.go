// Package config holds the versioned isolation policy and the cache that keeps
// the last-known-good copy available while a background refresh runs.
package config

import (
	"encoding/json"
	"fmt"

	id "isolationd/pkg/domain"
	dErrors "isolationd/pkg/domain-errors"
)

// IsolationConfiguration is the set of day counts that shape an isolation
// period for one country. It is an immutable value; refreshes replace it.
type IsolationConfiguration struct {
	MaxIsolation                            int  `json:"maxIsolation"`
	ContactCase                             int  `json:"contactCase"`
	IndexCaseSinceSelfDiagnosisOnset        int  `json:"indexCaseSinceSelfDiagnosisOnset"`
	IndexCaseSinceSelfDiagnosisUnknownOnset int  `json:"indexCaseSinceSelfDiagnosisUnknownOnset"`
	IndexCaseSinceTestResultEndDay          int  `json:"indexCaseSinceTestResultEndDate"`
	HousekeepingDeletionPeriod              int  `json:"housekeepingDeletionPeriod"`
	ConfirmatoryDayLimit                    *int `json:"confirmatoryDayLimit,omitempty"`
}

// Default returns the policy used before any document has been fetched.
func Default() IsolationConfiguration {
	return IsolationConfiguration{
		MaxIsolation:                            21,
		ContactCase:                             11,
		IndexCaseSinceSelfDiagnosisOnset:        11,
		IndexCaseSinceSelfDiagnosisUnknownOnset: 9,
		IndexCaseSinceTestResultEndDay:          11,
		HousekeepingDeletionPeriod:              14,
	}
}

// Validate rejects non-positive durations.
func (c IsolationConfiguration) Validate() error {
	checks := []struct {
		name  string
		value int
	}{
		{"maxIsolation", c.MaxIsolation},
		{"contactCase", c.ContactCase},
		{"indexCaseSinceSelfDiagnosisOnset", c.IndexCaseSinceSelfDiagnosisOnset},
		{"indexCaseSinceSelfDiagnosisUnknownOnset", c.IndexCaseSinceSelfDiagnosisUnknownOnset},
		{"indexCaseSinceTestResultEndDate", c.IndexCaseSinceTestResultEndDay},
		{"housekeepingDeletionPeriod", c.HousekeepingDeletionPeriod},
	}
	for _, check := range checks {
		if check.value <= 0 {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s must be positive", check.name))
		}
	}
	if c.ConfirmatoryDayLimit != nil && *c.ConfirmatoryDayLimit < 0 {
		return dErrors.New(dErrors.CodeValidation, "confirmatoryDayLimit cannot be negative")
	}
	return nil
}

// Document is the published policy: one configuration per country, stamped
// with a monotonically increasing version.
type Document struct {
	Version   int                                   `json:"version"`
	Countries map[id.Country]IsolationConfiguration `json:"countries"`
}

// DefaultDocument carries Default for every supported country at version 0.
func DefaultDocument() Document {
	return Document{
		Version: 0,
		Countries: map[id.Country]IsolationConfiguration{
			id.CountryEngland: Default(),
			id.CountryWales:   Default(),
		},
	}
}

// ParseDocument decodes and validates a raw policy document.
func ParseDocument(raw []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, dErrors.Wrap(err, dErrors.CodeValidation, "decode isolation policy")
	}
	if len(doc.Countries) == 0 {
		return Document{}, dErrors.New(dErrors.CodeValidation, "isolation policy has no countries")
	}
	for country, cfg := range doc.Countries {
		if !country.IsValid() {
			return Document{}, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unsupported country %q", country))
		}
		if err := cfg.Validate(); err != nil {
			return Document{}, dErrors.Wrap(err, dErrors.CodeValidation, fmt.Sprintf("policy for %s", country))
		}
	}
	return doc, nil
}

// For returns the configuration for country.
func (d Document) For(country id.Country) (IsolationConfiguration, bool) {
	cfg, ok := d.Countries[country]
	return cfg, ok
}
