package models

import (
	"time"

	"isolationd/pkg/gregorian"
)

// IndexCaseReason summarises the index-case evidence behind an isolation.
type IndexCaseReason struct {
	HasPositiveTestResult bool        `json:"hasPositiveTestResult"`
	IsConfirmed           bool        `json:"isConfirmed"`
	TestKitType           TestKitType `json:"testKitType,omitempty"`
	IsSelfDiagnosed       bool        `json:"isSelfDiagnosed"`
	IsPendingConfirmation bool        `json:"isPendingConfirmation"`
}

// ContactCaseReason summarises the contact-case evidence behind an isolation.
type ContactCaseReason struct {
	OptOutOfIsolationDay *gregorian.Day `json:"optOutOfIsolationDay,omitempty"`
}

// Reason records every evidence kind that contributed to an isolation.
type Reason struct {
	IndexCase   *IndexCaseReason   `json:"indexCase,omitempty"`
	ContactCase *ContactCaseReason `json:"contactCase,omitempty"`
}

// NewIndexCaseReason summarises info.
func NewIndexCaseReason(info IndexCaseInfo) *IndexCaseReason {
	r := &IndexCaseReason{IsSelfDiagnosed: info.SymptomaticInfo != nil}
	if t := info.TestInfo; t != nil && t.IsPositive() {
		r.HasPositiveTestResult = true
		r.IsConfirmed = !t.RequiresConfirmatoryTest
		r.IsPendingConfirmation = t.RequiresConfirmatoryTest
		r.TestKitType = t.TestKitType
	}
	return r
}

// NewContactCaseReason summarises info.
func NewContactCaseReason(info ContactCaseInfo) *ContactCaseReason {
	return &ContactCaseReason{OptOutOfIsolationDay: info.OptOutOfIsolationDay}
}

// Isolation is a resolved period: FromDay inclusive, UntilStartOfDay exclusive.
type Isolation struct {
	FromDay         gregorian.Day `json:"fromDay"`
	UntilStartOfDay gregorian.Day `json:"untilStartOfDay"`
	Reason          Reason        `json:"reason"`
}

// Equal compares isolations by value. Recomputed isolations with the same
// payload are equal even when built from different pointers.
func (i Isolation) Equal(other Isolation) bool {
	if i.FromDay != other.FromDay || i.UntilStartOfDay != other.UntilStartOfDay {
		return false
	}
	return i.Reason.Equal(other.Reason)
}

func (r Reason) Equal(other Reason) bool {
	if (r.IndexCase == nil) != (other.IndexCase == nil) {
		return false
	}
	if r.IndexCase != nil && *r.IndexCase != *other.IndexCase {
		return false
	}
	if (r.ContactCase == nil) != (other.ContactCase == nil) {
		return false
	}
	if r.ContactCase != nil {
		return equalDayPtr(r.ContactCase.OptOutOfIsolationDay, other.ContactCase.OptOutOfIsolationDay)
	}
	return true
}

func equalDayPtr(a, b *gregorian.Day) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (i Isolation) IsIndexCase() bool   { return i.Reason.IndexCase != nil }
func (i Isolation) IsContactCase() bool { return i.Reason.ContactCase != nil }

// IsContactCaseOnly reports an isolation driven purely by an exposure contact.
func (i Isolation) IsContactCaseOnly() bool {
	return i.IsContactCase() && !i.IsIndexCase()
}

func (i Isolation) HasPositiveTestResult() bool {
	return i.Reason.IndexCase != nil && i.Reason.IndexCase.HasPositiveTestResult
}

func (i Isolation) HasConfirmedPositiveTestResult() bool {
	return i.HasPositiveTestResult() && i.Reason.IndexCase.IsConfirmed
}

func (i Isolation) IsSelfDiagnosed() bool {
	return i.Reason.IndexCase != nil && i.Reason.IndexCase.IsSelfDiagnosed
}

func (i Isolation) IsPendingConfirmation() bool {
	return i.Reason.IndexCase != nil && i.Reason.IndexCase.IsPendingConfirmation
}

// OptedOutForContactIsolation reports a contact case ended by daily testing.
func (i Isolation) OptedOutForContactIsolation() bool {
	return i.Reason.ContactCase != nil && i.Reason.ContactCase.OptOutOfIsolationDay != nil
}

// EndDate is the instant the isolation ends in loc.
func (i Isolation) EndDate(loc *time.Location) time.Time {
	return gregorian.NewLocalDay(i.UntilStartOfDay, loc).StartOfDay()
}

// DaysRemaining counts the whole days left as of today, never negative.
func (i Isolation) DaysRemaining(today gregorian.Day) int {
	return max(0, i.UntilStartOfDay.DaysSince(today))
}
