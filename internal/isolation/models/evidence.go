// Package models holds the isolation evidence values and the states derived from them.
package models

import (
	"isolationd/pkg/gregorian"
)

// Result is the outcome of a virology test.
type Result string

const (
	ResultPositive Result = "positive"
	ResultNegative Result = "negative"
	ResultVoid     Result = "void"
	ResultPlod     Result = "plod"
)

func (r Result) IsValid() bool {
	switch r {
	case ResultPositive, ResultNegative, ResultVoid, ResultPlod:
		return true
	}
	return false
}

// TestKitType identifies how a test was taken and reported.
type TestKitType string

const (
	TestKitLabResult         TestKitType = "labResult"
	TestKitRapidResult       TestKitType = "rapidResult"
	TestKitRapidSelfReported TestKitType = "rapidSelfReported"
)

func (k TestKitType) IsValid() bool {
	switch k {
	case TestKitLabResult, TestKitRapidResult, TestKitRapidSelfReported:
		return true
	}
	return false
}

// SymptomaticInfo is a self-reported symptom diagnosis.
type SymptomaticInfo struct {
	SelfDiagnosisDay gregorian.Day  `json:"selfDiagnosisDay"`
	OnsetDay         *gregorian.Day `json:"onsetDay,omitempty"`
}

// AssumedOnsetDay is the reported onset, or two days before self-diagnosis
// when the subject could not recall it. An onset after self-diagnosis is
// accepted as reported.
func (s SymptomaticInfo) AssumedOnsetDay() gregorian.Day {
	if s.OnsetDay != nil {
		return *s.OnsetDay
	}
	return s.SelfDiagnosisDay.AddDays(-2)
}

// TestInfo is the single stored test result of an index case.
type TestInfo struct {
	Result                   Result         `json:"result"`
	TestKitType              TestKitType    `json:"testKitType"`
	RequiresConfirmatoryTest bool           `json:"requiresConfirmatoryTest"`
	ReceivedOnDay            gregorian.Day  `json:"receivedOnDay"`
	TestEndDay               *gregorian.Day `json:"testEndDay,omitempty"`
	ConfirmatoryDayLimit     *int           `json:"confirmatoryDayLimit,omitempty"`
	ConfirmedOnDay           *gregorian.Day `json:"confirmedOnDay,omitempty"`
}

// AssumedTestEndDay falls back to the day the result was received.
func (t TestInfo) AssumedTestEndDay() gregorian.Day {
	if t.TestEndDay != nil {
		return *t.TestEndDay
	}
	return t.ReceivedOnDay
}

func (t TestInfo) IsPositive() bool { return t.Result == ResultPositive }

// IsConfirmedPositive reports a positive that needs no further confirmation.
func (t TestInfo) IsConfirmedPositive() bool {
	return t.IsPositive() && !t.RequiresConfirmatoryTest
}

// IsPendingConfirmation reports a positive still awaiting a confirmatory test.
func (t TestInfo) IsPendingConfirmation() bool {
	return t.IsPositive() && t.RequiresConfirmatoryTest
}

// ContactCaseInfo records an exposure-notification contact.
type ContactCaseInfo struct {
	ExposureDay             gregorian.Day  `json:"exposureDay"`
	IsolationFromStartOfDay gregorian.Day  `json:"isolationFromStartOfDay"`
	OptOutOfIsolationDay    *gregorian.Day `json:"optOutOfIsolationDay,omitempty"`
}

// IndexCaseInfo is the merged "I am a case" evidence.
type IndexCaseInfo struct {
	SymptomaticInfo *SymptomaticInfo `json:"symptomaticInfo,omitempty"`
	TestInfo        *TestInfo        `json:"testInfo,omitempty"`
}

// IsEmpty reports an index case with neither symptoms nor a test.
func (i IndexCaseInfo) IsEmpty() bool {
	return i.SymptomaticInfo == nil && i.TestInfo == nil
}

// IsolationInfo is the full persisted evidence record.
type IsolationInfo struct {
	IndexCaseInfo   *IndexCaseInfo   `json:"indexCaseInfo,omitempty"`
	ContactCaseInfo *ContactCaseInfo `json:"contactCaseInfo,omitempty"`
}

// IsEmpty reports that no evidence is held.
func (i IsolationInfo) IsEmpty() bool {
	return (i.IndexCaseInfo == nil || i.IndexCaseInfo.IsEmpty()) && i.ContactCaseInfo == nil
}

// TestInfo returns the stored test, if any.
func (i IsolationInfo) TestInfo() *TestInfo {
	if i.IndexCaseInfo == nil {
		return nil
	}
	return i.IndexCaseInfo.TestInfo
}

// SymptomaticInfo returns the stored symptoms, if any.
func (i IsolationInfo) SymptomaticInfo() *SymptomaticInfo {
	if i.IndexCaseInfo == nil {
		return nil
	}
	return i.IndexCaseInfo.SymptomaticInfo
}

// IsolationStateInfo is the evidence plus the acknowledgement bookkeeping the
// store owns.
type IsolationStateInfo struct {
	IsolationInfo                   IsolationInfo `json:"isolationInfo"`
	HasAcknowledgedStartOfIsolation bool          `json:"hasAcknowledgedStartOfIsolation"`
	HasAcknowledgedEndOfIsolation   bool          `json:"hasAcknowledgedEndOfIsolation"`
	CreatedOn                       gregorian.Day `json:"createdOn"`
}
