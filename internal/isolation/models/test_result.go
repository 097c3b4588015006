package models

import (
	"fmt"

	dErrors "isolationd/pkg/domain-errors"
	"isolationd/pkg/gregorian"
)

// TestResult is an incoming virology result handed over by the test-result
// flow. It is not yet stored; a StoreOperation decides how it is folded in.
type TestResult struct {
	Result                   Result        `json:"result"`
	TestKitType              TestKitType   `json:"testKitType"`
	EndDay                   gregorian.Day `json:"endDay"`
	RequiresConfirmatoryTest bool          `json:"requiresConfirmatoryTest"`
	ConfirmatoryDayLimit     *int          `json:"confirmatoryDayLimit,omitempty"`
}

// Validate checks the result at the trust boundary.
func (r TestResult) Validate() error {
	if !r.Result.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown test result %q", r.Result))
	}
	if !r.TestKitType.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown test kit type %q", r.TestKitType))
	}
	if r.EndDay.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "test end day is required")
	}
	if r.ConfirmatoryDayLimit != nil && *r.ConfirmatoryDayLimit < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "confirmatory day limit cannot be negative")
	}
	if r.RequiresConfirmatoryTest && r.Result != ResultPositive {
		return dErrors.New(dErrors.CodeInvalidInput, "only positive results can require confirmation")
	}
	return nil
}

// TestInfo converts the result into stored form as received on receivedOn.
func (r TestResult) TestInfo(receivedOn gregorian.Day) TestInfo {
	endDay := r.EndDay
	return TestInfo{
		Result:                   r.Result,
		TestKitType:              r.TestKitType,
		RequiresConfirmatoryTest: r.RequiresConfirmatoryTest,
		ReceivedOnDay:            receivedOn,
		TestEndDay:               &endDay,
		ConfirmatoryDayLimit:     r.ConfirmatoryDayLimit,
	}
}

// StoreOperation is how an incoming test result is folded into stored evidence.
type StoreOperation string

const (
	OperationOverwrite            StoreOperation = "overwrite"
	OperationOverwriteAndComplete StoreOperation = "overwriteAndComplete"
	OperationIgnore               StoreOperation = "ignore"
	OperationConfirm              StoreOperation = "confirm"
)

// RiskInfo describes an exposure-notification contact risky enough to isolate.
type RiskInfo struct {
	ExposureDay gregorian.Day `json:"exposureDay"`
	RiskScore   float64       `json:"riskScore"`
}

func (r RiskInfo) Validate() error {
	if r.ExposureDay.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "exposure day is required")
	}
	return nil
}
