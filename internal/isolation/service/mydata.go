package service

import (
	"context"

	"isolationd/internal/isolation/metrics"
	"isolationd/internal/isolation/models"
	"isolationd/pkg/gregorian"
)

// ConfirmationStatus describes where a stored test stands on confirmation.
type ConfirmationStatus string

const (
	ConfirmationPending     ConfirmationStatus = "pending"
	ConfirmationNotRequired ConfirmationStatus = "notRequired"
	ConfirmationCompleted   ConfirmationStatus = "completed"
)

type TestResultDetails struct {
	Result             models.Result      `json:"result"`
	TestKitType        models.TestKitType `json:"testKitType"`
	ReceivedOnDay      gregorian.Day      `json:"receivedOnDay"`
	TestEndDay         gregorian.Day      `json:"testEndDay"`
	ConfirmationStatus ConfirmationStatus `json:"confirmationStatus"`
	ConfirmedOnDay     *gregorian.Day     `json:"confirmedOnDay,omitempty"`
}

type ExposureDetails struct {
	EncounterDay    gregorian.Day `json:"encounterDay"`
	NotificationDay gregorian.Day `json:"notificationDay"`
}

// MyData is the summary of held evidence shown to the subject.
type MyData struct {
	TestResultDetails    *TestResultDetails `json:"testResultDetails,omitempty"`
	SymptomsOnsetDay     *gregorian.Day     `json:"symptomsOnsetDay,omitempty"`
	ExposureDetails      *ExposureDetails   `json:"exposureDetails,omitempty"`
	SelfIsolationEndDay  *gregorian.Day     `json:"selfIsolationEndDay,omitempty"`
	DailyTestingOptInDay *gregorian.Day     `json:"dailyTestingOptInDay,omitempty"`
}

// MyData summarises the stored evidence and the current isolation.
func (c *Context) MyData(ctx context.Context) MyData {
	info := c.store.IsolationInfo()
	var data MyData

	if test := info.TestInfo(); test != nil {
		details := &TestResultDetails{
			Result:             test.Result,
			TestKitType:        test.TestKitType,
			ReceivedOnDay:      test.ReceivedOnDay,
			TestEndDay:         test.AssumedTestEndDay(),
			ConfirmationStatus: ConfirmationNotRequired,
		}
		switch {
		case test.RequiresConfirmatoryTest:
			details.ConfirmationStatus = ConfirmationPending
		case test.ConfirmedOnDay != nil:
			confirmedOn := *test.ConfirmedOnDay
			details.ConfirmationStatus = ConfirmationCompleted
			details.ConfirmedOnDay = &confirmedOn
		}
		data.TestResultDetails = details
	}
	if symptoms := info.SymptomaticInfo(); symptoms != nil {
		onset := symptoms.AssumedOnsetDay()
		data.SymptomsOnsetDay = &onset
	}
	if contact := info.ContactCaseInfo; contact != nil {
		data.ExposureDetails = &ExposureDetails{
			EncounterDay:    contact.ExposureDay,
			NotificationDay: contact.IsolationFromStartOfDay,
		}
	}

	state := c.IsolationState(ctx)
	if state.Isolating && state.Isolation != nil {
		end := state.Isolation.UntilStartOfDay
		data.SelfIsolationEndDay = &end
	}
	if state.OptOutDay != nil {
		optIn := *state.OptOutDay
		data.DailyTestingOptInDay = &optIn
	}
	return data
}

// RecordMetrics reports what this subject contributes to the background
// metrics tick.
func (c *Context) RecordMetrics(ctx context.Context) metrics.Conditions {
	state := c.LogicalState(ctx)
	var conditions metrics.Conditions
	switch state.Kind {
	case models.KindIsolating:
		isolation := state.Isolation
		conditions.Isolating = true
		conditions.IsolatingForSelfDiagnosis = isolation.IsSelfDiagnosed()
		conditions.TestedPositive = isolation.HasPositiveTestResult()
		conditions.HadRiskyContact = isolation.IsContactCase()
		conditions.PendingConfirmation = isolation.IsPendingConfirmation()
	case models.KindIsolationFinishedButNotAcknowledged:
		conditions.FinishedButNotAcknowledged = true
	}
	return conditions
}

// Housekeep deletes the subject's record once it no longer matters. It
// reports whether the record was deleted.
func (c *Context) Housekeep(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deleted, err := c.store.Housekeep(ctx, c.today(ctx), c.config())
	if err != nil {
		return false, c.storeError(ctx, err, "failed to housekeep isolation state")
	}
	if deleted {
		c.logger.InfoContext(ctx, "housekept isolation state", "subject_id", c.subjectID.String())
		c.Snapshot(ctx)
	}
	return deleted, nil
}
