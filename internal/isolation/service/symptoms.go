package service

import (
	"context"

	"isolationd/internal/isolation/models"
	"isolationd/internal/isolation/ports"
	"isolationd/internal/isolation/resolver"
	"isolationd/pkg/gregorian"
)

// ExistingPositiveTestState tells the self-diagnosis flow how a positive test
// already driving isolation relates to newly reported symptoms.
type ExistingPositiveTestState struct {
	HasTest                         bool `json:"hasTest"`
	ShouldChangeAdviceDueToSymptoms bool `json:"shouldChangeAdviceDueToSymptoms"`
}

// HandleSymptomsIsolationState records a self-diagnosis made today. When an
// active isolation is already driven by a positive test, symptoms that
// started on or before the test are not stored: the test already covers
// them and the advice does not change.
func (c *Context) HandleSymptomsIsolationState(ctx context.Context, onsetDay *gregorian.Day) (models.IsolationState, ExistingPositiveTestState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	today := c.today(ctx)
	cfg := c.config()
	current := resolver.Resolve(c.store.StateInfo(), today, cfg)
	symptoms := models.SymptomaticInfo{SelfDiagnosisDay: today, OnsetDay: onsetDay}

	active := current.ActiveIsolation()
	storedTest := c.store.IsolationInfo().TestInfo()
	if active != nil && active.HasPositiveTestResult() && storedTest != nil {
		if !symptoms.AssumedOnsetDay().After(storedTest.AssumedTestEndDay()) {
			return models.NewIsolationState(current), ExistingPositiveTestState{HasTest: true}, nil
		}
		test := *storedTest
		if err := c.store.SetIndexCaseInfo(ctx, models.IndexCaseInfo{SymptomaticInfo: &symptoms, TestInfo: &test}); err != nil {
			return models.IsolationState{}, ExistingPositiveTestState{}, c.storeError(ctx, err, "failed to store symptoms")
		}
		c.signpost(ctx, ports.SignpostCompletedSelfDiagnosis, "existing_positive_test", "true")
		return c.Snapshot(ctx).IsolationState, ExistingPositiveTestState{HasTest: true, ShouldChangeAdviceDueToSymptoms: true}, nil
	}

	if err := c.store.SetIndexCaseInfo(ctx, models.IndexCaseInfo{SymptomaticInfo: &symptoms}); err != nil {
		return models.IsolationState{}, ExistingPositiveTestState{}, c.storeError(ctx, err, "failed to store symptoms")
	}
	c.signpost(ctx, ports.SignpostCompletedSelfDiagnosis, "existing_positive_test", "false")
	return c.Snapshot(ctx).IsolationState, ExistingPositiveTestState{}, nil
}

// SetShouldAskForSymptoms controls whether the next result acknowledgement
// first asks the subject when their symptoms started.
func (c *Context) SetShouldAskForSymptoms(shouldAsk bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shouldAskForSymptoms = shouldAsk
}

// ShouldAskForSymptoms reports the flag set by SetShouldAskForSymptoms.
func (c *Context) ShouldAskForSymptoms() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shouldAskForSymptoms
}

// SetSymptomsOnsetDay stores symptoms the subject remembered while being
// asked before a test result, and stops asking.
func (c *Context) SetSymptomsOnsetDay(ctx context.Context, onsetDay gregorian.Day) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	symptoms := models.SymptomaticInfo{SelfDiagnosisDay: c.today(ctx), OnsetDay: &onsetDay}
	if err := c.store.SetIndexCaseInfo(ctx, models.IndexCaseInfo{SymptomaticInfo: &symptoms}); err != nil {
		return c.storeError(ctx, err, "failed to store symptoms onset day")
	}
	c.shouldAskForSymptoms = false
	c.signpost(ctx, ports.SignpostDidRememberOnsetSymptomsDateBeforeReceivedTestResult)
	c.Snapshot(ctx)
	return nil
}

// ConfirmSymptoms records that the subject had symptoms before the result.
func (c *Context) ConfirmSymptoms(ctx context.Context) {
	c.signpost(ctx, ports.SignpostDidHaveSymptomsBeforeReceivedTestResult)
}
