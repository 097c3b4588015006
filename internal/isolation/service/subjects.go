package service

import (
	"context"

	"isolationd/internal/isolation/acknowledgement"
	"isolationd/internal/isolation/models"
	id "isolationd/pkg/domain"
	"isolationd/pkg/gregorian"
)

// The methods below address a subject by ID so transports need not hold
// Context values.

// State is the subject's current snapshot and whether daily contact testing
// is on offer.
func (m *Manager) State(ctx context.Context, subjectID id.SubjectID) (Snapshot, bool, error) {
	c, err := m.Get(ctx, subjectID)
	if err != nil {
		return Snapshot{}, false, err
	}
	return c.Snapshot(ctx), c.DailyContactTestingSupport(ctx), nil
}

func (m *Manager) MyData(ctx context.Context, subjectID id.SubjectID) (MyData, error) {
	c, err := m.Get(ctx, subjectID)
	if err != nil {
		return MyData{}, err
	}
	return c.MyData(ctx), nil
}

func (m *Manager) Acknowledge(ctx context.Context, subjectID id.SubjectID, token acknowledgement.Token) (bool, error) {
	c, err := m.Get(ctx, subjectID)
	if err != nil {
		return false, err
	}
	return c.Acknowledge(ctx, token)
}

func (m *Manager) HandleSymptoms(ctx context.Context, subjectID id.SubjectID, onsetDay *gregorian.Day) (models.IsolationState, ExistingPositiveTestState, error) {
	c, err := m.Get(ctx, subjectID)
	if err != nil {
		return models.IsolationState{}, ExistingPositiveTestState{}, err
	}
	return c.HandleSymptomsIsolationState(ctx, onsetDay)
}

func (m *Manager) SetShouldAskForSymptoms(ctx context.Context, subjectID id.SubjectID, shouldAsk bool) error {
	c, err := m.Get(ctx, subjectID)
	if err != nil {
		return err
	}
	c.SetShouldAskForSymptoms(shouldAsk)
	return nil
}

func (m *Manager) SetSymptomsOnsetDay(ctx context.Context, subjectID id.SubjectID, onsetDay gregorian.Day) error {
	c, err := m.Get(ctx, subjectID)
	if err != nil {
		return err
	}
	return c.SetSymptomsOnsetDay(ctx, onsetDay)
}

func (m *Manager) ConfirmSymptoms(ctx context.Context, subjectID id.SubjectID) error {
	c, err := m.Get(ctx, subjectID)
	if err != nil {
		return err
	}
	c.ConfirmSymptoms(ctx)
	return nil
}

func (m *Manager) PreviewResult(ctx context.Context, subjectID id.SubjectID, result models.TestResult) (ResultAcknowledgement, error) {
	c, err := m.Get(ctx, subjectID)
	if err != nil {
		return ResultAcknowledgement{}, err
	}
	return c.MakeResultAcknowledgementState(ctx, result)
}

func (m *Manager) AcknowledgeResult(ctx context.Context, subjectID id.SubjectID, token acknowledgement.Token) (CompletionActions, error) {
	c, err := m.Get(ctx, subjectID)
	if err != nil {
		return CompletionActions{}, err
	}
	return c.AcknowledgeResult(ctx, token)
}

func (m *Manager) HandleContactCase(ctx context.Context, subjectID id.SubjectID, risk models.RiskInfo) (models.IsolationState, error) {
	c, err := m.Get(ctx, subjectID)
	if err != nil {
		return models.IsolationState{}, err
	}
	return c.HandleContactCase(ctx, risk)
}

func (m *Manager) OptOutOfContactIsolation(ctx context.Context, subjectID id.SubjectID) error {
	c, err := m.Get(ctx, subjectID)
	if err != nil {
		return err
	}
	return c.OptOutOfContactIsolation(ctx)
}
