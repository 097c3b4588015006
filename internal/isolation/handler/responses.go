package handler

import (
	"time"

	"isolationd/internal/isolation/acknowledgement"
	"isolationd/internal/isolation/models"
	"isolationd/internal/isolation/service"
	"isolationd/pkg/gregorian"
)

// StateResponse is the response for GET .../isolation.
type StateResponse struct {
	State                      string                  `json:"state"`
	Isolating                  bool                    `json:"isolating"`
	Isolation                  *models.Isolation       `json:"isolation,omitempty"`
	DaysRemaining              *int                    `json:"daysRemaining,omitempty"`
	EndsAt                     *time.Time              `json:"endsAt,omitempty"`
	OptOutOfContactIsolationOn *gregorian.Day          `json:"optOutOfContactIsolationDay,omitempty"`
	DailyContactTesting        bool                    `json:"dailyContactTesting"`
	Acknowledgement            AcknowledgementResponse `json:"acknowledgement"`
}

type AcknowledgementResponse struct {
	Kind  string `json:"kind"`
	Token string `json:"token,omitempty"`
}

func fromAcknowledgement(state acknowledgement.State) AcknowledgementResponse {
	resp := AcknowledgementResponse{Kind: state.Kind.String()}
	if state.Kind != acknowledgement.KindNotNeeded {
		resp.Token = state.Token.String()
	}
	return resp
}

// FromSnapshot renders a snapshot as of today in loc.
func FromSnapshot(snapshot service.Snapshot, dailyContactTesting bool, today gregorian.Day, loc *time.Location) StateResponse {
	resp := StateResponse{
		State:                      snapshot.LogicalState.Kind.String(),
		Isolating:                  snapshot.IsolationState.Isolating,
		Isolation:                  snapshot.LogicalState.Isolation,
		OptOutOfContactIsolationOn: snapshot.IsolationState.OptOutDay,
		DailyContactTesting:        dailyContactTesting,
		Acknowledgement:            fromAcknowledgement(snapshot.Acknowledgement),
	}
	if active := snapshot.IsolationState.Isolation; snapshot.IsolationState.Isolating && active != nil {
		days := active.DaysRemaining(today)
		endsAt := active.EndDate(loc)
		resp.DaysRemaining = &days
		resp.EndsAt = &endsAt
	}
	return resp
}

type AcknowledgeResponse struct {
	Acknowledged bool `json:"acknowledged"`
}

// SymptomsResponse is the response for POST .../isolation/symptoms.
type SymptomsResponse struct {
	IsolationState models.IsolationState             `json:"isolationState"`
	ExistingTest   service.ExistingPositiveTestState `json:"existingPositiveTest"`
}

// ResultPreviewResponse is the response for POST .../isolation/test-results.
type ResultPreviewResponse struct {
	Kind         string                `json:"kind"`
	Token        string                `json:"token,omitempty"`
	TestEndDay   gregorian.Day         `json:"testEndDay"`
	Operation    models.StoreOperation `json:"operation,omitempty"`
	CurrentState string                `json:"currentState,omitempty"`
	NewState     string                `json:"newState,omitempty"`
	NewIsolation *models.Isolation     `json:"newIsolation,omitempty"`
}

func FromResultAcknowledgement(ack service.ResultAcknowledgement) ResultPreviewResponse {
	resp := ResultPreviewResponse{Kind: string(ack.Kind), TestEndDay: ack.TestEndDay}
	if ack.Kind == service.ResultKindAskForSymptomsOnsetDay {
		return resp
	}
	resp.Token = ack.Token.String()
	resp.Operation = ack.Operation
	resp.CurrentState = ack.CurrentState.Kind.String()
	resp.NewState = ack.NewState.Kind.String()
	resp.NewIsolation = ack.NewState.ActiveIsolation()
	return resp
}

type ContactCaseResponse struct {
	IsolationState models.IsolationState `json:"isolationState"`
}
