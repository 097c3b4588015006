package models

import (
	"fmt"

	"isolationd/pkg/gregorian"
)

// StateKind tags the variant held by a LogicalState.
type StateKind int

const (
	KindNotIsolating StateKind = iota
	KindIsolating
	KindIsolationFinishedButNotAcknowledged
)

// StateKinds enumerates every variant. Switches over StateKind are checked
// against it in tests.
var StateKinds = []StateKind{
	KindNotIsolating,
	KindIsolating,
	KindIsolationFinishedButNotAcknowledged,
}

func (k StateKind) String() string {
	switch k {
	case KindNotIsolating:
		return "notIsolating"
	case KindIsolating:
		return "isolating"
	case KindIsolationFinishedButNotAcknowledged:
		return "isolationFinishedButNotAcknowledged"
	}
	return fmt.Sprintf("StateKind(%d)", int(k))
}

// LogicalState is the derived isolation classification. It is never persisted.
//
//   - NotIsolating: Isolation optionally holds a finished isolation kept for display
//   - Isolating: Isolation is active; the acknowledgement flags are copied from storage
//   - IsolationFinishedButNotAcknowledged: Isolation has ended but the subject was not told
type LogicalState struct {
	Kind              StateKind
	Isolation         *Isolation
	EndAcknowledged   bool
	StartAcknowledged bool
}

func NotIsolating(finished *Isolation) LogicalState {
	return LogicalState{Kind: KindNotIsolating, Isolation: finished}
}

func Isolating(isolation Isolation, endAcknowledged, startAcknowledged bool) LogicalState {
	return LogicalState{
		Kind:              KindIsolating,
		Isolation:         &isolation,
		EndAcknowledged:   endAcknowledged,
		StartAcknowledged: startAcknowledged,
	}
}

func FinishedButNotAcknowledged(isolation Isolation) LogicalState {
	return LogicalState{Kind: KindIsolationFinishedButNotAcknowledged, Isolation: &isolation}
}

func (s LogicalState) IsIsolating() bool { return s.Kind == KindIsolating }

// ActiveIsolation returns the isolation only while it is in force.
func (s LogicalState) ActiveIsolation() *Isolation {
	if s.Kind == KindIsolating {
		return s.Isolation
	}
	return nil
}

// Equal compares states by variant and payload.
func (s LogicalState) Equal(other LogicalState) bool {
	if s.Kind != other.Kind || s.EndAcknowledged != other.EndAcknowledged || s.StartAcknowledged != other.StartAcknowledged {
		return false
	}
	if s.Isolation == nil || other.Isolation == nil {
		return s.Isolation == nil && other.Isolation == nil
	}
	return s.Isolation.Equal(*other.Isolation)
}

// IsolationState is the two-way view shown to the subject.
type IsolationState struct {
	Isolating bool           `json:"isolating"`
	Isolation *Isolation     `json:"isolation,omitempty"`
	OptOutDay *gregorian.Day `json:"optOutOfContactIsolationDay,omitempty"`
}

// Isolate wraps an active isolation.
func Isolate(isolation Isolation) IsolationState {
	return IsolationState{Isolating: true, Isolation: &isolation}
}

// NoNeedToIsolate carries the daily-testing opt-out day when that ended isolation.
func NoNeedToIsolate(optOutDay *gregorian.Day) IsolationState {
	return IsolationState{OptOutDay: optOutDay}
}

// NewIsolationState projects a logical state onto the subject's view.
func NewIsolationState(state LogicalState) IsolationState {
	switch state.Kind {
	case KindIsolating:
		return Isolate(*state.Isolation)
	case KindNotIsolating, KindIsolationFinishedButNotAcknowledged:
		if state.Isolation != nil && state.Isolation.OptedOutForContactIsolation() {
			return NoNeedToIsolate(state.Isolation.Reason.ContactCase.OptOutOfIsolationDay)
		}
	}
	return NoNeedToIsolate(nil)
}
