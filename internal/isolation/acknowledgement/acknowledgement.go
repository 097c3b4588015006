// Package acknowledgement derives which acknowledgement the subject owes from
// a logical state and the wall clock.
package acknowledgement

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"isolationd/internal/isolation/models"
)

// EndWarningThreshold is how long before the end of isolation the end
// acknowledgement becomes due.
const EndWarningThreshold = 3 * time.Hour

// Kind tags the acknowledgement variant.
type Kind int

const (
	KindNotNeeded Kind = iota
	KindNeededForStart
	KindNeededForEnd
)

func (k Kind) String() string {
	switch k {
	case KindNotNeeded:
		return "notNeeded"
	case KindNeededForStart:
		return "neededForStart"
	case KindNeededForEnd:
		return "neededForEnd"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// tokenNamespace scopes acknowledgement tokens so equal payloads always
// produce the same token.
var tokenNamespace = uuid.MustParse("6f1d4c1e-2a7b-4d0e-9a55-3c1f0b8e7d21")

// Token identifies one pending acknowledgement. Acknowledging with a token
// that no longer matches the pending state is a no-op.
type Token uuid.UUID

func (t Token) String() string { return uuid.UUID(t).String() }

func (t Token) IsZero() bool { return uuid.UUID(t) == uuid.Nil }

// ParseToken reads a token from external input.
func ParseToken(s string) (Token, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Token{}, fmt.Errorf("parse acknowledgement token: %w", err)
	}
	return Token(u), nil
}

// State is a derived acknowledgement requirement.
type State struct {
	Kind      Kind
	Isolation *models.Isolation
	Token     Token
}

// NotNeeded is the zero acknowledgement.
func NotNeeded() State { return State{Kind: KindNotNeeded} }

// NeededForStart asks the subject to acknowledge that isolation started.
func NeededForStart(isolation models.Isolation) State {
	return newState(KindNeededForStart, isolation)
}

// NeededForEnd asks the subject to acknowledge that isolation is ending or has ended.
func NeededForEnd(isolation models.Isolation) State {
	return newState(KindNeededForEnd, isolation)
}

func newState(kind Kind, isolation models.Isolation) State {
	return State{Kind: kind, Isolation: &isolation, Token: tokenFor(kind, isolation)}
}

// tokenFor hashes the variant and the isolation payload.
func tokenFor(kind Kind, isolation models.Isolation) Token {
	payload := fmt.Sprintf("%s|%s|%s|%s", kind, isolation.FromDay, isolation.UntilStartOfDay, reasonKey(isolation.Reason))
	return Token(uuid.NewSHA1(tokenNamespace, []byte(payload)))
}

func reasonKey(r models.Reason) string {
	key := "index:none"
	if ic := r.IndexCase; ic != nil {
		key = fmt.Sprintf("index:%t/%t/%s/%t/%t", ic.HasPositiveTestResult, ic.IsConfirmed, ic.TestKitType, ic.IsSelfDiagnosed, ic.IsPendingConfirmation)
	}
	if cc := r.ContactCase; cc != nil {
		optOut := "none"
		if cc.OptOutOfIsolationDay != nil {
			optOut = cc.OptOutOfIsolationDay.String()
		}
		return key + "|contact:" + optOut
	}
	return key + "|contact:none"
}

// Equal compares by variant and isolation payload.
func (s State) Equal(other State) bool {
	if s.Kind != other.Kind {
		return false
	}
	if s.Isolation == nil || other.Isolation == nil {
		return s.Isolation == nil && other.Isolation == nil
	}
	return s.Isolation.Equal(*other.Isolation)
}

// Derive computes the acknowledgement owed for state at now. The end
// threshold is measured against the start of UntilStartOfDay in loc.
func Derive(state models.LogicalState, now time.Time, loc *time.Location) State {
	switch state.Kind {
	case models.KindIsolating:
		isolation := *state.Isolation
		if !state.StartAcknowledged {
			return NeededForStart(isolation)
		}
		if !state.EndAcknowledged && isolation.EndDate(loc).Sub(now) <= EndWarningThreshold {
			return NeededForEnd(isolation)
		}
		return NotNeeded()
	case models.KindIsolationFinishedButNotAcknowledged:
		return NeededForEnd(*state.Isolation)
	case models.KindNotIsolating:
		return NotNeeded()
	}
	return NotNeeded()
}

// Tracker turns a stream of derived states into a deduplicated, monotonic
// signal for one subject. Once NeededForEnd is signalled for an isolation it
// stays signalled until the end is acknowledged or the isolation changes.
type Tracker struct {
	mu      sync.Mutex
	last    *State
	latched *models.Isolation
}

// Observe folds the next derivation in. It returns the state to publish and
// whether it differs from the previously published one.
func (t *Tracker) Observe(logical models.LogicalState, derived State) (State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := t.applyLatch(logical, derived)
	if t.last != nil && t.last.Equal(next) {
		return *t.last, false
	}
	t.last = &next
	return next, true
}

// Current returns the last published state.
func (t *Tracker) Current() (State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last == nil {
		return State{}, false
	}
	return *t.last, true
}

func (t *Tracker) applyLatch(logical models.LogicalState, derived State) State {
	if derived.Kind == KindNeededForEnd {
		isolation := *derived.Isolation
		t.latched = &isolation
		return derived
	}
	stillOwed := logical.Kind == models.KindIsolating &&
		logical.StartAcknowledged &&
		!logical.EndAcknowledged &&
		t.latched != nil &&
		t.latched.Equal(*logical.Isolation)
	if stillOwed {
		return NeededForEnd(*t.latched)
	}
	t.latched = nil
	return derived
}
