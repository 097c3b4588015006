// Package store owns the persisted isolation evidence of one subject. Every
// mutation is written to the backend before it becomes visible in memory or
// to subscribers, so a failed write leaves the previous value in force.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"isolationd/internal/isolation/config"
	"isolationd/internal/isolation/merge"
	"isolationd/internal/isolation/models"
	"isolationd/internal/isolation/resolver"
	"isolationd/pkg/gregorian"
	"isolationd/pkg/platform/sentinel"
	"isolationd/pkg/requestcontext"
)

// Backend persists opaque bytes by key. Implementations are pure I/O and
// return sentinel.ErrNotFound for absent keys.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Lister is implemented by backends that can enumerate stored keys.
type Lister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Snapshot is published to subscribers after every successful mutation.
// Info is nil once the record has been deleted.
type Snapshot struct {
	Revision uint64
	Info     *models.IsolationStateInfo
}

// Store serialises all writes for one subject.
type Store struct {
	mu            sync.Mutex
	backend       Backend
	key           string
	codec         *Codec
	logger        *slog.Logger
	configuration func() config.IsolationConfiguration
	today         func(ctx context.Context) gregorian.Day

	current  *models.IsolationStateInfo
	revision uint64

	subMu       sync.Mutex
	subscribers map[int]chan Snapshot
	nextSubID   int
}

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithCodec sets how values are encoded; the default is plaintext JSON.
func WithCodec(codec *Codec) Option {
	return func(s *Store) {
		s.codec = codec
	}
}

// WithConfiguration supplies the policy used to detect a new isolation.
func WithConfiguration(fn func() config.IsolationConfiguration) Option {
	return func(s *Store) {
		s.configuration = fn
	}
}

// WithToday supplies the current day for bookkeeping.
func WithToday(fn func(ctx context.Context) gregorian.Day) Option {
	return func(s *Store) {
		s.today = fn
	}
}

// New loads the subject's record from backend. A record that cannot be
// decoded is logged and treated as absent so the subject is not locked out.
func New(ctx context.Context, backend Backend, key string, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("isolation store backend is required")
	}
	if key == "" {
		return nil, fmt.Errorf("isolation store key is required")
	}
	s := &Store{
		backend:       backend,
		key:           key,
		logger:        slog.Default(),
		configuration: config.Default,
		today: func(ctx context.Context) gregorian.Day {
			return gregorian.Today(requestcontext.Now(ctx), time.Local).Day
		},
		subscribers: make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.codec == nil {
		s.codec, _ = NewCodec(nil)
	}

	raw, err := backend.Load(ctx, key)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("load isolation state: %w", err)
	}
	info, err := s.codec.Decode(raw)
	if err != nil {
		s.logger.ErrorContext(ctx, "discarding unreadable isolation state", "key", key, "error", err)
		return s, nil
	}
	s.current = &info
	return s, nil
}

// StateInfo returns a copy of the current record, or nil.
func (s *Store) StateInfo() *models.IsolationStateInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.current)
}

// IsolationInfo returns the current evidence, empty when none is held.
func (s *Store) IsolationInfo() models.IsolationInfo {
	if info := s.StateInfo(); info != nil {
		return info.IsolationInfo
	}
	return models.IsolationInfo{}
}

// Configuration returns the policy the store evaluates transitions against.
func (s *Store) Configuration() config.IsolationConfiguration {
	return s.configuration()
}

// SetSymptomaticInfo records symptoms, keeping any stored test.
func (s *Store) SetSymptomaticInfo(ctx context.Context, info models.SymptomaticInfo) error {
	return s.commit(ctx, "set_symptomatic_info", func(state *models.IsolationStateInfo) *models.IsolationStateInfo {
		index := models.IndexCaseInfo{}
		if state.IsolationInfo.IndexCaseInfo != nil {
			index = *state.IsolationInfo.IndexCaseInfo
		}
		index.SymptomaticInfo = &info
		state.IsolationInfo.IndexCaseInfo = &index
		return state
	})
}

// SetIndexCaseInfo replaces the index-case evidence wholesale.
func (s *Store) SetIndexCaseInfo(ctx context.Context, info models.IndexCaseInfo) error {
	if info.IsEmpty() {
		return fmt.Errorf("index case needs symptoms or a test: %w", sentinel.ErrInvalidState)
	}
	return s.commit(ctx, "set_index_case_info", func(state *models.IsolationStateInfo) *models.IsolationStateInfo {
		state.IsolationInfo.IndexCaseInfo = &info
		return state
	})
}

// SetTestInfo folds an incoming result in according to op, in one write.
// The acknowledgement flags move with it: a record that no longer isolates has
// its end acknowledged, and one that starts isolating asks for a fresh start
// acknowledgement. Ignoring a result with no record stored writes nothing.
func (s *Store) SetTestInfo(ctx context.Context, result models.TestResult, receivedOn gregorian.Day, op models.StoreOperation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if op == models.OperationIgnore && s.current == nil {
		return nil
	}

	next := s.fresh(ctx, s.current)
	next.IsolationInfo = merge.Apply(&next.IsolationInfo, result, receivedOn, op)

	today := s.today(ctx)
	cfg := s.configuration()
	was := resolver.Resolve(s.current, today, cfg)
	now := resolver.Resolve(next, today, cfg)
	switch {
	case !now.IsIsolating():
		next.HasAcknowledgedEndOfIsolation = true
	case !was.IsIsolating():
		next.HasAcknowledgedStartOfIsolation = false
		next.HasAcknowledgedEndOfIsolation = false
	}
	return s.persistLocked(ctx, "set_test_info", next)
}

// NewStateInfo previews the evidence SetTestInfo would write, without storing
// it. Acknowledgement flags are left as stored.
func (s *Store) NewStateInfo(ctx context.Context, result models.TestResult, receivedOn gregorian.Day, op models.StoreOperation) models.IsolationStateInfo {
	current := s.StateInfo()
	next := s.fresh(ctx, current)
	next.IsolationInfo = merge.Apply(&next.IsolationInfo, result, receivedOn, op)
	return *next
}

// SetContactCaseInfo records an exposure contact.
func (s *Store) SetContactCaseInfo(ctx context.Context, info models.ContactCaseInfo) error {
	return s.commit(ctx, "set_contact_case_info", func(state *models.IsolationStateInfo) *models.IsolationStateInfo {
		state.IsolationInfo.ContactCaseInfo = &info
		return state
	})
}

// OptOutOfContactIsolation ends the contact isolation on day and acknowledges
// the end in the same write.
func (s *Store) OptOutOfContactIsolation(ctx context.Context, day gregorian.Day) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.IsolationInfo.ContactCaseInfo == nil {
		return fmt.Errorf("no contact case to opt out of: %w", sentinel.ErrInvalidState)
	}
	next := clone(s.current)
	contact := *next.IsolationInfo.ContactCaseInfo
	contact.OptOutOfIsolationDay = &day
	next.IsolationInfo.ContactCaseInfo = &contact
	next.HasAcknowledgedEndOfIsolation = true
	return s.persistLocked(ctx, "opt_out_of_contact_isolation", next)
}

func (s *Store) AcknowledgeStartOfIsolation(ctx context.Context) error {
	return s.setFlags(ctx, "acknowledge_start", func(state *models.IsolationStateInfo) {
		state.HasAcknowledgedStartOfIsolation = true
	})
}

func (s *Store) AcknowledgeEndOfIsolation(ctx context.Context) error {
	return s.setFlags(ctx, "acknowledge_end", func(state *models.IsolationStateInfo) {
		state.HasAcknowledgedEndOfIsolation = true
	})
}

// RestartIsolationAcknowledgement clears both flags so the start prompt reappears.
func (s *Store) RestartIsolationAcknowledgement(ctx context.Context) error {
	return s.setFlags(ctx, "restart_acknowledgement", func(state *models.IsolationStateInfo) {
		state.HasAcknowledgedStartOfIsolation = false
		state.HasAcknowledgedEndOfIsolation = false
	})
}

// setFlags mutates acknowledgement flags only; with no record it is a no-op.
func (s *Store) setFlags(ctx context.Context, op string, fn func(*models.IsolationStateInfo)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	next := clone(s.current)
	fn(next)
	if next.HasAcknowledgedStartOfIsolation == s.current.HasAcknowledgedStartOfIsolation &&
		next.HasAcknowledgedEndOfIsolation == s.current.HasAcknowledgedEndOfIsolation {
		return nil
	}
	return s.persistLocked(ctx, op, next)
}

// Delete removes the record.
func (s *Store) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return s.persistLocked(ctx, "delete", nil)
}

// Housekeep deletes a record that no longer describes any isolation worth
// showing: it resolves to not isolating with nothing retained, and either both
// acknowledgements were given or the record is older than the deletion period.
func (s *Store) Housekeep(ctx context.Context, today gregorian.Day, cfg config.IsolationConfiguration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return false, nil
	}
	state := resolver.Resolve(s.current, today, cfg)
	if state.Kind != models.KindNotIsolating || state.Isolation != nil {
		return false, nil
	}
	acknowledged := s.current.HasAcknowledgedStartOfIsolation && s.current.HasAcknowledgedEndOfIsolation
	stale := !today.Before(s.current.CreatedOn.AddDays(cfg.HousekeepingDeletionPeriod))
	if !acknowledged && !stale {
		return false, nil
	}
	if err := s.persistLocked(ctx, "housekeep", nil); err != nil {
		return false, err
	}
	return true, nil
}

// Subscribe registers an observer. The channel holds at most one pending
// snapshot; a slow observer only ever sees the latest. Cancel releases it.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// commit applies mutate to a copy of the record and persists the result.
// Evidence that turns a non-isolating subject into an isolating one
// restarts acknowledgement.
func (s *Store) commit(ctx context.Context, op string, mutate func(*models.IsolationStateInfo) *models.IsolationStateInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := mutate(s.fresh(ctx, s.current))
	if next != nil {
		today := s.today(ctx)
		cfg := s.configuration()
		was := resolver.Resolve(s.current, today, cfg)
		now := resolver.Resolve(next, today, cfg)
		if !was.IsIsolating() && now.IsIsolating() {
			next.HasAcknowledgedStartOfIsolation = false
			next.HasAcknowledgedEndOfIsolation = false
		}
	}
	return s.persistLocked(ctx, op, next)
}

// fresh returns a mutable copy of current, or a new record created today.
func (s *Store) fresh(ctx context.Context, current *models.IsolationStateInfo) *models.IsolationStateInfo {
	if current != nil {
		return clone(current)
	}
	return &models.IsolationStateInfo{CreatedOn: s.today(ctx)}
}

func (s *Store) persistLocked(ctx context.Context, op string, next *models.IsolationStateInfo) (err error) {
	ctx, span := otel.Tracer("isolationd/store").Start(ctx, "store."+op)
	span.SetAttributes(attribute.String("store.key", s.key))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if next == nil {
		if err := s.backend.Delete(ctx, s.key); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return fmt.Errorf("delete isolation state: %w", err)
		}
	} else {
		raw, err := s.codec.Encode(*next)
		if err != nil {
			return err
		}
		if err := s.backend.Save(ctx, s.key, raw); err != nil {
			return fmt.Errorf("save isolation state: %w", err)
		}
	}

	s.current = next
	s.revision++
	s.logger.DebugContext(ctx, "isolation state persisted", "key", s.key, "op", op, "revision", s.revision)
	s.publish(Snapshot{Revision: s.revision, Info: clone(next)})
	return nil
}

func (s *Store) publish(snapshot Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- snapshot:
		default:
			// Replace the stale pending snapshot with the latest one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}

// clone copies info deeply so callers and subscribers never share evidence
// with the store.
func clone(info *models.IsolationStateInfo) *models.IsolationStateInfo {
	if info == nil {
		return nil
	}
	out := *info
	if index := info.IsolationInfo.IndexCaseInfo; index != nil {
		copied := models.IndexCaseInfo{}
		if index.SymptomaticInfo != nil {
			symptoms := *index.SymptomaticInfo
			symptoms.OnsetDay = cloneDay(symptoms.OnsetDay)
			copied.SymptomaticInfo = &symptoms
		}
		if index.TestInfo != nil {
			test := *index.TestInfo
			test.TestEndDay = cloneDay(test.TestEndDay)
			test.ConfirmedOnDay = cloneDay(test.ConfirmedOnDay)
			if test.ConfirmatoryDayLimit != nil {
				limit := *test.ConfirmatoryDayLimit
				test.ConfirmatoryDayLimit = &limit
			}
			copied.TestInfo = &test
		}
		out.IsolationInfo.IndexCaseInfo = &copied
	}
	if contact := info.IsolationInfo.ContactCaseInfo; contact != nil {
		copied := *contact
		copied.OptOutOfIsolationDay = cloneDay(copied.OptOutOfIsolationDay)
		out.IsolationInfo.ContactCaseInfo = &copied
	}
	return &out
}

func cloneDay(d *gregorian.Day) *gregorian.Day {
	if d == nil {
		return nil
	}
	out := *d
	return &out
}
