// Package service exposes one subject's isolation state: it reads evidence
// from the store, resolves it for the current day, and runs the
// acknowledgement and test-result flows with their side effects.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"isolationd/internal/isolation/acknowledgement"
	"isolationd/internal/isolation/config"
	"isolationd/internal/isolation/metrics"
	"isolationd/internal/isolation/models"
	"isolationd/internal/isolation/ports"
	"isolationd/internal/isolation/resolver"
	"isolationd/internal/isolation/store"
	id "isolationd/pkg/domain"
	dErrors "isolationd/pkg/domain-errors"
	"isolationd/pkg/gregorian"
	"isolationd/pkg/platform/sentinel"
	"isolationd/pkg/requestcontext"
)

// Configuration supplies the isolation policy in force. config.Cache
// implements it.
type Configuration interface {
	Current() config.IsolationConfiguration
}

type staticConfiguration config.IsolationConfiguration

func (s staticConfiguration) Current() config.IsolationConfiguration {
	return config.IsolationConfiguration(s)
}

// Snapshot is what observers of a subject receive.
type Snapshot struct {
	LogicalState    models.LogicalState
	IsolationState  models.IsolationState
	Acknowledgement acknowledgement.State
}

// Context is the isolation engine for one subject. All methods are safe for
// concurrent use.
type Context struct {
	subjectID     id.SubjectID
	store         *store.Store
	configuration Configuration
	location      *time.Location
	clock         func() time.Time
	logger        *slog.Logger
	signposter    ports.Signposter
	notifier      ports.Notifier
	metrics       *metrics.Metrics

	// mu serialises flows that read state, decide, then write, so their side
	// effects fire at most once.
	mu                   sync.Mutex
	tracker              acknowledgement.Tracker
	shouldAskForSymptoms bool
	pendingResults       map[acknowledgement.Token]models.TestResult

	// snapMu orders Snapshot calls so a state computed earlier is never
	// published after one computed later.
	snapMu      sync.Mutex
	pubMu       sync.Mutex
	published   *Snapshot
	subscribers map[int]chan Snapshot
	nextSubID   int
}

type Option func(*Context)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) {
		c.logger = logger
	}
}

// WithClock sets the fallback clock used when the context carries no
// request time.
func WithClock(now func() time.Time) Option {
	return func(c *Context) {
		c.clock = now
	}
}

// WithLocation sets the time zone that defines "today" and start of day.
func WithLocation(loc *time.Location) Option {
	return func(c *Context) {
		c.location = loc
	}
}

func WithConfiguration(cfg Configuration) Option {
	return func(c *Context) {
		c.configuration = cfg
	}
}

func WithSignposter(s ports.Signposter) Option {
	return func(c *Context) {
		c.signposter = s
	}
}

func WithNotifier(n ports.Notifier) Option {
	return func(c *Context) {
		c.notifier = n
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Context) {
		c.metrics = m
	}
}

// New builds the engine for subjectID over st.
func New(subjectID id.SubjectID, st *store.Store, opts ...Option) *Context {
	c := &Context{
		subjectID:      subjectID,
		store:          st,
		configuration:  staticConfiguration(config.Default()),
		location:       time.Local,
		clock:          time.Now,
		logger:         slog.Default(),
		pendingResults: make(map[acknowledgement.Token]models.TestResult),
		subscribers:    make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// SubjectID returns the subject this context serves.
func (c *Context) SubjectID() id.SubjectID { return c.subjectID }

func (c *Context) now(ctx context.Context) time.Time {
	return nowAt(ctx, c.clock)
}

// today is derived from the clock on every call; it is never cached.
func (c *Context) today(ctx context.Context) gregorian.Day {
	return gregorian.Today(c.now(ctx), c.location).Day
}

// nowAt prefers the request time carried by ctx over the injected clock.
func nowAt(ctx context.Context, clock func() time.Time) time.Time {
	if t, ok := requestcontext.Time(ctx); ok {
		return t
	}
	return clock()
}

func (c *Context) config() config.IsolationConfiguration {
	return c.configuration.Current()
}

// LogicalState resolves the stored evidence for today.
func (c *Context) LogicalState(ctx context.Context) models.LogicalState {
	return resolver.Resolve(c.store.StateInfo(), c.today(ctx), c.config())
}

// IsolationState is the subject-facing projection of LogicalState.
func (c *Context) IsolationState(ctx context.Context) models.IsolationState {
	return models.NewIsolationState(c.LogicalState(ctx))
}

// Snapshot computes the current state and publishes it when it changed.
func (c *Context) Snapshot(ctx context.Context) Snapshot {
	c.snapMu.Lock()
	defer c.snapMu.Unlock()

	logical := c.LogicalState(ctx)
	derived := acknowledgement.Derive(logical, c.now(ctx), c.location)
	ack, _ := c.tracker.Observe(logical, derived)
	snapshot := Snapshot{
		LogicalState:    logical,
		IsolationState:  models.NewIsolationState(logical),
		Acknowledgement: ack,
	}
	c.publish(snapshot)
	return snapshot
}

// Subscribe registers an observer. The channel holds at most one pending
// snapshot and only receives a value when the state or the owed
// acknowledgement changed by value. Cancel releases it.
func (c *Context) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	c.pubMu.Lock()
	subID := c.nextSubID
	c.nextSubID++
	c.subscribers[subID] = ch
	if c.published != nil {
		ch <- *c.published
	}
	c.pubMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.pubMu.Lock()
			delete(c.subscribers, subID)
			c.pubMu.Unlock()
			close(ch)
		})
	}
}

func (c *Context) publish(snapshot Snapshot) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	if c.published != nil && c.published.LogicalState.Equal(snapshot.LogicalState) &&
		c.published.Acknowledgement.Equal(snapshot.Acknowledgement) {
		return
	}
	c.published = &snapshot
	for _, ch := range c.subscribers {
		select {
		case ch <- snapshot:
		default:
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

// Watch republishes on every store write and on every poll, which is how
// day rollovers and policy changes reach observers. It returns when ctx ends.
func (c *Context) Watch(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	updates, cancel := c.store.Subscribe()
	defer cancel()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.Snapshot(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-updates:
			c.Snapshot(ctx)
		case <-ticker.C:
			c.Snapshot(ctx)
		}
	}
}

// storeError translates store failures into domain errors.
func (c *Context) storeError(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sentinel.ErrInvalidState) {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, msg)
	}
	if c.metrics != nil {
		c.metrics.IncrementStoreWriteFailures()
	}
	c.logger.ErrorContext(ctx, msg, "subject_id", c.subjectID.String(), "error", err)
	if errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func (c *Context) signpost(ctx context.Context, name string, attrs ...any) {
	attrs = append(attrs, "subject_id", c.subjectID.String())
	ports.LogSignpost(ctx, c.logger, c.signposter, name, attrs...)
}
