package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"isolationd/internal/isolation/config"
	"isolationd/internal/isolation/metrics"
	"isolationd/internal/isolation/ports"
	"isolationd/internal/isolation/store"
	id "isolationd/pkg/domain"
	dErrors "isolationd/pkg/domain-errors"
	"isolationd/pkg/gregorian"
	"isolationd/pkg/platform/sentinel"
)

// KeyPrefix namespaces isolation records in a shared backend.
const KeyPrefix = "isolation/"

// Key is the backend key holding subjectID's record.
func Key(subjectID id.SubjectID) string {
	return KeyPrefix + subjectID.String()
}

// Manager owns one Context per subject over a shared backend.
type Manager struct {
	backend       store.Backend
	codec         *store.Codec
	configuration Configuration
	location      *time.Location
	clock         func() time.Time
	logger        *slog.Logger
	signposter    ports.Signposter
	notifier      ports.Notifier
	metrics       *metrics.Metrics
	onTracked     func(int)
	watchInterval time.Duration

	mu       sync.RWMutex
	contexts map[id.SubjectID]*Context
	loads    singleflight.Group
}

type ManagerOption func(*Manager)

func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

func WithManagerCodec(codec *store.Codec) ManagerOption {
	return func(m *Manager) { m.codec = codec }
}

func WithManagerConfiguration(cfg Configuration) ManagerOption {
	return func(m *Manager) { m.configuration = cfg }
}

func WithManagerLocation(loc *time.Location) ManagerOption {
	return func(m *Manager) { m.location = loc }
}

func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.clock = now }
}

func WithManagerSignposter(s ports.Signposter) ManagerOption {
	return func(m *Manager) { m.signposter = s }
}

func WithManagerNotifier(n ports.Notifier) ManagerOption {
	return func(m *Manager) { m.notifier = n }
}

func WithManagerMetrics(mt *metrics.Metrics) ManagerOption {
	return func(m *Manager) { m.metrics = mt }
}

// WithTrackedReporter is called with the number of loaded subjects after
// every tick.
func WithTrackedReporter(fn func(int)) ManagerOption {
	return func(m *Manager) { m.onTracked = fn }
}

// WithWatchInterval sets how often streamed subjects re-check the clock.
func WithWatchInterval(d time.Duration) ManagerOption {
	return func(m *Manager) { m.watchInterval = d }
}

func NewManager(backend store.Backend, opts ...ManagerOption) *Manager {
	m := &Manager{
		backend:       backend,
		configuration: staticConfiguration(config.Default()),
		location:      time.Local,
		clock:         time.Now,
		logger:        slog.Default(),
		watchInterval: time.Minute,
		contexts:      make(map[id.SubjectID]*Context),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Get returns the subject's context, loading its record on first use.
func (m *Manager) Get(ctx context.Context, subjectID id.SubjectID) (*Context, error) {
	m.mu.RLock()
	c, ok := m.contexts[subjectID]
	m.mu.RUnlock()
	if ok {
		return c, nil
	}

	v, err, _ := m.loads.Do(subjectID.String(), func() (any, error) {
		m.mu.RLock()
		existing, ok := m.contexts[subjectID]
		m.mu.RUnlock()
		if ok {
			return existing, nil
		}
		loaded, err := m.open(ctx, subjectID)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.contexts[subjectID] = loaded
		m.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Context), nil
}

func (m *Manager) open(ctx context.Context, subjectID id.SubjectID) (*Context, error) {
	st, err := store.New(ctx, m.backend, Key(subjectID),
		store.WithLogger(m.logger),
		store.WithCodec(m.codec),
		store.WithConfiguration(m.configuration.Current),
		store.WithToday(func(ctx context.Context) gregorian.Day {
			return gregorian.Today(nowAt(ctx, m.clock), m.location).Day
		}),
	)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to load isolation state", "subject_id", subjectID.String(), "error", err)
		if errors.Is(err, sentinel.ErrUnavailable) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "isolation state is unavailable")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load isolation state")
	}
	return New(subjectID, st,
		WithLogger(m.logger),
		WithClock(m.clock),
		WithLocation(m.location),
		WithConfiguration(m.configuration),
		WithSignposter(m.signposter),
		WithNotifier(m.notifier),
		WithMetrics(m.metrics),
	), nil
}

// Load brings every stored subject into memory so background ticks cover
// them. Backends that cannot list keys are skipped.
func (m *Manager) Load(ctx context.Context) (int, error) {
	lister, ok := m.backend.(store.Lister)
	if !ok {
		m.logger.InfoContext(ctx, "backend cannot list keys, subjects load on demand")
		return 0, nil
	}
	keys, err := lister.Keys(ctx, KeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("list isolation records: %w", err)
	}
	loaded := 0
	var errs []error
	for _, key := range keys {
		subjectID, err := id.ParseSubjectID(strings.TrimPrefix(key, KeyPrefix))
		if err != nil {
			m.logger.WarnContext(ctx, "skipping isolation record with unparseable key", "key", key)
			continue
		}
		if _, err := m.Get(ctx, subjectID); err != nil {
			errs = append(errs, err)
			continue
		}
		loaded++
	}
	return loaded, errors.Join(errs...)
}

// Stream subscribes to the subject's snapshots and keeps them fresh across
// day rollovers until cancel is called or ctx ends. The watcher reads the
// live clock, not a request time carried by ctx.
func (m *Manager) Stream(ctx context.Context, subjectID id.SubjectID) (<-chan Snapshot, func(), error) {
	c, err := m.Get(ctx, subjectID)
	if err != nil {
		return nil, nil, err
	}
	watchCtx, stop := context.WithCancel(context.Background())
	release := context.AfterFunc(ctx, stop)
	updates, unsubscribe := c.Subscribe()
	go func() {
		_ = c.Watch(watchCtx, m.watchInterval)
	}()
	return updates, func() {
		release()
		stop()
		unsubscribe()
	}, nil
}

func (m *Manager) loaded() []*Context {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Context, 0, len(m.contexts))
	for _, c := range m.contexts {
		out = append(out, c)
	}
	return out
}

// Tick republishes every subject's state, housekeeps finished records and
// refreshes the aggregate gauges. A housekept subject keeps its Context, so
// open streams and later writes share the same store.
func (m *Manager) Tick(ctx context.Context) error {
	var (
		conditions []metrics.Conditions
		errs       []error
		tracked    int
	)
	for _, c := range m.loaded() {
		c.Snapshot(ctx)
		if _, err := c.Housekeep(ctx); err != nil {
			errs = append(errs, err)
		}
		if c.store.StateInfo() == nil {
			continue
		}
		tracked++
		conditions = append(conditions, c.RecordMetrics(ctx))
	}
	if m.metrics != nil {
		m.metrics.RecordConditions(conditions)
	}
	if m.onTracked != nil {
		m.onTracked(tracked)
	}
	return errors.Join(errs...)
}

// Run ticks every interval until ctx ends.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := m.Tick(ctx); err != nil {
			m.logger.WarnContext(ctx, "isolation tick failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
