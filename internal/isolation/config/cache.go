package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	id "isolationd/pkg/domain"
	"isolationd/pkg/platform/sentinel"
)

// persistenceKey is where the last good raw document is kept between restarts.
const persistenceKey = "config/isolation-policy"

// Persistence stores raw bytes by key. Isolation state backends satisfy it.
type Persistence interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// Cache serves the last-known-good policy without ever blocking on the
// network. Update and Run replace it in the background.
type Cache struct {
	country     id.Country
	fetcher     Fetcher
	persistence Persistence
	logger      *slog.Logger
	interval    time.Duration
	retries     int
	backoff     time.Duration

	current atomic.Pointer[Document]
}

type CacheOption func(*Cache)

func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithPersistence keeps the last good document so restarts begin from it.
func WithPersistence(p Persistence) CacheOption {
	return func(c *Cache) {
		c.persistence = p
	}
}

// WithRefreshInterval sets how often Run fetches a new document.
func WithRefreshInterval(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithRetry sets how many times a failed refresh is retried and the base delay between attempts.
func WithRetry(attempts int, backoff time.Duration) CacheOption {
	return func(c *Cache) {
		c.retries = attempts
		c.backoff = backoff
	}
}

// NewCache returns a cache primed with DefaultDocument. A nil fetcher leaves
// the defaults in force forever.
func NewCache(country id.Country, fetcher Fetcher, opts ...CacheOption) *Cache {
	c := &Cache{
		country:  country,
		fetcher:  fetcher,
		logger:   slog.Default(),
		interval: 6 * time.Hour,
		retries:  3,
		backoff:  2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	doc := DefaultDocument()
	c.current.Store(&doc)
	return c
}

// Current returns the configuration for the cache's country.
func (c *Cache) Current() IsolationConfiguration {
	return c.CurrentFor(c.country)
}

// CurrentFor returns the configuration for country, falling back to Default.
func (c *Cache) CurrentFor(country id.Country) IsolationConfiguration {
	if cfg, ok := c.current.Load().For(country); ok {
		return cfg
	}
	return Default()
}

// Version reports the version of the document in force.
func (c *Cache) Version() int {
	return c.current.Load().Version
}

// Restore loads the persisted document, if any. Missing or corrupt copies are
// logged and the defaults stay in force.
func (c *Cache) Restore(ctx context.Context) {
	if c.persistence == nil {
		return
	}
	raw, err := c.persistence.Load(ctx, persistenceKey)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			c.logger.WarnContext(ctx, "failed to load persisted isolation policy", "error", err)
		}
		return
	}
	doc, err := ParseDocument(raw)
	if err != nil {
		c.logger.WarnContext(ctx, "discarding persisted isolation policy", "error", err)
		return
	}
	c.swap(doc)
}

// Update fetches, validates and installs a new document. On any failure the
// previous document stays in force and the error is returned.
func (c *Cache) Update(ctx context.Context) (err error) {
	if c.fetcher == nil {
		return nil
	}
	ctx, span := otel.Tracer("isolationd/config").Start(ctx, "config.Update")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	raw, err := c.fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch isolation policy: %w", err)
	}
	doc, err := ParseDocument(raw)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("policy.version", doc.Version))

	if doc.Version < c.Version() {
		c.logger.WarnContext(ctx, "ignoring older isolation policy",
			"fetched_version", doc.Version,
			"current_version", c.Version(),
		)
		return nil
	}
	c.swap(doc)

	if c.persistence != nil {
		if perr := c.persistence.Save(ctx, persistenceKey, raw); perr != nil {
			c.logger.WarnContext(ctx, "failed to persist isolation policy", "error", perr)
		}
	}
	return nil
}

func (c *Cache) swap(doc Document) {
	c.current.Store(&doc)
	c.logger.Info("isolation policy installed", "version", doc.Version)
}

// Run refreshes immediately and then on every interval until ctx is done.
// Failed refreshes are retried with linear backoff; the cache never empties.
func (c *Cache) Run(ctx context.Context) error {
	if c.fetcher == nil {
		return nil
	}
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		c.refreshWithRetry(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (c *Cache) refreshWithRetry(ctx context.Context) {
	for attempt := 0; attempt <= c.retries; attempt++ {
		err := c.Update(ctx)
		if err == nil {
			return
		}
		c.logger.WarnContext(ctx, "isolation policy refresh failed",
			"attempt", attempt+1,
			"error", err,
		)
		if attempt == c.retries {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.backoff * time.Duration(attempt+1)):
		}
	}
}
