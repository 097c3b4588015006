// Package observability provides the signpost and notification sinks the
// isolation service writes to: structured logs, Prometheus counters and a
// Kafka topic.
package observability

import (
	"context"
	"errors"
	"log/slog"

	"isolationd/internal/isolation/metrics"
	"isolationd/internal/isolation/ports"
	id "isolationd/pkg/domain"
)

// LogSignposter writes signposts to a logger only.
type LogSignposter struct {
	logger *slog.Logger
}

func NewLogSignposter(logger *slog.Logger) *LogSignposter {
	return &LogSignposter{logger: logger}
}

func (l *LogSignposter) Signpost(ctx context.Context, s ports.Signpost) error {
	l.logger.DebugContext(ctx, "signpost", "event", s.Name, "subject_id", s.SubjectID, "attributes", s.Attributes)
	return nil
}

// CountingSignposter counts signposts by name.
type CountingSignposter struct {
	metrics *metrics.Metrics
}

func NewCountingSignposter(m *metrics.Metrics) *CountingSignposter {
	return &CountingSignposter{metrics: m}
}

func (c *CountingSignposter) Signpost(_ context.Context, s ports.Signpost) error {
	c.metrics.IncrementSignpost(s.Name)
	return nil
}

// Fanout delivers every signpost to each sink and joins their errors.
type Fanout []ports.Signposter

func (f Fanout) Signpost(ctx context.Context, s ports.Signpost) error {
	var errs []error
	for _, sink := range f {
		if sink == nil {
			continue
		}
		if err := sink.Signpost(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier records notification requests without delivering them, for
// deployments where delivery is owned by another service that tails logs.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) RemoveExposureNotifications(ctx context.Context, subjectID id.SubjectID) error {
	l.logger.InfoContext(ctx, "remove exposure notifications", "subject_id", subjectID.String())
	return nil
}

func (l *LogNotifier) SendContactCaseIsolationNotification(ctx context.Context, subjectID id.SubjectID) error {
	l.logger.InfoContext(ctx, "send contact case isolation notification", "subject_id", subjectID.String())
	return nil
}
