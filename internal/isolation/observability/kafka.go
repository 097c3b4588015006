package observability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"isolationd/internal/isolation/ports"
	id "isolationd/pkg/domain"
	"isolationd/pkg/platform/sentinel"
	"isolationd/pkg/requestcontext"
)

// Record types carried in the "type" header.
const (
	RecordTypeSignpost     = "signpost"
	RecordTypeNotification = "notification"
)

// Notification commands.
const (
	CommandRemoveExposureNotifications          = "removeExposureNotifications"
	CommandSendContactCaseIsolationNotification = "sendContactCaseIsolationNotification"
)

// NotificationCommand is the value of a notification record.
type NotificationCommand struct {
	Command   string    `json:"command"`
	SubjectID string    `json:"subjectId"`
	RequestID string    `json:"requestId,omitempty"`
	At        time.Time `json:"at"`
}

// Kafka publishes signposts and notification commands to one topic, keyed by
// subject so a subject's events stay ordered within a partition.
type Kafka struct {
	client  *kgo.Client
	topic   string
	logger  *slog.Logger
	breaker *breaker
}

type KafkaOption func(*Kafka)

func WithKafkaLogger(logger *slog.Logger) KafkaOption {
	return func(k *Kafka) {
		k.logger = logger
	}
}

// WithBreaker stops publishing for cooldown after threshold consecutive failures.
func WithBreaker(threshold int, cooldown time.Duration) KafkaOption {
	return func(k *Kafka) {
		k.breaker = newBreaker(threshold, cooldown, nil)
	}
}

// NewKafka creates a producer. It does not contact the brokers.
func NewKafka(brokers []string, topic string, opts ...KafkaOption) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RecordRetries(3),
		kgo.ProduceRequestTimeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	k := &Kafka{
		client:  client,
		topic:   topic,
		logger:  slog.Default(),
		breaker: newBreaker(5, time.Minute, nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(k)
		}
	}
	return k, nil
}

// EnsureTopic creates the topic when it does not exist yet.
func (k *Kafka) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(k.client)
	resp, err := adm.CreateTopic(ctx, partitions, replicationFactor, nil, k.topic)
	if err == nil {
		err = resp.Err
	}
	if err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", k.topic, err)
	}
	return nil
}

func (k *Kafka) Signpost(ctx context.Context, s ports.Signpost) error {
	return k.publish(ctx, RecordTypeSignpost, s.SubjectID, s)
}

func (k *Kafka) RemoveExposureNotifications(ctx context.Context, subjectID id.SubjectID) error {
	return k.notify(ctx, CommandRemoveExposureNotifications, subjectID)
}

func (k *Kafka) SendContactCaseIsolationNotification(ctx context.Context, subjectID id.SubjectID) error {
	return k.notify(ctx, CommandSendContactCaseIsolationNotification, subjectID)
}

func (k *Kafka) notify(ctx context.Context, command string, subjectID id.SubjectID) error {
	return k.publish(ctx, RecordTypeNotification, subjectID.String(), NotificationCommand{
		Command:   command,
		SubjectID: subjectID.String(),
		RequestID: requestcontext.RequestID(ctx),
		At:        requestcontext.Now(ctx),
	})
}

func (k *Kafka) publish(ctx context.Context, recordType, key string, payload any) error {
	if !k.breaker.allow() {
		return fmt.Errorf("kafka publishing suspended: %w", sentinel.ErrUnavailable)
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", recordType, err)
	}
	record := &kgo.Record{
		Key:     []byte(key),
		Value:   value,
		Headers: []kgo.RecordHeader{{Key: "type", Value: []byte(recordType)}},
	}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		k.breaker.failure()
		if k.breaker.isOpen() {
			k.logger.WarnContext(ctx, "kafka publishing suspended", "topic", k.topic, "error", err)
		}
		return fmt.Errorf("produce %s record: %w", recordType, err)
	}
	k.breaker.success()
	return nil
}

// Health pings the brokers.
func (k *Kafka) Health(ctx context.Context) error {
	return k.client.Ping(ctx)
}

func (k *Kafka) Close() {
	k.client.Close()
}
