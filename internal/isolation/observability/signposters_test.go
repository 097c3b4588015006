package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"isolationd/internal/isolation/metrics"
	"isolationd/internal/isolation/ports"
	"isolationd/internal/isolation/ports/mocks"
	id "isolationd/pkg/domain"
)

func TestFanout(t *testing.T) {
	ctrl := gomock.NewController(t)
	failing := mocks.NewMockSignposter(ctrl)
	m := metrics.New(prometheus.NewRegistry())
	signpost := ports.Signpost{Name: ports.SignpostCompletedSelfDiagnosis}

	failing.EXPECT().Signpost(gomock.Any(), signpost).Return(errors.New("broker down"))

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sinks := Fanout{NewLogSignposter(logger), failing, nil, NewCountingSignposter(m)}

	err := sinks.Signpost(context.Background(), signpost)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Contains(t, buf.String(), ports.SignpostCompletedSelfDiagnosis)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Signposts.WithLabelValues(ports.SignpostCompletedSelfDiagnosis)),
		"sinks after a failing one still run")
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))
	subject := id.NewSubjectID()

	require.NoError(t, n.RemoveExposureNotifications(context.Background(), subject))
	require.NoError(t, n.SendContactCaseIsolationNotification(context.Background(), subject))
	assert.Contains(t, buf.String(), subject.String())
	assert.Contains(t, buf.String(), "send contact case isolation notification")
}

func TestNewKafkaValidates(t *testing.T) {
	_, err := NewKafka(nil, "signposts")
	assert.Error(t, err)
	_, err = NewKafka([]string{"localhost:9092"}, "")
	assert.Error(t, err)
}
