package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "isolationd/pkg/domain"
)

func TestTime(t *testing.T) {
	ctx := context.Background()
	_, ok := Time(ctx)
	assert.False(t, ok)

	fixed := time.Date(2021, time.July, 1, 9, 0, 0, 0, time.UTC)
	ctx = WithTime(ctx, fixed)
	got, ok := Time(ctx)
	assert.True(t, ok)
	assert.Equal(t, fixed, got)
	assert.Equal(t, fixed, Now(ctx))
}

func TestSubjectAndRequestID(t *testing.T) {
	ctx := context.Background()
	assert.True(t, SubjectID(ctx).IsNil())
	assert.Empty(t, RequestID(ctx))

	subject := id.NewSubjectID()
	ctx = WithSubjectID(WithRequestID(ctx, "req-1"), subject)
	assert.Equal(t, subject, SubjectID(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))
}
