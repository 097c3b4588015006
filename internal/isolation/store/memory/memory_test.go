package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isolationd/pkg/platform/sentinel"
)

func TestBackend(t *testing.T) {
	ctx := context.Background()
	b := New()

	_, err := b.Load(ctx, "isolation/a")
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	data := []byte(`{"version":1}`)
	require.NoError(t, b.Save(ctx, "isolation/a", data))
	data[0] = 'x'

	got, err := b.Load(ctx, "isolation/a")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(got), "saved value must not alias the caller's slice")

	require.NoError(t, b.Save(ctx, "config/isolation-policy", []byte("{}")))
	keys, err := b.Keys(ctx, "isolation/")
	require.NoError(t, err)
	assert.Equal(t, []string{"isolation/a"}, keys)

	require.NoError(t, b.Delete(ctx, "isolation/a"))
	require.NoError(t, b.Delete(ctx, "isolation/a"))
	_, err = b.Load(ctx, "isolation/a")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
