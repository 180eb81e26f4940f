package ledger

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-api/internal/application/ports"
)

// Requiere un Redis real: REDIS_TEST_URL=redis://localhost:6379/15 go test ./...
func newTestRedisLedger(t *testing.T) *RedisLedger {
	t.Helper()
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL no definido")
	}
	l, err := NewRedisLedger(url, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestRedisLedger_Ciclo(t *testing.T) {
	l := newTestRedisLedger(t)
	ctx := context.Background()
	fp := "test-" + uuid.NewString()
	t.Cleanup(func() { l.client.Del(context.Background(), keyPrefix+fp) })

	existing, ok, err := l.Reserve(ctx, "c1", fp)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, existing)

	existing, ok, err = l.Reserve(ctx, "c1", fp)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NotNil(t, existing)
	assert.Equal(t, ports.LedgerPending, existing.Status)

	require.NoError(t, l.MarkStamped(ctx, fp, "UUID-1"))
	rec, err := l.Get(ctx, fp)
	require.NoError(t, err)
	assert.Equal(t, ports.LedgerStamped, rec.Status)
	assert.Equal(t, "UUID-1", rec.UUID)

	// Un estado final no se libera.
	require.NoError(t, l.Release(ctx, fp))
	rec, err = l.Get(ctx, fp)
	require.NoError(t, err)
	require.NotNil(t, rec)

	ttl, err := l.client.TTL(ctx, keyPrefix+fp).Result()
	require.NoError(t, err)
	assert.Less(t, ttl, time.Duration(0), "los estados finales no expiran")
}

func TestRedisLedger_ReleasePending(t *testing.T) {
	l := newTestRedisLedger(t)
	ctx := context.Background()
	fp := "test-" + uuid.NewString()

	_, ok, err := l.Reserve(ctx, "c1", fp)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, l.Release(ctx, fp))
	rec, err := l.Get(ctx, fp)
	require.NoError(t, err)
	assert.Nil(t, rec)

	_, ok, err = l.Reserve(ctx, "c1", fp)
	require.NoError(t, err)
	assert.True(t, ok)
	l.client.Del(ctx, keyPrefix+fp)
}

func TestNewRedisLedger_URLInvalida(t *testing.T) {
	_, err := NewRedisLedger("no-es-una-url", time.Minute)
	assert.ErrorContains(t, err, "REDIS_URL")
}
