package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-api/internal/application/ports"
)

func TestMemoryLedger_ReservaUnica(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(0)

	existing, ok, err := l.Reserve(ctx, "c1", "fp")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, existing)

	existing, ok, err = l.Reserve(ctx, "c1", "fp")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NotNil(t, existing)
	assert.Equal(t, ports.LedgerPending, existing.Status)
	assert.Equal(t, "c1", existing.CompanyID)
}

func TestMemoryLedger_Estados(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(0)

	_, _, _ = l.Reserve(ctx, "c1", "a")
	require.NoError(t, l.MarkStamped(ctx, "a", "uuid-a"))
	rec, err := l.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, ports.LedgerStamped, rec.Status)
	assert.Equal(t, "uuid-a", rec.UUID)
	assert.Equal(t, "c1", rec.CompanyID)

	require.NoError(t, l.Release(ctx, "a"))
	rec, _ = l.Get(ctx, "a")
	require.NotNil(t, rec, "Release no borra comprobantes timbrados")

	_, _, _ = l.Reserve(ctx, "c1", "b")
	require.NoError(t, l.MarkRejected(ctx, "b", "CFDI40102"))
	rec, _ = l.Get(ctx, "b")
	assert.Equal(t, ports.LedgerRejected, rec.Status)
	assert.Equal(t, "CFDI40102", rec.ErrorCode)

	_, _, _ = l.Reserve(ctx, "c1", "c")
	require.NoError(t, l.Release(ctx, "c"))
	rec, _ = l.Get(ctx, "c")
	assert.Nil(t, rec)
	_, ok, _ := l.Reserve(ctx, "c1", "c")
	assert.True(t, ok, "una reserva liberada admite un nuevo intento")
}

func TestMemoryLedger_ReservaPendienteCaduca(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(time.Minute)
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	_, ok, _ := l.Reserve(ctx, "c1", "fp")
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = l.Reserve(ctx, "c1", "fp")
	assert.True(t, ok, "la reserva vencida no debe bloquear")
}

func TestMemoryLedger_Concurrencia(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	reserved := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := l.Reserve(ctx, "c1", "mismo"); ok {
				mu.Lock()
				reserved++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, reserved, "solo una goroutine puede reservar la huella")
}
