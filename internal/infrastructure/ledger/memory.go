// Package ledger implementa ports.StampingLedger: registro de huellas de comprobantes
// enviados al PAC para impedir timbrados duplicados.
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/cfdi-api/internal/application/ports"
)

// MemoryLedger libro en memoria del proceso. Útil en desarrollo y pruebas;
// no se comparte entre réplicas (para eso RedisLedger).
type MemoryLedger struct {
	mu         sync.Mutex
	records    map[string]ports.LedgerRecord
	pendingTTL time.Duration
	now        func() time.Time
}

// NewMemoryLedger crea el libro. Las reservas PENDING caducan tras pendingTTL (0 = nunca).
func NewMemoryLedger(pendingTTL time.Duration) *MemoryLedger {
	return &MemoryLedger{
		records:    make(map[string]ports.LedgerRecord),
		pendingTTL: pendingTTL,
		now:        time.Now,
	}
}

// Reserve implementa ports.StampingLedger.
func (l *MemoryLedger) Reserve(_ context.Context, companyID, fingerprint string) (*ports.LedgerRecord, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rec, ok := l.lookup(fingerprint); ok {
		return &rec, false, nil
	}
	l.records[fingerprint] = ports.LedgerRecord{
		Fingerprint: fingerprint,
		CompanyID:   companyID,
		Status:      ports.LedgerPending,
		UpdatedAt:   l.now(),
	}
	return nil, true, nil
}

// MarkStamped implementa ports.StampingLedger.
func (l *MemoryLedger) MarkStamped(_ context.Context, fingerprint, uuid string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec := l.records[fingerprint]
	rec.Fingerprint = fingerprint
	rec.Status = ports.LedgerStamped
	rec.UUID = uuid
	rec.UpdatedAt = l.now()
	l.records[fingerprint] = rec
	return nil
}

// MarkRejected implementa ports.StampingLedger.
func (l *MemoryLedger) MarkRejected(_ context.Context, fingerprint, code string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec := l.records[fingerprint]
	rec.Fingerprint = fingerprint
	rec.Status = ports.LedgerRejected
	rec.ErrorCode = code
	rec.UpdatedAt = l.now()
	l.records[fingerprint] = rec
	return nil
}

// Release implementa ports.StampingLedger. Solo libera reservas PENDING.
func (l *MemoryLedger) Release(_ context.Context, fingerprint string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if rec, ok := l.records[fingerprint]; ok && rec.Status == ports.LedgerPending {
		delete(l.records, fingerprint)
	}
	return nil
}

// Get implementa ports.StampingLedger. Devuelve nil si la huella no existe.
func (l *MemoryLedger) Get(_ context.Context, fingerprint string) (*ports.LedgerRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if rec, ok := l.lookup(fingerprint); ok {
		return &rec, nil
	}
	return nil, nil
}

// lookup requiere l.mu tomado.
func (l *MemoryLedger) lookup(fingerprint string) (ports.LedgerRecord, bool) {
	rec, ok := l.records[fingerprint]
	if !ok {
		return ports.LedgerRecord{}, false
	}
	if rec.Status == ports.LedgerPending && l.pendingTTL > 0 && l.now().Sub(rec.UpdatedAt) > l.pendingTTL {
		delete(l.records, fingerprint)
		return ports.LedgerRecord{}, false
	}
	return rec, true
}
