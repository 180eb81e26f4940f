package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/cfdi-api/internal/application/ports"
)

const keyPrefix = "cfdi:ledger:"

// RedisLedger libro compartido entre réplicas. La reserva es atómica (SETNX); las
// reservas PENDING caducan con pendingTTL y los estados finales no expiran.
type RedisLedger struct {
	client     *redis.Client
	pendingTTL time.Duration
}

// NewRedisLedger conecta con Redis y verifica la conexión.
func NewRedisLedger(redisURL string, pendingTTL time.Duration) (*RedisLedger, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("ledger: parsear REDIS_URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ledger: conectar a Redis: %w", err)
	}
	return NewRedisLedgerWithClient(client, pendingTTL), nil
}

// NewRedisLedgerWithClient usa un cliente ya configurado.
func NewRedisLedgerWithClient(client *redis.Client, pendingTTL time.Duration) *RedisLedger {
	return &RedisLedger{client: client, pendingTTL: pendingTTL}
}

// Reserve implementa ports.StampingLedger.
func (l *RedisLedger) Reserve(ctx context.Context, companyID, fingerprint string) (*ports.LedgerRecord, bool, error) {
	rec := ports.LedgerRecord{
		Fingerprint: fingerprint,
		CompanyID:   companyID,
		Status:      ports.LedgerPending,
		UpdatedAt:   time.Now(),
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, false, err
	}

	// Dos intentos: la reserva previa pudo caducar entre SETNX y GET.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := l.client.SetNX(ctx, keyPrefix+fingerprint, payload, l.pendingTTL).Result()
		if err != nil {
			return nil, false, fmt.Errorf("ledger: reservar: %w", err)
		}
		if ok {
			return nil, true, nil
		}
		existing, err := l.Get(ctx, fingerprint)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, false, nil
		}
	}
	return nil, false, fmt.Errorf("ledger: no se pudo reservar %s", fingerprint)
}

// MarkStamped implementa ports.StampingLedger.
func (l *RedisLedger) MarkStamped(ctx context.Context, fingerprint, uuid string) error {
	return l.update(ctx, fingerprint, func(r *ports.LedgerRecord) {
		r.Status = ports.LedgerStamped
		r.UUID = uuid
	})
}

// MarkRejected implementa ports.StampingLedger.
func (l *RedisLedger) MarkRejected(ctx context.Context, fingerprint, code string) error {
	return l.update(ctx, fingerprint, func(r *ports.LedgerRecord) {
		r.Status = ports.LedgerRejected
		r.ErrorCode = code
	})
}

// Release implementa ports.StampingLedger. Solo borra reservas PENDING.
func (l *RedisLedger) Release(ctx context.Context, fingerprint string) error {
	rec, err := l.Get(ctx, fingerprint)
	if err != nil || rec == nil || rec.Status != ports.LedgerPending {
		return err
	}
	return l.client.Del(ctx, keyPrefix+fingerprint).Err()
}

// Get implementa ports.StampingLedger.
func (l *RedisLedger) Get(ctx context.Context, fingerprint string) (*ports.LedgerRecord, error) {
	raw, err := l.client.Get(ctx, keyPrefix+fingerprint).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: leer: %w", err)
	}
	var rec ports.LedgerRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("ledger: registro corrupto para %s: %w", fingerprint, err)
	}
	return &rec, nil
}

// Close cierra la conexión.
func (l *RedisLedger) Close() error {
	return l.client.Close()
}

func (l *RedisLedger) update(ctx context.Context, fingerprint string, mutate func(*ports.LedgerRecord)) error {
	rec, err := l.Get(ctx, fingerprint)
	if err != nil {
		return err
	}
	if rec == nil {
		rec = &ports.LedgerRecord{Fingerprint: fingerprint}
	}
	mutate(rec)
	rec.UpdatedAt = time.Now()
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	// Sin expiración: los estados finales se conservan.
	if err := l.client.Set(ctx, keyPrefix+fingerprint, payload, 0).Err(); err != nil {
		return fmt.Errorf("ledger: actualizar: %w", err)
	}
	return nil
}
