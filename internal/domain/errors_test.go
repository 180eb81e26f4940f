package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/cfdi-api/internal/domain"
)

func TestStampingError_KindsAndRetry(t *testing.T) {
	transport := domain.NewTransportError("timeout", context.DeadlineExceeded)
	rejected := domain.NewRejectionError("CFDI40102", "El resultado de la suma no coincide")
	quota := domain.NewQuotaError("QUOTA_EXHAUSTED", "sin timbres")

	assert.True(t, transport.Retryable())
	assert.False(t, rejected.Retryable())
	assert.False(t, quota.Retryable())

	wrapped := fmt.Errorf("timbrar: %w", transport)
	assert.ErrorIs(t, wrapped, domain.ErrStampingTransport)
	assert.ErrorIs(t, wrapped, context.DeadlineExceeded, "la causa original debe seguir accesible")
	assert.ErrorIs(t, rejected, domain.ErrStampingRejected)
	assert.NotErrorIs(t, rejected, domain.ErrStampingTransport)
	assert.ErrorIs(t, quota, domain.ErrStampingQuota)

	assert.Contains(t, rejected.Error(), "El resultado de la suma no coincide", "el mensaje de la autoridad se conserva literal")
}

func TestInvalidInputError_WithPrefix(t *testing.T) {
	err := domain.NewInvalidInput("cantidad", "debe ser mayor a cero").WithPrefix("conceptos[2]")
	assert.Equal(t, "conceptos[2].cantidad", err.Field)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	var target *domain.InvalidInputError
	assert.True(t, errors.As(fmt.Errorf("x: %w", err), &target))
}

func TestDocumentValidationError_ListsAllViolations(t *testing.T) {
	err := &domain.DocumentValidationError{Violations: []domain.Violation{
		{Code: "A", Field: "x", Message: "uno"},
		{Code: "B", Field: "y", Message: "dos"},
	}}
	assert.ErrorIs(t, err, domain.ErrDocumentInvalid)
	assert.Contains(t, err.Error(), "[A] uno")
	assert.Contains(t, err.Error(), "[B] dos")
}

func TestDuplicateSubmissionError(t *testing.T) {
	err := &domain.DuplicateSubmissionError{Fingerprint: "abc", Status: "STAMPED", UUID: "u-1"}
	assert.ErrorIs(t, err, domain.ErrDuplicateSubmission)
	assert.Contains(t, err.Error(), "u-1")
}
