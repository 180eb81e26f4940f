package pac

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/cfdi-api/internal/application/ports"
	"github.com/jhoicas/cfdi-api/internal/domain"
	domcfdi "github.com/jhoicas/cfdi-api/internal/domain/cfdi"
	infracfdi "github.com/jhoicas/cfdi-api/internal/infrastructure/cfdi"
)

// MockNoCertificadoSAT número de certificado ficticio usado en modo dev.
const MockNoCertificadoSAT = "00001000000000000000"

// MockStamper simula el PAC en desarrollo: no hay red, el UUID es aleatorio.
type MockStamper struct {
	encoder ports.DocumentEncoder
	now     func() time.Time
}

// NewMockStamper crea el simulador.
func NewMockStamper() *MockStamper {
	return &MockStamper{encoder: infracfdi.NewXMLEncoder(), now: time.Now}
}

// Stamp devuelve un timbre simulado.
func (m *MockStamper) Stamp(ctx context.Context, doc *domcfdi.Document) (*ports.StampedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewTransportError("contexto cancelado", err)
	}
	payload, err := m.encoder.Encode(doc)
	if err != nil {
		return nil, domain.NewRejectionError(codeInvalidResponse, err.Error())
	}
	return &ports.StampedDocument{
		UUID:             uuid.NewString(),
		FechaTimbrado:    m.now(),
		SelloCFD:         "MOCK",
		SelloSAT:         "MOCK",
		NoCertificadoSAT: MockNoCertificadoSAT,
		Payload:          payload,
	}, nil
}

// Cancel devuelve un acuse simulado.
func (m *MockStamper) Cancel(ctx context.Context, req ports.CancelRequest) (*ports.CancellationReceipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewTransportError("contexto cancelado", err)
	}
	return &ports.CancellationReceipt{
		UUID:       req.UUID,
		Status:     "Cancelado sin aceptación",
		CanceledAt: m.now(),
		Acuse:      "MOCK-ACUSE-" + req.UUID,
	}, nil
}
