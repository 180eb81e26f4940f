package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-api/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-api/pkg/sat"
)

// Stamper define el puerto de salida hacia el PAC (proveedor autorizado de certificación).
// Cualquier adaptador (REST, SOAP, mock) debe implementar esta interfaz.
// Los errores devueltos deben ser *domain.StampingError para que el llamador distinga
// transporte (reintentable), rechazo y saldo agotado.
type Stamper interface {
	// Stamp envía un comprobante ya validado y devuelve el timbre fiscal.
	// El contexto debe llevar un timeout; el adaptador no reintenta por su cuenta.
	Stamp(ctx context.Context, doc *cfdi.Document) (*StampedDocument, error)

	// Cancel solicita la cancelación de un CFDI timbrado.
	Cancel(ctx context.Context, req CancelRequest) (*CancellationReceipt, error)
}

// StampedDocument datos del Timbre Fiscal Digital devueltos por el PAC.
type StampedDocument struct {
	UUID             string
	FechaTimbrado    time.Time
	SelloCFD         string
	SelloSAT         string
	NoCertificadoSAT string
	Payload          []byte // comprobante timbrado tal como lo devuelve el PAC
}

// CancelRequest solicitud de cancelación.
type CancelRequest struct {
	UUID             string
	EmisorRfc        string
	ReceptorRfc      string
	Total            decimal.Decimal
	Motivo           sat.MotivoCancelacion
	FolioSustitucion string // obligatorio con motivo 01
}

// CancellationReceipt acuse de cancelación.
type CancellationReceipt struct {
	UUID       string
	Status     string
	CanceledAt time.Time
	Acuse      string
}

// DocumentEncoder serializa el comprobante (JSON o XML).
type DocumentEncoder interface {
	Encode(doc *cfdi.Document) ([]byte, error)
	ContentType() string
}

// Fingerprinter obtiene una huella estable del comprobante para detectar envíos duplicados.
type Fingerprinter interface {
	Fingerprint(doc *cfdi.Document) (string, error)
}

// Estados registrados en el libro de envíos.
const (
	LedgerPending  = "PENDING"
	LedgerStamped  = "STAMPED"
	LedgerRejected = "REJECTED"
)

// LedgerRecord estado de un envío identificado por la huella del comprobante.
type LedgerRecord struct {
	Fingerprint string    `json:"fingerprint"`
	CompanyID   string    `json:"company_id"`
	Status      string    `json:"status"`
	UUID        string    `json:"uuid,omitempty"`
	ErrorCode   string    `json:"error_code,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StampingLedger evita que el mismo comprobante se envíe dos veces al PAC.
// Solo guarda huellas y estados, nunca el comprobante.
type StampingLedger interface {
	// Reserve registra la huella como PENDING. Si ya existe devuelve el registro previo
	// y reserved=false.
	Reserve(ctx context.Context, companyID, fingerprint string) (existing *LedgerRecord, reserved bool, err error)
	MarkStamped(ctx context.Context, fingerprint, uuid string) error
	MarkRejected(ctx context.Context, fingerprint, code string) error
	// Release elimina una reserva PENDING para permitir un nuevo intento.
	Release(ctx context.Context, fingerprint string) error
	Get(ctx context.Context, fingerprint string) (*LedgerRecord, error)
}
