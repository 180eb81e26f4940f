package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrDocumentInvalid     = errors.New("comprobante inválido para timbrar")
	ErrStampingTransport   = errors.New("error de comunicación con el PAC")
	ErrStampingRejected    = errors.New("comprobante rechazado por el PAC")
	ErrStampingQuota       = errors.New("saldo de timbres agotado")
	ErrDuplicateSubmission = errors.New("el comprobante ya fue enviado a timbrar")
)

// InvalidInputError entrada rechazada antes de cualquier cálculo; Field indica el campo ofensor.
type InvalidInputError struct {
	Field   string
	Message string
}

// NewInvalidInput construye un InvalidInputError.
func NewInvalidInput(field, message string) *InvalidInputError {
	return &InvalidInputError{Field: field, Message: message}
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("entrada inválida en %s: %s", e.Field, e.Message)
}

// Is permite errors.Is(err, ErrInvalidInput).
func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

// WithPrefix devuelve una copia con el campo anidado bajo prefix (ej: "conceptos[1]").
func (e *InvalidInputError) WithPrefix(prefix string) *InvalidInputError {
	if prefix == "" {
		return e
	}
	field := prefix
	if e.Field != "" {
		field = prefix + "." + e.Field
	}
	return &InvalidInputError{Field: field, Message: e.Message}
}

// Violation una regla incumplida por el comprobante.
type Violation struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// DocumentValidationError agrupa todas las violaciones detectadas por el validador.
type DocumentValidationError struct {
	Violations []Violation
}

func (e *DocumentValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, fmt.Sprintf("[%s] %s", v.Code, v.Message))
	}
	return fmt.Sprintf("%s: %s", ErrDocumentInvalid.Error(), strings.Join(msgs, "; "))
}

// Is permite errors.Is(err, ErrDocumentInvalid).
func (e *DocumentValidationError) Is(target error) bool { return target == ErrDocumentInvalid }

// StampingErrorKind clasifica los fallos de la frontera de timbrado.
type StampingErrorKind string

const (
	// StampingTransport red o timeout; el llamador puede reintentar.
	StampingTransport StampingErrorKind = "TRANSPORT"
	// StampingRejected rechazo firmado de la autoridad; nunca se reintenta.
	StampingRejected StampingErrorKind = "REJECTED"
	// StampingQuotaExhausted error de cuenta (sin timbres); no reintentable.
	StampingQuotaExhausted StampingErrorKind = "QUOTA_EXHAUSTED"
)

// StampingError error devuelto por cualquier implementación de la frontera de timbrado.
// Message conserva literalmente el mensaje de la autoridad cuando existe.
type StampingError struct {
	Kind    StampingErrorKind
	Code    string
	Message string
	Cause   error
}

// NewTransportError construye un error de transporte.
func NewTransportError(message string, cause error) *StampingError {
	return &StampingError{Kind: StampingTransport, Code: "PAC_TRANSPORTE", Message: message, Cause: cause}
}

// NewRejectionError construye un rechazo con el código y mensaje de la autoridad.
func NewRejectionError(code, message string) *StampingError {
	return &StampingError{Kind: StampingRejected, Code: code, Message: message}
}

// NewQuotaError construye un error de saldo agotado.
func NewQuotaError(code, message string) *StampingError {
	return &StampingError{Kind: StampingQuotaExhausted, Code: code, Message: message}
}

func (e *StampingError) Error() string {
	base := fmt.Sprintf("timbrado %s [%s]: %s", strings.ToLower(string(e.Kind)), e.Code, e.Message)
	if e.Cause != nil {
		return base + ": " + e.Cause.Error()
	}
	return base
}

// Unwrap expone la causa original (error de red, contexto, etc.).
func (e *StampingError) Unwrap() error { return e.Cause }

// Is relaciona cada tipo con su error centinela.
func (e *StampingError) Is(target error) bool {
	switch e.Kind {
	case StampingTransport:
		return target == ErrStampingTransport
	case StampingRejected:
		return target == ErrStampingRejected
	case StampingQuotaExhausted:
		return target == ErrStampingQuota
	default:
		return false
	}
}

// Retryable solo los errores de transporte son seguros de reintentar.
func (e *StampingError) Retryable() bool { return e.Kind == StampingTransport }

// DuplicateSubmissionError el mismo comprobante ya tiene un envío registrado.
type DuplicateSubmissionError struct {
	Fingerprint string
	Status      string
	UUID        string
}

func (e *DuplicateSubmissionError) Error() string {
	if e.UUID != "" {
		return fmt.Sprintf("%s (estado %s, UUID %s)", ErrDuplicateSubmission.Error(), e.Status, e.UUID)
	}
	return fmt.Sprintf("%s (estado %s)", ErrDuplicateSubmission.Error(), e.Status)
}

// Is permite errors.Is(err, ErrDuplicateSubmission).
func (e *DuplicateSubmissionError) Is(target error) bool { return target == ErrDuplicateSubmission }

// RoundingDriftWarning aviso no fatal: el total derivado de las líneas redondeadas difiere
// en más de un centavo del total calculado sobre el agregado sin redondeos intermedios.
type RoundingDriftWarning struct {
	LineSumTotal decimal.Decimal
	NaiveTotal   decimal.Decimal
	Difference   decimal.Decimal
}

func (w *RoundingDriftWarning) Error() string {
	return fmt.Sprintf("desviación de redondeo: total por líneas %s, total agregado %s (diferencia %s)",
		w.LineSumTotal.StringFixed(2), w.NaiveTotal.StringFixed(2), w.Difference.StringFixed(2))
}
