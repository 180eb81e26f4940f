package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-api/internal/domain"
)

// TaxRequest body para POST /api/cfdi/taxes. Las tasas se expresan en porcentaje (16 = 16 %).
// TasaRetencionIVA es la proporción del IVA que se retiene (66.6667 = dos terceras partes).
type TaxRequest struct {
	Cantidad         decimal.Decimal `json:"cantidad"`
	ValorUnitario    decimal.Decimal `json:"valor_unitario"`
	TasaIVA          decimal.Decimal `json:"tasa_iva"`
	TasaRetencionISR decimal.Decimal `json:"tasa_retencion_isr"`
	TasaRetencionIVA decimal.Decimal `json:"tasa_retencion_iva"`
	IVAIncluido      bool            `json:"iva_incluido"`
}

// TaxResponse importes calculados, siempre con dos decimales.
type TaxResponse struct {
	Subtotal     string `json:"subtotal"`
	IVA          string `json:"iva"`
	RetencionISR string `json:"retencion_isr"`
	RetencionIVA string `json:"retencion_iva"`
	Total        string `json:"total"`
}

// ReceptorRequest datos del receptor del comprobante.
type ReceptorRequest struct {
	Rfc             string `json:"rfc"`
	Nombre          string `json:"nombre"`
	RegimenFiscal   string `json:"regimen_fiscal"`
	DomicilioFiscal string `json:"domicilio_fiscal"` // código postal
	UsoCFDI         string `json:"uso_cfdi"`
}

// ConceptoRequest concepto a facturar: descripción SAT + datos de cálculo.
type ConceptoRequest struct {
	TaxRequest
	ClaveProdServ    string `json:"clave_prod_serv"`
	NoIdentificacion string `json:"no_identificacion,omitempty"`
	ClaveUnidad      string `json:"clave_unidad"`
	Unidad           string `json:"unidad,omitempty"`
	Descripcion      string `json:"descripcion"`
	ObjetoImp        string `json:"objeto_imp"`
}

// CFDIRequest body para POST /api/cfdi/preview y /api/cfdi/stamp.
// Fecha en formato 2006-01-02T15:04:05; si va vacía se usa la hora actual.
type CFDIRequest struct {
	Serie             string            `json:"serie,omitempty"`
	Folio             string            `json:"folio,omitempty"`
	Fecha             string            `json:"fecha,omitempty"`
	FormaPago         string            `json:"forma_pago"`
	MetodoPago        string            `json:"metodo_pago"`
	CondicionesDePago *string           `json:"condiciones_de_pago,omitempty"`
	Receptor          ReceptorRequest   `json:"receptor"`
	Conceptos         []ConceptoRequest `json:"conceptos"`
}

// PreviewResponse comprobante armado y su resultado de validación. Nunca se timbra.
type PreviewResponse struct {
	Valid       bool               `json:"valid"`
	Violations  []domain.Violation `json:"violations"`
	Warnings    []string           `json:"warnings,omitempty"`
	Fingerprint string             `json:"fingerprint,omitempty"`
	Comprobante json.RawMessage    `json:"comprobante"`
}

// StampResponse resultado del timbrado.
type StampResponse struct {
	UUID             string `json:"uuid"`
	FechaTimbrado    string `json:"fecha_timbrado"`
	NoCertificadoSAT string `json:"no_certificado_sat,omitempty"`
	SelloSAT         string `json:"sello_sat,omitempty"`
	Fingerprint      string `json:"fingerprint"`
	SubTotal         string `json:"subtotal"`
	Total            string `json:"total"`
}

// CancelCFDIRequest body para POST /api/cfdi/cancel.
type CancelCFDIRequest struct {
	UUID             string          `json:"uuid"`
	ReceptorRfc      string          `json:"receptor_rfc"`
	Total            decimal.Decimal `json:"total"`
	Motivo           string          `json:"motivo"`
	FolioSustitucion string          `json:"folio_sustitucion,omitempty"`
}

// CancelCFDIResponse acuse de cancelación.
type CancelCFDIResponse struct {
	UUID       string `json:"uuid"`
	Status     string `json:"status"`
	CanceledAt string `json:"canceled_at"`
	Acuse      string `json:"acuse,omitempty"`
}
