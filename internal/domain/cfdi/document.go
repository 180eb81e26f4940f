// Package cfdi arma y valida comprobantes CFDI 4.0 de tipo ingreso a partir de
// partidas comerciales. El paquete no conoce la serialización (JSON / XML) ni el PAC:
// solo produce el modelo del comprobante con importes ya redondeados.
package cfdi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-api/internal/domain/tax"
	"github.com/jhoicas/cfdi-api/pkg/sat"
)

// Valores fijos del encabezado para comprobantes de ingreso nacionales.
const (
	Version             = "4.0"
	MonedaMXN           = "MXN"
	TipoIngreso         = "I"
	ExportacionNoAplica = "01"
)

// Party contribuyente que emite o recibe el comprobante.
type Party struct {
	Rfc           string
	Nombre        string
	RegimenFiscal sat.RegimenFiscal
}

// Receptor agrega al contribuyente los datos exigidos en CFDI 4.0.
type Receptor struct {
	Party
	DomicilioFiscal string // código postal del domicilio fiscal
	UsoCFDI         sat.UsoCFDI
}

// ConceptDescriptor datos descriptivos del concepto facturado.
type ConceptDescriptor struct {
	ClaveProdServ    string // c_ClaveProdServ, 8 dígitos
	NoIdentificacion string
	ClaveUnidad      string // c_ClaveUnidad (ej. E48, H87)
	Unidad           string
	Descripcion      string
}

// LineInput partida de entrada del constructor.
type LineInput struct {
	Item     tax.LineItem
	Concepto ConceptDescriptor
}

// Meta datos del encabezado que no dependen de las partidas.
type Meta struct {
	Serie             string
	Folio             string
	Fecha             time.Time
	FormaPago         sat.FormaPago
	MetodoPago        sat.MetodoPago
	CondicionesDePago *string
	LugarExpedicion   string // código postal del emisor
}

// Traslado impuesto trasladado, por concepto o en el resumen.
type Traslado struct {
	Base       decimal.Decimal
	Impuesto   sat.Impuesto
	TipoFactor sat.TipoFactor
	TasaOCuota decimal.Decimal
	Importe    decimal.Decimal
}

// Retencion impuesto retenido. En el resumen del comprobante solo aplican Impuesto e Importe.
type Retencion struct {
	Base       decimal.Decimal
	Impuesto   sat.Impuesto
	TipoFactor sat.TipoFactor
	TasaOCuota decimal.Decimal
	Importe    decimal.Decimal
}

// LineTaxes nodo Impuestos de un concepto.
type LineTaxes struct {
	Traslados   []Traslado
	Retenciones []Retencion
}

// Line concepto del comprobante con sus importes calculados.
type Line struct {
	ConceptDescriptor
	ObjetoImp     sat.ObjetoImp
	Cantidad      decimal.Decimal
	ValorUnitario decimal.Decimal
	Importe       decimal.Decimal // subtotal de la partida
	Amounts       tax.Amounts
	Impuestos     *LineTaxes // nil cuando el concepto no es objeto de desglose
}

// TaxSummary nodo Impuestos del comprobante.
// Los totales son nil cuando no hay importe de ese tipo.
type TaxSummary struct {
	TotalImpuestosRetenidos   *decimal.Decimal
	TotalImpuestosTrasladados *decimal.Decimal
	Retenciones               []Retencion
	Traslados                 []Traslado
}

// Document comprobante CFDI 4.0 listo para validar y serializar.
type Document struct {
	Version           string
	Serie             string
	Folio             string
	Fecha             time.Time
	FormaPago         sat.FormaPago
	MetodoPago        sat.MetodoPago
	CondicionesDePago *string
	SubTotal          decimal.Decimal
	Moneda            string
	Total             decimal.Decimal
	TipoDeComprobante string
	Exportacion       string
	LugarExpedicion   string

	Emisor    Party
	Receptor  Receptor
	Conceptos []Line
	Impuestos *TaxSummary
}

// TotalTrasladados total de impuestos trasladados (cero si no hay).
func (d *Document) TotalTrasladados() decimal.Decimal {
	if d.Impuestos == nil || d.Impuestos.TotalImpuestosTrasladados == nil {
		return decimal.Zero
	}
	return *d.Impuestos.TotalImpuestosTrasladados
}

// TotalRetenidos total de impuestos retenidos (cero si no hay).
func (d *Document) TotalRetenidos() decimal.Decimal {
	if d.Impuestos == nil || d.Impuestos.TotalImpuestosRetenidos == nil {
		return decimal.Zero
	}
	return *d.Impuestos.TotalImpuestosRetenidos
}
