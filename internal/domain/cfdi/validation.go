package cfdi

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-api/internal/domain"
	"github.com/jhoicas/cfdi-api/pkg/sat"
)

// Códigos estables de violación.
const (
	CodeDocumentoNulo              = "DOCUMENTO_NULO"
	CodeVersionInvalida            = "VERSION_INVALIDA"
	CodeFechaRequerida             = "FECHA_REQUERIDA"
	CodeLugarExpedicionInvalido    = "LUGAR_EXPEDICION_INVALIDO"
	CodeEmisorRfcInvalido          = "EMISOR_RFC_INVALIDO"
	CodeEmisorRegimenRequerido     = "EMISOR_REGIMEN_REQUERIDO"
	CodeEmisorRegimenDesconocido   = "EMISOR_REGIMEN_DESCONOCIDO"
	CodeReceptorRfcInvalido        = "RECEPTOR_RFC_INVALIDO"
	CodeReceptorRegimenRequerido   = "RECEPTOR_REGIMEN_REQUERIDO"
	CodeReceptorRegimenDesconocido = "RECEPTOR_REGIMEN_DESCONOCIDO"
	CodeReceptorUsoRequerido       = "RECEPTOR_USO_CFDI_REQUERIDO"
	CodeReceptorUsoDesconocido     = "RECEPTOR_USO_CFDI_DESCONOCIDO"
	CodeReceptorCPInvalido         = "RECEPTOR_CP_INVALIDO"
	CodeReceptorPublicoGeneral     = "RECEPTOR_PUBLICO_GENERAL"
	CodeConceptosVacios            = "CONCEPTOS_VACIOS"
	CodeClaveProdServInvalida      = "CONCEPTO_CLAVE_PROD_SERV_INVALIDA"
	CodeObjetoImpDesconocido       = "CONCEPTO_OBJETO_IMP_DESCONOCIDO"
	CodeImpuestosInconsistentes    = "CONCEPTO_IMPUESTOS_INCONSISTENTES"
	CodeSubtotalNoPositivo         = "SUBTOTAL_NO_POSITIVO"
	CodeTotalNoPositivo            = "TOTAL_NO_POSITIVO"
	CodeMetodoPagoInvalido         = "METODO_PAGO_INVALIDO"
	CodeFormaPagoInvalida          = "FORMA_PAGO_INVALIDA"
	CodeFormaPagoDesconocida       = "FORMA_PAGO_DESCONOCIDA"
	CodeFormaPagoPPD               = "FORMA_PAGO_PPD"
	CodeSubtotalInconsistente      = "SUBTOTAL_INCONSISTENTE"
	CodeTotalInconsistente         = "TOTAL_INCONSISTENTE"
)

// Tolerance diferencia máxima admitida entre un total y la suma de sus componentes.
var Tolerance = decimal.New(1, -2)

// ValidationOptions reglas opcionales del validador.
type ValidationOptions struct {
	// EnforcePPDFormaPago exige FormaPago "99" cuando MetodoPago es PPD.
	EnforcePPDFormaPago bool
}

// ValidationResult resultado del validador; Violations conserva el orden de detección.
type ValidationResult struct {
	Valid      bool
	Violations []domain.Violation
}

// Err devuelve *domain.DocumentValidationError con todas las violaciones, o nil.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &domain.DocumentValidationError{Violations: r.Violations}
}

// Codes devuelve los códigos de las violaciones en orden.
func (r ValidationResult) Codes() []string {
	out := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		out = append(out, v.Code)
	}
	return out
}

type collector []domain.Violation

func (c *collector) add(code, field, format string, args ...any) {
	*c = append(*c, domain.Violation{Code: code, Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate revisa el comprobante completo y reúne todas las violaciones; nunca se
// detiene en la primera. Un comprobante con violaciones no debe llegar al PAC.
func Validate(doc *Document, opts ValidationOptions) ValidationResult {
	var v collector
	if doc == nil {
		v.add(CodeDocumentoNulo, "Comprobante", "el comprobante es nulo")
		return ValidationResult{Violations: v}
	}

	validateHeader(&v, doc, opts)
	validateParty(&v, "Emisor", doc.Emisor, CodeEmisorRfcInvalido, CodeEmisorRegimenRequerido, CodeEmisorRegimenDesconocido)
	validateReceptor(&v, doc.Receptor)
	validateConceptos(&v, doc.Conceptos)
	validateTotals(&v, doc)

	return ValidationResult{Valid: len(v) == 0, Violations: v}
}

func validateHeader(v *collector, doc *Document, opts ValidationOptions) {
	if doc.Version != Version {
		v.add(CodeVersionInvalida, "Version", "la versión debe ser %s (recibida %q)", Version, doc.Version)
	}
	if doc.Fecha.IsZero() {
		v.add(CodeFechaRequerida, "Fecha", "la fecha de emisión es obligatoria")
	}
	if !sat.ValidPostalCode(doc.LugarExpedicion) {
		v.add(CodeLugarExpedicionInvalido, "LugarExpedicion", "el lugar de expedición debe ser un código postal de 5 dígitos (recibido %q)", doc.LugarExpedicion)
	}
	if !doc.MetodoPago.Valid() {
		v.add(CodeMetodoPagoInvalido, "MetodoPago", "el método de pago debe ser PUE o PPD (recibido %q)", doc.MetodoPago)
	}
	switch {
	case !sat.ValidFormaPagoFormat(string(doc.FormaPago)):
		v.add(CodeFormaPagoInvalida, "FormaPago", "la forma de pago debe ser una clave de 2 dígitos (recibida %q)", doc.FormaPago)
	case !doc.FormaPago.Valid():
		v.add(CodeFormaPagoDesconocida, "FormaPago", "la forma de pago %q no pertenece a c_FormaPago", doc.FormaPago)
	}
	if opts.EnforcePPDFormaPago && doc.MetodoPago == sat.MetodoPagoPPD && doc.FormaPago != sat.FormaPagoPorDefinir {
		v.add(CodeFormaPagoPPD, "FormaPago", "con método de pago PPD la forma de pago debe ser 99 (recibida %q)", doc.FormaPago)
	}
}

func validateParty(v *collector, prefix string, p Party, rfcCode, regReqCode, regUnknownCode string) {
	if err := sat.ValidateRFC(p.Rfc); err != nil {
		v.add(rfcCode, prefix+".Rfc", "%s: %s", prefix, err.Error())
	}
	switch {
	case p.RegimenFiscal == "":
		v.add(regReqCode, prefix+".RegimenFiscal", "%s: el régimen fiscal es obligatorio", prefix)
	case !p.RegimenFiscal.Valid():
		v.add(regUnknownCode, prefix+".RegimenFiscal", "%s: el régimen fiscal %q no pertenece a c_RegimenFiscal", prefix, p.RegimenFiscal)
	}
}

func validateReceptor(v *collector, r Receptor) {
	validateParty(v, "Receptor", r.Party, CodeReceptorRfcInvalido, CodeReceptorRegimenRequerido, CodeReceptorRegimenDesconocido)
	switch {
	case r.UsoCFDI == "":
		v.add(CodeReceptorUsoRequerido, "Receptor.UsoCFDI", "Receptor: el uso del CFDI es obligatorio")
	case !r.UsoCFDI.Valid():
		v.add(CodeReceptorUsoDesconocido, "Receptor.UsoCFDI", "Receptor: el uso %q no pertenece a c_UsoCFDI", r.UsoCFDI)
	}
	if !sat.ValidPostalCode(r.DomicilioFiscal) {
		v.add(CodeReceptorCPInvalido, "Receptor.DomicilioFiscalReceptor", "Receptor: el código postal debe tener exactamente 5 dígitos (recibido %q)", r.DomicilioFiscal)
	}
	if r.Rfc == sat.RFCPublicoGeneral &&
		(r.UsoCFDI != sat.UsoSinEfectosFiscales || r.RegimenFiscal != sat.RegimenSinObligacionesFiscales) {
		v.add(CodeReceptorPublicoGeneral, "Receptor", "Receptor: el RFC genérico %s exige uso S01 y régimen 616", sat.RFCPublicoGeneral)
	}
}

func validateConceptos(v *collector, lines []Line) {
	if len(lines) == 0 {
		v.add(CodeConceptosVacios, "Conceptos", "el comprobante debe tener al menos un concepto")
		return
	}
	for i, l := range lines {
		field := fmt.Sprintf("Conceptos[%d]", i)
		if !sat.ValidClaveProdServ(l.ClaveProdServ) {
			v.add(CodeClaveProdServInvalida, field+".ClaveProdServ", "concepto %d: la clave de producto o servicio debe tener 8 dígitos (recibida %q)", i, l.ClaveProdServ)
		}
		if !l.ObjetoImp.Valid() {
			v.add(CodeObjetoImpDesconocido, field+".ObjetoImp", "concepto %d: ObjetoImp %q no pertenece a c_ObjetoImp", i, l.ObjetoImp)
			continue
		}
		if l.ObjetoImp.RequiresBreakdown() != (l.Impuestos != nil) {
			if l.Impuestos == nil {
				v.add(CodeImpuestosInconsistentes, field+".Impuestos", "concepto %d: ObjetoImp 02 exige el nodo Impuestos", i)
			} else {
				v.add(CodeImpuestosInconsistentes, field+".Impuestos", "concepto %d: ObjetoImp %s no admite el nodo Impuestos", i, l.ObjetoImp)
			}
		}
	}
}

func validateTotals(v *collector, doc *Document) {
	if !doc.SubTotal.IsPositive() {
		v.add(CodeSubtotalNoPositivo, "SubTotal", "el subtotal debe ser mayor a cero (recibido %s)", doc.SubTotal.StringFixed(2))
	}
	if !doc.Total.IsPositive() {
		v.add(CodeTotalNoPositivo, "Total", "el total debe ser mayor a cero (recibido %s)", doc.Total.StringFixed(2))
	}
	if len(doc.Conceptos) == 0 {
		return
	}

	sum := decimal.Zero
	for _, l := range doc.Conceptos {
		sum = sum.Add(l.Importe)
	}
	if sum.Sub(doc.SubTotal).Abs().GreaterThan(Tolerance) {
		v.add(CodeSubtotalInconsistente, "SubTotal", "el subtotal (%s) no coincide con la suma de importes de conceptos (%s)",
			doc.SubTotal.StringFixed(2), sum.StringFixed(2))
	}

	expected := doc.SubTotal.Add(doc.TotalTrasladados()).Sub(doc.TotalRetenidos())
	if expected.Sub(doc.Total).Abs().GreaterThan(Tolerance) {
		v.add(CodeTotalInconsistente, "Total", "el total (%s) no coincide con subtotal + trasladados - retenidos (%s)",
			doc.Total.StringFixed(2), expected.StringFixed(2))
	}
}
