// Package sat contiene los catálogos cerrados del Anexo 20 (CFDI 4.0) publicados
// por el SAT y las reglas de formato de sus claves.
package sat

import (
	"fmt"
	"sort"
)

// CatalogError indica que un código no pertenece al catálogo SAT indicado.
type CatalogError struct {
	Catalog string
	Code    string
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("sat: %q no pertenece al catálogo %s", e.Code, e.Catalog)
}

// =============================================================================
// c_RegimenFiscal
// =============================================================================

// RegimenFiscal clave del régimen fiscal del contribuyente.
type RegimenFiscal string

const (
	RegimenGeneralPersonasMorales   RegimenFiscal = "601"
	RegimenPersonasMoralesSinLucro  RegimenFiscal = "603"
	RegimenSueldosYSalarios         RegimenFiscal = "605"
	RegimenArrendamiento            RegimenFiscal = "606"
	RegimenEnajenacionBienes        RegimenFiscal = "607"
	RegimenDemasIngresos            RegimenFiscal = "608"
	RegimenResidentesExtranjero     RegimenFiscal = "610"
	RegimenDividendos               RegimenFiscal = "611"
	RegimenActividadesEmpresariales RegimenFiscal = "612"
	RegimenIntereses                RegimenFiscal = "614"
	RegimenPremios                  RegimenFiscal = "615"
	RegimenSinObligacionesFiscales  RegimenFiscal = "616"
	RegimenCooperativasProduccion   RegimenFiscal = "620"
	RegimenIncorporacionFiscal      RegimenFiscal = "621"
	RegimenActividadesAgricolas     RegimenFiscal = "622"
	RegimenGruposSociedades         RegimenFiscal = "623"
	RegimenCoordinados              RegimenFiscal = "624"
	RegimenPlataformasTecnologicas  RegimenFiscal = "625"
	RegimenSimplificadoConfianza    RegimenFiscal = "626"
)

var regimenesFiscales = map[RegimenFiscal]string{
	RegimenGeneralPersonasMorales:   "General de Ley Personas Morales",
	RegimenPersonasMoralesSinLucro:  "Personas Morales con Fines no Lucrativos",
	RegimenSueldosYSalarios:         "Sueldos y Salarios e Ingresos Asimilados a Salarios",
	RegimenArrendamiento:            "Arrendamiento",
	RegimenEnajenacionBienes:        "Régimen de Enajenación o Adquisición de Bienes",
	RegimenDemasIngresos:            "Demás ingresos",
	RegimenResidentesExtranjero:     "Residentes en el Extranjero sin Establecimiento Permanente en México",
	RegimenDividendos:               "Ingresos por Dividendos (socios y accionistas)",
	RegimenActividadesEmpresariales: "Personas Físicas con Actividades Empresariales y Profesionales",
	RegimenIntereses:                "Ingresos por intereses",
	RegimenPremios:                  "Régimen de los ingresos por obtención de premios",
	RegimenSinObligacionesFiscales:  "Sin obligaciones fiscales",
	RegimenCooperativasProduccion:   "Sociedades Cooperativas de Producción que optan por diferir sus ingresos",
	RegimenIncorporacionFiscal:      "Incorporación Fiscal",
	RegimenActividadesAgricolas:     "Actividades Agrícolas, Ganaderas, Silvícolas y Pesqueras",
	RegimenGruposSociedades:         "Opcional para Grupos de Sociedades",
	RegimenCoordinados:              "Coordinados",
	RegimenPlataformasTecnologicas:  "Régimen de las Actividades Empresariales con ingresos a través de Plataformas Tecnológicas",
	RegimenSimplificadoConfianza:    "Régimen Simplificado de Confianza",
}

// Valid indica si la clave existe en c_RegimenFiscal.
func (r RegimenFiscal) Valid() bool {
	_, ok := regimenesFiscales[r]
	return ok
}

// Description devuelve la descripción oficial o cadena vacía.
func (r RegimenFiscal) Description() string { return regimenesFiscales[r] }

// ParseRegimenFiscal convierte una clave en RegimenFiscal.
func ParseRegimenFiscal(code string) (RegimenFiscal, error) {
	r := RegimenFiscal(code)
	if !r.Valid() {
		return "", &CatalogError{Catalog: "c_RegimenFiscal", Code: code}
	}
	return r, nil
}

// =============================================================================
// c_UsoCFDI
// =============================================================================

// UsoCFDI clave del uso que el receptor dará al comprobante.
type UsoCFDI string

const (
	UsoAdquisicionMercancias  UsoCFDI = "G01"
	UsoDevolucionesDescuentos UsoCFDI = "G02"
	UsoGastosEnGeneral        UsoCFDI = "G03"
	UsoConstrucciones         UsoCFDI = "I01"
	UsoMobiliarioOficina      UsoCFDI = "I02"
	UsoEquipoTransporte       UsoCFDI = "I03"
	UsoEquipoComputo          UsoCFDI = "I04"
	UsoDadosTroqueles         UsoCFDI = "I05"
	UsoComunicacionesTelef    UsoCFDI = "I06"
	UsoComunicacionesSatel    UsoCFDI = "I07"
	UsoOtraMaquinaria         UsoCFDI = "I08"
	UsoHonorariosMedicos      UsoCFDI = "D01"
	UsoGastosMedicosIncap     UsoCFDI = "D02"
	UsoGastosFunerales        UsoCFDI = "D03"
	UsoDonativos              UsoCFDI = "D04"
	UsoInteresesHipotecarios  UsoCFDI = "D05"
	UsoAportacionesSAR        UsoCFDI = "D06"
	UsoPrimasGastosMedicos    UsoCFDI = "D07"
	UsoTransportacionEscolar  UsoCFDI = "D08"
	UsoDepositosAhorro        UsoCFDI = "D09"
	UsoServiciosEducativos    UsoCFDI = "D10"
	UsoSinEfectosFiscales     UsoCFDI = "S01"
	UsoPagos                  UsoCFDI = "CP01"
	UsoNomina                 UsoCFDI = "CN01"
)

var usosCFDI = map[UsoCFDI]string{
	UsoAdquisicionMercancias:  "Adquisición de mercancías",
	UsoDevolucionesDescuentos: "Devoluciones, descuentos o bonificaciones",
	UsoGastosEnGeneral:        "Gastos en general",
	UsoConstrucciones:         "Construcciones",
	UsoMobiliarioOficina:      "Mobiliario y equipo de oficina por inversiones",
	UsoEquipoTransporte:       "Equipo de transporte",
	UsoEquipoComputo:          "Equipo de computo y accesorios",
	UsoDadosTroqueles:         "Dados, troqueles, moldes, matrices y herramental",
	UsoComunicacionesTelef:    "Comunicaciones telefónicas",
	UsoComunicacionesSatel:    "Comunicaciones satelitales",
	UsoOtraMaquinaria:         "Otra maquinaria y equipo",
	UsoHonorariosMedicos:      "Honorarios médicos, dentales y gastos hospitalarios",
	UsoGastosMedicosIncap:     "Gastos médicos por incapacidad o discapacidad",
	UsoGastosFunerales:        "Gastos funerales",
	UsoDonativos:              "Donativos",
	UsoInteresesHipotecarios:  "Intereses reales efectivamente pagados por créditos hipotecarios (casa habitación)",
	UsoAportacionesSAR:        "Aportaciones voluntarias al SAR",
	UsoPrimasGastosMedicos:    "Primas por seguros de gastos médicos",
	UsoTransportacionEscolar:  "Gastos de transportación escolar obligatoria",
	UsoDepositosAhorro:        "Depósitos en cuentas para el ahorro, primas que tengan como base planes de pensiones",
	UsoServiciosEducativos:    "Pagos por servicios educativos (colegiaturas)",
	UsoSinEfectosFiscales:     "Sin efectos fiscales",
	UsoPagos:                  "Pagos",
	UsoNomina:                 "Nómina",
}

// Valid indica si la clave existe en c_UsoCFDI.
func (u UsoCFDI) Valid() bool {
	_, ok := usosCFDI[u]
	return ok
}

// Description devuelve la descripción oficial o cadena vacía.
func (u UsoCFDI) Description() string { return usosCFDI[u] }

// ParseUsoCFDI convierte una clave en UsoCFDI.
func ParseUsoCFDI(code string) (UsoCFDI, error) {
	u := UsoCFDI(code)
	if !u.Valid() {
		return "", &CatalogError{Catalog: "c_UsoCFDI", Code: code}
	}
	return u, nil
}

// =============================================================================
// c_FormaPago
// =============================================================================

// FormaPago clave de la forma en que se realizó (o realizará) el pago.
type FormaPago string

const (
	FormaPagoEfectivo             FormaPago = "01"
	FormaPagoChequeNominativo     FormaPago = "02"
	FormaPagoTransferencia        FormaPago = "03"
	FormaPagoTarjetaCredito       FormaPago = "04"
	FormaPagoMonederoElectronico  FormaPago = "05"
	FormaPagoDineroElectronico    FormaPago = "06"
	FormaPagoValesDespensa        FormaPago = "08"
	FormaPagoDacionEnPago         FormaPago = "12"
	FormaPagoSubrogacion          FormaPago = "13"
	FormaPagoConsignacion         FormaPago = "14"
	FormaPagoCondonacion          FormaPago = "15"
	FormaPagoCompensacion         FormaPago = "17"
	FormaPagoNovacion             FormaPago = "23"
	FormaPagoConfusion            FormaPago = "24"
	FormaPagoRemisionDeuda        FormaPago = "25"
	FormaPagoPrescripcion         FormaPago = "26"
	FormaPagoSatisfaccionAcreedor FormaPago = "27"
	FormaPagoTarjetaDebito        FormaPago = "28"
	FormaPagoTarjetaServicios     FormaPago = "29"
	FormaPagoAnticipos            FormaPago = "30"
	FormaPagoIntermediario        FormaPago = "31"
	FormaPagoPorDefinir           FormaPago = "99"
)

var formasPago = map[FormaPago]string{
	FormaPagoEfectivo:             "Efectivo",
	FormaPagoChequeNominativo:     "Cheque nominativo",
	FormaPagoTransferencia:        "Transferencia electrónica de fondos",
	FormaPagoTarjetaCredito:       "Tarjeta de crédito",
	FormaPagoMonederoElectronico:  "Monedero electrónico",
	FormaPagoDineroElectronico:    "Dinero electrónico",
	FormaPagoValesDespensa:        "Vales de despensa",
	FormaPagoDacionEnPago:         "Dación en pago",
	FormaPagoSubrogacion:          "Pago por subrogación",
	FormaPagoConsignacion:         "Pago por consignación",
	FormaPagoCondonacion:          "Condonación",
	FormaPagoCompensacion:         "Compensación",
	FormaPagoNovacion:             "Novación",
	FormaPagoConfusion:            "Confusión",
	FormaPagoRemisionDeuda:        "Remisión de deuda",
	FormaPagoPrescripcion:         "Prescripción o caducidad",
	FormaPagoSatisfaccionAcreedor: "A satisfacción del acreedor",
	FormaPagoTarjetaDebito:        "Tarjeta de débito",
	FormaPagoTarjetaServicios:     "Tarjeta de servicios",
	FormaPagoAnticipos:            "Aplicación de anticipos",
	FormaPagoIntermediario:        "Intermediario pagos",
	FormaPagoPorDefinir:           "Por definir",
}

// Valid indica si la clave existe en c_FormaPago.
func (f FormaPago) Valid() bool {
	_, ok := formasPago[f]
	return ok
}

// Description devuelve la descripción oficial o cadena vacía.
func (f FormaPago) Description() string { return formasPago[f] }

// ParseFormaPago convierte una clave en FormaPago.
func ParseFormaPago(code string) (FormaPago, error) {
	f := FormaPago(code)
	if !f.Valid() {
		return "", &CatalogError{Catalog: "c_FormaPago", Code: code}
	}
	return f, nil
}

// =============================================================================
// c_MetodoPago
// =============================================================================

// MetodoPago PUE (una sola exhibición) o PPD (parcialidades o diferido).
type MetodoPago string

const (
	MetodoPagoPUE MetodoPago = "PUE"
	MetodoPagoPPD MetodoPago = "PPD"
)

// Valid indica si es PUE o PPD.
func (m MetodoPago) Valid() bool {
	switch m {
	case MetodoPagoPUE, MetodoPagoPPD:
		return true
	default:
		return false
	}
}

// Description devuelve la descripción oficial o cadena vacía.
func (m MetodoPago) Description() string {
	switch m {
	case MetodoPagoPUE:
		return "Pago en una sola exhibición"
	case MetodoPagoPPD:
		return "Pago en parcialidades o diferido"
	default:
		return ""
	}
}

// ParseMetodoPago convierte una clave en MetodoPago.
func ParseMetodoPago(code string) (MetodoPago, error) {
	m := MetodoPago(code)
	if !m.Valid() {
		return "", &CatalogError{Catalog: "c_MetodoPago", Code: code}
	}
	return m, nil
}

// =============================================================================
// c_ObjetoImp
// =============================================================================

// ObjetoImp indica si el concepto es objeto de impuesto y cómo se desglosa.
type ObjetoImp string

const (
	ObjetoImpNoObjeto        ObjetoImp = "01" // No objeto de impuesto
	ObjetoImpSiObjeto        ObjetoImp = "02" // Sí objeto de impuesto
	ObjetoImpSinDesglose     ObjetoImp = "03" // Sí objeto del impuesto y no obligado al desglose
	ObjetoImpNoCausaImpuesto ObjetoImp = "04" // Sí objeto del impuesto y no causa impuesto
)

// Valid indica si la clave existe en c_ObjetoImp.
func (o ObjetoImp) Valid() bool {
	switch o {
	case ObjetoImpNoObjeto, ObjetoImpSiObjeto, ObjetoImpSinDesglose, ObjetoImpNoCausaImpuesto:
		return true
	default:
		return false
	}
}

// RequiresBreakdown indica si el concepto debe llevar el nodo Impuestos.
// Solo "02" obliga al desglose de traslados y retenciones.
func (o ObjetoImp) RequiresBreakdown() bool {
	switch o {
	case ObjetoImpSiObjeto:
		return true
	case ObjetoImpNoObjeto, ObjetoImpSinDesglose, ObjetoImpNoCausaImpuesto:
		return false
	default:
		return false
	}
}

// Description devuelve la descripción oficial o cadena vacía.
func (o ObjetoImp) Description() string {
	switch o {
	case ObjetoImpNoObjeto:
		return "No objeto de impuesto"
	case ObjetoImpSiObjeto:
		return "Sí objeto de impuesto"
	case ObjetoImpSinDesglose:
		return "Sí objeto del impuesto y no obligado al desglose"
	case ObjetoImpNoCausaImpuesto:
		return "Sí objeto del impuesto y no causa impuesto"
	default:
		return ""
	}
}

// ParseObjetoImp convierte una clave en ObjetoImp.
func ParseObjetoImp(code string) (ObjetoImp, error) {
	o := ObjetoImp(code)
	if !o.Valid() {
		return "", &CatalogError{Catalog: "c_ObjetoImp", Code: code}
	}
	return o, nil
}

// =============================================================================
// c_Impuesto y c_TipoFactor
// =============================================================================

// Impuesto clave del impuesto trasladado o retenido.
type Impuesto string

const (
	ImpuestoISR  Impuesto = "001"
	ImpuestoIVA  Impuesto = "002"
	ImpuestoIEPS Impuesto = "003"
)

// Valid indica si la clave existe en c_Impuesto.
func (i Impuesto) Valid() bool {
	switch i {
	case ImpuestoISR, ImpuestoIVA, ImpuestoIEPS:
		return true
	default:
		return false
	}
}

// TipoFactor forma de cálculo del impuesto.
type TipoFactor string

const (
	TipoFactorTasa   TipoFactor = "Tasa"
	TipoFactorCuota  TipoFactor = "Cuota"
	TipoFactorExento TipoFactor = "Exento"
)

// Valid indica si la clave existe en c_TipoFactor.
func (t TipoFactor) Valid() bool {
	switch t {
	case TipoFactorTasa, TipoFactorCuota, TipoFactorExento:
		return true
	default:
		return false
	}
}

// =============================================================================
// Motivos de cancelación
// =============================================================================

// MotivoCancelacion clave del motivo de cancelación de un CFDI timbrado.
type MotivoCancelacion string

const (
	MotivoErroresConRelacion MotivoCancelacion = "01" // exige folio de sustitución
	MotivoErroresSinRelacion MotivoCancelacion = "02"
	MotivoNoSeLlevoACabo     MotivoCancelacion = "03"
	MotivoFacturaGlobal      MotivoCancelacion = "04"
)

// Valid indica si la clave es un motivo de cancelación vigente.
func (m MotivoCancelacion) Valid() bool {
	switch m {
	case MotivoErroresConRelacion, MotivoErroresSinRelacion, MotivoNoSeLlevoACabo, MotivoFacturaGlobal:
		return true
	default:
		return false
	}
}

// RequiresSubstitution indica si el motivo exige el UUID del CFDI que sustituye al cancelado.
func (m MotivoCancelacion) RequiresSubstitution() bool {
	return m == MotivoErroresConRelacion
}

// ParseMotivoCancelacion convierte una clave en MotivoCancelacion.
func ParseMotivoCancelacion(code string) (MotivoCancelacion, error) {
	m := MotivoCancelacion(code)
	if !m.Valid() {
		return "", &CatalogError{Catalog: "c_MotivoCancelacion", Code: code}
	}
	return m, nil
}

// RegimenesFiscales devuelve las claves de c_RegimenFiscal ordenadas.
func RegimenesFiscales() []RegimenFiscal {
	out := make([]RegimenFiscal, 0, len(regimenesFiscales))
	for k := range regimenesFiscales {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
