// Package cfdi serializa el comprobante CFDI 4.0 con los nombres de atributo del Anexo 20.
// JSON y XML comparten el mismo mapeo (wire*) para que ambos formatos lleven exactamente
// los mismos nodos opcionales.
package cfdi

import (
	"github.com/shopspring/decimal"

	domcfdi "github.com/jhoicas/cfdi-api/internal/domain/cfdi"
)

// FechaLayout formato de fecha del Anexo 20 (hora local del lugar de expedición, sin zona).
const FechaLayout = "2006-01-02T15:04:05"

type wireComprobante struct {
	Version           string         `json:"Version"`
	Serie             string         `json:"Serie,omitempty"`
	Folio             string         `json:"Folio,omitempty"`
	Fecha             string         `json:"Fecha"`
	FormaPago         string         `json:"FormaPago"`
	CondicionesDePago *string        `json:"CondicionesDePago,omitempty"`
	SubTotal          string         `json:"SubTotal"`
	Moneda            string         `json:"Moneda"`
	Total             string         `json:"Total"`
	TipoDeComprobante string         `json:"TipoDeComprobante"`
	Exportacion       string         `json:"Exportacion"`
	MetodoPago        string         `json:"MetodoPago"`
	LugarExpedicion   string         `json:"LugarExpedicion"`
	Emisor            wireEmisor     `json:"Emisor"`
	Receptor          wireReceptor   `json:"Receptor"`
	Conceptos         []wireConcepto `json:"Conceptos"`
	Impuestos         *wireImpuestos `json:"Impuestos,omitempty"`
}

type wireEmisor struct {
	Rfc           string `json:"Rfc"`
	Nombre        string `json:"Nombre"`
	RegimenFiscal string `json:"RegimenFiscal"`
}

type wireReceptor struct {
	Rfc                     string `json:"Rfc"`
	Nombre                  string `json:"Nombre"`
	DomicilioFiscalReceptor string `json:"DomicilioFiscalReceptor"`
	RegimenFiscalReceptor   string `json:"RegimenFiscalReceptor"`
	UsoCFDI                 string `json:"UsoCFDI"`
}

type wireConcepto struct {
	ClaveProdServ    string                 `json:"ClaveProdServ"`
	NoIdentificacion string                 `json:"NoIdentificacion,omitempty"`
	Cantidad         string                 `json:"Cantidad"`
	ClaveUnidad      string                 `json:"ClaveUnidad"`
	Unidad           string                 `json:"Unidad,omitempty"`
	Descripcion      string                 `json:"Descripcion"`
	ValorUnitario    string                 `json:"ValorUnitario"`
	Importe          string                 `json:"Importe"`
	ObjetoImp        string                 `json:"ObjetoImp"`
	Impuestos        *wireConceptoImpuestos `json:"Impuestos,omitempty"`
}

type wireConceptoImpuestos struct {
	Traslados   []wireTraslado  `json:"Traslados,omitempty"`
	Retenciones []wireRetencion `json:"Retenciones,omitempty"`
}

type wireTraslado struct {
	Base       string `json:"Base"`
	Impuesto   string `json:"Impuesto"`
	TipoFactor string `json:"TipoFactor"`
	TasaOCuota string `json:"TasaOCuota,omitempty"`
	Importe    string `json:"Importe,omitempty"`
}

// wireRetencion sirve para conceptos y resumen; en el resumen solo llevan Impuesto e Importe.
type wireRetencion struct {
	Base       string `json:"Base,omitempty"`
	Impuesto   string `json:"Impuesto"`
	TipoFactor string `json:"TipoFactor,omitempty"`
	TasaOCuota string `json:"TasaOCuota,omitempty"`
	Importe    string `json:"Importe"`
}

type wireImpuestos struct {
	TotalImpuestosRetenidos   *string         `json:"TotalImpuestosRetenidos,omitempty"`
	TotalImpuestosTrasladados *string         `json:"TotalImpuestosTrasladados,omitempty"`
	Retenciones               []wireRetencion `json:"Retenciones,omitempty"`
	Traslados                 []wireTraslado  `json:"Traslados,omitempty"`
}

func toWire(doc *domcfdi.Document) wireComprobante {
	w := wireComprobante{
		Version:           doc.Version,
		Serie:             doc.Serie,
		Folio:             doc.Folio,
		Fecha:             doc.Fecha.Format(FechaLayout),
		FormaPago:         string(doc.FormaPago),
		CondicionesDePago: doc.CondicionesDePago,
		SubTotal:          money(doc.SubTotal),
		Moneda:            doc.Moneda,
		Total:             money(doc.Total),
		TipoDeComprobante: doc.TipoDeComprobante,
		Exportacion:       doc.Exportacion,
		MetodoPago:        string(doc.MetodoPago),
		LugarExpedicion:   doc.LugarExpedicion,
		Emisor: wireEmisor{
			Rfc:           doc.Emisor.Rfc,
			Nombre:        doc.Emisor.Nombre,
			RegimenFiscal: string(doc.Emisor.RegimenFiscal),
		},
		Receptor: wireReceptor{
			Rfc:                     doc.Receptor.Rfc,
			Nombre:                  doc.Receptor.Nombre,
			DomicilioFiscalReceptor: doc.Receptor.DomicilioFiscal,
			RegimenFiscalReceptor:   string(doc.Receptor.RegimenFiscal),
			UsoCFDI:                 string(doc.Receptor.UsoCFDI),
		},
		Conceptos: make([]wireConcepto, 0, len(doc.Conceptos)),
	}

	for _, l := range doc.Conceptos {
		c := wireConcepto{
			ClaveProdServ:    l.ClaveProdServ,
			NoIdentificacion: l.NoIdentificacion,
			Cantidad:         quantity(l.Cantidad),
			ClaveUnidad:      l.ClaveUnidad,
			Unidad:           l.Unidad,
			Descripcion:      l.Descripcion,
			ValorUnitario:    unitValue(l.ValorUnitario),
			Importe:          money(l.Importe),
			ObjetoImp:        string(l.ObjetoImp),
		}
		if l.Impuestos != nil {
			ci := &wireConceptoImpuestos{}
			for _, t := range l.Impuestos.Traslados {
				ci.Traslados = append(ci.Traslados, traslado(t))
			}
			for _, r := range l.Impuestos.Retenciones {
				ci.Retenciones = append(ci.Retenciones, wireRetencion{
					Base:       money(r.Base),
					Impuesto:   string(r.Impuesto),
					TipoFactor: string(r.TipoFactor),
					TasaOCuota: rate(r.TasaOCuota),
					Importe:    money(r.Importe),
				})
			}
			c.Impuestos = ci
		}
		w.Conceptos = append(w.Conceptos, c)
	}

	if s := doc.Impuestos; s != nil {
		wi := &wireImpuestos{}
		if s.TotalImpuestosRetenidos != nil {
			v := money(*s.TotalImpuestosRetenidos)
			wi.TotalImpuestosRetenidos = &v
		}
		if s.TotalImpuestosTrasladados != nil {
			v := money(*s.TotalImpuestosTrasladados)
			wi.TotalImpuestosTrasladados = &v
		}
		for _, r := range s.Retenciones {
			wi.Retenciones = append(wi.Retenciones, wireRetencion{Impuesto: string(r.Impuesto), Importe: money(r.Importe)})
		}
		for _, t := range s.Traslados {
			wi.Traslados = append(wi.Traslados, traslado(t))
		}
		w.Impuestos = wi
	}
	return w
}

func traslado(t domcfdi.Traslado) wireTraslado {
	return wireTraslado{
		Base:       money(t.Base),
		Impuesto:   string(t.Impuesto),
		TipoFactor: string(t.TipoFactor),
		TasaOCuota: rate(t.TasaOCuota),
		Importe:    money(t.Importe),
	}
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func rate(d decimal.Decimal) string { return d.StringFixed(6) }

// quantity admite hasta 6 decimales; sin ceros de relleno.
func quantity(d decimal.Decimal) string { return d.Round(6).String() }

// unitValue usa dos decimales salvo que el valor requiera más precisión (máximo 6).
func unitValue(d decimal.Decimal) string {
	if d.Equal(d.Round(2)) {
		return d.StringFixed(2)
	}
	return d.StringFixed(6)
}
