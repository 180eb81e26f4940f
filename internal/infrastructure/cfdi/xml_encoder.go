package cfdi

import (
	"fmt"

	"github.com/beevik/etree"

	domcfdi "github.com/jhoicas/cfdi-api/internal/domain/cfdi"
)

// Namespaces oficiales CFDI 4.0 (Anexo 20).
const (
	NsCFDI            = "http://www.sat.gob.mx/cfd/4"
	nsXsi             = "http://www.w3.org/2001/XMLSchema-instance"
	schemaLocationCFD = "http://www.sat.gob.mx/cfd/4 http://www.sat.gob.mx/sitio_internet/cfd/4/cfdv40.xsd"
)

// XMLEncoder construye el XML cfdi:Comprobante (sin sello ni certificado).
type XMLEncoder struct {
	indent int
}

// NewXMLEncoder crea el encoder con sangría de 2 espacios.
func NewXMLEncoder() *XMLEncoder { return &XMLEncoder{indent: 2} }

// Encode implementa ports.DocumentEncoder.
func (e *XMLEncoder) Encode(doc *domcfdi.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("cfdi: comprobante nulo")
	}
	x := buildXML(toWire(doc), true)
	if e.indent > 0 {
		x.Indent(e.indent)
	}
	out, err := x.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("cfdi: serializar XML: %w", err)
	}
	return out, nil
}

// ContentType tipo MIME del resultado.
func (e *XMLEncoder) ContentType() string { return "application/xml" }

func buildXML(w wireComprobante, withDecl bool) *etree.Document {
	x := etree.NewDocument()
	if withDecl {
		x.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	}

	root := x.CreateElement("cfdi:Comprobante")
	root.CreateAttr("xmlns:cfdi", NsCFDI)
	root.CreateAttr("xmlns:xsi", nsXsi)
	root.CreateAttr("xsi:schemaLocation", schemaLocationCFD)
	root.CreateAttr("Version", w.Version)
	attrIf(root, "Serie", w.Serie)
	attrIf(root, "Folio", w.Folio)
	root.CreateAttr("Fecha", w.Fecha)
	root.CreateAttr("FormaPago", w.FormaPago)
	if w.CondicionesDePago != nil {
		root.CreateAttr("CondicionesDePago", *w.CondicionesDePago)
	}
	root.CreateAttr("SubTotal", w.SubTotal)
	root.CreateAttr("Moneda", w.Moneda)
	root.CreateAttr("Total", w.Total)
	root.CreateAttr("TipoDeComprobante", w.TipoDeComprobante)
	root.CreateAttr("Exportacion", w.Exportacion)
	root.CreateAttr("MetodoPago", w.MetodoPago)
	root.CreateAttr("LugarExpedicion", w.LugarExpedicion)

	em := root.CreateElement("cfdi:Emisor")
	em.CreateAttr("Rfc", w.Emisor.Rfc)
	em.CreateAttr("Nombre", w.Emisor.Nombre)
	em.CreateAttr("RegimenFiscal", w.Emisor.RegimenFiscal)

	re := root.CreateElement("cfdi:Receptor")
	re.CreateAttr("Rfc", w.Receptor.Rfc)
	re.CreateAttr("Nombre", w.Receptor.Nombre)
	re.CreateAttr("DomicilioFiscalReceptor", w.Receptor.DomicilioFiscalReceptor)
	re.CreateAttr("RegimenFiscalReceptor", w.Receptor.RegimenFiscalReceptor)
	re.CreateAttr("UsoCFDI", w.Receptor.UsoCFDI)

	conceptos := root.CreateElement("cfdi:Conceptos")
	for _, c := range w.Conceptos {
		ce := conceptos.CreateElement("cfdi:Concepto")
		ce.CreateAttr("ClaveProdServ", c.ClaveProdServ)
		attrIf(ce, "NoIdentificacion", c.NoIdentificacion)
		ce.CreateAttr("Cantidad", c.Cantidad)
		ce.CreateAttr("ClaveUnidad", c.ClaveUnidad)
		attrIf(ce, "Unidad", c.Unidad)
		ce.CreateAttr("Descripcion", c.Descripcion)
		ce.CreateAttr("ValorUnitario", c.ValorUnitario)
		ce.CreateAttr("Importe", c.Importe)
		ce.CreateAttr("ObjetoImp", c.ObjetoImp)
		if c.Impuestos == nil {
			continue
		}
		imp := ce.CreateElement("cfdi:Impuestos")
		if len(c.Impuestos.Traslados) > 0 {
			ts := imp.CreateElement("cfdi:Traslados")
			for _, t := range c.Impuestos.Traslados {
				writeTraslado(ts, t)
			}
		}
		if len(c.Impuestos.Retenciones) > 0 {
			rs := imp.CreateElement("cfdi:Retenciones")
			for _, r := range c.Impuestos.Retenciones {
				writeRetencion(rs, r)
			}
		}
	}

	// ---- Resumen: el SAT exige Retenciones antes que Traslados
	if s := w.Impuestos; s != nil {
		imp := root.CreateElement("cfdi:Impuestos")
		if s.TotalImpuestosRetenidos != nil {
			imp.CreateAttr("TotalImpuestosRetenidos", *s.TotalImpuestosRetenidos)
		}
		if s.TotalImpuestosTrasladados != nil {
			imp.CreateAttr("TotalImpuestosTrasladados", *s.TotalImpuestosTrasladados)
		}
		if len(s.Retenciones) > 0 {
			rs := imp.CreateElement("cfdi:Retenciones")
			for _, r := range s.Retenciones {
				writeRetencion(rs, r)
			}
		}
		if len(s.Traslados) > 0 {
			ts := imp.CreateElement("cfdi:Traslados")
			for _, t := range s.Traslados {
				writeTraslado(ts, t)
			}
		}
	}
	return x
}

func writeTraslado(parent *etree.Element, t wireTraslado) {
	el := parent.CreateElement("cfdi:Traslado")
	el.CreateAttr("Base", t.Base)
	el.CreateAttr("Impuesto", t.Impuesto)
	el.CreateAttr("TipoFactor", t.TipoFactor)
	attrIf(el, "TasaOCuota", t.TasaOCuota)
	attrIf(el, "Importe", t.Importe)
}

func writeRetencion(parent *etree.Element, r wireRetencion) {
	el := parent.CreateElement("cfdi:Retencion")
	attrIf(el, "Base", r.Base)
	el.CreateAttr("Impuesto", r.Impuesto)
	attrIf(el, "TipoFactor", r.TipoFactor)
	attrIf(el, "TasaOCuota", r.TasaOCuota)
	el.CreateAttr("Importe", r.Importe)
}

func attrIf(el *etree.Element, key, value string) {
	if value != "" {
		el.CreateAttr(key, value)
	}
}
