package cfdi

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-api/internal/domain"
	"github.com/jhoicas/cfdi-api/internal/domain/tax"
	"github.com/jhoicas/cfdi-api/pkg/sat"
)

// Build calcula cada partida y arma el comprobante.
//
// Solo los conceptos con ObjetoImp "02" llevan nodo Impuestos; el resto se calcula con
// tasas en cero y su importe es el subtotal. Los totales del comprobante se derivan de
// los importes de línea ya redondeados, nunca de un recálculo sobre el agregado.
func Build(lines []LineInput, emisor Party, receptor Receptor, meta Meta) (*Document, error) {
	if len(lines) == 0 {
		return nil, domain.NewInvalidInput("conceptos", "el comprobante debe tener al menos un concepto")
	}

	doc := &Document{
		Version:           Version,
		Serie:             meta.Serie,
		Folio:             meta.Folio,
		Fecha:             meta.Fecha,
		FormaPago:         meta.FormaPago,
		MetodoPago:        meta.MetodoPago,
		CondicionesDePago: meta.CondicionesDePago,
		Moneda:            MonedaMXN,
		TipoDeComprobante: TipoIngreso,
		Exportacion:       ExportacionNoAplica,
		LugarExpedicion:   meta.LugarExpedicion,
		Emisor:            emisor,
		Receptor:          receptor,
		Conceptos:         make([]Line, 0, len(lines)),
	}

	subtotal := decimal.Zero
	for i, in := range lines {
		line, err := buildLine(in)
		if err != nil {
			var inErr *domain.InvalidInputError
			if errors.As(err, &inErr) {
				return nil, inErr.WithPrefix(fmt.Sprintf("conceptos[%d]", i))
			}
			return nil, fmt.Errorf("concepto %d: %w", i, err)
		}
		subtotal = subtotal.Add(line.Importe)
		doc.Conceptos = append(doc.Conceptos, line)
	}
	doc.SubTotal = subtotal
	doc.Impuestos = summarize(doc.Conceptos)
	doc.Total = tax.Round2(subtotal.Add(doc.TotalTrasladados()).Sub(doc.TotalRetenidos()))
	return doc, nil
}

func buildLine(in LineInput) (Line, error) {
	item := in.Item
	if !item.ObjetoImp.Valid() {
		return Line{}, domain.NewInvalidInput("objeto_imp", fmt.Sprintf("clave %q no pertenece a c_ObjetoImp", item.ObjetoImp))
	}
	taxable := item.ObjetoImp.RequiresBreakdown()

	rates := item.Rates
	if !taxable {
		rates = tax.Rates{}
	}
	amounts, err := tax.ComputeAmounts(item.Quantity, item.UnitPrice, rates, item.IVAIncluded)
	if err != nil {
		return Line{}, err
	}

	line := Line{
		ConceptDescriptor: in.Concepto,
		ObjetoImp:         item.ObjetoImp,
		Cantidad:          item.Quantity,
		ValorUnitario:     item.UnitPrice,
		Importe:           amounts.Subtotal,
		Amounts:           amounts,
	}
	if item.IVAIncluded && taxable {
		line.ValorUnitario = amounts.Subtotal.Div(item.Quantity).Round(6)
	}
	if taxable {
		line.Impuestos = lineTaxes(amounts, rates)
	}
	return line, nil
}

func lineTaxes(a tax.Amounts, rates tax.Rates) *LineTaxes {
	lt := &LineTaxes{
		Traslados: []Traslado{{
			Base:       a.Subtotal,
			Impuesto:   sat.ImpuestoIVA,
			TipoFactor: sat.TipoFactorTasa,
			TasaOCuota: rates.IVA.Round(6),
			Importe:    a.IVA,
		}},
	}
	if !a.RetencionISR.IsZero() {
		lt.Retenciones = append(lt.Retenciones, Retencion{
			Base:       a.Subtotal,
			Impuesto:   sat.ImpuestoISR,
			TipoFactor: sat.TipoFactorTasa,
			TasaOCuota: rates.RetencionISR.Round(6),
			Importe:    a.RetencionISR,
		})
	}
	if !a.RetencionIVA.IsZero() {
		// La retención de IVA se expresa sobre la base: tasa IVA × proporción retenida.
		lt.Retenciones = append(lt.Retenciones, Retencion{
			Base:       a.Subtotal,
			Impuesto:   sat.ImpuestoIVA,
			TipoFactor: sat.TipoFactorTasa,
			TasaOCuota: rates.IVA.Mul(rates.RetencionIVA).Round(6),
			Importe:    a.RetencionIVA,
		})
	}
	return lt
}

// summarize agrupa traslados por (impuesto, tipo factor, tasa) y retenciones por impuesto,
// respetando el orden de aparición.
func summarize(lines []Line) *TaxSummary {
	var traslados []Traslado
	var retenciones []Retencion
	trasIdx := map[string]int{}
	retIdx := map[sat.Impuesto]int{}
	totalTras, totalRet := decimal.Zero, decimal.Zero
	hasTaxes := false
	for _, l := range lines {
		if l.Impuestos == nil {
			continue
		}
		hasTaxes = true
		for _, t := range l.Impuestos.Traslados {
			key := string(t.Impuesto) + "|" + string(t.TipoFactor) + "|" + t.TasaOCuota.StringFixed(6)
			if i, ok := trasIdx[key]; ok {
				traslados[i].Base = traslados[i].Base.Add(t.Base)
				traslados[i].Importe = traslados[i].Importe.Add(t.Importe)
			} else {
				trasIdx[key] = len(traslados)
				traslados = append(traslados, t)
			}
			totalTras = totalTras.Add(t.Importe)
		}
		for _, r := range l.Impuestos.Retenciones {
			if i, ok := retIdx[r.Impuesto]; ok {
				retenciones[i].Importe = retenciones[i].Importe.Add(r.Importe)
			} else {
				retIdx[r.Impuesto] = len(retenciones)
				retenciones = append(retenciones, Retencion{Impuesto: r.Impuesto, Importe: r.Importe})
			}
			totalRet = totalRet.Add(r.Importe)
		}
	}
	if !hasTaxes {
		return nil
	}

	s := &TaxSummary{Traslados: traslados, Retenciones: retenciones}
	if !totalTras.IsZero() {
		v := tax.Round2(totalTras)
		s.TotalImpuestosTrasladados = &v
	}
	if !totalRet.IsZero() {
		v := tax.Round2(totalRet)
		s.TotalImpuestosRetenidos = &v
	}
	return s
}
