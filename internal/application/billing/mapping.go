package billing

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/cfdi-api/internal/application/dto"
	"github.com/jhoicas/cfdi-api/internal/domain"
	"github.com/jhoicas/cfdi-api/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-api/internal/domain/tax"
	"github.com/jhoicas/cfdi-api/pkg/sat"
)

// FechaLayout formato de fecha aceptado en las solicitudes.
const FechaLayout = "2006-01-02T15:04:05"

// IssuerSettings datos del emisor tomados de configuración.
type IssuerSettings struct {
	Rfc           string
	Nombre        string
	RegimenFiscal string
	CodigoPostal  string // se usa como LugarExpedicion
}

func (s IssuerSettings) party() cfdi.Party {
	return cfdi.Party{
		Rfc:           sat.NormalizeRFC(s.Rfc),
		Nombre:        legalName(s.Nombre),
		RegimenFiscal: sat.RegimenFiscal(strings.TrimSpace(s.RegimenFiscal)),
	}
}

// legalName el SAT compara el nombre contra la constancia fiscal, en mayúsculas.
// cases.Caser no es seguro entre goroutines: se crea uno por llamada.
func legalName(s string) string {
	return cases.Upper(language.Spanish).String(strings.Join(strings.Fields(s), " "))
}

func toRates(r dto.TaxRequest) tax.Rates {
	return tax.Rates{
		IVA:          tax.RateFromPercent(r.TasaIVA),
		RetencionISR: tax.RateFromPercent(r.TasaRetencionISR),
		RetencionIVA: tax.RateFromPercent(r.TasaRetencionIVA),
	}
}

// toLineInputs solo ObjetoImp se valida aquí porque determina el cálculo;
// las demás claves las revisa el validador para reportarlas juntas.
func toLineInputs(conceptos []dto.ConceptoRequest) ([]cfdi.LineInput, error) {
	lines := make([]cfdi.LineInput, 0, len(conceptos))
	for i, c := range conceptos {
		objeto, err := sat.ParseObjetoImp(strings.TrimSpace(c.ObjetoImp))
		if err != nil {
			return nil, domain.NewInvalidInput(fmt.Sprintf("conceptos[%d].objeto_imp", i), err.Error())
		}
		lines = append(lines, cfdi.LineInput{
			Item: tax.LineItem{
				Quantity:    c.Cantidad,
				UnitPrice:   c.ValorUnitario,
				Rates:       toRates(c.TaxRequest),
				IVAIncluded: c.IVAIncluido,
				ObjetoImp:   objeto,
			},
			Concepto: cfdi.ConceptDescriptor{
				ClaveProdServ:    strings.TrimSpace(c.ClaveProdServ),
				NoIdentificacion: strings.TrimSpace(c.NoIdentificacion),
				ClaveUnidad:      strings.ToUpper(strings.TrimSpace(c.ClaveUnidad)),
				Unidad:           strings.TrimSpace(c.Unidad),
				Descripcion:      strings.TrimSpace(c.Descripcion),
			},
		})
	}
	return lines, nil
}

func toReceptor(r dto.ReceptorRequest) cfdi.Receptor {
	return cfdi.Receptor{
		Party: cfdi.Party{
			Rfc:           sat.NormalizeRFC(r.Rfc),
			Nombre:        legalName(r.Nombre),
			RegimenFiscal: sat.RegimenFiscal(strings.TrimSpace(r.RegimenFiscal)),
		},
		DomicilioFiscal: strings.TrimSpace(r.DomicilioFiscal),
		UsoCFDI:         sat.UsoCFDI(strings.ToUpper(strings.TrimSpace(r.UsoCFDI))),
	}
}

func toMeta(req dto.CFDIRequest, issuer IssuerSettings, now time.Time) (cfdi.Meta, error) {
	fecha := now
	if s := strings.TrimSpace(req.Fecha); s != "" {
		t, err := time.ParseInLocation(FechaLayout, s, now.Location())
		if err != nil {
			return cfdi.Meta{}, domain.NewInvalidInput("fecha", "formato esperado "+FechaLayout)
		}
		fecha = t
	}
	return cfdi.Meta{
		Serie:             strings.TrimSpace(req.Serie),
		Folio:             strings.TrimSpace(req.Folio),
		Fecha:             fecha.Truncate(time.Second),
		FormaPago:         sat.FormaPago(strings.TrimSpace(req.FormaPago)),
		MetodoPago:        sat.MetodoPago(strings.ToUpper(strings.TrimSpace(req.MetodoPago))),
		CondicionesDePago: req.CondicionesDePago,
		LugarExpedicion:   strings.TrimSpace(issuer.CodigoPostal),
	}, nil
}

func toTaxResponse(a tax.Amounts) *dto.TaxResponse {
	return &dto.TaxResponse{
		Subtotal:     a.Subtotal.StringFixed(2),
		IVA:          a.IVA.StringFixed(2),
		RetencionISR: a.RetencionISR.StringFixed(2),
		RetencionIVA: a.RetencionIVA.StringFixed(2),
		Total:        a.Total.StringFixed(2),
	}
}
