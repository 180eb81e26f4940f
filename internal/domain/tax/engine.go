// Package tax calcula los importes de una partida gravada (subtotal, IVA trasladado,
// retenciones de ISR e IVA y total) con aritmética decimal de punto fijo.
//
// Regla de redondeo: cada valor intermedio se redondea a dos decimales (mitad
// alejándose de cero) antes de usarse en el siguiente paso, de modo que los totales
// de un comprobante coinciden con la suma de los importes visibles por línea.
package tax

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-api/internal/domain"
	"github.com/jhoicas/cfdi-api/pkg/sat"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Rates tasas expresadas como fracción (16 % = 0.16).
type Rates struct {
	IVA          decimal.Decimal // tasa de IVA trasladado
	RetencionISR decimal.Decimal // aplicada sobre el subtotal
	RetencionIVA decimal.Decimal // aplicada sobre el IVA trasladado (ej. 2/3)
}

// Amounts importes calculados de una partida, todos a dos decimales.
type Amounts struct {
	Subtotal     decimal.Decimal
	IVA          decimal.Decimal
	RetencionISR decimal.Decimal
	RetencionIVA decimal.Decimal
	Total        decimal.Decimal
}

// LineItem partida comercial gravable.
type LineItem struct {
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Rates       Rates
	IVAIncluded bool
	ObjetoImp   sat.ObjetoImp
}

// Compute calcula los importes de la partida.
func (l LineItem) Compute() (Amounts, error) {
	return ComputeAmounts(l.Quantity, l.UnitPrice, l.Rates, l.IVAIncluded)
}

// Round2 redondea a dos decimales, mitad alejándose de cero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// RateFromPercent convierte un porcentaje (16) en fracción (0.16).
func RateFromPercent(percent decimal.Decimal) decimal.Decimal {
	return percent.Div(hundred)
}

// ComputeAmounts calcula los importes según el modo:
//   - ivaIncluded: el precio ya incluye IVA; el subtotal se obtiene dividiendo entre (1 + tasa).
//   - más IVA: el IVA se calcula sobre el subtotal.
//
// Devuelve *domain.InvalidInputError si cantidad o precio no son positivos o una tasa
// está fuera de [0, 1].
func ComputeAmounts(quantity, unitPrice decimal.Decimal, rates Rates, ivaIncluded bool) (Amounts, error) {
	if err := validateInputs(quantity, unitPrice, rates); err != nil {
		return Amounts{}, err
	}

	var a Amounts
	if ivaIncluded {
		gross := quantity.Mul(unitPrice)
		a.Subtotal = Round2(gross.Div(one.Add(rates.IVA)))
		a.IVA = Round2(gross.Sub(a.Subtotal))
		a.RetencionISR = Round2(a.Subtotal.Mul(rates.RetencionISR))
		a.RetencionIVA = Round2(a.IVA.Mul(rates.RetencionIVA))
		a.Total = Round2(gross.Sub(a.RetencionISR).Sub(a.RetencionIVA))
		return a, nil
	}

	a.Subtotal = Round2(quantity.Mul(unitPrice))
	a.IVA = Round2(a.Subtotal.Mul(rates.IVA))
	a.RetencionISR = Round2(a.Subtotal.Mul(rates.RetencionISR))
	a.RetencionIVA = Round2(a.IVA.Mul(rates.RetencionIVA))
	a.Total = Round2(a.Subtotal.Add(a.IVA).Sub(a.RetencionISR).Sub(a.RetencionIVA))
	return a, nil
}

// ExactAmounts aplica las mismas fórmulas sin redondeos intermedios.
// Solo sirve como referencia para detectar desviaciones de redondeo.
func ExactAmounts(quantity, unitPrice decimal.Decimal, rates Rates, ivaIncluded bool) (Amounts, error) {
	if err := validateInputs(quantity, unitPrice, rates); err != nil {
		return Amounts{}, err
	}
	var a Amounts
	gross := quantity.Mul(unitPrice)
	if ivaIncluded {
		a.Subtotal = gross.Div(one.Add(rates.IVA))
		a.IVA = gross.Sub(a.Subtotal)
	} else {
		a.Subtotal = gross
		a.IVA = gross.Mul(rates.IVA)
	}
	a.RetencionISR = a.Subtotal.Mul(rates.RetencionISR)
	a.RetencionIVA = a.IVA.Mul(rates.RetencionIVA)
	a.Total = a.Subtotal.Add(a.IVA).Sub(a.RetencionISR).Sub(a.RetencionIVA)
	return a, nil
}

func validateInputs(quantity, unitPrice decimal.Decimal, rates Rates) error {
	if !quantity.IsPositive() {
		return domain.NewInvalidInput("cantidad", "debe ser mayor a cero")
	}
	if !unitPrice.IsPositive() {
		return domain.NewInvalidInput("valor_unitario", "debe ser mayor a cero")
	}
	checks := []struct {
		field string
		rate  decimal.Decimal
	}{
		{"tasa_iva", rates.IVA},
		{"tasa_retencion_isr", rates.RetencionISR},
		{"tasa_retencion_iva", rates.RetencionIVA},
	}
	for _, c := range checks {
		if c.rate.IsNegative() || c.rate.GreaterThan(one) {
			return domain.NewInvalidInput(c.field, "la tasa debe estar entre 0 y 1 ("+c.rate.String()+")")
		}
	}
	return nil
}
