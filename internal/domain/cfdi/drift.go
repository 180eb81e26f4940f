package cfdi

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-api/internal/domain"
	"github.com/jhoicas/cfdi-api/internal/domain/tax"
)

// CheckRoundingDrift compara el total del comprobante (suma de líneas redondeadas) contra
// el agregado calculado sin redondeos intermedios y redondeado una sola vez.
// Devuelve un aviso si difieren en más de un centavo; nunca invalida el comprobante.
func CheckRoundingDrift(lines []LineInput, doc *Document) *domain.RoundingDriftWarning {
	if doc == nil || len(lines) == 0 {
		return nil
	}
	naive := decimal.Zero
	for _, in := range lines {
		rates := in.Item.Rates
		if !in.Item.ObjetoImp.RequiresBreakdown() {
			rates = tax.Rates{}
		}
		exact, err := tax.ExactAmounts(in.Item.Quantity, in.Item.UnitPrice, rates, in.Item.IVAIncluded)
		if err != nil {
			return nil
		}
		naive = naive.Add(exact.Total)
	}
	naive = tax.Round2(naive)

	diff := doc.Total.Sub(naive).Abs()
	if !diff.GreaterThan(Tolerance) {
		return nil
	}
	return &domain.RoundingDriftWarning{LineSumTotal: doc.Total, NaiveTotal: naive, Difference: diff}
}
