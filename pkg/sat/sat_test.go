package sat_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-api/pkg/sat"
)

func TestValidateRFC(t *testing.T) {
	tests := []struct {
		name string
		rfc  string
		ok   bool
	}{
		{"persona moral 12", "EKU9003173C9", true},
		{"persona física 13", "XAXX010101000", true},
		{"demasiado corto", "ABC1234567", false},
		{"demasiado largo", "ABCD0101010001", false},
		{"caracter no alfanumérico", "EKU9003173C-", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sat.ValidateRFC(tt.rfc)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestNormalizeRFC(t *testing.T) {
	assert.Equal(t, "EKU9003173C9", sat.NormalizeRFC("  eku-900317 3c9 "))
}

func TestValidPostalCode(t *testing.T) {
	assert.True(t, sat.ValidPostalCode("06600"))
	assert.False(t, sat.ValidPostalCode("0660"))
	assert.False(t, sat.ValidPostalCode("06A00"))
	assert.False(t, sat.ValidPostalCode(""))
}

func TestValidClaveProdServ(t *testing.T) {
	assert.True(t, sat.ValidClaveProdServ("84111506"))
	assert.False(t, sat.ValidClaveProdServ("8411150"))
	assert.False(t, sat.ValidClaveProdServ("8411150X"))
}

func TestParseCatalogos(t *testing.T) {
	r, err := sat.ParseRegimenFiscal("601")
	require.NoError(t, err)
	assert.Equal(t, sat.RegimenGeneralPersonasMorales, r)
	assert.NotEmpty(t, r.Description())

	_, err = sat.ParseRegimenFiscal("999")
	var catErr *sat.CatalogError
	require.True(t, errors.As(err, &catErr))
	assert.Equal(t, "c_RegimenFiscal", catErr.Catalog)

	u, err := sat.ParseUsoCFDI("G03")
	require.NoError(t, err)
	assert.Equal(t, sat.UsoGastosEnGeneral, u)
	_, err = sat.ParseUsoCFDI("P01") // eliminado en CFDI 4.0
	assert.Error(t, err)

	f, err := sat.ParseFormaPago("99")
	require.NoError(t, err)
	assert.Equal(t, sat.FormaPagoPorDefinir, f)
	_, err = sat.ParseFormaPago("07")
	assert.Error(t, err)

	_, err = sat.ParseMetodoPago("PIP")
	assert.Error(t, err)

	m, err := sat.ParseMotivoCancelacion("01")
	require.NoError(t, err)
	assert.True(t, m.RequiresSubstitution())
	assert.False(t, sat.MotivoNoSeLlevoACabo.RequiresSubstitution())
}

func TestObjetoImpRequiresBreakdown(t *testing.T) {
	assert.True(t, sat.ObjetoImpSiObjeto.RequiresBreakdown())
	assert.False(t, sat.ObjetoImpNoObjeto.RequiresBreakdown())
	assert.False(t, sat.ObjetoImpSinDesglose.RequiresBreakdown())
	assert.False(t, sat.ObjetoImpNoCausaImpuesto.RequiresBreakdown())

	_, err := sat.ParseObjetoImp("05")
	assert.Error(t, err)
}

func TestRegimenesFiscalesOrdenados(t *testing.T) {
	all := sat.RegimenesFiscales()
	require.NotEmpty(t, all)
	assert.Equal(t, sat.RegimenGeneralPersonasMorales, all[0])
	assert.Equal(t, sat.RegimenSimplificadoConfianza, all[len(all)-1])
}

func TestIsGenericRFC(t *testing.T) {
	assert.True(t, sat.IsGenericRFC(sat.RFCPublicoGeneral))
	assert.True(t, sat.IsGenericRFC(sat.RFCExtranjero))
	assert.False(t, sat.IsGenericRFC("EKU9003173C9"))
}
