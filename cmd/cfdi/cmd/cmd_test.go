package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestCompute_JSON(t *testing.T) {
	out, _, err := run(t, "", "compute", "--cantidad", "2", "--valor-unitario", "150", "--ret-isr", "10")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "300.00", got["subtotal"])
	assert.Equal(t, "48.00", got["iva"])
	assert.Equal(t, "318.00", got["total"])
}

func TestCompute_Tabla(t *testing.T) {
	out, _, err := run(t, "", "compute", "--valor-unitario", "448", "--iva-incluido", "-f", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "386.21")
	assert.Contains(t, out, "61.79")
}

func TestCompute_Errores(t *testing.T) {
	_, _, err := run(t, "", "compute", "--valor-unitario", "abc")
	assert.ErrorContains(t, err, "--valor-unitario")

	_, _, err = run(t, "", "compute", "--valor-unitario", "0")
	assert.ErrorContains(t, err, "valor_unitario")

	_, _, err = run(t, "", "compute")
	assert.Error(t, err, "valor-unitario es obligatorio")
}

const solicitud = `{
  "fecha": "2024-05-10T12:30:00",
  "forma_pago": "03",
  "metodo_pago": "PUE",
  "receptor": {"rfc": "XOJI740919U48", "nombre": "Ingrid Xodar Jiménez", "regimen_fiscal": "612", "domicilio_fiscal": "88965", "uso_cfdi": "G03"},
  "conceptos": [{"cantidad": 1, "valor_unitario": 1000, "tasa_iva": 16, "clave_prod_serv": "84111506", "clave_unidad": "E48", "descripcion": "Servicio", "objeto_imp": "02"}]
}`

var issuerFlags = []string{"--issuer-rfc", "EKU9003173C9", "--issuer-nombre", "Escuela Kemper Urgate", "--issuer-regimen", "601", "--issuer-cp", "26015"}

func TestPreview_JSONDesdeArchivo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solicitud.json")
	require.NoError(t, os.WriteFile(path, []byte(solicitud), 0o600))

	out, errOut, err := run(t, "", append([]string{"preview", path}, issuerFlags...)...)
	require.NoError(t, err)
	assert.Empty(t, errOut)

	var got struct {
		Comprobante struct {
			Total  string
			Emisor struct{ Nombre string }
		}
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "1160.00", got.Comprobante.Total)
	assert.Equal(t, "ESCUELA KEMPER URGATE", got.Comprobante.Emisor.Nombre)
}

func TestPreview_XMLDesdeStdin(t *testing.T) {
	out, _, err := run(t, solicitud, append([]string{"preview", "-", "--format", "xml"}, issuerFlags...)...)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(out))
	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "Comprobante", root.Tag)
	assert.Equal(t, "1160.00", root.SelectAttrValue("Total", ""))
}

func TestPreview_EmisorFaltanteReportaViolaciones(t *testing.T) {
	for _, k := range []string{"ISSUER_RFC", "ISSUER_NOMBRE", "ISSUER_REGIMEN_FISCAL", "ISSUER_CODIGO_POSTAL"} {
		t.Setenv(k, "")
	}
	_, errOut, err := run(t, solicitud, "preview", "-")
	require.Error(t, err)
	assert.Contains(t, errOut, "EMISOR_RFC_INVALIDO")
	assert.Contains(t, errOut, "LUGAR_EXPEDICION_INVALIDO")
}

func TestPreview_EmisorDesdeEntorno(t *testing.T) {
	t.Setenv("ISSUER_RFC", "EKU9003173C9")
	t.Setenv("ISSUER_NOMBRE", "Escuela Kemper Urgate")
	t.Setenv("ISSUER_REGIMEN_FISCAL", "601")
	t.Setenv("ISSUER_CODIGO_POSTAL", "26015")

	_, errOut, err := run(t, solicitud, "preview", "-")
	require.NoError(t, err)
	assert.Empty(t, errOut)
}
