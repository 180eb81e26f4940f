package billing_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-api/internal/application/billing"
	"github.com/jhoicas/cfdi-api/internal/application/dto"
	"github.com/jhoicas/cfdi-api/internal/application/ports"
	"github.com/jhoicas/cfdi-api/internal/domain"
	domcfdi "github.com/jhoicas/cfdi-api/internal/domain/cfdi"
	infracfdi "github.com/jhoicas/cfdi-api/internal/infrastructure/cfdi"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/ledger"
	"github.com/jhoicas/cfdi-api/pkg/logger"
)

// ── Fakes ─────────────────────────────────────────────────────────────────────

type fakeStamper struct {
	stampCalls  int
	stampErr    error
	cancelCalls int
	lastCancel  ports.CancelRequest
	lastDoc     *domcfdi.Document
}

func (f *fakeStamper) Stamp(_ context.Context, doc *domcfdi.Document) (*ports.StampedDocument, error) {
	f.stampCalls++
	f.lastDoc = doc
	if f.stampErr != nil {
		return nil, f.stampErr
	}
	return &ports.StampedDocument{
		UUID:             "6F1B2C3D-0000-4000-8000-000000000001",
		FechaTimbrado:    time.Date(2024, 5, 10, 12, 31, 0, 0, time.UTC),
		SelloSAT:         "SAT==",
		NoCertificadoSAT: "30001000000400002495",
	}, nil
}

func (f *fakeStamper) Cancel(_ context.Context, req ports.CancelRequest) (*ports.CancellationReceipt, error) {
	f.cancelCalls++
	f.lastCancel = req
	return &ports.CancellationReceipt{
		UUID: req.UUID, Status: "Cancelado", CanceledAt: time.Date(2024, 5, 11, 9, 0, 0, 0, time.UTC),
	}, nil
}

var issuer = billing.IssuerSettings{
	Rfc:           "EKU9003173C9",
	Nombre:        "Escuela Kemper Urgate",
	RegimenFiscal: "601",
	CodigoPostal:  "26015",
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func validRequest() dto.CFDIRequest {
	return dto.CFDIRequest{
		Serie:      "A",
		Folio:      "100",
		Fecha:      "2024-05-10T12:30:00",
		FormaPago:  "03",
		MetodoPago: "PUE",
		Receptor: dto.ReceptorRequest{
			Rfc:             "xoji740919u48",
			Nombre:          "ingrid xodar jiménez",
			RegimenFiscal:   "612",
			DomicilioFiscal: "88965",
			UsoCFDI:         "G03",
		},
		Conceptos: []dto.ConceptoRequest{{
			TaxRequest:    dto.TaxRequest{Cantidad: d("1"), ValorUnitario: d("1000"), TasaIVA: d("16")},
			ClaveProdServ: "84111506",
			ClaveUnidad:   "E48",
			Descripcion:   "Servicio de facturación",
			ObjetoImp:     "02",
		}},
	}
}

func newIssue(t *testing.T, st *fakeStamper) (*billing.IssueCFDIUseCase, *ledger.MemoryLedger) {
	t.Helper()
	l := ledger.NewMemoryLedger(0)
	uc := billing.NewIssueCFDIUseCase(st, l, infracfdi.NewFingerprinter(), infracfdi.NewJSONEncoder(),
		issuer, domcfdi.ValidationOptions{}, logger.Nop())
	return uc, l
}

// ── ComputeTaxes ──────────────────────────────────────────────────────────────

func TestComputeTaxes(t *testing.T) {
	tests := []struct {
		name string
		req  dto.TaxRequest
		want dto.TaxResponse
	}{
		{"más IVA", dto.TaxRequest{Cantidad: d("2"), ValorUnitario: d("150"), TasaIVA: d("16")},
			dto.TaxResponse{Subtotal: "300.00", IVA: "48.00", RetencionISR: "0.00", RetencionIVA: "0.00", Total: "348.00"}},
		{"con retenciones", dto.TaxRequest{Cantidad: d("2"), ValorUnitario: d("150"), TasaIVA: d("16"),
			TasaRetencionISR: d("10"), TasaRetencionIVA: d("66.6667")},
			dto.TaxResponse{Subtotal: "300.00", IVA: "48.00", RetencionISR: "30.00", RetencionIVA: "32.00", Total: "286.00"}},
		{"IVA incluido", dto.TaxRequest{Cantidad: d("1"), ValorUnitario: d("448"), TasaIVA: d("16"), IVAIncluido: true},
			dto.TaxResponse{Subtotal: "386.21", IVA: "61.79", RetencionISR: "0.00", RetencionIVA: "0.00", Total: "448.00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := billing.ComputeTaxes(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestComputeTaxes_EntradaInvalida(t *testing.T) {
	_, err := billing.ComputeTaxes(dto.TaxRequest{Cantidad: d("0"), ValorUnitario: d("10"), TasaIVA: d("16")})
	var ie *domain.InvalidInputError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "cantidad", ie.Field)

	_, err = billing.ComputeTaxes(dto.TaxRequest{Cantidad: d("1"), ValorUnitario: d("10"), TasaIVA: d("160")})
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "tasa_iva", ie.Field)
}

// ── Preview ───────────────────────────────────────────────────────────────────

func TestPreview_Valido(t *testing.T) {
	st := &fakeStamper{}
	uc, _ := newIssue(t, st)

	resp, err := uc.Preview(context.Background(), "c1", validRequest())
	require.NoError(t, err)
	assert.True(t, resp.Valid)
	assert.Empty(t, resp.Violations)
	assert.Len(t, resp.Fingerprint, 64)
	assert.Zero(t, st.stampCalls, "preview nunca timbra")

	var body struct {
		Comprobante struct {
			SubTotal        string
			Total           string
			LugarExpedicion string
			Fecha           string
			Emisor          struct{ Nombre string }
			Receptor        struct{ Rfc, Nombre string }
		}
	}
	require.NoError(t, json.Unmarshal(resp.Comprobante, &body))
	assert.Equal(t, "1000.00", body.Comprobante.SubTotal)
	assert.Equal(t, "1160.00", body.Comprobante.Total)
	assert.Equal(t, "26015", body.Comprobante.LugarExpedicion)
	assert.Equal(t, "2024-05-10T12:30:00", body.Comprobante.Fecha)
	assert.Equal(t, "ESCUELA KEMPER URGATE", body.Comprobante.Emisor.Nombre)
	assert.Equal(t, "XOJI740919U48", body.Comprobante.Receptor.Rfc)
	assert.Equal(t, "INGRID XODAR JIMÉNEZ", body.Comprobante.Receptor.Nombre)
}

func TestPreview_ReportaTodasLasViolaciones(t *testing.T) {
	uc, _ := newIssue(t, &fakeStamper{})
	req := validRequest()
	req.Receptor.Rfc = "ABC"
	req.Receptor.DomicilioFiscal = "123"
	req.FormaPago = "07"

	resp, err := uc.Preview(context.Background(), "c1", req)
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	codes := make([]string, 0, len(resp.Violations))
	for _, v := range resp.Violations {
		codes = append(codes, v.Code)
	}
	assert.ElementsMatch(t, []string{
		domcfdi.CodeReceptorRfcInvalido,
		domcfdi.CodeReceptorCPInvalido,
		domcfdi.CodeFormaPagoDesconocida,
	}, codes)
}

func TestPreview_AdvierteDesviacionDeRedondeo(t *testing.T) {
	uc, _ := newIssue(t, &fakeStamper{})
	req := validRequest()
	concepto := dto.ConceptoRequest{
		TaxRequest:    dto.TaxRequest{Cantidad: d("1"), ValorUnitario: d("0.05"), TasaIVA: d("16")},
		ClaveProdServ: "84111506", ClaveUnidad: "E48", Descripcion: "Cargo menor", ObjetoImp: "02",
	}
	req.Conceptos = nil
	for i := 0; i < 10; i++ {
		req.Conceptos = append(req.Conceptos, concepto)
	}

	resp, err := uc.Preview(context.Background(), "c1", req)
	require.NoError(t, err)
	assert.True(t, resp.Valid, "la desviación es un aviso, no una violación")
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "0.02")
}

func TestPreview_EntradaInvalida(t *testing.T) {
	uc, _ := newIssue(t, &fakeStamper{})

	tests := []struct {
		name   string
		mutate func(*dto.CFDIRequest)
		field  string
	}{
		{"ObjetoImp desconocido", func(r *dto.CFDIRequest) { r.Conceptos[0].ObjetoImp = "09" }, "conceptos[0].objeto_imp"},
		{"fecha ilegible", func(r *dto.CFDIRequest) { r.Fecha = "10/05/2024" }, "fecha"},
		{"cantidad cero", func(r *dto.CFDIRequest) { r.Conceptos[0].Cantidad = decimal.Zero }, "conceptos[0].cantidad"},
		{"sin conceptos", func(r *dto.CFDIRequest) { r.Conceptos = nil }, "conceptos"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := uc.Preview(context.Background(), "c1", req)
			var ie *domain.InvalidInputError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.field, ie.Field)
		})
	}
}

// ── Stamp ─────────────────────────────────────────────────────────────────────

func TestStamp_Exitoso(t *testing.T) {
	st := &fakeStamper{}
	uc, l := newIssue(t, st)

	resp, err := uc.Stamp(context.Background(), "c1", validRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, st.stampCalls)
	assert.Equal(t, "6F1B2C3D-0000-4000-8000-000000000001", resp.UUID)
	assert.Equal(t, "2024-05-10T12:31:00", resp.FechaTimbrado)
	assert.Equal(t, "1000.00", resp.SubTotal)
	assert.Equal(t, "1160.00", resp.Total)

	rec, err := l.Get(context.Background(), resp.Fingerprint)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, ports.LedgerStamped, rec.Status)
	assert.Equal(t, resp.UUID, rec.UUID)
	assert.Equal(t, "c1", rec.CompanyID)
}

func TestStamp_ComprobanteInvalidoNoLlegaAlPAC(t *testing.T) {
	st := &fakeStamper{}
	uc, _ := newIssue(t, st)
	req := validRequest()
	req.Receptor.UsoCFDI = ""

	_, err := uc.Stamp(context.Background(), "c1", req)
	var ve *domain.DocumentValidationError
	require.ErrorAs(t, err, &ve)
	assert.ErrorIs(t, err, domain.ErrDocumentInvalid)
	assert.Equal(t, domcfdi.CodeReceptorUsoRequerido, ve.Violations[0].Code)
	assert.Zero(t, st.stampCalls)
}

func TestStamp_DuplicadoSeBloquea(t *testing.T) {
	st := &fakeStamper{}
	uc, _ := newIssue(t, st)

	first, err := uc.Stamp(context.Background(), "c1", validRequest())
	require.NoError(t, err)

	_, err = uc.Stamp(context.Background(), "c1", validRequest())
	var dup *domain.DuplicateSubmissionError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, ports.LedgerStamped, dup.Status)
	assert.Equal(t, first.UUID, dup.UUID)
	assert.Equal(t, 1, st.stampCalls, "el segundo envío no debe llegar al PAC")
}

func TestStamp_ResultadoDelPACEnElLedger(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantStatus   string
		secondStamps bool
	}{
		{"rechazo definitivo", domain.NewRejectionError("CFDI40108", "El TipoDeComprobante no es de tipo I"), ports.LedgerRejected, false},
		{"transporte libera", domain.NewTransportError("timeout", context.DeadlineExceeded), "", true},
		{"saldo libera", domain.NewQuotaError("QUOTA_EXHAUSTED", "sin timbres"), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &fakeStamper{stampErr: tt.err}
			uc, l := newIssue(t, st)

			_, err := uc.Stamp(context.Background(), "c1", validRequest())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.err), "el error del PAC se devuelve sin envolver")

			preview, _ := uc.Preview(context.Background(), "c1", validRequest())
			rec, _ := l.Get(context.Background(), preview.Fingerprint)
			if tt.wantStatus == "" {
				assert.Nil(t, rec)
			} else {
				require.NotNil(t, rec)
				assert.Equal(t, tt.wantStatus, rec.Status)
			}

			_, err = uc.Stamp(context.Background(), "c1", validRequest())
			if tt.secondStamps {
				assert.Equal(t, 2, st.stampCalls, "tras liberar se permite un nuevo intento explícito")
			} else {
				assert.ErrorIs(t, err, domain.ErrDuplicateSubmission)
				assert.Equal(t, 1, st.stampCalls)
			}
		})
	}
}

func TestStamp_PPDExigeFormaPago99(t *testing.T) {
	st := &fakeStamper{}
	uc := billing.NewIssueCFDIUseCase(st, ledger.NewMemoryLedger(0), infracfdi.NewFingerprinter(), infracfdi.NewJSONEncoder(),
		issuer, domcfdi.ValidationOptions{EnforcePPDFormaPago: true}, nil)
	req := validRequest()
	req.MetodoPago = "PPD"

	_, err := uc.Stamp(context.Background(), "c1", req)
	var ve *domain.DocumentValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, domcfdi.CodeFormaPagoPPD, ve.Violations[0].Code)

	req.FormaPago = "99"
	_, err = uc.Stamp(context.Background(), "c1", req)
	require.NoError(t, err)
}

// ── Cancel ────────────────────────────────────────────────────────────────────

func validCancel() dto.CancelCFDIRequest {
	return dto.CancelCFDIRequest{
		UUID:        "6f1b2c3d-0000-4000-8000-000000000001",
		ReceptorRfc: "XOJI740919U48",
		Total:       d("1160"),
		Motivo:      "02",
	}
}

func TestCancel_Exitoso(t *testing.T) {
	st := &fakeStamper{}
	uc := billing.NewCancelCFDIUseCase(st, issuer, logger.Nop())

	resp, err := uc.Cancel(context.Background(), "c1", validCancel())
	require.NoError(t, err)
	assert.Equal(t, "Cancelado", resp.Status)
	assert.Equal(t, "2024-05-11T09:00:00Z", resp.CanceledAt)

	assert.Equal(t, "6F1B2C3D-0000-4000-8000-000000000001", st.lastCancel.UUID)
	assert.Equal(t, "EKU9003173C9", st.lastCancel.EmisorRfc)
	assert.Empty(t, st.lastCancel.FolioSustitucion)
}

func TestCancel_Motivo01ConSustitucion(t *testing.T) {
	st := &fakeStamper{}
	uc := billing.NewCancelCFDIUseCase(st, issuer, logger.Nop())
	req := validCancel()
	req.Motivo = "01"
	req.FolioSustitucion = "7a1b2c3d-0000-4000-8000-000000000002"

	_, err := uc.Cancel(context.Background(), "c1", req)
	require.NoError(t, err)
	assert.Equal(t, "7A1B2C3D-0000-4000-8000-000000000002", st.lastCancel.FolioSustitucion)
}

func TestCancel_Validaciones(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*dto.CancelCFDIRequest)
		field  string
	}{
		{"uuid inválido", func(r *dto.CancelCFDIRequest) { r.UUID = "no-es-uuid" }, "uuid"},
		{"rfc receptor", func(r *dto.CancelCFDIRequest) { r.ReceptorRfc = "ABC" }, "receptor_rfc"},
		{"total cero", func(r *dto.CancelCFDIRequest) { r.Total = decimal.Zero }, "total"},
		{"motivo desconocido", func(r *dto.CancelCFDIRequest) { r.Motivo = "05" }, "motivo"},
		{"motivo 01 sin folio", func(r *dto.CancelCFDIRequest) { r.Motivo = "01" }, "folio_sustitucion"},
		{"folio con motivo 02", func(r *dto.CancelCFDIRequest) {
			r.FolioSustitucion = "7a1b2c3d-0000-4000-8000-000000000002"
		}, "folio_sustitucion"},
		{"folio igual al cancelado", func(r *dto.CancelCFDIRequest) {
			r.Motivo = "01"
			r.FolioSustitucion = r.UUID
		}, "folio_sustitucion"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &fakeStamper{}
			uc := billing.NewCancelCFDIUseCase(st, issuer, logger.Nop())
			req := validCancel()
			tt.mutate(&req)

			_, err := uc.Cancel(context.Background(), "c1", req)
			var ie *domain.InvalidInputError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.field, ie.Field)
			assert.Zero(t, st.cancelCalls)
		})
	}
}
