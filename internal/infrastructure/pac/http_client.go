// Package pac contiene los adaptadores de timbrado (ports.Stamper).
package pac

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/cfdi-api/internal/application/ports"
	"github.com/jhoicas/cfdi-api/internal/domain"
	domcfdi "github.com/jhoicas/cfdi-api/internal/domain/cfdi"
	infracfdi "github.com/jhoicas/cfdi-api/internal/infrastructure/cfdi"
)

// ── Constantes de entorno ──────────────────────────────────────────────────────

const (
	// ModeDev no envía nada al PAC: se usa MockStamper.
	ModeDev = "dev"
	// ModeTest ambiente de pruebas del PAC.
	ModeTest = "test"
	// ModeProd ambiente productivo.
	ModeProd = "prod"

	stampPath  = "/cfdi40/stamp"
	cancelPath = "/cfdi40/cancel"

	codeQuotaExhausted  = "QUOTA_EXHAUSTED"
	codeInvalidResponse = "PAC_RESPUESTA_INVALIDA"

	maxResponseBytes = 1 << 20 // 1 MB
)

// HTTPClientConfig datos de conexión al API REST del PAC.
type HTTPClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// HTTPClient implementa ports.Stamper sobre un API REST JSON.
// No reintenta: los errores de transporte se devuelven al llamador como reintentables.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	encoder    ports.DocumentEncoder
}

// NewHTTPClient construye el cliente. Timeout por defecto 30 s.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		encoder:    infracfdi.NewJSONEncoder(),
	}
}

// ── Estructuras del API ───────────────────────────────────────────────────────

type stampRequest struct {
	Format   string `json:"format"`
	Document string `json:"document"` // Comprobante JSON en Base64
}

type stampResponse struct {
	UUID             string `json:"uuid"`
	FechaTimbrado    string `json:"fecha_timbrado"`
	SelloCFD         string `json:"sello_cfd"`
	SelloSAT         string `json:"sello_sat"`
	NoCertificadoSAT string `json:"no_certificado_sat"`
	CFDI             string `json:"cfdi"` // comprobante timbrado en Base64
}

type cancelRequest struct {
	UUID             string `json:"uuid"`
	RfcEmisor        string `json:"rfc_emisor"`
	RfcReceptor      string `json:"rfc_receptor"`
	Total            string `json:"total"`
	Motivo           string `json:"motivo"`
	FolioSustitucion string `json:"folio_sustitucion,omitempty"`
}

type cancelResponse struct {
	UUID   string `json:"uuid"`
	Status string `json:"status"`
	Fecha  string `json:"fecha"`
	Acuse  string `json:"acuse"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ── Stamp / Cancel ────────────────────────────────────────────────────────────

// Stamp envía el comprobante al PAC.
func (c *HTTPClient) Stamp(ctx context.Context, doc *domcfdi.Document) (*ports.StampedDocument, error) {
	payload, err := c.encoder.Encode(doc)
	if err != nil {
		return nil, fmt.Errorf("pac: serializar comprobante: %w", err)
	}
	body := stampRequest{Format: "json", Document: base64.StdEncoding.EncodeToString(payload)}

	raw, err := c.post(ctx, stampPath, body)
	if err != nil {
		return nil, err
	}

	var out stampResponse
	if err := json.Unmarshal(raw, &out); err != nil || out.UUID == "" {
		return nil, domain.NewRejectionError(codeInvalidResponse, "respuesta de timbrado ilegible: "+truncate(raw))
	}
	stamped := &ports.StampedDocument{
		UUID:             out.UUID,
		SelloCFD:         out.SelloCFD,
		SelloSAT:         out.SelloSAT,
		NoCertificadoSAT: out.NoCertificadoSAT,
	}
	if t, err := time.Parse(infracfdi.FechaLayout, out.FechaTimbrado); err == nil {
		stamped.FechaTimbrado = t
	}
	if out.CFDI != "" {
		if decoded, err := base64.StdEncoding.DecodeString(out.CFDI); err == nil {
			stamped.Payload = decoded
		}
	}
	return stamped, nil
}

// Cancel solicita la cancelación de un CFDI.
func (c *HTTPClient) Cancel(ctx context.Context, req ports.CancelRequest) (*ports.CancellationReceipt, error) {
	body := cancelRequest{
		UUID:             req.UUID,
		RfcEmisor:        req.EmisorRfc,
		RfcReceptor:      req.ReceptorRfc,
		Total:            req.Total.StringFixed(2),
		Motivo:           string(req.Motivo),
		FolioSustitucion: req.FolioSustitucion,
	}
	raw, err := c.post(ctx, cancelPath, body)
	if err != nil {
		return nil, err
	}

	var out cancelResponse
	if err := json.Unmarshal(raw, &out); err != nil || out.Status == "" {
		return nil, domain.NewRejectionError(codeInvalidResponse, "respuesta de cancelación ilegible: "+truncate(raw))
	}
	receipt := &ports.CancellationReceipt{UUID: out.UUID, Status: out.Status, Acuse: out.Acuse}
	if receipt.UUID == "" {
		receipt.UUID = req.UUID
	}
	if t, err := time.Parse(time.RFC3339, out.Fecha); err == nil {
		receipt.CanceledAt = t
	}
	return receipt, nil
}

// post envía el JSON y clasifica la respuesta en éxito o *domain.StampingError.
func (c *HTTPClient) post(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("pac: serializar solicitud: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("pac: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, domain.NewTransportError("timeout o cancelación", ctxErr)
		}
		return nil, domain.NewTransportError("llamada HTTP fallida", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, domain.NewTransportError("leer respuesta", err)
	}
	if err := classify(resp.StatusCode, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// classify traduce códigos HTTP a los tipos de error de timbrado.
//   - 2xx: éxito.
//   - 5xx: transporte (el PAC no procesó la solicitud).
//   - 402 o código QUOTA_EXHAUSTED: saldo agotado.
//   - otros 4xx: rechazo con el código y mensaje del PAC, literal.
func classify(status int, raw []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	if status >= 500 {
		return domain.NewTransportError(fmt.Sprintf("PAC respondió %d", status),
			errors.New(truncate(raw)))
	}

	var e errorResponse
	_ = json.Unmarshal(raw, &e)
	if e.Message == "" {
		e.Message = truncate(raw)
	}
	if e.Code == "" {
		e.Code = fmt.Sprintf("HTTP_%d", status)
	}
	if status == http.StatusPaymentRequired || strings.EqualFold(e.Code, codeQuotaExhausted) {
		return domain.NewQuotaError(e.Code, e.Message)
	}
	return domain.NewRejectionError(e.Code, e.Message)
}

func truncate(raw []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(raw))
	if len(s) > limit {
		return s[:limit] + "…"
	}
	return s
}
