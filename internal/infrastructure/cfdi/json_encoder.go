package cfdi

import (
	"encoding/json"
	"fmt"

	domcfdi "github.com/jhoicas/cfdi-api/internal/domain/cfdi"
)

// JSONEncoder serializa el comprobante como {"Comprobante": {...}}.
type JSONEncoder struct{}

// NewJSONEncoder crea el encoder.
func NewJSONEncoder() *JSONEncoder { return &JSONEncoder{} }

// Encode implementa ports.DocumentEncoder.
func (e *JSONEncoder) Encode(doc *domcfdi.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("cfdi: comprobante nulo")
	}
	out, err := json.Marshal(struct {
		Comprobante wireComprobante `json:"Comprobante"`
	}{Comprobante: toWire(doc)})
	if err != nil {
		return nil, fmt.Errorf("cfdi: serializar JSON: %w", err)
	}
	return out, nil
}

// ContentType tipo MIME del resultado.
func (e *JSONEncoder) ContentType() string { return "application/json" }
