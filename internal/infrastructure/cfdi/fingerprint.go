package cfdi

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"

	"github.com/ucarion/c14n"

	domcfdi "github.com/jhoicas/cfdi-api/internal/domain/cfdi"
)

// C14NFingerprinter calcula la huella SHA-256 del XML canónico (C14N) del comprobante.
// Dos comprobantes con los mismos datos producen la misma huella sin importar la sangría.
type C14NFingerprinter struct{}

// NewFingerprinter crea el servicio.
func NewFingerprinter() *C14NFingerprinter { return &C14NFingerprinter{} }

// Fingerprint implementa ports.Fingerprinter. Devuelve 64 caracteres hexadecimales.
func (f *C14NFingerprinter) Fingerprint(doc *domcfdi.Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("cfdi: comprobante nulo")
	}
	raw, err := buildXML(toWire(doc), false).WriteToBytes()
	if err != nil {
		return "", fmt.Errorf("cfdi: serializar XML para huella: %w", err)
	}
	canonical, err := canonicalizeXML(raw)
	if err != nil {
		canonical = raw
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func canonicalizeXML(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}
