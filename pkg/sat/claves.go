package sat

import (
	"fmt"
	"strings"
)

// RFC genéricos definidos por el SAT.
const (
	RFCPublicoGeneral = "XAXX010101000" // operaciones con el público en general
	RFCExtranjero     = "XEXX010101000" // residentes en el extranjero
)

// NormalizeRFC elimina espacios y guiones y pasa a mayúsculas.
func NormalizeRFC(rfc string) string {
	rfc = strings.TrimSpace(rfc)
	rfc = strings.ReplaceAll(rfc, "-", "")
	rfc = strings.ReplaceAll(rfc, " ", "")
	return strings.ToUpper(rfc)
}

// ValidateRFC valida que el RFC tenga exactamente 12 (persona moral) o 13
// (persona física) caracteres alfanuméricos.
func ValidateRFC(rfc string) error {
	n := len(rfc)
	if n != 12 && n != 13 {
		return fmt.Errorf("sat: el RFC debe tener 12 o 13 caracteres, se recibieron %d", n)
	}
	if !isAlphanumeric(rfc) {
		return fmt.Errorf("sat: el RFC %q solo admite caracteres alfanuméricos", rfc)
	}
	return nil
}

// IsGenericRFC indica si el RFC es uno de los genéricos (público en general o extranjero).
func IsGenericRFC(rfc string) bool {
	return rfc == RFCPublicoGeneral || rfc == RFCExtranjero
}

// ValidPostalCode indica si el código postal tiene exactamente 5 dígitos.
func ValidPostalCode(cp string) bool {
	return len(cp) == 5 && isDigits(cp)
}

// ValidClaveProdServ indica si la clave de producto o servicio tiene exactamente 8 dígitos.
func ValidClaveProdServ(clave string) bool {
	return len(clave) == 8 && isDigits(clave)
}

// ValidFormaPagoFormat indica si la forma de pago tiene exactamente 2 dígitos.
// No comprueba pertenencia al catálogo (ver FormaPago.Valid).
func ValidFormaPagoFormat(code string) bool {
	return len(code) == 2 && isDigits(code)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isAlphanumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		default:
			return false
		}
	}
	return true
}
