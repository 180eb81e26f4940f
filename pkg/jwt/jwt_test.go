package jwt

import (
	"testing"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := Generate("", "u1", "c1", "admin", "cfdi-api", 60)
	assert.Error(t, err)

	_, _, _, err = Parse("", "cualquier.token.valor")
	assert.Error(t, err)
}

func TestGenerate_ClaimsRegistrados(t *testing.T) {
	tok, err := Generate("s3cr3t", "u1", "c1", "facturista", "cfdi-api", 30)
	require.NoError(t, err)

	claims := &Claims{}
	_, err = gojwt.ParseWithClaims(tok, claims, func(*gojwt.Token) (interface{}, error) { return []byte("s3cr3t"), nil })
	require.NoError(t, err)
	assert.Equal(t, "cfdi-api", claims.Issuer)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "facturista", claims.Role)
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt.Time))
}

func TestParse_RechazaAlgoritmoNone(t *testing.T) {
	tok := gojwt.NewWithClaims(gojwt.SigningMethodNone, Claims{UserID: "u1", Role: "admin"})
	raw, err := tok.SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, _, _, err = Parse("s3cr3t", raw)
	assert.Error(t, err)
}
