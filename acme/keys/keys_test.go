package keys

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := NewECDSAKey()
	require.NoError(t, err)
	return key
}

func TestNewECDSAKeyIsP256(t *testing.T) {
	key := testKey(t)
	require.Equal(t, "P-256", key.Curve.Params().Name)
}

func TestMarshalParsePKCS8RoundTrip(t *testing.T) {
	key := testKey(t)

	der, err := MarshalPKCS8(key)
	require.NoError(t, err)
	require.NotEmpty(t, der)

	parsed, err := ParsePKCS8(der)
	require.NoError(t, err)
	require.Equal(t, key.D, parsed.D)
	require.Equal(t, key.X, parsed.X)
	require.Equal(t, key.Y, parsed.Y)
}

func TestParsePKCS8RejectsGarbage(t *testing.T) {
	_, err := ParsePKCS8([]byte("not a valid der"))
	require.Error(t, err)
}

func TestThumbprintIsStableAndBase64URL(t *testing.T) {
	key := testKey(t)

	t1, err := Thumbprint(key)
	require.NoError(t, err)
	require.NotEmpty(t, t1)

	t2, err := Thumbprint(key)
	require.NoError(t, err)
	require.Equal(t, t1, t2, "thumbprint must be a pure function of the key")

	// RFC 7638 thumbprints are raw base64url, no padding.
	require.NotContains(t, t1, "=")
	_, err = base64.RawURLEncoding.DecodeString(t1)
	require.NoError(t, err)
}

func TestThumbprintDiffersAcrossKeys(t *testing.T) {
	a := testKey(t)
	b := testKey(t)

	ta, err := Thumbprint(a)
	require.NoError(t, err)
	tb, err := Thumbprint(b)
	require.NoError(t, err)
	require.NotEqual(t, ta, tb)
}

func TestMustThumbprintPanicsOnNilKey(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected MustThumbprint to panic on a key that cannot be thumbprinted")
		}
	}()
	MustThumbprint(nil)
}

func TestKeyAuthorizationFormat(t *testing.T) {
	ka := NewKeyAuthorization("token123", "thumbprintABC")
	require.Equal(t, "token123.thumbprintABC", ka.String())
}

func TestKeyAuthorizationDigestMatchesSHA256(t *testing.T) {
	ka := NewKeyAuthorization("tok", "thumb")
	digest := ka.Digest()
	require.Len(t, digest, 32)
	require.Equal(t, sha256.Sum256([]byte("tok.thumb")), digest)
	// TLSALPNDigest is documented as an alias for Digest.
	require.Equal(t, digest, ka.TLSALPNDigest())
}

func TestKeyAuthorizationDNSValueIsBase64URLOfDigest(t *testing.T) {
	ka := NewKeyAuthorization("tok", "thumb")
	digest := ka.Digest()
	want := base64.RawURLEncoding.EncodeToString(digest[:])
	require.Equal(t, want, ka.DNSValue())
}

func TestSignJWKEmbedsKeyAndNonce(t *testing.T) {
	key := testKey(t)
	env, err := SignJWK(key, "https://example.test/acme/new-acct", "nonce-1", []byte(`{"termsOfServiceAgreed":true}`))
	require.NoError(t, err)
	require.NotNil(t, env.JWS)
	require.NotEmpty(t, env.JSON)

	header := env.JWS.Signatures[0].Protected
	require.NotNil(t, header.JSONWebKey, "embedded JWK header must be present")
	require.Equal(t, "nonce-1", header.Nonce)
}

func TestSignKeyIDSetsKeyIDNotEmbeddedJWK(t *testing.T) {
	key := testKey(t)
	env, err := SignKeyID(key, "https://example.test/acme/acct/1", "https://example.test/acme/new-order", "nonce-2", []byte(`{}`))
	require.NoError(t, err)

	header := env.JWS.Signatures[0].Protected
	require.Equal(t, "https://example.test/acme/acct/1", header.KeyID)
	require.Nil(t, header.JSONWebKey, "kid-based JWS must not embed the JWK")
}

func TestSignEABUsesHS256AndKeyID(t *testing.T) {
	hmacKey := []byte("0123456789abcdef0123456789abcdef")
	env, err := SignEAB(hmacKey, "kid-1", "https://example.test/acme/new-acct", []byte(`{"kty":"EC"}`))
	require.NoError(t, err)

	header := env.JWS.Signatures[0].Protected
	require.Equal(t, "HS256", header.Algorithm)
	require.Equal(t, "kid-1", header.KeyID)
	require.Empty(t, header.Nonce, "EAB inner JWS carries no nonce")
}

func TestSigningKeyForSignerUsesRawSignerWhenKIDEmpty(t *testing.T) {
	key := testKey(t)
	signingKey := SigningKeyForSigner(key, "")
	require.Equal(t, key, signingKey.Key, "with no kid the raw signer should be used directly, not wrapped in a JWK")
}

func TestSigningKeyForSignerSetsKeyIDWhenProvided(t *testing.T) {
	key := testKey(t)
	signingKey := SigningKeyForSigner(key, "https://example.test/acme/acct/9")
	jwk, ok := signingKey.Key.(jose.JSONWebKey)
	require.True(t, ok, "with a non-empty kid the key must be wrapped in a JWK carrying the KeyID")
	require.Equal(t, "https://example.test/acme/acct/9", jwk.KeyID)
}
