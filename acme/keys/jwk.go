package keys

import (
	"crypto"
	"crypto/ecdsa"

	jose "github.com/go-jose/go-jose/v4"
)

// Thumbprint returns the base64url (no padding) encoding of the RFC 7638 JWK
// thumbprint of key's public component: SHA-256 over the canonical JSON
// {"crv":"P-256","kty":"EC","x":<b64url(X)>,"y":<b64url(Y)>} with fields in
// that exact lexicographic order and no whitespace. go-jose's
// JSONWebKey.Thumbprint implements the RFC 7638 canonicalization directly.
func Thumbprint(key *ecdsa.PrivateKey) (string, error) {
	jwk := PublicJWK(key)
	sum, err := jwk.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", err
	}
	return base64URL(sum), nil
}

// MustThumbprint panics if the thumbprint cannot be computed. Only used where
// the key is already known-good (freshly generated or already validated by
// ParsePKCS8), matching the teacher's convention of treating key-derived
// thumbprint failures as unreachable rather than threading an error through
// every call site.
func MustThumbprint(key *ecdsa.PrivateKey) string {
	t, err := Thumbprint(key)
	if err != nil {
		panic(err)
	}
	return t
}
