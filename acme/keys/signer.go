// Package keys implements the JOSE/JWS signing capability used to build
// ACME request envelopes: ECDSA P-256 signing (embedded JWK or kid), HMAC-SHA256
// signing for external account binding, RFC 7638 JWK thumbprints, and
// RFC 8555/8737 key authorization derivation. It wraps
// github.com/go-jose/go-jose/v4 for the actual JWS mechanics rather than
// hand-rolling base64url/ECDSA plumbing.
package keys

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"fmt"

	jose "github.com/go-jose/go-jose/v4"
)

// Envelope is the flattened JWS JSON Serialization body posted to the ACME
// server: {"protected": ..., "payload": ..., "signature": ...}.
type Envelope struct {
	JWS  *jose.JSONWebSignature
	JSON []byte
}

// fixedNonce adapts a single, explicitly supplied nonce value to
// jose.NonceSource. Callers choose the nonce before each Sign call rather
// than relying on thread-local or auto-refreshing state, matching the
// explicit nonce threading the protocol engine requires.
type fixedNonce string

func (n fixedNonce) Nonce() (string, error) { return string(n), nil }

// NewECDSAKey generates a new P-256 account key.
func NewECDSAKey() (*ecdsa.PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating P-256 key: %w", err)
	}
	return key, nil
}

// MarshalPKCS8 returns the PKCS#8 DER encoding of key, retained on the
// Account for lossless credential export.
func MarshalPKCS8(key *ecdsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshaling PKCS#8: %w", err)
	}
	return der, nil
}

// ParsePKCS8 decodes a PKCS#8 DER encoded ECDSA P-256 private key.
func ParsePKCS8(der []byte) (*ecdsa.PrivateKey, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("parsing PKCS#8: %w", err)
	}
	ecKey, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("PKCS#8 key was %T, expected *ecdsa.PrivateKey", key)
	}
	return ecKey, nil
}

// PublicJWK returns the public JWK for key, suitable for embedding in
// a protected header or as the payload of an EAB inner JWS.
func PublicJWK(key *ecdsa.PrivateKey) jose.JSONWebKey {
	return jose.JSONWebKey{Key: key.Public(), Algorithm: "ECDSA"}
}

// SignJWK produces the JWS envelope for payload, embedding the account's
// public JWK in the protected header instead of a kid, the header form RFC
// 8555 requires for a newAccount request, before the server has assigned an
// account URL. acme/client builds its newAccount request through Client.Sign
// with EmbedKey set, not through this function.
func SignJWK(key *ecdsa.PrivateKey, url, nonce string, payload []byte) (*Envelope, error) {
	signingKey := jose.SigningKey{Key: key, Algorithm: jose.ES256}
	opts := &jose.SignerOptions{
		EmbedJWK:    true,
		NonceSource: fixedNonce(nonce),
		ExtraHeaders: map[jose.HeaderKey]interface{}{
			"url": url,
		},
	}
	return sign(signingKey, opts, payload)
}

// SignKeyID produces the JWS envelope for payload, using kid (the ACME
// account URL) in the protected header.
func SignKeyID(key *ecdsa.PrivateKey, kid, url, nonce string, payload []byte) (*Envelope, error) {
	jwk := jose.JSONWebKey{Key: key, Algorithm: "ECDSA", KeyID: kid}
	signingKey := jose.SigningKey{Key: jwk, Algorithm: jose.ES256}
	opts := &jose.SignerOptions{
		NonceSource: fixedNonce(nonce),
		ExtraHeaders: map[jose.HeaderKey]interface{}{
			"url": url,
		},
	}
	return sign(signingKey, opts, payload)
}

// SignEAB produces the inner JWS used for external account binding: an
// HMAC-SHA256 signature with kid set to the EAB key identifier and no nonce
// header (RFC 8555 §7.3.4 — the inner JWS is itself wrapped by an outer,
// nonce-bearing JWS).
func SignEAB(hmacKey []byte, eabKeyID, url string, payload []byte) (*Envelope, error) {
	jwk := jose.JSONWebKey{Key: hmacKey, Algorithm: "HS256", KeyID: eabKeyID}
	signingKey := jose.SigningKey{Key: jwk, Algorithm: jose.HS256}
	opts := &jose.SignerOptions{
		ExtraHeaders: map[jose.HeaderKey]interface{}{
			"url": url,
		},
	}
	return sign(signingKey, opts, payload)
}

func sign(signingKey jose.SigningKey, opts *jose.SignerOptions, payload []byte) (*Envelope, error) {
	signer, err := jose.NewSigner(signingKey, opts)
	if err != nil {
		return nil, fmt.Errorf("constructing signer: %w", err)
	}

	signed, err := signer.Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("signing payload: %w", err)
	}

	serialized := []byte(signed.FullSerialize())

	// Reparse so callers get a fully populated JWS object (protected header
	// decoded into typed fields) rather than the raw signer's result.
	parsed, err := jose.ParseSigned(string(serialized), []jose.SignatureAlgorithm{jose.ES256, jose.HS256})
	if err != nil {
		return nil, fmt.Errorf("reparsing signed JWS: %w", err)
	}

	return &Envelope{JWS: parsed, JSON: serialized}, nil
}

// SigningKeyForSigner adapts an arbitrary crypto.Signer (used for one-off raw
// signing, e.g. the shell's "sign" debug command against any loaded key, not
// just the active account's) into a jose.SigningKey with the given kid. If
// kid is empty the raw signer is returned unwrapped, with no kid; whether the
// public JWK is embedded is then up to the caller's jose.SignerOptions
// (EmbedJWK).
func SigningKeyForSigner(signer crypto.Signer, kid string) jose.SigningKey {
	alg := sigAlgForSigner(signer)
	if kid == "" {
		return jose.SigningKey{Key: signer, Algorithm: alg}
	}
	jwk := jose.JSONWebKey{Key: signer, Algorithm: algNameForSigner(signer), KeyID: kid}
	return jose.SigningKey{Key: jwk, Algorithm: alg}
}

func sigAlgForSigner(signer crypto.Signer) jose.SignatureAlgorithm {
	switch signer.(type) {
	case *ecdsa.PrivateKey:
		return jose.ES256
	default:
		return jose.ES256
	}
}

func algNameForSigner(signer crypto.Signer) string {
	switch signer.(type) {
	case *ecdsa.PrivateKey:
		return "ECDSA"
	default:
		return "ECDSA"
	}
}

// base64URL is the no-padding base64url alphabet used throughout ACME.
func base64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}
