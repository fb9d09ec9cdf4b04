package keys

import "crypto/sha256"

// KeyAuthorization is the string token||"."||base64url(SHA-256(canonical JWK
// of the account key)) used to prove control of a challenge. See RFC 8555
// §8.1.
type KeyAuthorization string

// NewKeyAuthorization builds a KeyAuthorization for the given challenge token
// and account key thumbprint.
func NewKeyAuthorization(token, thumbprint string) KeyAuthorization {
	return KeyAuthorization(token + "." + thumbprint)
}

// String returns the raw key authorization value, used verbatim as the
// HTTP-01 challenge response body.
func (k KeyAuthorization) String() string {
	return string(k)
}

// Digest returns the raw SHA-256 digest of the key authorization string, the
// value embedded in the acmeIdentifier TLS-ALPN-01 extension per RFC 8737
// §3.
func (k KeyAuthorization) Digest() [32]byte {
	return sha256.Sum256([]byte(k))
}

// DNSValue returns the base64url (no padding) encoding of Digest, the value
// published as the _acme-challenge TXT record for DNS-01 per RFC 8555 §8.4.
func (k KeyAuthorization) DNSValue() string {
	sum := k.Digest()
	return base64URL(sum[:])
}

// TLSALPNDigest is an alias for Digest, named for its RFC 8737 use: the
// acmeIdentifier SAN extension value for TLS-ALPN-01 challenge responses.
func (k KeyAuthorization) TLSALPNDigest() [32]byte {
	return k.Digest()
}
