package resources

// ExternalAccountKey is a pre-shared HMAC-SHA256 key used to link a new ACME
// account to an existing account at the CA (RFC 8555 §7.3.4). The CA issues
// id and hmac_sha256_key out of band.
type ExternalAccountKey struct {
	// ID identifies the external account key to the server; used as the
	// "kid" of the EAB inner JWS.
	ID string
	// HMACKey is the raw shared secret used to HMAC-SHA256 sign the EAB
	// inner JWS.
	HMACKey []byte
}
