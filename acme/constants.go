// Package acme provides ACME (RFC 8555) protocol constants and the typed
// error kinds returned by the acme/client package.
package acme

const (
	// See https://ietf-wg-acme.github.io/acme/draft-ietf-acme-acme.html#rfc.section.7.1.1
	// The ACME directory key for the newNonce endpoint
	NEW_NONCE_ENDPOINT = "newNonce"
	// The ACME directory key for the newAccount endpoint.
	NEW_ACCOUNT_ENDPOINT = "newAccount"
	// The ACME directory key for the newOrder endpoint.
	NEW_ORDER_ENDPOINT = "newOrder"
	// The ACME directory key for the revokeCert endpoint.
	REVOKE_CERT_ENDPOINT = "revokeCert"
	// The ACME directory key for the keyChange endpoint.
	KEY_CHANGE_ENDPOINT = "keyChange"
	// The HTTP response header used by ACME to communicate a fresh nonce. See
	// https://ietf-wg-acme.github.io/acme/draft-ietf-acme-acme.html#rfc.section.6.5.1
	REPLAY_NONCE_HEADER = "Replay-Nonce"
	// The content type used for JWS request bodies.
	JOSE_CONTENT_TYPE = "application/jose+json"
	// The content type an RFC 7807 problem document is served with.
	PROBLEM_CONTENT_TYPE = "application/problem+json"
	// The content type a certificate chain response is served with.
	CERT_CHAIN_CONTENT_TYPE = "application/pem-certificate-chain"
	// The ACME badNonce problem URN. Servers return this problem type when
	// a JWS nonce has already been consumed or is otherwise invalid; the
	// response still carries a fresh Replay-Nonce that may be retried once.
	BAD_NONCE_PROBLEM = "urn:ietf:params:acme:error:badNonce"
)
