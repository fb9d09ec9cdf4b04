package resources

import "encoding/json"

// Directory is the ACME server's directory resource, fetched once per
// Client and cached for the lifetime of the Client.
//
// See https://tools.ietf.org/html/rfc8555#section-7.1.1
type Directory struct {
	// NewNonce is the URL used to fetch a fresh anti-replay nonce.
	NewNonce string `json:"newNonce"`
	// NewAccount is the URL used to create or look up an ACME account.
	NewAccount string `json:"newAccount"`
	// NewOrder is the URL used to request issuance of a new certificate.
	NewOrder string `json:"newOrder"`
	// RevokeCert is the URL used to request certificate revocation, if the
	// server advertises one.
	RevokeCert string `json:"revokeCert,omitempty"`
	// KeyChange is the URL used to roll an account over to a new key, if the
	// server advertises one.
	KeyChange string `json:"keyChange,omitempty"`
	// Meta holds the optional, server-defined "meta" directory object
	// verbatim. It is never interpreted by the core, only round-tripped.
	Meta json.RawMessage `json:"meta,omitempty"`
}
