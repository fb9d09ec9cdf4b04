package resources

// Identifier represents a subject identifier that can be included in
// a certificate.
//
// See:
// https://tools.ietf.org/html/rfc8555#section-7.5
// https://tools.ietf.org/html/rfc8555#section-9.7.7
//
// In practice most ACME servers only support "dns" type identifiers where the
// value specifies a fully qualified domain name.
//
// A DNS type identifier used in a NewOrder request is allowed to contain
// a wildcard prefix (e.g. "*."). A DNS type identifier used in an
// Authorization resource is not allowed to contain a wildcard prefix and
// instead has the Authorization's Wildcard field set to true with the
// identifier value given without the "*." prefix.
type Identifier struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// DNSIdentifier is a convenience constructor for the common "dns" type
// Identifier.
func DNSIdentifier(domain string) Identifier {
	return Identifier{Type: "dns", Value: domain}
}

// AuthorizationStatus enumerates the states of an Authorization's
// server-driven state machine.
//
// See https://tools.ietf.org/html/rfc8555#section-7.1.6
type AuthorizationStatus string

const (
	AuthorizationPending     AuthorizationStatus = "pending"
	AuthorizationValid       AuthorizationStatus = "valid"
	AuthorizationInvalid     AuthorizationStatus = "invalid"
	AuthorizationDeactivated AuthorizationStatus = "deactivated"
	AuthorizationExpired     AuthorizationStatus = "expired"
	AuthorizationRevoked     AuthorizationStatus = "revoked"
)

// Authorization represents an account's authorization to issue for
// a specified identifier, established by satisfying one of its Challenges.
//
// See https://tools.ietf.org/html/rfc8555#section-7.1.4
type Authorization struct {
	// ID is the Authorization's URL. It is not part of the JSON body the
	// server returns; callers set it to the URL the Authorization was
	// fetched from.
	ID string `json:"-"`
	// Status of this authorization.
	Status AuthorizationStatus `json:"status"`
	// Identifier the account holding this Authorization is authorized to
	// represent.
	Identifier Identifier `json:"identifier"`
	// Challenges the client can fulfill (pending), did fulfill (valid), or
	// attempted and failed (invalid) to prove possession of the identifier.
	Challenges []Challenge `json:"challenges"`
	// Expires is an RFC 3339 timestamp at which the Authorization is
	// considered expired by the server.
	Expires string `json:"expires,omitempty"`
	// Wildcard is true when this Authorization was created for a newOrder
	// identifier whose value contained a wildcard prefix.
	Wildcard bool `json:"wildcard,omitempty"`
}

// String returns the Authorization's server-assigned ID.
func (a Authorization) String() string {
	return a.ID
}
