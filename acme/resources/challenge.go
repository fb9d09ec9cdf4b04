package resources

// ChallengeType enumerates the challenge validation methods a Challenge may
// use.
//
// See https://ietf-wg-acme.github.io/acme/draft-ietf-acme-acme.html#rfc.section.8
type ChallengeType string

const (
	ChallengeHTTP01    ChallengeType = "http-01"
	ChallengeDNS01     ChallengeType = "dns-01"
	ChallengeTLSALPN01 ChallengeType = "tls-alpn-01"
)

// ChallengeStatus enumerates the states of a Challenge's server-driven
// state machine.
type ChallengeStatus string

const (
	ChallengePending    ChallengeStatus = "pending"
	ChallengeProcessing ChallengeStatus = "processing"
	ChallengeValid      ChallengeStatus = "valid"
	ChallengeInvalid    ChallengeStatus = "invalid"
)

// Challenge represents an action the client must take to authorize an
// account for a specific identifier, as part of a parent Authorization.
//
// See https://ietf-wg-acme.github.io/acme/draft-ietf-acme-acme.html#rfc.section.7.1.5
type Challenge struct {
	// Type of challenge (http-01, dns-01, or tls-alpn-01).
	Type ChallengeType `json:"type"`
	// URL identifies this challenge; used both to fetch its current state
	// and to POST the empty-object trigger that tells the server to
	// validate it.
	URL string `json:"url"`
	// Token is used to construct the KeyAuthorization for this challenge.
	Token string `json:"token"`
	// Status of the challenge.
	Status ChallengeStatus `json:"status"`
	// Error holds the problem document explaining why an invalid challenge
	// failed, if any.
	Error *Problem `json:"error,omitempty"`
}

// String returns the Challenge's URL.
func (c Challenge) String() string {
	return c.URL
}
