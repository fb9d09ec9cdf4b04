package resources

// NewAccount is the request body for creating or looking up an ACME account.
//
// See https://tools.ietf.org/html/rfc8555#section-7.3
type NewAccount struct {
	// Contact holds zero or more "mailto:" contact URIs.
	Contact []string `json:"contact,omitempty"`
	// TermsOfServiceAgreed must be true for the server to create the
	// account.
	TermsOfServiceAgreed bool `json:"termsOfServiceAgreed"`
	// OnlyReturnExisting, if true, asks the server to return the existing
	// account for this key rather than creating a new one, failing if none
	// exists.
	OnlyReturnExisting bool `json:"onlyReturnExisting,omitempty"`
}
