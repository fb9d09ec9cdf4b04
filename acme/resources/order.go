package resources

// NewOrder is the request body for creating a new Order: a list of
// identifiers the account wishes to obtain a certificate for.
//
// See https://tools.ietf.org/html/rfc8555#section-7.4
type NewOrder struct {
	Identifiers []Identifier `json:"identifiers"`
}

// Order status values. Order.Status holds one of these.
//
// See https://tools.ietf.org/html/rfc8555#section-7.1.6
const (
	StatusPending    = "pending"
	StatusReady      = "ready"
	StatusProcessing = "processing"
	StatusValid      = "valid"
	StatusInvalid    = "invalid"
)

// Order is the mutable handle over the lifetime of a single certificate
// issuance. It is created by the client package's Client.CreateOrder and
// refreshed in place by
// every subsequent read of the order URL.
//
// See https://tools.ietf.org/html/rfc8555#section-7.1.3
type Order struct {
	// ID is the order's URL, assigned from the newOrder response's Location
	// header. It is not part of the JSON body the server returns.
	ID string `json:"-"`
	// Account is the account that created this order. Not an ACME-specified
	// field; used to sign every subsequent request against the order.
	Account *Account `json:"-"`
	// Nonce is this order's private Replay-Nonce slot. Concurrent orders
	// under one account each maintain their own.
	Nonce string `json:"-"`
	// Status is the order's current status.
	Status string `json:"status"`
	// Identifiers the order wishes to finalize a certificate for.
	Identifiers []Identifier `json:"identifiers,omitempty"`
	// Authorizations lists the URLs of Authorization resources the server
	// requires the account to satisfy before the order can be finalized.
	Authorizations []string `json:"authorizations"`
	// Finalize is the URL used to finalize the order with a CSR once Status
	// is "ready".
	Finalize string `json:"finalize"`
	// Certificate is the URL used to fetch the issued certificate chain once
	// Status is "valid". Empty until then.
	Certificate string `json:"certificate,omitempty"`
	// Error holds the problem document explaining why the order became
	// invalid, if Status is "invalid".
	Error *Problem `json:"error,omitempty"`
}

// String returns the Order's URL.
func (o Order) String() string {
	return o.ID
}
