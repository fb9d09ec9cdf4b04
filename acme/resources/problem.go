package resources

import "fmt"

// Problem is an RFC 7807 problem document as returned by an ACME server on
// non-2xx responses.
//
// See https://tools.ietf.org/html/rfc8555#section-6.7
type Problem struct {
	// Type is a URN identifying the problem, e.g.
	// "urn:ietf:params:acme:error:badNonce".
	Type string `json:"type"`
	// Detail is a human readable explanation of the problem.
	Detail string `json:"detail,omitempty"`
	// Status is the HTTP status code repeated in the problem body, if the
	// server included it.
	Status int `json:"status,omitempty"`
	// Subproblems holds RFC 8555 §6.7.1 subproblems, one per identifier that
	// failed validation in a multi-identifier order.
	Subproblems []Problem `json:"subproblems,omitempty"`
}

func (p *Problem) Error() string {
	if p == nil {
		return "<nil problem>"
	}
	return fmt.Sprintf("%s: %s", p.Type, p.Detail)
}
