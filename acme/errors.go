package acme

import (
	"errors"
	"fmt"

	"github.com/go-acme/acmeclient/acme/resources"
)

// Kind classifies an Error so that callers can decide whether to retry
// (badNonce), surface a problem document, or treat the failure as fatal.
type Kind int

const (
	// KindAPI wraps an RFC 7807 problem document returned by the server.
	KindAPI Kind = iota
	// KindCrypto covers key generation, PKCS#8 parsing, signing and HMAC
	// failures.
	KindCrypto
	// KindTransport covers request send or response body read failures.
	KindTransport
	// KindSerialization covers JSON encode/decode failures.
	KindSerialization
	// KindProtocol covers missing expected headers (Location, Replay-Nonce),
	// an unparseable directory, an invalid order state transition, or
	// a non-UTF-8 certificate body.
	KindProtocol
	// KindOther is a catch-all for errors with a literal message.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindAPI:
		return "api"
	case KindCrypto:
		return "crypto"
	case KindTransport:
		return "transport"
	case KindSerialization:
		return "serialization"
	case KindProtocol:
		return "protocol"
	default:
		return "other"
	}
}

// Error is the single error type returned by the acme/client package. Use
// errors.As to recover a Problem for Kind == KindAPI.
type Error struct {
	Kind    Kind
	Message string
	Problem *resources.Problem
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindAPI && e.Problem != nil:
		return fmt.Sprintf("acme: %s: %s", e.Problem.Type, e.Problem.Detail)
	case e.Err != nil:
		return fmt.Sprintf("acme: %s: %s", e.Kind, e.Err)
	default:
		return fmt.Sprintf("acme: %s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsBadNonce reports whether err is an API error carrying the badNonce
// problem type, in which case the caller may retry once with the nonce
// returned alongside the problem response.
func IsBadNonce(err error) bool {
	var aerr *Error
	if !errors.As(err, &aerr) {
		return false
	}
	return aerr.Kind == KindAPI && aerr.Problem != nil && aerr.Problem.Type == BAD_NONCE_PROBLEM
}

// NewAPIError wraps a Problem document as a KindAPI Error.
func NewAPIError(p *resources.Problem) *Error {
	return &Error{Kind: KindAPI, Problem: p}
}

// NewCryptoError wraps a crypto failure.
func NewCryptoError(msg string, err error) *Error {
	return &Error{Kind: KindCrypto, Message: msg, Err: err}
}

// NewTransportError wraps a transport failure.
func NewTransportError(msg string, err error) *Error {
	return &Error{Kind: KindTransport, Message: msg, Err: err}
}

// NewSerializationError wraps a JSON encode/decode failure.
func NewSerializationError(msg string, err error) *Error {
	return &Error{Kind: KindSerialization, Message: msg, Err: err}
}

// NewProtocolError reports a protocol-level violation (missing header,
// unparseable directory, invalid state transition, non-UTF-8 body).
func NewProtocolError(msg string) *Error {
	return &Error{Kind: KindProtocol, Message: msg}
}

// NewOtherError wraps a catch-all failure with a literal message.
func NewOtherError(msg string) *Error {
	return &Error{Kind: KindOther, Message: msg}
}
