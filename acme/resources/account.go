// Package resources provides the ACME protocol data model: Account,
// Directory, Order/Authorization/Challenge resources, and the portable
// AccountCredentials used to persist an Account between runs.
package resources

import (
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-acme/acmeclient/acme/keys"
)

// Account holds an ACME account: its server-assigned identifier (used as the
// JWS "kid" for every subsequent signed request), its ECDSA P-256 keypair,
// and the directory it was created against.
//
// An Account is immutable after construction and cheap to share: Key,
// KeyPKCS8 and Thumbprint never change once populated, and ID is set exactly
// once (by the client package's Client.CreateAccount, or by decoding
// AccountCredentials). It is safe to use from
// multiple goroutines driving independent Orders concurrently.
//
// See https://tools.ietf.org/html/rfc8555#section-7.1.2
type Account struct {
	// ID is the server-assigned account URL ("kid"). Empty until the account
	// has been created with the server.
	ID string
	// Key is the account's ECDSA P-256 keypair.
	Key *ecdsa.PrivateKey
	// KeyPKCS8 is the PKCS#8 DER encoding of Key, retained for lossless
	// credential export.
	KeyPKCS8 []byte
	// Thumbprint is the RFC 7638 JWK thumbprint of Key's public component,
	// precomputed at construction time since it is needed for every key
	// authorization derived from this account.
	Thumbprint string
	// Contact holds the account's "mailto:" contact URIs, if any.
	Contact []string
	// Directory is the directory this account's client was constructed
	// against; every subsequent request against this account targets these
	// URLs.
	Directory Directory
	// Orders records the order URLs this account has created, for
	// convenience when driving multiple orders from one CLI session. Not an
	// ACME-specified field.
	Orders []string
}

// String returns the account's ID, or the empty string if it has not yet
// been created with the server.
func (a *Account) String() string {
	if a == nil {
		return ""
	}
	return a.ID
}

// OrderURL returns the URL of the i'th order this account has created.
func (a *Account) OrderURL(i int) (string, error) {
	if len(a.Orders) == 0 {
		return "", errors.New("account has no orders")
	}
	if i < 0 || i >= len(a.Orders) {
		return "", fmt.Errorf("order index must be 0 <= i < %d", len(a.Orders))
	}
	return a.Orders[i], nil
}

// NewAccountKey generates a fresh ECDSA P-256 account key and derives its
// PKCS#8 DER encoding and RFC 7638 thumbprint, both retained on the returned
// Account per the round-trip invariant.
func NewAccountKey(contact []string) (*Account, error) {
	key, err := keys.NewECDSAKey()
	if err != nil {
		return nil, err
	}
	acct, err := accountFromKey(key)
	if err != nil {
		return nil, err
	}
	acct.Contact = contact
	return acct, nil
}

func accountFromKey(key *ecdsa.PrivateKey) (*Account, error) {
	der, err := keys.MarshalPKCS8(key)
	if err != nil {
		return nil, err
	}
	thumb, err := keys.Thumbprint(key)
	if err != nil {
		return nil, err
	}
	return &Account{
		Key:        key,
		KeyPKCS8:   der,
		Thumbprint: thumb,
	}, nil
}

// AccountCredentials is the portable, round-trippable serialization of an
// Account: {id, key_pkcs8 (base64url no-pad PKCS#8 DER), urls (Directory)}.
// Callers may persist and load it themselves; SaveAccount/RestoreAccount
// below are file-backed helpers for it, which the client package's NewClient
// also uses when its ClientConfig.AccountPath is set.
type AccountCredentials struct {
	ID       string    `json:"id"`
	KeyPKCS8 string    `json:"key_pkcs8"`
	URLs     Directory `json:"urls"`
}

// Credentials exports a's portable credentials for persistence.
func (a *Account) Credentials() AccountCredentials {
	return AccountCredentials{
		ID:       a.ID,
		KeyPKCS8: base64.RawURLEncoding.EncodeToString(a.KeyPKCS8),
		URLs:     a.Directory,
	}
}

// FromCredentials reconstructs an Account from previously exported
// AccountCredentials: decodes the PKCS#8 key, recomputes its thumbprint, and
// adopts the id and directory URLs verbatim.
//
// FromCredentials(account.Credentials()) round-trips id, urls and
// thumbprint.
func FromCredentials(creds AccountCredentials) (*Account, error) {
	der, err := base64.RawURLEncoding.DecodeString(creds.KeyPKCS8)
	if err != nil {
		return nil, fmt.Errorf("decoding key_pkcs8: %w", err)
	}
	key, err := keys.ParsePKCS8(der)
	if err != nil {
		return nil, err
	}
	acct, err := accountFromKey(key)
	if err != nil {
		return nil, err
	}
	acct.ID = creds.ID
	acct.Directory = creds.URLs
	return acct, nil
}

// SaveAccount persists account's credentials as indented JSON to path, using
// a file mode that restricts access to the current user since the file
// contains private key material. This is CLI-layer convenience, grounded on
// the teacher's SaveAccount helper; the protocol core has no opinion on
// where credentials live.
func SaveAccount(path string, account *Account) error {
	if account == nil {
		return fmt.Errorf("account must not be nil")
	}
	frozen, err := json.MarshalIndent(account.Credentials(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, frozen, 0o600)
}

// RestoreAccount loads an Account previously persisted with SaveAccount.
func RestoreAccount(path string) (*Account, error) {
	frozen, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var creds AccountCredentials
	if err := json.Unmarshal(frozen, &creds); err != nil {
		return nil, fmt.Errorf("parsing account credentials: %w", err)
	}
	return FromCredentials(creds)
}
