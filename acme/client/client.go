// Package client provides a low-level ACME v2 client.
package client

import (
	"crypto/ecdsa"
	"fmt"
	"log"
	"net/mail"
	"net/url"
	"strings"

	"github.com/go-acme/acmeclient/acme/resources"
	acmenet "github.com/go-acme/acmeclient/net"
)

// Client allows interaction with an ACME server. A client may have many
// Accounts, each corresponding to a keypair and corresponding server-side
// Account resource. Each client uses the ActiveAccount to authenticate
// requests to the ACME server. In addition to Accounts a client maintains
// a map of Keys containing private keys that can be used for signing CSRs
// when finalizing orders. Internally the Client uses the
// github.com/go-acme/acmeclient/net package to perform HTTP requests to the
// ACME server.
//
// The Client's DirectoryURL field is a parsed *url.URL for the ACME server's
// directory. The client configures itself with the correct URLs for ACME
// operations using the directory resource accessed at this URL. See
// https://tools.ietf.org/html/rfc8555#section-7.1.1
//
// The Client's ActiveAccount field is a pointer to an Account that should be
// used for authenticating ACME requests with JSON Web Signatures (JWS).
// Switching the ActiveAccount between entries from the Accounts array allows
// performing complex multi-user tests (e.g. verifying access control
// restrictions on resources) with an ACME server.
//
// The Client's Keys field is a map of private keys that can be used for signing
// operations that should not use the ActiveAccount's keypair. One example of
// this being helpful is for certificate signing requests (CSRs) used during
// order finalization which SHOULD NOT be the account keypair (see RFC 8555
// §11.1). Each private key is indexed in the Keys map by a string key
// identifier which will often be a human readable name (e.g. "example-key").
// The key identifier for the Keys entry has no relation to ACME JWS key
// identifiers.
//
// The Client's Accounts field is a slice of Account object pointers. These are
// the available Accounts that have been registered by the client with the ACME
// server, or loaded from a previous session.
type Client struct {
	// A parsed *url.URL pointer for the ACME server's directory URL.
	DirectoryURL *url.URL
	// A pointer to the Account object that is considered currently active for
	// signing JWS for ACME requests.
	ActiveAccount *resources.Account
	// A map of key identifiers to private keys. These keys are used for signing
	// operations that shouldn't use an Account's associated key (e.g. CSR
	// signing keys).
	Keys map[string]*ecdsa.PrivateKey
	// A slice of Account object pointers. The ActiveAccount is selected from this
	// list of available accounts.
	Accounts []*resources.Account
	// Options controlling the Client's output.
	Output OutputOptions
	// Use POST-as-GET requests instead of GET
	PostAsGet bool
	// the net object is used to make HTTP GET/POST/HEAD requests to the ACME
	// server.
	net *acmenet.ACMENet
	// directory is the ACME server's directory resource, fetched once and
	// cached for the lifetime of the Client.
	directory resources.Directory
	// nonce is the value of the last-seen Replay-Nonce header from the ACME
	// server's HTTP responses. It will be used for the next signing operation.
	nonce string
}

// OutputOptions holds runtime output settings for a client.
type OutputOptions struct {
	// PrintRequests is carried with the other output settings, but no code
	// path reads it: HTTP requests are not printed.
	PrintRequests bool
	// PrintResponses is carried with the other output settings, but no code
	// path reads it: raw HTTP responses are not printed.
	PrintResponses bool
	// Print all the input to JWS produced.
	PrintSignedData bool
	// Print the JSON serialization of all JWS produced.
	PrintJWS bool
	// Print each nonce that RefreshNonce stores in the Client's own slot.
	// Nonces fetched for or returned into an Order's slot are not printed.
	PrintNonceUpdates bool
}

// ClientConfig contains configuration options provided to NewClient when
// creating a Client instance.
//
// The DirectoryURL field is a string containing the URL for the
// ACME server's directory endpoint. This field is mandatory and must not be
// empty. It should be a fully qualified URL with a HTTP/HTTPS protocol
// prefix ("http://" or "https://"). See RFC 8555 §7.1.1.
//
// The CACert field is an optional string containing a file path to a file
// containing one or more PEM encoded CA certificate that should be used as
// trust roots for HTTPS requests to the ACME server. If empty the default
// system roots are used.
//
// The ContactEmail field is a string expected to contain a single email
// address or to be empty. It will be used as a "mailto:" contact address when
// auto-registering an ACME account. Because this field is only referenced
// during auto-registering an Account it is only used when AutoRegister is true.
//
// The AccountPath field is a string expected to contain a file path for
// a previously saved Account, or to be empty. If the AccountPath field is
// populated NewClient first loads the Account serialized in the provided
// filepath and makes it the ActiveAccount; a loaded Account is never replaced
// by auto-registration. If loading fails NewClient returns the error when
// AutoRegister is false; when AutoRegister is true it registers a new account
// instead and saves it to AccountPath.
//
// The EAB field is optional; if non-nil it is used to bind the
// auto-registered account to an existing CA account per RFC 8555 §7.3.4.
type ClientConfig struct {
	// A fully qualified URL for the ACME server's directory resource. Must
	// include an HTTP/HTTPS protocol prefix.
	DirectoryURL string
	// An optional file path to one or more PEM encoded CA certificates to be used
	// as trust roots for HTTPS requests to the ACME server.
	CACert string
	// An optional email address to use if AutoRegister is true and an Account is
	// created with the ACME server. It should not have a protocol prefix,
	// acmeclient will automatically add a "mailto:" prefix. This field only
	// supports one email address.
	ContactEmail string
	// An optional file path to a previously saved ACME account. It will be
	// loaded and used as the ActiveAccount. A successfully loaded account
	// prevents auto-registration; if loading fails and AutoRegister is true a
	// new account is registered and saved to this path.
	AccountPath string
	// If AutoRegister is true NewClient will automatically create a new Account
	// with the ACME server and use it as the ActiveAccount. If ContactEmail is
	// specified it will be used as the new ACME account's Contact mailto address.
	AutoRegister bool
	// If POSTAsGET is true then GET requests to Orders, Authorizations,
	// Challenges and Certificates will be made as POST-as-GET requests. If using
	// a Pebble server this requires `-strict` be enabled.
	POSTAsGET bool
	// EAB optionally binds an auto-registered account to an existing CA
	// account via external account binding.
	EAB *resources.ExternalAccountKey
	// Initial OutputOptions settings
	InitialOutput OutputOptions
}

// normalize validates a ClientConfig.
func (conf *ClientConfig) normalize() error {
	// Clean up any junk whitespace that might have snuck in
	conf.DirectoryURL = strings.TrimSpace(conf.DirectoryURL)
	conf.ContactEmail = strings.TrimSpace(conf.ContactEmail)
	conf.AccountPath = strings.TrimSpace(conf.AccountPath)

	if conf.DirectoryURL == "" {
		return fmt.Errorf("DirectoryURL must not be empty")
	}

	if _, err := url.Parse(conf.DirectoryURL); err != nil {
		return fmt.Errorf("DirectoryURL invalid: %s", err.Error())
	}

	if conf.ContactEmail != "" {
		addr, err := mail.ParseAddress(conf.ContactEmail)
		if err != nil {
			return fmt.Errorf("ContactEmail is invalid: %s", err.Error())
		}
		conf.ContactEmail = addr.Address
	}

	return nil
}

// NewClient creates a Client instance from the given ClientConfig. If the
// config is not valid or if another error occurs it will be returned along with
// a nil Client.
func NewClient(config ClientConfig) (*Client, error) {
	// Validate the ClientConfig has no errors when normalized.
	if err := config.normalize(); err != nil {
		return nil, err
	}

	// Create the ACME net client
	net, err := acmenet.New(acmenet.Config{CABundlePath: config.CACert})
	if err != nil {
		return nil, fmt.Errorf("unable to create ACME net client: %w", err)
	}

	// NOTE: it's safe to throw away the returned err here because we check
	// that `url.Parse` will succeed in `config.normalize()` above.
	dirURL, _ := url.Parse(config.DirectoryURL)

	// Create a base client
	client := &Client{
		DirectoryURL: dirURL,
		PostAsGet:    config.POSTAsGET,
		Keys:         map[string]*ecdsa.PrivateKey{},
		Output:       config.InitialOutput,
		net:          net,
	}
	if client.PostAsGet {
		log.Printf("Using POST-as-GET requests\n")
	}

	// If requested, try to load an existing account from disk
	if config.AccountPath != "" {
		log.Printf("Trying to restore account from %q\n", config.AccountPath)
		acct, err := resources.RestoreAccount(config.AccountPath)

		// if there was an error loading the account and auto-register is not
		// specified then return an error. We have no account to use.
		if err != nil && !config.AutoRegister {
			return nil, fmt.Errorf("error restoring account from %q : %s",
				config.AccountPath, err)
		} else if err != nil && config.AutoRegister {
			log.Printf("No account restored\n")
		}

		// If there was no error, populate the active account
		if err == nil {
			client.Keys[acct.ID] = acct.Key
			log.Printf("Restored private key for ID %q\n", acct.ID)
			client.Accounts = append(client.Accounts, acct)
			client.ActiveAccount = acct
			client.directory = acct.Directory
			log.Printf("Restored account with ID %q (Contact %s)\n",
				acct.ID, acct.Contact)
		}
	}

	if client.directory.NewNonce == "" {
		if err := client.UpdateDirectory(); err != nil {
			return nil, err
		}
	}

	// If there is no active account and auto-register is enabled then create
	// a new account.
	if config.AutoRegister && client.ActiveAccountID() == "" {
		log.Printf("AutoRegister is enabled and there is no loaded account. " +
			"Creating a new account\n")
		var contact []string
		if config.ContactEmail != "" {
			contact = []string{"mailto:" + config.ContactEmail}
		}
		acct, err := resources.NewAccountKey(contact)
		if err != nil {
			return nil, err
		}
		// store the account object
		client.Accounts = append(client.Accounts, acct)
		// use the auto-registered account as the active account
		client.ActiveAccount = acct
		// create the account with the ACME server
		if err := client.CreateAccount(acct, config.EAB); err != nil {
			return nil, err
		}
		// store the account key
		client.Keys[acct.ID] = acct.Key
		log.Printf("Created private key for ID %q\n", acct.ID)

		// if there is an account path configured, save the account we just made to
		// that path
		if config.AccountPath != "" {
			err := resources.SaveAccount(config.AccountPath, client.ActiveAccount)
			if err != nil {
				return nil, fmt.Errorf("error saving account to %q : %s",
					config.AccountPath, err)
			}
			log.Printf("Saved account data to %q", config.AccountPath)
		}
	} else if config.AutoRegister && client.ActiveAccountID() != "" {
		// If there is an active account AND auto-register is enabled print
		// a message to explain that we aren't creating an account.
		log.Printf("AutoRegister is enabled but there is a loaded account (ID: %q). "+
			"Skipping creating a new account\n", client.ActiveAccount.ID)
	} else {
		// Otherwise, autoregister is disabled.
		log.Printf("AutoRegister is disabled\n")
	}

	if client.nonce == "" {
		if err := client.RefreshNonce(); err != nil {
			return nil, err
		}
	}

	if acctID := client.ActiveAccountID(); acctID != "" {
		log.Printf("Active account: %q\n", acctID)
	}

	return client, nil
}

func (c *Client) Printf(format string, vals ...interface{}) {
	log.Printf(format, vals...)
}

// ActiveAccountID returns the ID of the ActiveAccount. If the ActiveAccount is
// nil, an empty string is returned. If the ActiveAccount has not yet been
// created with the ACME server an empty string is returned.
func (c *Client) ActiveAccountID() string {
	if c.ActiveAccount == nil {
		return ""
	}

	return c.ActiveAccount.ID
}
