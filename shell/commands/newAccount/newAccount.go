package newAccount

import (
	"flag"
	"strings"

	"github.com/abiosoft/ishell"
	acmeclient "github.com/go-acme/acmeclient/acme/client"
	"github.com/go-acme/acmeclient/acme/keys"
	"github.com/go-acme/acmeclient/acme/resources"
	"github.com/go-acme/acmeclient/shell/commands"
)

func init() {
	commands.RegisterCommand(
		&ishell.Cmd{
			Name:     "newAccount",
			Aliases:  []string{"newAcct", "newReg", "newRegistration"},
			Func:     newAccountHandler,
			Help:     "Create a new ACME account",
			LongHelp: `TODO(@cpu): Write this!`,
		},
		nil)
}

type newAccountOptions struct {
	acmeclient.HTTPOptions
	contacts string
	switchTo bool
	jsonPath string
	keyID    string
}

func newAccountHandler(c *ishell.Context) {
	opts := newAccountOptions{}
	newAccountFlags := flag.NewFlagSet("newAccount", flag.ContinueOnError)
	newAccountFlags.StringVar(&opts.contacts, "contacts", "", "Comma separated list of contact emails")
	newAccountFlags.BoolVar(&opts.switchTo, "switch", true, "Switch to the new account after creating it")
	newAccountFlags.StringVar(&opts.jsonPath, "json", "", "Optional filepath to a JSON save file for the account")
	newAccountFlags.StringVar(&opts.keyID, "keyID", "", "Key ID for existing key (empty to generate new key)")

	newAccountFlags.BoolVar(&opts.PrintHeaders, "printHeaders", false, "Print response headers")
	newAccountFlags.BoolVar(&opts.PrintStatus, "printStatus", true, "Print response status")
	newAccountFlags.BoolVar(&opts.PrintResponse, "printResponse", false, "Print response body")

	err := newAccountFlags.Parse(c.Args)
	if err != nil && err != flag.ErrHelp {
		c.Printf("newAccount: error parsing input flags: %s\n", err.Error())
		return
	} else if err == flag.ErrHelp {
		return
	}

	var emails []string
	if opts.contacts != "" {
		for _, e := range strings.Split(opts.contacts, ",") {
			email := strings.TrimSpace(e)
			if email == "" {
				continue
			}
			// Remove mailto: if present - we add it ourselves
			email = strings.TrimPrefix(email, "mailto:")
			emails = append(emails, "mailto:"+email)
		}
	}

	client := commands.GetClient(c)

	var acct *resources.Account
	if opts.keyID != "" {
		key, found := client.Keys[opts.keyID]
		if !found {
			c.Printf("newAccount: Key ID %q does not exist in shell\n", opts.keyID)
			return
		}
		der, err := keys.MarshalPKCS8(key)
		if err != nil {
			c.Printf("newAccount: error marshaling key %q: %s\n", opts.keyID, err)
			return
		}
		thumb, err := keys.Thumbprint(key)
		if err != nil {
			c.Printf("newAccount: error computing thumbprint for key %q: %s\n", opts.keyID, err)
			return
		}
		acct = &resources.Account{Key: key, KeyPKCS8: der, Thumbprint: thumb, Contact: emails}
	} else {
		var err error
		acct, err = resources.NewAccountKey(emails)
		if err != nil {
			c.Printf("newAccount: error creating new account object: %s\n", err)
			return
		}
	}

	// create the account with the ACME server
	if err := client.CreateAccount(acct, nil); err != nil {
		c.Printf("newAccount: error creating new account with ACME server: %s\n", err)
		return
	}
	// if opts.keyID was empty a new key was generated for this account. We
	// need to save that key.
	if opts.keyID == "" {
		client.Keys[acct.ID] = acct.Key
		c.Printf("Created private key for ID %q\n", acct.ID)
	}

	c.Printf("Created account with ID %q Contacts %q\n", acct.ID, acct.Contact)
	// store the account object
	client.Accounts = append(client.Accounts, acct)

	if opts.jsonPath != "" {
		err := resources.SaveAccount(opts.jsonPath, acct)
		if err != nil {
			c.Printf("error saving account to %q : %s\n", opts.jsonPath, err)
		}
		c.Printf("Saved account data to %q\n", opts.jsonPath)
	}

	if opts.switchTo {
		// use the new account immediately
		client.ActiveAccount = acct
		c.Printf("Active account is now %q\n", client.ActiveAccount.ID)
	}
}
