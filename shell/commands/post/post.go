// Package post implements an ACMEShell command for POSTing requests to an ACME
// server.
package post

import (
	"encoding/json"
	"flag"
	"strings"

	"github.com/abiosoft/ishell"
	acmeclient "github.com/go-acme/acmeclient/acme/client"
	"github.com/go-acme/acmeclient/shell/commands"
)

type postOptions struct {
	acmeclient.HTTPOptions
	postBody     string
	templateBody bool
	sign         bool
	printJWS     bool
	keyID        string
}

func init() {
	commands.RegisterCommand(
		&ishell.Cmd{
			Name:    "post",
			Aliases: []string{"postURL"},
			Func:    postHandler,
			Help:    "Send an HTTP POST to a ACME endpoint or a URL",
			LongHelp: `
	post [acme endpoint]:
		Send an HTTP POST request to the URL that is contained in the ACME server's
		directory object under the specified endpoint name. You will be prompted
		interactively for the POST body (unless specified).

		Examples:
			post newOrder
				Send an HTTP POST to the "newOrder" key from the ACME server's directory
				object. The POST body will be read from stdin interactively.

			post -body='{"identifiers":[{"type":"dns", "value":"localhost.com"}]}' newOrder
				Send an HTTP POST with the given JSON body to the "newOrder" key from
				the ACME server's directory object.

	post [url]:
		Send an HTTP POST request to the URL specified.

		Examples:
			post https://acme-staging-v02.api.letsencrypt.org/acme/newOrder
				Send an HTTP POST to the Let's Encrypt V2 API's newOrder URL.
	`,
		},
		nil)
}

func postURL(opts postOptions, targetURL string, c *ishell.Context) {
	client := commands.GetClient(c)
	account := client.ActiveAccount

	if account == nil && opts.keyID == "" {
		c.Printf("post: no active ACME account to authenticate POST requests\n")
		return
	}

	postBody := []byte(opts.postBody)
	if opts.sign {
		signOpts := &acmeclient.SigningOptions{}
		if opts.keyID != "" {
			key, found := client.Keys[opts.keyID]
			if !found {
				c.Printf("post: no key with ID %q exists in shell\n", opts.keyID)
				return
			}
			signOpts.Signer = key
			signOpts.KeyID = opts.keyID
		} else {
			signOpts.KeyID = account.ID
		}
		signResult, err := client.Sign(targetURL, postBody, signOpts)
		if err != nil {
			c.Printf("post: error signing POST request body: %s\n", err)
			return
		}
		if opts.printJWS {
			c.Printf("JWS: \n%s\n", signResult.SerializedJWS)
		}
		postBody = signResult.SerializedJWS
	}

	respCtx := client.PostURL(targetURL, postBody, &opts.HTTPOptions)
	if respCtx.Err != nil {
		c.Printf("post: error POSTing signed request body to URL: %s\n", respCtx.Err)
		return
	}
}

func postHandler(c *ishell.Context) {
	// Set up flags for the get flagset
	opts := postOptions{}
	postFlags := flag.NewFlagSet("post", flag.ContinueOnError)
	postFlags.BoolVar(&opts.PrintHeaders, "headers", false, "Print HTTP response headers")
	postFlags.BoolVar(&opts.PrintStatus, "status", true, "Print HTTP response status code")
	postFlags.BoolVar(&opts.PrintResponse, "response", true, "Print HTTP response body")
	postFlags.BoolVar(&opts.printJWS, "jwsBody", false, "Print JWS body before POSTing")
	postFlags.StringVar(&opts.postBody, "body", "", "HTTP POST request body")
	postFlags.BoolVar(&opts.templateBody, "templateBody", true, "Template HTTP POST body")
	postFlags.BoolVar(&opts.sign, "sign", true, "Sign body with active account key")
	postFlags.StringVar(&opts.keyID, "keyID", "", "Key ID of existing key to use instead of active account key")
	err := postFlags.Parse(c.Args)

	if err != nil && err != flag.ErrHelp {
		c.Printf("post: error parsing input flags: %s", err.Error())
		return
	} else if err == flag.ErrHelp {
		return
	}

	if postFlags.NArg() < 1 {
		c.Printf("post: you must specify an endpoint or a URL\n")
		return
	}

	argument := strings.TrimSpace(postFlags.Arg(0))
	client := commands.GetClient(c)

	var targetURL string

	if endpointURL, ok := client.GetEndpointURL(argument); ok {
		// If the argument is an endpoint, find its URL
		targetURL = endpointURL
	} else {
		templateText := strings.Join(postFlags.Args(), " ")

		// Render the input as a template
		rendered, err := commands.EvalTemplate(
			templateText,
			commands.TemplateCtx{
				Client: client,
				Acct:   client.ActiveAccount,
			})
		if err != nil {
			c.Printf("post: target URL templating error: %s\n", err.Error())
			return
		}
		// Use the templated result as the argument
		targetURL = rendered
	}

	// Check the URL and make sure it is valid-ish
	if !commands.OkURL(targetURL) {
		c.Printf("post: illegal url argument %q\n", targetURL)
		return
	}

	// If the -body flag was specified and after trimming it is a non-empty value
	// use the trimmed value as the post body
	if trimmedBody := strings.TrimSpace(opts.postBody); trimmedBody != "" {
		opts.postBody = trimmedBody
	} else {
		// Otherwise, read the POST body interactively
		inputJSON := commands.ReadJSON(c)
		if inputJSON == "" {
			c.Printf("post: no POST body provided\n")
			return
		}
		opts.postBody = inputJSON
	}

	if opts.templateBody {
		// Render the body input as a template
		rendered, err := commands.EvalTemplate(
			opts.postBody,
			commands.TemplateCtx{
				Client: client,
				Acct:   client.ActiveAccount,
			})
		if err != nil {
			c.Printf("post: POST body templating error: %s\n", err.Error())
			return
		}
		opts.postBody = rendered
	}

	var testOb interface{}
	if err := json.Unmarshal([]byte(opts.postBody), &testOb); err != nil {
		c.Printf("post: POST body was not legal JSON: %s\n", err)
		return
	}

	c.Printf("POSTing: \n%s\n", string(opts.postBody))
	postURL(opts, targetURL, c)
}
