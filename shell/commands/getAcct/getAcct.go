package getAcct

import (
	"encoding/json"
	"flag"
	"net/http"

	"github.com/abiosoft/ishell"
	"github.com/go-acme/acmeclient/acme"
	acmeclient "github.com/go-acme/acmeclient/acme/client"
	"github.com/go-acme/acmeclient/shell/commands"
)

func init() {
	commands.RegisterCommand(
		&ishell.Cmd{
			Name:     "getAccount",
			Aliases:  []string{"account", "getAcct", "registration", "getReg", "getRegistration"},
			Func:     getAccountHandler,
			Help:     "Get ACME account details from server",
			LongHelp: `TODO(@cpu): Write this!`,
		},
		nil)
}

type getAccountOptions struct {
	acmeclient.HTTPOptions
}

func getAccountHandler(c *ishell.Context) {
	opts := getAccountOptions{}
	getAccountFlags := flag.NewFlagSet("getAccount", flag.ContinueOnError)
	err := getAccountFlags.Parse(c.Args)
	if err != nil && err != flag.ErrHelp {
		c.Printf("getAccount: error parsing input flags: %s\n", err.Error())
		return
	} else if err == flag.ErrHelp {
		return
	}

	client := commands.GetClient(c)

	getAcctReq := struct {
		OnlyReturnExisting bool
	}{
		OnlyReturnExisting: true,
	}
	reqBody, _ := json.Marshal(&getAcctReq)
	newAcctURL, ok := client.GetEndpointURL(acme.NEW_ACCOUNT_ENDPOINT)
	if !ok {
		c.Printf(
			"getAccount: ACME server missing %q endpoint in directory\n",
			acme.NEW_ACCOUNT_ENDPOINT)
		return
	}

	signResult, err := client.Sign(newAcctURL, reqBody, &acmeclient.SigningOptions{EmbedKey: true})
	if err != nil {
		c.Printf("getAccount: %s\n", err)
		return
	}

	respCtx := client.PostURL(newAcctURL, signResult.SerializedJWS, &opts.HTTPOptions)
	if respCtx.Err != nil {
		c.Printf("getAccount: failed to POST newAccount: %s\n", respCtx.Err.Error())
		return
	}

	if respCtx.Resp.StatusCode != http.StatusOK {
		c.Printf("getAccount: failed to POST newAccount. Status code: %d\n", respCtx.Resp.StatusCode)
		c.Printf("getAccount: response body: %s\n", respCtx.Body)
		return
	}
}
