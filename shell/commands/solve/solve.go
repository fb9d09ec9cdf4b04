package solve

import (
	"crypto"
	"encoding/base64"
	"flag"
	"fmt"
	"net/http"
	"strings"

	jose "github.com/go-jose/go-jose/v4"

	"github.com/abiosoft/ishell"
	"github.com/go-acme/acmeclient/acme/resources"
	"github.com/go-acme/acmeclient/shell/commands"
)

func init() {
	commands.RegisterCommand(
		&ishell.Cmd{
			Name:     "solve",
			Aliases:  []string{"solveChallenge"},
			Help:     "Complete an ACME challenge",
			LongHelp: `TODO(@cpu): Write this!`,
			Func:     solveHandler,
		},
		nil)
}

type solveOptions struct {
	printKeyAuthorization bool
	printToken            bool
	orderIndex            int
	identifier            string
	challType             string
}

func solveHandler(c *ishell.Context) {
	opts := solveOptions{}
	solveFlags := flag.NewFlagSet("solve", flag.ContinueOnError)
	solveFlags.BoolVar(&opts.printKeyAuthorization, "printKeyAuth", false, "Print calculated key authorization")
	solveFlags.BoolVar(&opts.printToken, "printToken", false, "Print challenge token")
	solveFlags.StringVar(&opts.challType, "challengeType", "", "Challenge type to solve")
	solveFlags.StringVar(&opts.identifier, "identifier", "", "Authorization identifier to solve for")
	solveFlags.IntVar(&opts.orderIndex, "order", -1, "index of existing order")

	leftovers, err := commands.ParseFlagSetArgs(c.Args, solveFlags)
	if err != nil {
		return
	}

	client := commands.GetClient(c)
	challSrv := commands.GetChallSrv(c)

	var targetURL string
	if len(leftovers) > 0 {
		templateText := strings.Join(leftovers, " ")
		targetURL, err = commands.ClientTemplate(client, templateText)
		if err != nil {
			c.Printf("solve: error templating order URL: %v\n", err)
			return
		}
	} else {
		targetURL, err = commands.FindOrderURL(c, nil, opts.orderIndex)
		if err != nil {
			c.Printf("solve: error getting order URL: %v\n", err)
			return
		}
		targetURL, err = commands.FindAuthzURL(c, targetURL, opts.identifier)
		if err != nil {
			c.Printf("solve: error getting authz URL: %v\n", err)
			return
		}
	}

	authz := &resources.Authorization{
		ID: targetURL,
	}
	order := &resources.Order{Account: client.ActiveAccount}
	err = client.UpdateAuthz(order, authz)
	if err != nil {
		c.Printf("solve: error getting authorization object from %q: %v\n", targetURL, err)
		return
	}

	var chall *resources.Challenge
	if opts.challType != "" {
		for _, ch := range authz.Challenges {
			if string(ch.Type) == opts.challType {
				chall = &ch
				break
			}
		}
		if chall == nil {
			c.Printf("solve: authz %q has no %q type challenge\n",
				authz.ID, opts.challType)
			return
		}
	} else {
		var err error
		chall, err = commands.PickChall(c, authz)
		if err != nil {
			c.Printf("solve: error picking challenge: %v\n", err)
			return
		}
	}

	token := chall.Token
	if opts.printToken {
		c.Printf("challenge token:\n%s\n", token)
	}

	jwk := jose.JSONWebKey{
		Key: client.ActiveAccount.Key.Public(),
	}
	thumbprint, err := jwk.Thumbprint(crypto.SHA256)
	if err != nil {
		c.Printf("solve: error computing account JWK thumbprint: %s", err.Error())
		return
	}
	encodedThumbprint := base64.RawURLEncoding.EncodeToString(thumbprint)
	keyAuth := fmt.Sprintf("%s.%s", token, encodedThumbprint)
	if opts.printKeyAuthorization {
		c.Printf("key authorization:\n%s\n", keyAuth)
	}

	switch strings.ToUpper(string(chall.Type)) {
	case "HTTP-01":
		challSrv.AddHTTPOneChallenge(token, keyAuth)
	case "DNS-01":
		challSrv.AddDNSOneChallenge(authz.Identifier.Value, keyAuth)
	case "TLS-ALPN-01":
		challSrv.AddTLSALPNChallenge(authz.Identifier.Value, keyAuth)
	default:
		c.Printf("challenge %q has unknown type: %q\n", chall.URL, chall.Type)
		return
	}
	c.Printf("Challenge response ready\n")

	signResult, err := client.Sign(chall.URL, []byte("{}"), nil)
	if err != nil {
		c.Printf("solve: failed to sign challenge POST body: %s\n", err.Error())
		return
	}

	resp := client.PostURL(chall.URL, signResult.SerializedJWS, nil)
	if resp.Err != nil {
		c.Printf("solve: failed to POST challenge %q: %v\n", chall.URL, resp.Err)
		return
	}
	if resp.Resp.StatusCode != http.StatusOK {
		c.Printf("solve: failed to POST %q challenge. Status code: %d\n", chall.URL, resp.Resp.StatusCode)
		c.Printf("solve: response body: %s\n", resp.Body)
		return
	}
	c.Printf("solve: %q challenge for identifier %q (%q) started\n", chall.Type, authz.Identifier.Value, chall.URL)
}
