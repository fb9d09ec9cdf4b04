package saveAccount

import (
	"flag"

	"github.com/abiosoft/ishell"
	"github.com/go-acme/acmeclient/acme/resources"
	"github.com/go-acme/acmeclient/shell/commands"
)

func init() {
	commands.RegisterCommand(
		&ishell.Cmd{
			Name:     "saveAccount",
			Aliases:  []string{"save", "saveReg", "saveRegistration"},
			Help:     "Save the active ACME account",
			LongHelp: `TODO(@cpu): Write this!`,
			Func:     saveAccountHandler,
		},
		nil)
}

type saveAccountOptions struct {
	jsonPath string
}

func saveAccountHandler(c *ishell.Context) {
	opts := saveAccountOptions{}
	saveAccountFlags := flag.NewFlagSet("saveAccount", flag.ContinueOnError)
	saveAccountFlags.StringVar(&opts.jsonPath, "json", "", "Filepath to a JSON save file for the account (required)")

	if _, err := commands.ParseFlagSetArgs(c.Args, saveAccountFlags); err != nil {
		return
	}

	client := commands.GetClient(c)

	acct := client.ActiveAccount
	if acct == nil {
		c.Printf("no active account to save")
		return
	}

	jsonPath := opts.jsonPath
	if jsonPath == "" {
		c.Printf("no -json path provided.\n")
		return
	}

	if err := resources.SaveAccount(jsonPath, acct); err != nil {
		c.Printf("error saving account to %q : %v\n", jsonPath, err)
		return
	}

	c.Printf("Saved active account data to %q\n", jsonPath)
}
