package client

import (
	"encoding/json"
	"log"

	"github.com/go-acme/acmeclient/acme/resources"
)

func (c *Client) getDirectory() (resources.Directory, error) {
	url := c.DirectoryURL.String()

	resp, err := c.net.GetURL(url)
	if err != nil {
		return resources.Directory{}, err
	}

	var directory resources.Directory
	if err := json.Unmarshal(resp.RespBody, &directory); err != nil {
		return resources.Directory{}, err
	}

	return directory, nil
}

// Directory returns the ACME server's directory resource, fetching it first
// if it has not yet been cached.
//
// See https://tools.ietf.org/html/rfc8555#section-7.1.1
func (c *Client) Directory() (resources.Directory, error) {
	if c.directory.NewNonce == "" {
		if err := c.UpdateDirectory(); err != nil {
			return resources.Directory{}, err
		}
	}

	return c.directory, nil
}

// UpdateDirectory updates the Client's cached directory used when
// referencing the endpoints for updating nonces, creating accounts, and
// creating orders.
func (c *Client) UpdateDirectory() error {
	newDir, err := c.getDirectory()
	if err != nil {
		return err
	}

	c.directory = newDir
	log.Printf("Updated directory")
	return nil
}

// GetEndpointURL returns the named endpoint URL from the cached directory.
// Supported names are the acme.*_ENDPOINT constants. If the endpoint is
// unset in the directory (e.g. the server does not support revokeCert) an
// empty string and false are returned.
func (c *Client) GetEndpointURL(name string) (string, bool) {
	dir, err := c.Directory()
	if err != nil {
		return "", false
	}
	var v string
	switch name {
	case "newNonce":
		v = dir.NewNonce
	case "newAccount":
		v = dir.NewAccount
	case "newOrder":
		v = dir.NewOrder
	case "revokeCert":
		v = dir.RevokeCert
	case "keyChange":
		v = dir.KeyChange
	}
	if v == "" {
		return "", false
	}
	return v, true
}
