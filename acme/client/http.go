package client

import (
	"encoding/json"
	"net/http"

	acmenet "github.com/go-acme/acmeclient/net"
)

// HTTPOptions controls what a GetURL/PostURL call prints for interactive
// shell debugging.
type HTTPOptions struct {
	PrintHeaders  bool
	PrintStatus   bool
	PrintResponse bool
}

// ResponseCtx carries the outcome of a GetURL/PostURL call.
type ResponseCtx struct {
	Body []byte
	Resp *http.Response
	Err  error
}

var defaultHTTPOptions = &HTTPOptions{}

// GetURL issues an unauthenticated GET to url.
func (c *Client) GetURL(url string, opts *HTTPOptions) ResponseCtx {
	netResp, err := c.net.GetURL(url)
	ctx := responseCtxFrom(netResp, err)
	c.printHTTPResponse(ctx, opts)
	return ctx
}

// PostURL POSTs body (expected to be a serialized JWS) to url.
func (c *Client) PostURL(url string, body []byte, opts *HTTPOptions) ResponseCtx {
	netResp, err := c.net.PostURL(url, body)
	ctx := responseCtxFrom(netResp, err)
	c.printHTTPResponse(ctx, opts)
	return ctx
}

func responseCtxFrom(netResp *acmenet.NetResponse, err error) ResponseCtx {
	if err != nil {
		return ResponseCtx{Err: err}
	}
	return ResponseCtx{Body: netResp.RespBody, Resp: netResp.Response}
}

func (c *Client) printHTTPResponse(respCtx ResponseCtx, opts *HTTPOptions) {
	if opts == nil {
		opts = defaultHTTPOptions
	}
	if opts.PrintStatus {
		if respCtx.Resp != nil {
			c.Printf("Response Status: %s\n", respCtx.Resp.Status)
		} else {
			c.Printf("Response was nil\n")
		}
	}
	if opts.PrintHeaders && respCtx.Resp != nil {
		headerBytes, _ := json.MarshalIndent(&respCtx.Resp.Header, "", "  ")
		c.Printf("Response Headers: \n%s\n", string(headerBytes))
	}
	if opts.PrintResponse {
		c.Printf("Response body:\n%s\n", string(respCtx.Body))
	}
}
