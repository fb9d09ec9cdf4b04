// Package net provides the HTTP transport used by acme/client: a Transport
// interface and ACMENet, a TLS-capable implementation of it. acme/client
// always constructs and uses an ACMENet; it accepts no other Transport.
package net

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"os"
	"runtime"
	"strings"
)

const (
	version       = "0.1.0"
	userAgentBase = "go-acme-client"
	locale        = "en-us"
)

// Transport is the request interface ACMENet implements: given an
// *http.Request, synchronously (from the calling goroutine) yield an
// *http.Response. Implementations must not
// follow redirects on their own — the protocol relies on explicit Location
// headers — and must preserve headers case-insensitively, which is true of
// net/http's http.Header by construction.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures the default Transport implementation.
type Config struct {
	// CABundlePath is an optional file path to one or more PEM encoded CA
	// certificates to trust in addition to the system roots. If empty, only
	// the system trust store is used.
	CABundlePath string
}

func (c *Config) normalize() {
	c.CABundlePath = strings.TrimSpace(c.CABundlePath)
}

// ACMENet is the default Transport implementation. It wraps an *http.Client
// configured to refuse redirects (RFC 8555 relies on explicit Location
// headers, never on the client auto-following them) and validates TLS
// against the system trust store, optionally extended with a CA bundle.
type ACMENet struct {
	httpClient *http.Client
}

// New constructs the default Transport. If conf.CABundlePath is empty the
// system trust store alone is used.
func New(conf Config) (*ACMENet, error) {
	conf.normalize()

	tlsConfig := &tls.Config{}
	if conf.CABundlePath != "" {
		pemBundle, err := os.ReadFile(conf.CABundlePath)
		if err != nil {
			return nil, fmt.Errorf("reading CA bundle %q: %w", conf.CABundlePath, err)
		}
		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		if ok := pool.AppendCertsFromPEM(pemBundle); !ok {
			return nil, fmt.Errorf("no certificates parsed from CA bundle %q", conf.CABundlePath)
		}
		tlsConfig.RootCAs = pool
	}

	return &ACMENet{
		httpClient: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig:   tlsConfig,
				ForceAttemptHTTP2: true,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

// NetResponse carries the HTTP response alongside the fully read body and,
// for shell debugging commands, wire dumps of the request and response.
type NetResponse struct {
	Response *http.Response
	RespBody []byte
	RespDump []byte
	ReqDump  []byte
}

// Do satisfies the Transport interface.
func (c *ACMENet) Do(req *http.Request) (*http.Response, error) {
	c.decorate(req)
	return c.httpClient.Do(req)
}

func (c *ACMENet) decorate(req *http.Request) {
	ua := fmt.Sprintf("%s/%s (%s; %s)", userAgentBase, version, runtime.GOOS, runtime.GOARCH)
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept-Language", locale)
}

// request performs req, reading and closing the response body, and returns
// a NetResponse with request/response dumps for shell debug output.
func (c *ACMENet) request(req *http.Request) (*NetResponse, error) {
	c.decorate(req)

	reqDump, err := httputil.DumpRequest(req, true)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respDump, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return nil, err
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &NetResponse{
		Response: resp,
		RespBody: respBody,
		RespDump: respDump,
		ReqDump:  reqDump,
	}, nil
}

// HeadURL issues a HEAD request. Used by the nonce manager to obtain a fresh
// Replay-Nonce without a body round trip.
func (c *ACMENet) HeadURL(url string) (*NetResponse, error) {
	req, err := http.NewRequest(http.MethodHead, url, nil)
	if err != nil {
		return nil, err
	}
	return c.request(req)
}

// PostURL POSTs body to url with the ACME JOSE content type.
func (c *ACMENet) PostURL(url string, body []byte) (*NetResponse, error) {
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/jose+json")
	return c.request(req)
}

// GetURL issues a plain (unauthenticated) GET request. acme/client uses it
// for the directory fetch and, when POST-as-GET is disabled, for resource
// reads.
func (c *ACMENet) GetURL(url string) (*NetResponse, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.request(req)
}
