package client

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"unicode/utf8"

	"github.com/go-acme/acmeclient/acme"
	"github.com/go-acme/acmeclient/acme/keys"
	"github.com/go-acme/acmeclient/acme/resources"
)

// fixedNonceSource implements jose.NonceSource by always returning the same,
// already-fetched nonce. Used by Order-scoped operations, which obtain their
// nonce independently of the Client's own slot via headNonce.
type fixedNonceSource string

func (f fixedNonceSource) Nonce() (string, error) {
	return string(f), nil
}

// CreateAccount creates the given Account resource with the ACME server. The
// Account is updated with the ID returned in the server's response's
// Location header if the operation is successful, otherwise an error is
// returned. If eab is non-nil the request is bound to the existing CA
// account it identifies per RFC 8555 §7.3.4.
//
// Important: This function always unconditionally agrees to the server's
// terms of service.
//
// See https://tools.ietf.org/html/rfc8555#section-7.3
func (c *Client) CreateAccount(acct *resources.Account, eab *resources.ExternalAccountKey) error {
	if c.nonce == "" {
		if err := c.RefreshNonce(); err != nil {
			return err
		}
	}
	if acct.ID != "" {
		return fmt.Errorf("create: account already exists under ID %q", acct.ID)
	}

	newAcctURL, ok := c.GetEndpointURL(acme.NEW_ACCOUNT_ENDPOINT)
	if !ok {
		return fmt.Errorf(
			"create: ACME server missing %q endpoint in directory",
			acme.NEW_ACCOUNT_ENDPOINT)
	}

	newAcctReq := resources.NewAccount{
		Contact:              acct.Contact,
		TermsOfServiceAgreed: true,
	}

	reqBody, err := buildNewAccountBody(acct, newAcctReq, eab, newAcctURL)
	if err != nil {
		return err
	}

	signResult, err := c.Sign(
		newAcctURL,
		reqBody,
		&SigningOptions{
			EmbedKey: true,
			Signer:   acct.Key,
		})
	if err != nil {
		return fmt.Errorf("create: %s", err)
	}

	log.Printf("Sending %q request (contact: %s) to %q",
		acme.NEW_ACCOUNT_ENDPOINT, acct.Contact, newAcctURL)
	resp := c.PostURL(newAcctURL, signResult.SerializedJWS, nil)
	if resp.Err != nil {
		return resp.Err
	}

	respOb := resp.Resp
	if respOb.StatusCode != http.StatusCreated && respOb.StatusCode != http.StatusOK {
		return problemOrStatus(respOb, resp.Body)
	}

	locHeader := respOb.Header.Get("Location")
	if locHeader == "" {
		return fmt.Errorf("create: server returned response with no Location header")
	}

	acct.ID = locHeader
	acct.Directory = c.directory
	log.Printf("Created account with ID %q\n", acct.ID)
	return nil
}

// buildNewAccountBody marshals req, optionally appending an
// externalAccountBinding built by signing acct's public JWK with eab's
// HMAC-SHA256 key (RFC 8555 §7.3.4). The inner JWS has no nonce and uses
// eab.ID as its kid.
func buildNewAccountBody(acct *resources.Account, req resources.NewAccount, eab *resources.ExternalAccountKey, newAcctURL string) ([]byte, error) {
	if eab == nil {
		return json.Marshal(req)
	}

	jwk := keys.PublicJWK(acct.Key)
	jwkJSON, err := json.Marshal(&jwk)
	if err != nil {
		return nil, fmt.Errorf("marshaling account JWK for EAB: %w", err)
	}

	eabEnvelope, err := keys.SignEAB(eab.HMACKey, eab.ID, newAcctURL, jwkJSON)
	if err != nil {
		return nil, fmt.Errorf("signing EAB inner JWS: %w", err)
	}

	wire := struct {
		resources.NewAccount
		ExternalAccountBinding json.RawMessage `json:"externalAccountBinding"`
	}{
		NewAccount:             req,
		ExternalAccountBinding: eabEnvelope.JSON,
	}
	return json.Marshal(&wire)
}

// CreateOrder creates the given Order resource with the ACME server. If the
// operation is successful the Order's ID field is populated with the value
// of the server's reply's Location header and the order's private nonce
// slot is set from the response's Replay-Nonce. Otherwise a non-nil error
// is returned.
//
// See https://tools.ietf.org/html/rfc8555#section-7.4
func (c *Client) CreateOrder(order *resources.Order) error {
	if c.ActiveAccountID() == "" {
		return fmt.Errorf("createOrder: active account is nil or has not been created")
	}

	// Each Order is its own conversation: it obtains its own initial nonce
	// via HEAD newNonce rather than consuming the Client's.
	nonce, err := c.headNonce()
	if err != nil {
		return err
	}

	req := resources.NewOrder{Identifiers: order.Identifiers}
	reqBody, err := json.Marshal(req)
	if err != nil {
		return err
	}

	newOrderURL, ok := c.GetEndpointURL(acme.NEW_ORDER_ENDPOINT)
	if !ok {
		return fmt.Errorf(
			"createOrder: ACME server missing %q endpoint in directory",
			acme.NEW_ORDER_ENDPOINT)
	}

	signResult, err := c.Sign(newOrderURL, reqBody, &SigningOptions{
		KeyID:       c.ActiveAccountID(),
		Signer:      c.ActiveAccount.Key,
		NonceSource: fixedNonceSource(nonce),
	})
	if err != nil {
		return fmt.Errorf("createOrder: %s", err)
	}

	resp := c.PostURL(newOrderURL, signResult.SerializedJWS, nil)
	if resp.Err != nil {
		return resp.Err
	}

	respOb := resp.Resp
	if respOb.StatusCode != http.StatusCreated {
		return problemOrStatus(respOb, resp.Body)
	}

	locHeader := respOb.Header.Get("Location")
	if locHeader == "" {
		return fmt.Errorf("createOrder: server returned response with no Location header")
	}

	if err := json.Unmarshal(resp.Body, order); err != nil {
		return fmt.Errorf("createOrder: server returned invalid JSON: %s", err)
	}

	order.ID = locHeader
	order.Account = c.ActiveAccount
	order.Nonce = nonceFromResponse(respOb)
	log.Printf("Created new order with ID %q\n", order.ID)
	c.ActiveAccount.Orders = append(c.ActiveAccount.Orders, order.ID)
	return nil
}

// postAsGetOrder signs and POSTs an empty payload ("POST-as-GET", RFC 8555
// §6.3) to url using order's private nonce slot (HEAD newNonce first if the
// slot is empty), updates the slot from the response, and returns the
// response body. When the Client's PostAsGet is false it issues a plain GET
// to url instead and leaves the slot untouched. The caller is responsible
// for unmarshaling the body into the expected resource.
func (c *Client) postAsGetOrder(order *resources.Order, url string) ([]byte, error) {
	if order == nil || order.Account == nil {
		return nil, errors.New("postAsGetOrder: order must have an owning Account")
	}

	if !c.PostAsGet {
		resp := c.GetURL(url, nil)
		if resp.Err != nil {
			return nil, resp.Err
		}
		if resp.Resp.StatusCode >= 400 {
			return nil, problemOrStatus(resp.Resp, resp.Body)
		}
		return resp.Body, nil
	}

	nonce := order.Nonce
	if nonce == "" {
		var err error
		nonce, err = c.headNonce()
		if err != nil {
			return nil, err
		}
	}

	signResult, err := c.Sign(url, []byte{}, &SigningOptions{
		KeyID:       order.Account.ID,
		Signer:      order.Account.Key,
		NonceSource: fixedNonceSource(nonce),
	})
	if err != nil {
		return nil, err
	}

	resp := c.PostURL(url, signResult.SerializedJWS, nil)
	if resp.Err != nil {
		return nil, resp.Err
	}

	order.Nonce = nonceFromResponse(resp.Resp)
	if resp.Resp.StatusCode >= 400 {
		return nil, problemOrStatus(resp.Resp, resp.Body)
	}
	return resp.Body, nil
}

// headNonce fetches a fresh Replay-Nonce via HEAD newNonce without
// disturbing the Client's own nonce slot, for use by conversations (Orders)
// that maintain an independent slot.
func (c *Client) headNonce() (string, error) {
	nonceURL, ok := c.GetEndpointURL(acme.NEW_NONCE_ENDPOINT)
	if !ok {
		return "", fmt.Errorf("missing %q entry in ACME server directory", acme.NEW_NONCE_ENDPOINT)
	}
	resp, err := c.net.HeadURL(nonceURL)
	if err != nil {
		return "", err
	}
	nonce := resp.Response.Header.Get(acme.REPLAY_NONCE_HEADER)
	if nonce == "" {
		return "", fmt.Errorf("%q returned no %q header value", acme.NEW_NONCE_ENDPOINT, acme.REPLAY_NONCE_HEADER)
	}
	return nonce, nil
}

// UpdateOrder refreshes order by POST-as-GET against its ID URL, replacing
// its fields (except ID/Account/Nonce) atomically from the response.
func (c *Client) UpdateOrder(order *resources.Order) error {
	if order == nil {
		return fmt.Errorf("updateOrder: order must not be nil")
	}
	if order.ID == "" {
		return fmt.Errorf("updateOrder: order must have an ID")
	}

	body, err := c.postAsGetOrder(order, order.ID)
	if err != nil {
		return err
	}
	var fresh resources.Order
	if err := json.Unmarshal(body, &fresh); err != nil {
		return err
	}
	fresh.ID, fresh.Account, fresh.Nonce = order.ID, order.Account, order.Nonce
	*order = fresh
	return nil
}

// UpdateAuthz refreshes authz by POST-as-GET against its ID URL, threading
// the nonce through order's private slot. If this is successful the authz
// is updated in place.
func (c *Client) UpdateAuthz(order *resources.Order, authz *resources.Authorization) error {
	if authz == nil {
		return fmt.Errorf("UpdateAuthz: authz must not be nil")
	}
	if authz.ID == "" {
		return fmt.Errorf("UpdateAuthz: authz must have an ID")
	}

	body, err := c.postAsGetOrder(order, authz.ID)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, authz)
}

// UpdateChallenge refreshes chall by POST-as-GET against its URL, threading
// the nonce through order's private slot.
func (c *Client) UpdateChallenge(order *resources.Order, chall *resources.Challenge) error {
	if chall == nil {
		return fmt.Errorf("UpdateChallenge: chall must not be nil")
	}
	if chall.URL == "" {
		return fmt.Errorf("UpdateChallenge: chall must have a URL")
	}

	body, err := c.postAsGetOrder(order, chall.URL)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, chall)
}

// SetChallengeReady POSTs the empty JSON object {} to chall's URL, signaling
// the server to attempt validation (RFC 8555 §7.5.1). An error response is
// returned as its problem document; a successful response body is decoded
// into chall in place.
func (c *Client) SetChallengeReady(order *resources.Order, chall *resources.Challenge) error {
	if chall == nil || chall.URL == "" {
		return fmt.Errorf("SetChallengeReady: chall must have a URL")
	}
	if order == nil || order.Account == nil {
		return errors.New("SetChallengeReady: order must have an owning Account")
	}

	nonce := order.Nonce
	if nonce == "" {
		var err error
		nonce, err = c.headNonce()
		if err != nil {
			return err
		}
	}

	signResult, err := c.Sign(chall.URL, []byte("{}"), &SigningOptions{
		KeyID:       order.Account.ID,
		Signer:      order.Account.Key,
		NonceSource: fixedNonceSource(nonce),
	})
	if err != nil {
		return err
	}

	resp := c.PostURL(chall.URL, signResult.SerializedJWS, nil)
	if resp.Err != nil {
		return resp.Err
	}
	order.Nonce = nonceFromResponse(resp.Resp)
	if resp.Resp.StatusCode >= 400 {
		return problemOrStatus(resp.Resp, resp.Body)
	}
	return json.Unmarshal(resp.Body, chall)
}

// DeactivateAccount POSTs {"status":"deactivated"} to acct's ID URL (RFC
// 8555 §7.3.6), signed with acct's own key and kid rather than the
// Client's ActiveAccount, so deactivating a non-active account (selected
// by a caller via its account index) signs correctly under its own key.
// The server revokes the account and refuses any further request signed
// with it.
func (c *Client) DeactivateAccount(acct *resources.Account) error {
	if acct == nil || acct.ID == "" {
		return fmt.Errorf("DeactivateAccount: account must have an ID")
	}

	nonce, err := c.headNonce()
	if err != nil {
		return err
	}

	signResult, err := c.Sign(acct.ID, []byte(`{"status":"deactivated"}`), &SigningOptions{
		KeyID:       acct.ID,
		Signer:      acct.Key,
		NonceSource: fixedNonceSource(nonce),
	})
	if err != nil {
		return err
	}

	resp := c.PostURL(acct.ID, signResult.SerializedJWS, nil)
	if resp.Err != nil {
		return resp.Err
	}
	if resp.Resp.StatusCode != http.StatusOK {
		return problemOrStatus(resp.Resp, resp.Body)
	}
	return nil
}

// DeactivateAuthz POSTs {"status":"deactivated"} to authz's ID URL (RFC
// 8555 §7.5.2), threading the nonce through order's private slot and
// signing with order's owning Account. On success authz is updated in
// place from the response.
func (c *Client) DeactivateAuthz(order *resources.Order, authz *resources.Authorization) error {
	if authz == nil || authz.ID == "" {
		return fmt.Errorf("DeactivateAuthz: authz must have an ID")
	}
	if order == nil || order.Account == nil {
		return errors.New("DeactivateAuthz: order must have an owning Account")
	}

	nonce := order.Nonce
	if nonce == "" {
		var err error
		nonce, err = c.headNonce()
		if err != nil {
			return err
		}
	}

	signResult, err := c.Sign(authz.ID, []byte(`{"status":"deactivated"}`), &SigningOptions{
		KeyID:       order.Account.ID,
		Signer:      order.Account.Key,
		NonceSource: fixedNonceSource(nonce),
	})
	if err != nil {
		return err
	}

	resp := c.PostURL(authz.ID, signResult.SerializedJWS, nil)
	if resp.Err != nil {
		return resp.Err
	}
	order.Nonce = nonceFromResponse(resp.Resp)
	if resp.Resp.StatusCode != http.StatusOK {
		return problemOrStatus(resp.Resp, resp.Body)
	}
	return json.Unmarshal(resp.Body, authz)
}

// Finalize POSTs the order's CSR to its finalize URL (RFC 8555 §7.4) and
// replaces the order's state from the response.
func (c *Client) Finalize(order *resources.Order, csrDER []byte) error {
	if order == nil || order.Finalize == "" {
		return fmt.Errorf("finalize: order must have a Finalize URL")
	}

	finalizeReq := struct {
		CSR string `json:"csr"`
	}{CSR: base64.RawURLEncoding.EncodeToString(csrDER)}

	reqBody, err := json.Marshal(&finalizeReq)
	if err != nil {
		return err
	}

	nonce := order.Nonce
	if nonce == "" {
		nonce, err = c.headNonce()
		if err != nil {
			return err
		}
	}

	signResult, err := c.Sign(order.Finalize, reqBody, &SigningOptions{
		KeyID:       order.Account.ID,
		Signer:      order.Account.Key,
		NonceSource: fixedNonceSource(nonce),
	})
	if err != nil {
		return err
	}

	resp := c.PostURL(order.Finalize, signResult.SerializedJWS, nil)
	if resp.Err != nil {
		return resp.Err
	}
	order.Nonce = nonceFromResponse(resp.Resp)
	if resp.Resp.StatusCode >= 400 {
		return problemOrStatus(resp.Resp, resp.Body)
	}
	var fresh resources.Order
	if err := json.Unmarshal(resp.Body, &fresh); err != nil {
		return err
	}
	fresh.ID, fresh.Account, fresh.Nonce = order.ID, order.Account, order.Nonce
	*order = fresh
	return nil
}

// Certificate implements the polling read described in spec §4.5:
//   - if Status is "processing", refresh once;
//   - a problem document present after that is a fatal error;
//   - if still "processing", certificate is not yet available (empty
//     string, nil error);
//   - any status other than "valid" at this point is a protocol error;
//   - otherwise POST-as-GET the certificate URL and return the PEM chain.
func (c *Client) Certificate(order *resources.Order) (string, error) {
	if order.Status == resources.StatusProcessing {
		if err := c.UpdateOrder(order); err != nil {
			return "", err
		}
	}

	if order.Error != nil {
		return "", acme.NewAPIError(order.Error)
	}
	if order.Status == resources.StatusProcessing {
		return "", nil
	}
	if order.Status != resources.StatusValid {
		return "", acme.NewProtocolError(fmt.Sprintf("invalid order state %q", order.Status))
	}
	if order.Certificate == "" {
		return "", acme.NewProtocolError("order is valid but has no certificate URL")
	}

	body, err := c.postAsGetOrder(order, order.Certificate)
	if err != nil {
		return "", err
	}
	if !isValidUTF8(body) {
		return "", acme.NewProtocolError("certificate response was not valid UTF-8")
	}
	return string(body), nil
}

func isValidUTF8(b []byte) bool {
	return utf8.Valid(b)
}

// OrderByIndex returns the client's ActiveAccount's i'th order, refreshed
// from the server.
func (c *Client) OrderByIndex(index int) (*resources.Order, error) {
	if c.ActiveAccountID() == "" {
		return nil, errors.New(
			"OrderByIndex: active account is nil or has not been created")
	}

	orderURL, err := c.ActiveAccount.OrderURL(index)
	if err != nil {
		return nil, err
	}

	order := &resources.Order{ID: orderURL, Account: c.ActiveAccount}
	if err := c.UpdateOrder(order); err != nil {
		return nil, err
	}
	return order, nil
}

// AuthzByIdentifier finds the Authorization in order matching identifier,
// fetching each of order's authorizations in turn until found.
func (c *Client) AuthzByIdentifier(order *resources.Order, identifier string) (*resources.Authorization, error) {
	if order == nil {
		return nil, errors.New("AuthzByIdentifier: Order was nil")
	}
	if len(order.Authorizations) == 0 {
		return nil, errors.New("AuthzByIdentifier: Order has no authorizations")
	}

	for _, authzURL := range order.Authorizations {
		authz := &resources.Authorization{ID: authzURL}
		if err := c.UpdateAuthz(order, authz); err != nil {
			return nil, err
		}
		if authz.Identifier.Value == identifier {
			return authz, nil
		}
	}
	return nil, fmt.Errorf(
		"AuthzByIdentifier: Order %q has no authz with identifier %q",
		order.ID, identifier)
}

// problemOrStatus builds an error from a non-2xx response: a parsed RFC 7807
// problem document if one is present, otherwise a generic protocol error
// naming the status code.
func problemOrStatus(resp *http.Response, body []byte) error {
	var p resources.Problem
	if err := json.Unmarshal(body, &p); err == nil && p.Type != "" {
		p.Status = resp.StatusCode
		return acme.NewAPIError(&p)
	}
	return acme.NewProtocolError(fmt.Sprintf("unexpected status %d", resp.StatusCode))
}
