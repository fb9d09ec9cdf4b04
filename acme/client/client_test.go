package client

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-acme/acmeclient/acme"
	"github.com/go-acme/acmeclient/acme/keys"
	"github.com/go-acme/acmeclient/acme/resources"
)

// flatJWS is the flattened JWS JSON Serialization shape produced by
// (*jose.JSONWebSignature).FullSerialize, used here to pick apart the EAB
// inner JWS nested in a newAccount request's externalAccountBinding field.
type flatJWS struct {
	Protected string `json:"protected"`
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

// jwsEnvelope is the subset of the JWS flattened JSON serialization this
// package's mock CA needs to inspect: the base64url payload. It never
// verifies the signature, only reads the claimed body, since these tests
// exercise the client's state machine rather than JOSE internals.
type jwsEnvelope struct {
	Payload string `json:"payload"`
}

func decodeJWSPayload(t *testing.T, body []byte) []byte {
	t.Helper()
	var env jwsEnvelope
	require.NoError(t, json.Unmarshal(body, &env))
	if env.Payload == "" {
		return []byte{}
	}
	decoded, err := base64.RawURLEncoding.DecodeString(env.Payload)
	require.NoError(t, err)
	return decoded
}

// nonceCounter hands out unique Replay-Nonce values across every mock CA in
// this file's tests.
var nonceCounter int64

func freshNonce() string {
	return "nonce-" + base64.RawURLEncoding.EncodeToString([]byte{byte(atomic.AddInt64(&nonceCounter, 1))})
}

// mockCA is a minimal single-order ACME server: just enough state machine to
// drive an order from creation through a validated http-01 challenge to
// a finalized, downloadable certificate.
type mockCA struct {
	srv *httptest.Server
	t   *testing.T

	orderStatus string
	authzStatus resources.AuthorizationStatus
	challStatus resources.ChallengeStatus
	certBody    string
}

func newMockCA(t *testing.T) *mockCA {
	t.Helper()
	ca := &mockCA{
		t:           t,
		orderStatus: resources.StatusPending,
		authzStatus: resources.AuthorizationPending,
		challStatus: resources.ChallengePending,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/directory", ca.handleDirectory)
	mux.HandleFunc("/new-nonce", ca.handleNewNonce)
	mux.HandleFunc("/new-acct", ca.handleNewAccount)
	mux.HandleFunc("/new-order", ca.handleNewOrder)
	mux.HandleFunc("/order/1", ca.handleOrder)
	mux.HandleFunc("/authz/1", ca.handleAuthz)
	mux.HandleFunc("/chall/1", ca.handleChallenge)
	mux.HandleFunc("/finalize/1", ca.handleFinalize)
	mux.HandleFunc("/cert/1", ca.handleCertificate)

	ca.srv = httptest.NewServer(mux)
	t.Cleanup(ca.srv.Close)
	return ca
}

func (ca *mockCA) url(path string) string {
	return ca.srv.URL + path
}

func (ca *mockCA) handleDirectory(w http.ResponseWriter, r *http.Request) {
	dir := resources.Directory{
		NewNonce:   ca.url("/new-nonce"),
		NewAccount: ca.url("/new-acct"),
		NewOrder:   ca.url("/new-order"),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dir)
}

func (ca *mockCA) handleNewNonce(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(acme.REPLAY_NONCE_HEADER, freshNonce())
	w.WriteHeader(http.StatusOK)
}

func (ca *mockCA) handleNewAccount(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(acme.REPLAY_NONCE_HEADER, freshNonce())
	w.Header().Set("Location", ca.url("/acct/1"))
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "valid"})
}

func (ca *mockCA) handleNewOrder(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	payload := decodeJWSPayload(ca.t, body)
	var req resources.NewOrder
	_ = json.Unmarshal(payload, &req)

	order := resources.Order{
		Status:         ca.orderStatus,
		Identifiers:    req.Identifiers,
		Authorizations: []string{ca.url("/authz/1")},
		Finalize:       ca.url("/finalize/1"),
	}
	w.Header().Set(acme.REPLAY_NONCE_HEADER, freshNonce())
	w.Header().Set("Location", ca.url("/order/1"))
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(order)
}

func (ca *mockCA) handleOrder(w http.ResponseWriter, r *http.Request) {
	order := resources.Order{
		Status:         ca.orderStatus,
		Authorizations: []string{ca.url("/authz/1")},
		Finalize:       ca.url("/finalize/1"),
	}
	if ca.orderStatus == resources.StatusValid {
		order.Certificate = ca.url("/cert/1")
	}
	w.Header().Set(acme.REPLAY_NONCE_HEADER, freshNonce())
	_ = json.NewEncoder(w).Encode(order)
}

func (ca *mockCA) handleAuthz(w http.ResponseWriter, r *http.Request) {
	authz := resources.Authorization{
		Status:     ca.authzStatus,
		Identifier: resources.DNSIdentifier("example.test"),
		Challenges: []resources.Challenge{
			{
				Type:   resources.ChallengeHTTP01,
				URL:    ca.url("/chall/1"),
				Token:  "token-abc",
				Status: ca.challStatus,
			},
		},
	}
	w.Header().Set(acme.REPLAY_NONCE_HEADER, freshNonce())
	_ = json.NewEncoder(w).Encode(authz)
}

func (ca *mockCA) handleChallenge(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	payload := decodeJWSPayload(ca.t, body)

	// A non-empty ("{}") payload is the "ready" trigger (RFC 8555 §7.5.1);
	// an empty payload is a POST-as-GET poll. Triggering immediately
	// resolves the challenge and its parent authorization/order, since this
	// mock has no asynchronous validator.
	if len(payload) > 0 {
		ca.challStatus = resources.ChallengeValid
		ca.authzStatus = resources.AuthorizationValid
		ca.orderStatus = resources.StatusReady
	}

	w.Header().Set(acme.REPLAY_NONCE_HEADER, freshNonce())
	_ = json.NewEncoder(w).Encode(resources.Challenge{
		Type:   resources.ChallengeHTTP01,
		URL:    ca.url("/chall/1"),
		Token:  "token-abc",
		Status: ca.challStatus,
	})
}

func (ca *mockCA) handleFinalize(w http.ResponseWriter, r *http.Request) {
	ca.orderStatus = resources.StatusValid
	ca.certBody = "-----BEGIN CERTIFICATE-----\nmockcert\n-----END CERTIFICATE-----\n"

	w.Header().Set(acme.REPLAY_NONCE_HEADER, freshNonce())
	_ = json.NewEncoder(w).Encode(resources.Order{
		Status:         ca.orderStatus,
		Authorizations: []string{ca.url("/authz/1")},
		Finalize:       ca.url("/finalize/1"),
		Certificate:    ca.url("/cert/1"),
	})
}

func (ca *mockCA) handleCertificate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(acme.REPLAY_NONCE_HEADER, freshNonce())
	w.Header().Set("Content-Type", acme.CERT_CHAIN_CONTENT_TYPE)
	_, _ = w.Write([]byte(ca.certBody))
}

func newTestClient(t *testing.T, ca *mockCA) *Client {
	t.Helper()
	c, err := NewClient(ClientConfig{
		DirectoryURL: ca.url("/directory"),
		AutoRegister: true,
		ContactEmail: "admin@example.test",
	})
	require.NoError(t, err)
	require.NotNil(t, c.ActiveAccount)
	require.NotEmpty(t, c.ActiveAccountID())
	return c
}

func TestFullOrderLifecycle(t *testing.T) {
	ca := newMockCA(t)
	client := newTestClient(t, ca)

	order := &resources.Order{Identifiers: []resources.Identifier{resources.DNSIdentifier("example.test")}}
	require.NoError(t, client.CreateOrder(order))
	require.NotEmpty(t, order.ID)
	require.Len(t, order.Authorizations, 1)
	require.Contains(t, client.ActiveAccount.Orders, order.ID)

	authz, err := client.AuthzByIdentifier(order, "example.test")
	require.NoError(t, err)
	require.Equal(t, resources.AuthorizationPending, authz.Status)
	require.Len(t, authz.Challenges, 1)

	chall := &authz.Challenges[0]
	require.NoError(t, client.SetChallengeReady(order, chall))
	require.Equal(t, resources.ChallengeValid, chall.Status)

	require.NoError(t, client.UpdateAuthz(order, authz))
	require.Equal(t, resources.AuthorizationValid, authz.Status)

	require.NoError(t, client.UpdateOrder(order))
	require.Equal(t, resources.StatusReady, order.Status)

	require.NoError(t, client.Finalize(order, []byte("fake-csr-der")))
	require.Equal(t, resources.StatusValid, order.Status)
	require.NotEmpty(t, order.Certificate)

	certPEM, err := client.Certificate(order)
	require.NoError(t, err)
	require.Contains(t, certPEM, "BEGIN CERTIFICATE")
}

func TestDirectoryIsFetchedOnceAndCached(t *testing.T) {
	ca := newMockCA(t)
	var directoryHits int32
	ca.srv.Config.Handler = countingWrapper(ca.srv.Config.Handler, "/directory", &directoryHits)

	client := newTestClient(t, ca)

	_, err := client.Directory()
	require.NoError(t, err)
	_, err = client.Directory()
	require.NoError(t, err)

	require.Equal(t, int32(1), atomic.LoadInt32(&directoryHits),
		"Directory must only hit the wire once; NewClient's own fetch already primed the cache")
}

func countingWrapper(next http.Handler, path string, counter *int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == path {
			atomic.AddInt32(counter, 1)
		}
		next.ServeHTTP(w, r)
	})
}

func TestCreateAccountRejectsAlreadyCreatedAccount(t *testing.T) {
	ca := newMockCA(t)
	client := newTestClient(t, ca)

	err := client.CreateAccount(client.ActiveAccount, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "already exists")
}

func TestCertificateProcessingOrderReturnsEmptyStringNoError(t *testing.T) {
	ca := newMockCA(t)
	client := newTestClient(t, ca)
	ca.orderStatus = resources.StatusProcessing

	order := &resources.Order{ID: ca.url("/order/1"), Account: client.ActiveAccount, Status: resources.StatusProcessing}
	cert, err := client.Certificate(order)
	require.NoError(t, err)
	require.Empty(t, cert)
}

func TestCertificateInvalidOrderReturnsAPIError(t *testing.T) {
	ca := newMockCA(t)
	client := newTestClient(t, ca)

	order := &resources.Order{
		Status: resources.StatusInvalid,
		Error:  &resources.Problem{Type: "urn:ietf:params:acme:error:rejectedIdentifier", Detail: "no thanks"},
	}
	_, err := client.Certificate(order)
	require.Error(t, err)

	var aerr *acme.Error
	require.ErrorAs(t, err, &aerr)
	require.Equal(t, acme.KindAPI, aerr.Kind)
}

func TestNewClientFailsOnDirectoryMissingNewNonce(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/directory", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(resources.Directory{})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	_, err := NewClient(ClientConfig{DirectoryURL: srv.URL + "/directory"})
	require.Error(t, err)
}

func TestCreateAccountSurfacesBadNonceProblemDocument(t *testing.T) {
	ca := newMockCA(t)
	rejectingMux := http.NewServeMux()
	rejectingMux.HandleFunc("/directory", ca.handleDirectory)
	rejectingMux.HandleFunc("/new-nonce", ca.handleNewNonce)
	rejectingMux.HandleFunc("/new-acct", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(acme.REPLAY_NONCE_HEADER, freshNonce())
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(resources.Problem{
			Type:   acme.BAD_NONCE_PROBLEM,
			Detail: "JWS has an invalid anti-replay nonce",
			Status: http.StatusBadRequest,
		})
	})
	ca.srv.Config.Handler = rejectingMux

	_, err := NewClient(ClientConfig{
		DirectoryURL: ca.url("/directory"),
		AutoRegister: true,
	})
	require.Error(t, err)
	require.True(t, acme.IsBadNonce(err), "expected a badNonce problem document to be recognized by IsBadNonce")
}

func TestCreateAccountWithEAB(t *testing.T) {
	ca := newMockCA(t)
	hmacKey := []byte("0123456789abcdef0123456789abcdef")
	eabKeyID := "kid-eab-1"

	var captured struct {
		Contact                []string        `json:"contact"`
		TermsOfServiceAgreed   bool            `json:"termsOfServiceAgreed"`
		ExternalAccountBinding json.RawMessage `json:"externalAccountBinding"`
	}

	eabMux := http.NewServeMux()
	eabMux.HandleFunc("/directory", ca.handleDirectory)
	eabMux.HandleFunc("/new-nonce", ca.handleNewNonce)
	eabMux.HandleFunc("/new-acct", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		payload := decodeJWSPayload(ca.t, body)
		require.NoError(t, json.Unmarshal(payload, &captured))
		ca.handleNewAccount(w, r)
	})
	ca.srv.Config.Handler = eabMux

	client, err := NewClient(ClientConfig{
		DirectoryURL: ca.url("/directory"),
		AutoRegister: true,
		ContactEmail: "admin@example.test",
		EAB:          &resources.ExternalAccountKey{ID: eabKeyID, HMACKey: hmacKey},
	})
	require.NoError(t, err)
	require.NotNil(t, client.ActiveAccount)
	require.NotEmpty(t, captured.ExternalAccountBinding, "newAccount request must carry an externalAccountBinding")

	var inner flatJWS
	require.NoError(t, json.Unmarshal(captured.ExternalAccountBinding, &inner))

	headerJSON, err := base64.RawURLEncoding.DecodeString(inner.Protected)
	require.NoError(t, err)
	var header struct {
		Alg   string `json:"alg"`
		Kid   string `json:"kid"`
		Nonce string `json:"nonce"`
		URL   string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(headerJSON, &header))
	require.Equal(t, "HS256", header.Alg)
	require.Equal(t, eabKeyID, header.Kid)
	require.Empty(t, header.Nonce, "EAB inner JWS must not carry a nonce")
	require.Equal(t, ca.url("/new-acct"), header.URL)

	signingInput := inner.Protected + "." + inner.Payload
	mac := hmac.New(sha256.New, hmacKey)
	mac.Write([]byte(signingInput))
	expectedSig := mac.Sum(nil)
	actualSig, err := base64.RawURLEncoding.DecodeString(inner.Signature)
	require.NoError(t, err)
	require.Equal(t, expectedSig, actualSig, "EAB inner JWS signature must verify against the shared HMAC key")

	payloadJSON, err := base64.RawURLEncoding.DecodeString(inner.Payload)
	require.NoError(t, err)
	expectedJWKJSON, err := json.Marshal(keys.PublicJWK(client.ActiveAccount.Key))
	require.NoError(t, err)
	require.JSONEq(t, string(expectedJWKJSON), string(payloadJSON))
}
