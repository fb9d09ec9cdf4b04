package resources

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAccountKeyPrecomputesPKCS8AndThumbprint(t *testing.T) {
	acct, err := NewAccountKey([]string{"mailto:admin@example.test"})
	require.NoError(t, err)
	require.NotNil(t, acct.Key)
	require.NotEmpty(t, acct.KeyPKCS8)
	require.NotEmpty(t, acct.Thumbprint)
	require.Empty(t, acct.ID, "a freshly generated account has no server-assigned ID yet")
	require.Equal(t, []string{"mailto:admin@example.test"}, acct.Contact)
}

func TestAccountStringIsEmptyBeforeCreation(t *testing.T) {
	acct, err := NewAccountKey(nil)
	require.NoError(t, err)
	require.Equal(t, "", acct.String())

	acct.ID = "https://example.test/acme/acct/1"
	require.Equal(t, acct.ID, acct.String())
}

func TestAccountStringOnNilReceiver(t *testing.T) {
	var acct *Account
	require.Equal(t, "", acct.String())
}

func TestOrderURLBoundsChecking(t *testing.T) {
	acct := &Account{Orders: []string{"https://example.test/acme/order/1"}}

	url, err := acct.OrderURL(0)
	require.NoError(t, err)
	require.Equal(t, "https://example.test/acme/order/1", url)

	_, err = acct.OrderURL(1)
	require.Error(t, err)

	_, err = acct.OrderURL(-1)
	require.Error(t, err)
}

func TestOrderURLOnAccountWithNoOrders(t *testing.T) {
	acct := &Account{}
	_, err := acct.OrderURL(0)
	require.Error(t, err)
}

func TestCredentialsRoundTrip(t *testing.T) {
	acct, err := NewAccountKey([]string{"mailto:admin@example.test"})
	require.NoError(t, err)
	acct.ID = "https://example.test/acme/acct/9"
	acct.Directory = Directory{NewNonce: "https://example.test/acme/new-nonce"}

	creds := acct.Credentials()
	require.Equal(t, acct.ID, creds.ID)
	require.Equal(t, acct.Directory, creds.URLs)

	restored, err := FromCredentials(creds)
	require.NoError(t, err)
	require.Equal(t, acct.ID, restored.ID)
	require.Equal(t, acct.Directory, restored.Directory)
	require.Equal(t, acct.Thumbprint, restored.Thumbprint)
	require.Equal(t, acct.Key.D, restored.Key.D)
}

func TestFromCredentialsRejectsGarbageKey(t *testing.T) {
	_, err := FromCredentials(AccountCredentials{KeyPKCS8: "not-valid-base64url-der!!"})
	require.Error(t, err)
}

func TestSaveAndRestoreAccountRoundTrip(t *testing.T) {
	acct, err := NewAccountKey([]string{"mailto:admin@example.test"})
	require.NoError(t, err)
	acct.ID = "https://example.test/acme/acct/3"

	path := filepath.Join(t.TempDir(), "account.json")
	require.NoError(t, SaveAccount(path, acct))

	restored, err := RestoreAccount(path)
	require.NoError(t, err)
	require.Equal(t, acct.ID, restored.ID)
	require.Equal(t, acct.Thumbprint, restored.Thumbprint)
}

func TestSaveAccountRejectsNil(t *testing.T) {
	err := SaveAccount(filepath.Join(t.TempDir(), "account.json"), nil)
	require.Error(t, err)
}

func TestRestoreAccountMissingFile(t *testing.T) {
	_, err := RestoreAccount(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.Error(t, err)
}

func TestDNSIdentifier(t *testing.T) {
	ident := DNSIdentifier("example.test")
	require.Equal(t, "dns", ident.Type)
	require.Equal(t, "example.test", ident.Value)
}

func TestProblemErrorFormatsTypeAndDetail(t *testing.T) {
	p := &Problem{Type: "urn:ietf:params:acme:error:malformed", Detail: "request body was garbage"}
	require.Equal(t, "urn:ietf:params:acme:error:malformed: request body was garbage", p.Error())
}

func TestProblemErrorOnNilReceiver(t *testing.T) {
	var p *Problem
	require.Equal(t, "<nil problem>", p.Error())
}

func TestOrderStringIsID(t *testing.T) {
	order := Order{ID: "https://example.test/acme/order/7"}
	require.Equal(t, order.ID, order.String())
}

func TestAuthorizationStringIsID(t *testing.T) {
	authz := Authorization{ID: "https://example.test/acme/authz/4"}
	require.Equal(t, authz.ID, authz.String())
}

func TestChallengeStringIsURL(t *testing.T) {
	chall := Challenge{URL: "https://example.test/acme/chall/2"}
	require.Equal(t, chall.URL, chall.String())
}
