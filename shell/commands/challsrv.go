package commands

// ChallengeServer is the subset of github.com/letsencrypt/challtestsrv's
// *ChallSrv API that acmeshell commands use to stage challenge responses.
// Commands interact with it only through this interface so that the
// embedded in-process server (wired up in shell.NewACMEShell) and any future
// alternative implementation are interchangeable.
type ChallengeServer interface {
	// Start/stop the challenge server
	Run()
	Shutdown()

	// HTTP-01 challenge add/remove
	AddHTTPOneChallenge(token string, keyAuth string)
	DeleteHTTPOneChallenge(token string)

	// DNS-01 challenge add/remove
	AddDNSOneChallenge(host string, keyAuth string)
	DeleteDNSOneChallenge(host string)

	// TLS-ALPN-01 challenge add/remove
	AddTLSALPNChallenge(host string, keyAuth string)
	DeleteTLSALPNChallenge(host string)

	// Default IPv4/IPv6
	SetDefaultDNSIPv4(addr string)
	SetDefaultDNSIPv6(addr string)

	// Mock DNS A records
	AddDNSARecord(host string, addresses []string)
	DeleteDNSARecord(host string)

	// Mock DNS AAAA records
	AddDNSAAAARecord(host string, addresses []string)
	DeleteDNSAAAARecord(host string)
}
