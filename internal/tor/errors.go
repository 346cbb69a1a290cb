package tor

import "errors"

// Tor connectivity errors.
var (
	// ErrProxyNotTor is returned when the proxy answers but does not speak SOCKS5.
	ErrProxyNotTor = errors.New("proxy is not a Tor SOCKS5 proxy")

	// ErrProxyCannotConnect is returned when no TCP connection to the proxy can be made.
	ErrProxyCannotConnect = errors.New("cannot connect to Tor proxy")

	// ErrProxyTimeout is returned when the proxy does not answer in time.
	ErrProxyTimeout = errors.New("timeout connecting to Tor proxy")

	// ErrProxyAuthFailed is returned when the proxy rejects the configured credentials.
	ErrProxyAuthFailed = errors.New("proxy rejected the SOCKS5 credentials")

	// ErrInvalidProxyAddress is returned when the proxy is neither host:port nor a socks5 URL.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: expected host:port or socks5://host:port")

	// ErrEmbeddedNotRunning is returned when a client is requested before the daemon started.
	ErrEmbeddedNotRunning = errors.New("embedded Tor daemon is not running")
)

// ProxyStatus is the result of checking the Tor proxy.
type ProxyStatus int

const (
	// ProxyStatusOK indicates a working SOCKS5 proxy.
	ProxyStatusOK ProxyStatus = iota

	// ProxyStatusWrongType indicates the peer answered but not as a SOCKS5 proxy.
	ProxyStatusWrongType

	// ProxyStatusCannotConnect indicates no TCP connection could be made.
	ProxyStatusCannotConnect

	// ProxyStatusTimeout indicates the check ran out of time.
	ProxyStatusTimeout

	// ProxyStatusAuthFailed indicates the credentials were rejected.
	ProxyStatusAuthFailed
)

// String returns a human-readable description of the proxy status.
func (s ProxyStatus) String() string {
	switch s {
	case ProxyStatusOK:
		return "OK"
	case ProxyStatusWrongType:
		return "wrong type (not Tor)"
	case ProxyStatusCannotConnect:
		return "cannot connect"
	case ProxyStatusTimeout:
		return "timeout"
	case ProxyStatusAuthFailed:
		return "authentication failed"
	default:
		return "unknown"
	}
}

// Error returns the sentinel error for this status, or nil if OK.
func (s ProxyStatus) Error() error {
	switch s {
	case ProxyStatusOK:
		return nil
	case ProxyStatusWrongType:
		return ErrProxyNotTor
	case ProxyStatusCannotConnect:
		return ErrProxyCannotConnect
	case ProxyStatusTimeout:
		return ErrProxyTimeout
	case ProxyStatusAuthFailed:
		return ErrProxyAuthFailed
	default:
		return errors.New("unknown proxy status")
	}
}
